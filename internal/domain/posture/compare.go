package posture

import (
	"math"
	"sort"
)

// Issue labels, one per triggered category. Lateral lean is reported as two
// distinct labels sharing one threshold.
const (
	IssueHeadDrop     = "head_drop"
	IssueSlouch       = "slouch"
	IssueLeanLeft     = "lean_left"
	IssueLeanRight    = "lean_right"
	IssueShoulderTilt = "shoulder_tilt"
	IssueForwardLean  = "forward_lean"
)

// Maximum penalty weight per category. Weights intentionally sum past 100:
// simultaneous issues compound and the score clamps at zero.
const (
	weightHeadDrop     = 30
	weightSlouch       = 35
	weightLean         = 20
	weightShoulderTilt = 20
	weightForwardLean  = 25
)

// severitySaturation is the multiple of a category's threshold at which
// severity reaches 1.0. A deviation at exactly the threshold scores ~1/3.
const severitySaturation = 3

// maxScore is the score of a posture with no triggered issues.
const maxScore = 100

// shoulderTiltSlack is the minimum amount by which the current tilt
// magnitude must exceed the calibrated one before the category triggers.
// Keeps a naturally uneven resting posture from being penalized.
const shoulderTiltSlack = 0.01

// Issue is one triggered category: its label and the raw metric deviation
// from baseline, before severity weighting.
type Issue struct {
	Label     string  `json:"label"`
	Deviation float64 `json:"deviation"`
}

// weightedIssue carries the ordering key alongside the reported issue.
type weightedIssue struct {
	Issue
	weighted float64 // severity * weight
}

// Compare scores the current metrics against a calibrated baseline under the
// given thresholds. Returns an integer score in [0,100] and the triggered
// issues ordered worst-first (descending severity*weight, ties broken
// lexicographically by label).
//
// A category whose metrics are missing from either map is skipped outright:
// no penalty, no issue. Absence of data is never read as bad posture.
//
// The fractional result of 100 minus the penalty sum is truncated toward
// zero: score = trunc(100 - penalty); tests pin this rule. Deterministic,
// no input mutation.
func Compare(current, baseline Metrics, cfg Thresholds) (int, []Issue) {
	var triggered []weightedIssue
	penalty := 0.0

	add := func(label string, deviation, threshold float64, weight int) {
		severity := math.Min(1.0, deviation/(threshold*severitySaturation))
		penalty += severity * float64(weight)
		triggered = append(triggered, weightedIssue{
			Issue:    Issue{Label: label, Deviation: deviation},
			weighted: severity * float64(weight),
		})
	}

	// Head drop: nose sinking toward the shoulder line. Only downward
	// movement is penalized.
	if cur, base, ok := pair(current, baseline, MetricHeadDrop); ok {
		if drop := cur - base; drop > cfg.HeadDrop {
			add(IssueHeadDrop, drop, cfg.HeadDrop, weightHeadDrop)
		}
	}

	// Slouch: ear-to-shoulder distance compressing.
	if cur, base, ok := pair(current, baseline, MetricEarShoulder); ok {
		if slouch := base - cur; slouch > cfg.Slouch {
			add(IssueSlouch, slouch, cfg.Slouch, weightSlouch)
		}
	}

	// Lateral lean: signed drift of the nose off its calibrated offset.
	if cur, base, ok := pair(current, baseline, MetricLeanOffset); ok {
		drift := cur - base
		if dev := math.Abs(drift); dev > cfg.Lean {
			label := IssueLeanRight
			if drift < 0 {
				label = IssueLeanLeft
			}
			add(label, dev, cfg.Lean, weightLean)
		}
	}

	// Shoulder tilt: severity tracks the absolute tilt, but the category
	// only triggers when the tilt clearly exceeds the calibrated one.
	if cur, base, ok := pair(current, baseline, MetricShoulderTilt); ok {
		tilt := math.Abs(cur)
		if tilt > cfg.ShoulderTilt && tilt-math.Abs(base) > shoulderTiltSlack {
			add(IssueShoulderTilt, tilt, cfg.ShoulderTilt, weightShoulderTilt)
		}
	}

	// Forward lean: apparent face width growing. Only evaluated when face
	// data exists on both sides of the comparison.
	if cur, base, ok := pair(current, baseline, MetricFaceDistance); ok && cur > 0 && base > 0 {
		if forward := cur - base; forward > cfg.ForwardLean {
			add(IssueForwardLean, forward, cfg.ForwardLean, weightForwardLean)
		}
	}

	sort.Slice(triggered, func(i, j int) bool {
		if triggered[i].weighted != triggered[j].weighted {
			return triggered[i].weighted > triggered[j].weighted
		}
		return triggered[i].Label < triggered[j].Label
	})

	issues := make([]Issue, len(triggered))
	for i, t := range triggered {
		issues[i] = t.Issue
	}

	score := int(float64(maxScore) - penalty)
	if score < 0 {
		score = 0
	}
	return score, issues
}

// pair looks up key in both maps; ok only when both carry it.
func pair(current, baseline Metrics, key string) (cur, base float64, ok bool) {
	cur, okCur := current[key]
	base, okBase := baseline[key]
	return cur, base, okCur && okBase
}
