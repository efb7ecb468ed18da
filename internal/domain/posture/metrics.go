// Package posture contains the calibration-relative detection engine: metric
// extraction from landmarks, baseline comparison with weighted scoring, and
// sensitivity-scaled thresholds. Everything here is pure; the package holds
// no state and performs no I/O.
package posture

import (
	"math"

	"github.com/okian/postura/internal/domain/landmark"
)

// Metric keys. Pose metrics are normalized by inter-shoulder width, face
// metrics by inter-eye width, so values are invariant to subject distance
// and camera resolution.
const (
	MetricHeadDrop     = "head_drop"         // nose vertical offset from shoulder midpoint
	MetricLeanOffset   = "lean_offset"       // nose horizontal offset from shoulder midpoint (signed)
	MetricEarShoulder  = "ear_shoulder_dist" // vertical ear-to-shoulder distance; shrinks when slouching
	MetricShoulderTilt = "shoulder_tilt"     // left minus right shoulder height (signed)
	MetricFaceDistance = "face_distance"     // apparent face width; grows when leaning toward the camera
	MetricFaceTilt     = "face_tilt"         // forehead-to-chin horizontal skew
)

// minReferenceWidth guards the normalizing divisions against degenerate
// landmark geometry (overlapping shoulders or eyes).
const minReferenceWidth = 1e-6

// Metrics maps metric name to its normalized value. A key absent from the
// map means the underlying landmarks were not visible enough to measure;
// absence must never be read as zero.
type Metrics map[string]float64

// Clone returns a copy of m.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Extract converts one frame's landmark set into normalized posture metrics.
// Each metric is emitted only when every landmark it depends on clears the
// visibility floor; a frame with an unusable shoulder pair yields no pose
// metrics at all since the normalizer is unavailable. Pure function.
func Extract(ls landmark.Set) Metrics {
	m := make(Metrics)

	if ls.HasPose() {
		extractPose(ls, m)
	}
	extractFace(ls, m)

	return m
}

func extractPose(ls landmark.Set, m Metrics) {
	lShoulder, _ := ls.PosePoint(landmark.LeftShoulder)
	rShoulder, _ := ls.PosePoint(landmark.RightShoulder)
	if !lShoulder.Visible() || !rShoulder.Visible() {
		return
	}

	shoulderWidth := math.Hypot(lShoulder.X-rShoulder.X, lShoulder.Y-rShoulder.Y)
	if shoulderWidth < minReferenceWidth {
		return
	}

	midShoulderX := (lShoulder.X + rShoulder.X) / 2
	midShoulderY := (lShoulder.Y + rShoulder.Y) / 2

	m[MetricShoulderTilt] = (lShoulder.Y - rShoulder.Y) / shoulderWidth

	if nose, ok := ls.PosePoint(landmark.Nose); ok && nose.Visible() {
		m[MetricHeadDrop] = (nose.Y - midShoulderY) / shoulderWidth
		m[MetricLeanOffset] = (nose.X - midShoulderX) / shoulderWidth
	}

	lEar, okL := ls.PosePoint(landmark.LeftEar)
	rEar, okR := ls.PosePoint(landmark.RightEar)
	if okL && okR && lEar.Visible() && rEar.Visible() {
		midEarY := (lEar.Y + rEar.Y) / 2
		m[MetricEarShoulder] = (midShoulderY - midEarY) / shoulderWidth
	}
}

func extractFace(ls landmark.Set, m Metrics) {
	lEye, okLE := ls.FacePoint(landmark.LeftEye)
	rEye, okRE := ls.FacePoint(landmark.RightEye)
	if !okLE || !okRE {
		return
	}
	eyeWidth := math.Hypot(lEye.X-rEye.X, lEye.Y-rEye.Y)
	if eyeWidth < minReferenceWidth {
		return
	}

	lCheek, okLC := ls.FacePoint(landmark.LeftCheek)
	rCheek, okRC := ls.FacePoint(landmark.RightCheek)
	if okLC && okRC {
		m[MetricFaceDistance] = math.Abs(lCheek.X-rCheek.X) / eyeWidth
	}

	forehead, okF := ls.FacePoint(landmark.Forehead)
	chin, okC := ls.FacePoint(landmark.Chin)
	if okF && okC {
		m[MetricFaceTilt] = (forehead.X - chin.X) / eyeWidth
	}
}
