// Package calibration reduces a calibration session's metric samples into a
// single baseline record.
package calibration

import (
	"github.com/okian/postura/internal/domain/posture"
)

// Average reduces the collected samples to one baseline: per metric key, the
// arithmetic mean over every sample that carries the key. A key present in
// no sample is omitted from the baseline. How many samples to collect is the
// caller's policy; this function only refuses an empty session.
func Average(samples []posture.Metrics) (posture.Metrics, error) {
	if len(samples) == 0 {
		return nil, ErrInsufficientData
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range samples {
		for key, val := range s {
			sums[key] += val
			counts[key]++
		}
	}

	baseline := make(posture.Metrics, len(sums))
	for key, sum := range sums {
		baseline[key] = sum / float64(counts[key])
	}
	return baseline, nil
}
