// Package repository defines the baseline store interface and errors.
package repository

import (
	"context"

	"github.com/okian/postura/internal/domain/posture"
)

// Store persists the single calibration baseline. The record is replaced
// wholesale on recalibration and never partially mutated.
type Store interface {
	// Save atomically replaces the stored baseline. A failed save must
	// leave any previously valid record intact.
	Save(ctx context.Context, baseline posture.Metrics) error

	// Load returns the stored baseline. Returns ErrNotCalibrated when no
	// record exists or the record cannot be parsed; callers must treat both
	// the same and never receive partially-parsed data.
	Load(ctx context.Context) (posture.Metrics, error)
}
