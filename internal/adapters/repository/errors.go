package repository

import "errors"

// Sentinel kinds for baseline store errors.
var (
	ErrNotCalibrated = errors.New("no calibration baseline")
)
