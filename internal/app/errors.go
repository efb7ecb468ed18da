package app

import "errors"

var (
	// ErrNotStarted is returned when an operation requires a running service.
	ErrNotStarted = errors.New("service not started")

	// ErrCalibrationRunning is returned when a calibration session is
	// already in progress.
	ErrCalibrationRunning = errors.New("calibration already in progress")

	// ErrNoAssessment is returned before the first frame has been scored.
	ErrNoAssessment = errors.New("no assessment available yet")
)
