package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrNotCalibrated = errors.New("not calibrated")
)
