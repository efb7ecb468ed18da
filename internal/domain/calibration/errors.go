package calibration

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInsufficientData = errors.New("insufficient calibration data")
)
