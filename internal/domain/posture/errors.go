package posture

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownSensitivity = errors.New("unknown sensitivity preset")
)
