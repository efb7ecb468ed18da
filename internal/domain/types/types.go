// Package types contains common JSON shapes shared across the application.
package types

// IssueView is one triggered posture issue as returned by the API.
type IssueView struct {
	Label     string  `json:"label"`
	Deviation float64 `json:"deviation"`
}

// ScoreView is the read shape for the latest posture assessment.
type ScoreView struct {
	Score    int         `json:"score"`
	Smoothed int         `json:"smoothed"`
	Issues   []IssueView `json:"issues"`
	TS       string      `json:"ts"`
}

// Calibration states.
const (
	CalibrationUncalibrated = "uncalibrated"
	CalibrationCalibrating  = "calibrating"
	CalibrationCalibrated   = "calibrated"
)

// CalibrationView reports baseline state and session progress.
type CalibrationView struct {
	State     string `json:"state"`
	SessionID string `json:"session_id,omitempty"`
	Collected int    `json:"collected,omitempty"`
	Target    int    `json:"target,omitempty"`
}
