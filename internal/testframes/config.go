// Package testframes streams synthetic webcam landmark frames at a running
// service and reports the scores it hands back.
package testframes

import (
	"time"

	"github.com/okian/postura/internal/domain/landmark"
)

// Config holds configuration for the frame test.
type Config struct {
	BaseURL   string        // Base URL of the service
	NumFrames int           // Number of frames to stream
	FPS       int           // Frames per second to stream at
	Calibrate bool          // Run a calibration session before streaming
	Slouch    float64       // Peak slouch drift amplitude (0 disables)
	Timeout   time.Duration // HTTP request timeout
	Verbose   bool          // Enable verbose logging
}

// Frame mirrors the wire schema for /ws/frames.
type Frame struct {
	FrameID string                 `json:"frame_id"`
	Pose    []landmark.Point       `json:"pose"`
	Face    map[int]landmark.Point `json:"face"`
	TS      string                 `json:"ts"`
}

// ScoreResponse mirrors the read shape of GET /score.
type ScoreResponse struct {
	Score    int `json:"score"`
	Smoothed int `json:"smoothed"`
	Issues   []struct {
		Label     string  `json:"label"`
		Deviation float64 `json:"deviation"`
	} `json:"issues"`
	TS string `json:"ts"`
}

// CalibrationResponse mirrors the read shape of GET /calibration.
type CalibrationResponse struct {
	State     string `json:"state"`
	SessionID string `json:"session_id"`
	Collected int    `json:"collected"`
	Target    int    `json:"target"`
}

// Stats holds test statistics.
type Stats struct {
	FramesSent    int
	FramesDropped int
	ScoresRead    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}
