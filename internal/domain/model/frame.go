// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/postura/internal/domain/landmark"
)

// Frame is one detector invocation's worth of input: an identified,
// timestamped landmark set. Fields mirror the wire schema for /frames.
type Frame struct {
	FrameID   string       // unique id, assigned by the detector or the ingest layer
	Landmarks landmark.Set // pose plus optional face points
	TS        time.Time    // capture timestamp
}

// Result is one comparison's output as published to consumers: the raw and
// smoothed scores plus the ranked issue list.
type Result struct {
	Score    int
	Smoothed int
	Issues   []Issue
	TS       time.Time
}

// Issue mirrors posture.Issue for consumers that should not import the
// engine package directly.
type Issue struct {
	Label     string
	Deviation float64
}
