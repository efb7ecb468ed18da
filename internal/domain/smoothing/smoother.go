// Package smoothing damps frame-to-frame score flicker with a bounded
// rolling average.
package smoothing

import "math"

// DefaultWindow is the monitor loop's window size; preview consumers
// typically run a longer one.
const DefaultWindow = 20

// Smoother keeps the last K raw scores and reports their rounded mean.
// Single-owner state: each consumer must construct its own instance; a
// Smoother is not safe for concurrent use.
type Smoother struct {
	window []int
	size   int
}

// New creates a Smoother with the given window size. Sizes below 1 fall
// back to 1, which disables smoothing.
func New(size int) *Smoother {
	if size < 1 {
		size = 1
	}
	return &Smoother{
		window: make([]int, 0, size),
		size:   size,
	}
}

// Push appends a raw score, evicting the oldest entry once the window is
// full, and returns the rounded mean of the window.
func (s *Smoother) Push(score int) int {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, score)

	sum := 0
	for _, v := range s.window {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(s.window))))
}

// Len returns the number of scores currently held.
func (s *Smoother) Len() int {
	return len(s.window)
}

// Reset drops all held scores.
func (s *Smoother) Reset() {
	s.window = s.window[:0]
}
