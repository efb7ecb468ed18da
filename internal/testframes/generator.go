package testframes

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/postura/internal/domain/landmark"
)

// Neutral seated geometry in normalized image coordinates (y grows
// downward). Values approximate a webcam at desk height.
const (
	noseX, noseY            = 0.50, 0.35
	earY                    = 0.36
	leftEarX, rightEarX     = 0.57, 0.43
	shoulderY               = 0.55
	leftShoulderX           = 0.62
	rightShoulderX          = 0.38
	foreheadY               = 0.28
	eyeY                    = 0.33
	leftEyeX, rightEyeX     = 0.55, 0.45
	chinY                   = 0.45
	cheekY                  = 0.38
	leftCheekX, rightCheekX = 0.58, 0.42
	baseVisibility          = 0.95
	slouchShoulderRise      = 0.3 // fraction of head drop mirrored in the shoulders
	jitterAmplitude         = 0.002
	jitterPeriod            = 7.0 // frames per jitter cycle, co-prime with drift
	defaultSlouchPeriodSecs = 60.0
)

// generator produces a frame sequence: steady good posture with an optional
// slow sinusoidal slouch drift layered on top.
type generator struct {
	slouch float64 // peak head-drop amplitude in normalized units
	period float64 // drift period in frames
	n      int
}

func newGenerator(cfg *Config) *generator {
	fps := cfg.FPS
	if fps <= 0 {
		fps = 1
	}
	return &generator{
		slouch: cfg.Slouch,
		period: defaultSlouchPeriodSecs * float64(fps),
	}
}

// next returns the next frame in the sequence.
func (g *generator) next() Frame {
	i := g.n
	g.n++

	// drift in [0,1]: 0 upright, 1 full slouch.
	drift := 0.0
	if g.slouch > 0 {
		drift = (1 - math.Cos(2*math.Pi*float64(i)/g.period)) / 2
	}
	drop := g.slouch * drift
	jitter := jitterAmplitude * math.Sin(2*math.Pi*float64(i)/jitterPeriod)

	pose := make([]landmark.Point, landmark.MinPoseLandmarks)
	pose[landmark.Nose] = point(noseX+jitter, noseY+drop)
	pose[landmark.LeftEar] = point(leftEarX+jitter, earY+drop)
	pose[landmark.RightEar] = point(rightEarX+jitter, earY+drop)
	pose[landmark.LeftShoulder] = point(leftShoulderX, shoulderY+drop*slouchShoulderRise)
	pose[landmark.RightShoulder] = point(rightShoulderX, shoulderY+drop*slouchShoulderRise)

	face := map[int]landmark.Point{
		landmark.Forehead:   point(noseX+jitter, foreheadY+drop),
		landmark.LeftEye:    point(leftEyeX+jitter, eyeY+drop),
		landmark.RightEye:   point(rightEyeX+jitter, eyeY+drop),
		landmark.Chin:       point(noseX+jitter, chinY+drop*0.8),
		landmark.LeftCheek:  point(leftCheekX+jitter, cheekY+drop),
		landmark.RightCheek: point(rightCheekX+jitter, cheekY+drop),
	}

	return Frame{
		FrameID: uuid.New().String(),
		Pose:    pose,
		Face:    face,
		TS:      time.Now().Format(time.RFC3339Nano),
	}
}

func point(x, y float64) landmark.Point {
	return landmark.Point{X: x, Y: y, Visibility: baseVisibility}
}
