// Package landmark defines the wire-level landmark model produced by
// external pose/face detectors. The detection engine consumes these values
// only; it never talks to a camera or an ML runtime itself.
package landmark

// MinVisibility is the confidence floor below which a landmark is treated
// as unreliable. Metrics depending on such a landmark are omitted rather
// than defaulted.
const MinVisibility = 0.4

// Pose landmark indices, following the MediaPipe pose convention.
const (
	Nose          = 0
	LeftEar       = 7
	RightEar      = 8
	LeftShoulder  = 11
	RightShoulder = 12

	// MinPoseLandmarks is the smallest pose array that can carry every
	// landmark the extractor reads.
	MinPoseLandmarks = 13
)

// Face mesh indices, following the MediaPipe face-mesh convention.
const (
	Forehead   = 10
	LeftEye    = 33
	Chin       = 152
	LeftCheek  = 234
	RightEye   = 263
	RightCheek = 454
)

// Point is a single named landmark: normalized image coordinates plus a
// visibility/confidence scalar in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"v"`
}

// Visible reports whether the point clears the visibility floor.
func (p Point) Visible() bool {
	return p.Visibility >= MinVisibility
}

// Set is one frame's worth of detector output. Pose is indexed by the pose
// constants above; Face is a sparse map keyed by face-mesh index, absent
// when no face was detected.
type Set struct {
	Pose []Point       `json:"pose"`
	Face map[int]Point `json:"face,omitempty"`
}

// PosePoint returns the pose landmark at idx and whether it exists.
func (s Set) PosePoint(idx int) (Point, bool) {
	if idx < 0 || idx >= len(s.Pose) {
		return Point{}, false
	}
	return s.Pose[idx], true
}

// FacePoint returns the face landmark at idx and whether it exists.
func (s Set) FacePoint(idx int) (Point, bool) {
	p, ok := s.Face[idx]
	return p, ok
}

// HasPose reports whether the set carries enough pose landmarks for the
// extractor to index safely.
func (s Set) HasPose() bool {
	return len(s.Pose) >= MinPoseLandmarks
}
