package landmark_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/postura/internal/domain/landmark"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPoint(t *testing.T) {
	Convey("Given the visibility floor", t, func() {
		Convey("Then points at or above it are visible", func() {
			So(landmark.Point{Visibility: landmark.MinVisibility}.Visible(), ShouldBeTrue)
			So(landmark.Point{Visibility: 0.9}.Visible(), ShouldBeTrue)
		})

		Convey("Then points below it are not", func() {
			So(landmark.Point{Visibility: 0.39}.Visible(), ShouldBeFalse)
			So(landmark.Point{}.Visible(), ShouldBeFalse)
		})
	})
}

func TestSet(t *testing.T) {
	Convey("Given a set with a full pose array", t, func() {
		s := landmark.Set{Pose: make([]landmark.Point, landmark.MinPoseLandmarks)}

		Convey("Then it reports a usable pose", func() {
			So(s.HasPose(), ShouldBeTrue)
		})

		Convey("Then in-range lookups succeed and out-of-range ones do not", func() {
			_, ok := s.PosePoint(landmark.RightShoulder)
			So(ok, ShouldBeTrue)
			_, ok = s.PosePoint(landmark.MinPoseLandmarks)
			So(ok, ShouldBeFalse)
			_, ok = s.PosePoint(-1)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a set with a truncated pose array", t, func() {
		s := landmark.Set{Pose: make([]landmark.Point, landmark.LeftShoulder)}

		Convey("Then it is not usable as a pose", func() {
			So(s.HasPose(), ShouldBeFalse)
		})
	})

	Convey("Given a sparse face map", t, func() {
		s := landmark.Set{Face: map[int]landmark.Point{
			landmark.LeftEye: {X: 0.6, Y: 0.3, Visibility: 0.9},
		}}

		Convey("Then present indices resolve and absent ones do not", func() {
			_, ok := s.FacePoint(landmark.LeftEye)
			So(ok, ShouldBeTrue)
			_, ok = s.FacePoint(landmark.Chin)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the wire encoding", t, func() {
		s := landmark.Set{
			Pose: []landmark.Point{{X: 0.5, Y: 0.25, Visibility: 0.8}},
			Face: map[int]landmark.Point{landmark.Forehead: {X: 0.5, Y: 0.1, Visibility: 1}},
		}

		Convey("When round-tripped through JSON", func() {
			data, err := json.Marshal(s)
			So(err, ShouldBeNil)

			var got landmark.Set
			So(json.Unmarshal(data, &got), ShouldBeNil)

			Convey("Then coordinates, visibility, and face keys survive", func() {
				So(got.Pose, ShouldHaveLength, 1)
				So(got.Pose[0].Visibility, ShouldAlmostEqual, 0.8, 1e-12)
				_, ok := got.Face[landmark.Forehead]
				So(ok, ShouldBeTrue)
			})
		})
	})
}
