package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/postura/internal/adapters/repository"
	"github.com/okian/postura/internal/domain/posture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a file store in a fresh directory", t, func() {
		path := filepath.Join(t.TempDir(), "calibration.json")
		store := repository.NewFileStore(repository.WithPath(path))

		Convey("When no baseline has ever been saved", func() {
			_, err := store.Load(ctx)

			Convey("Then it reports not calibrated", func() {
				So(errors.Is(err, repository.ErrNotCalibrated), ShouldBeTrue)
			})
		})

		Convey("When a baseline is saved and loaded", func() {
			baseline := posture.Metrics{
				posture.MetricHeadDrop:     -0.41,
				posture.MetricEarShoulder:  0.33,
				posture.MetricLeanOffset:   0.01,
				posture.MetricShoulderTilt: -0.005,
				posture.MetricFaceDistance: 1.48,
			}
			So(store.Save(ctx, baseline), ShouldBeNil)

			loaded, err := store.Load(ctx)

			Convey("Then the round trip preserves every key", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldResemble, baseline)
			})
		})

		Convey("When a baseline is overwritten", func() {
			So(store.Save(ctx, posture.Metrics{posture.MetricHeadDrop: -0.40}), ShouldBeNil)
			So(store.Save(ctx, posture.Metrics{posture.MetricHeadDrop: -0.45}), ShouldBeNil)

			loaded, err := store.Load(ctx)

			Convey("Then the replacement wins", func() {
				So(err, ShouldBeNil)
				So(loaded[posture.MetricHeadDrop], ShouldAlmostEqual, -0.45, 1e-12)
			})
		})

		Convey("When the parent directory does not exist yet", func() {
			nested := repository.NewFileStore(
				repository.WithPath(filepath.Join(t.TempDir(), "deep", "nested", "calibration.json")),
			)

			Convey("Then save creates it", func() {
				So(nested.Save(ctx, posture.Metrics{posture.MetricHeadDrop: -0.4}), ShouldBeNil)
				loaded, err := nested.Load(ctx)
				So(err, ShouldBeNil)
				So(loaded, ShouldContainKey, posture.MetricHeadDrop)
			})
		})
	})

	Convey("Given a damaged calibration record", t, func() {
		path := filepath.Join(t.TempDir(), "calibration.json")
		store := repository.NewFileStore(repository.WithPath(path))

		Convey("When the file holds invalid JSON", func() {
			So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then it reads as not calibrated rather than crashing", func() {
				So(errors.Is(err, repository.ErrNotCalibrated), ShouldBeTrue)
			})
		})

		Convey("When the file holds an empty object", func() {
			So(os.WriteFile(path, []byte("{}"), 0o600), ShouldBeNil)
			_, err := store.Load(ctx)

			Convey("Then it also reads as not calibrated", func() {
				So(errors.Is(err, repository.ErrNotCalibrated), ShouldBeTrue)
			})
		})
	})
}
