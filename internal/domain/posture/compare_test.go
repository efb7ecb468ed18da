package posture_test

import (
	"testing"

	"github.com/okian/postura/internal/domain/posture"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Given medium thresholds and a calibrated baseline", t, func() {
		cfg := posture.DefaultThresholds()
		baseline := posture.Metrics{
			posture.MetricHeadDrop:     0.10,
			posture.MetricEarShoulder:  0.30,
			posture.MetricLeanOffset:   0.00,
			posture.MetricShoulderTilt: 0.00,
			posture.MetricFaceDistance: 1.20,
		}

		Convey("When the current metrics match the baseline exactly", func() {
			score, issues := posture.Compare(baseline.Clone(), baseline, cfg)

			Convey("Then the score is perfect with no issues", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When deviations stay within every threshold", func() {
			current := posture.Metrics{
				posture.MetricHeadDrop:     0.13, // +0.03, threshold 0.04
				posture.MetricEarShoulder:  0.25, // -0.05, threshold 0.06
				posture.MetricLeanOffset:   0.02, // threshold 0.03
				posture.MetricShoulderTilt: 0.02, // threshold 0.025
				posture.MetricFaceDistance: 1.22, // +0.02, threshold 0.03
			}
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then nothing triggers", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When slouch and head drop both trigger", func() {
			current := baseline.Clone()
			current[posture.MetricEarShoulder] = 0.22 // deviation 0.08
			current[posture.MetricHeadDrop] = 0.16    // deviation 0.06
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then the fractional penalty truncates to 69", func() {
				// slouch: 0.08/0.18 * 35 = 15.56; head drop: 0.06/0.12 * 30 = 15.
				So(score, ShouldEqual, 69)
			})

			Convey("And issues are ordered worst-first", func() {
				So(issues, ShouldHaveLength, 2)
				So(issues[0].Label, ShouldEqual, posture.IssueSlouch)
				So(issues[1].Label, ShouldEqual, posture.IssueHeadDrop)
				So(issues[0].Deviation, ShouldAlmostEqual, 0.08, 1e-9)
				So(issues[1].Deviation, ShouldAlmostEqual, 0.06, 1e-9)
			})
		})

		Convey("When severity saturates past three times the threshold", func() {
			current := baseline.Clone()
			current[posture.MetricHeadDrop] = baseline[posture.MetricHeadDrop] + 10*cfg.HeadDrop
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then the penalty caps at the category weight", func() {
				So(score, ShouldEqual, 70)
				So(issues, ShouldHaveLength, 1)
			})
		})

		Convey("When every category triggers at full severity", func() {
			current := posture.Metrics{
				posture.MetricHeadDrop:     baseline[posture.MetricHeadDrop] + 5*cfg.HeadDrop,
				posture.MetricEarShoulder:  baseline[posture.MetricEarShoulder] - 5*cfg.Slouch,
				posture.MetricLeanOffset:   baseline[posture.MetricLeanOffset] + 5*cfg.Lean,
				posture.MetricShoulderTilt: 5 * cfg.ShoulderTilt,
				posture.MetricFaceDistance: baseline[posture.MetricFaceDistance] + 5*cfg.ForwardLean,
			}
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then the score clamps at zero instead of going negative", func() {
				// Weights sum to 130.
				So(score, ShouldEqual, 0)
				So(issues, ShouldHaveLength, 5)
			})
		})

		Convey("When a larger deviation is pushed in the same category", func() {
			mild := baseline.Clone()
			mild[posture.MetricEarShoulder] = baseline[posture.MetricEarShoulder] - 1.5*cfg.Slouch
			severe := baseline.Clone()
			severe[posture.MetricEarShoulder] = baseline[posture.MetricEarShoulder] - 2.5*cfg.Slouch

			mildScore, _ := posture.Compare(mild, baseline, cfg)
			severeScore, _ := posture.Compare(severe, baseline, cfg)

			Convey("Then the score never increases", func() {
				So(severeScore, ShouldBeLessThan, mildScore)
			})
		})

		Convey("When the nose drifts laterally", func() {
			Convey("And the drift is positive", func() {
				current := baseline.Clone()
				current[posture.MetricLeanOffset] = 2 * cfg.Lean
				_, issues := posture.Compare(current, baseline, cfg)

				Convey("Then it reports a right lean", func() {
					So(issues, ShouldHaveLength, 1)
					So(issues[0].Label, ShouldEqual, posture.IssueLeanRight)
				})
			})

			Convey("And the drift is negative", func() {
				current := baseline.Clone()
				current[posture.MetricLeanOffset] = -2 * cfg.Lean
				_, issues := posture.Compare(current, baseline, cfg)

				Convey("Then it reports a left lean with a positive deviation", func() {
					So(issues, ShouldHaveLength, 1)
					So(issues[0].Label, ShouldEqual, posture.IssueLeanLeft)
					So(issues[0].Deviation, ShouldBeGreaterThan, 0)
				})
			})
		})

		Convey("When the head rises instead of dropping", func() {
			current := baseline.Clone()
			current[posture.MetricHeadDrop] = baseline[posture.MetricHeadDrop] - 5*cfg.HeadDrop
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then no head drop is reported", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When the face moves away from the camera", func() {
			current := baseline.Clone()
			current[posture.MetricFaceDistance] = baseline[posture.MetricFaceDistance] - 5*cfg.ForwardLean
			_, issues := posture.Compare(current, baseline, cfg)

			Convey("Then no forward lean is reported", func() {
				So(issues, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a baseline with a naturally uneven shoulder line", t, func() {
		cfg := posture.DefaultThresholds()
		baseline := posture.Metrics{posture.MetricShoulderTilt: 0.05}

		Convey("When the current tilt matches the calibrated one", func() {
			current := posture.Metrics{posture.MetricShoulderTilt: 0.05}
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then it is not penalized even though it exceeds the threshold", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When the tilt clearly worsens beyond the calibrated one", func() {
			current := posture.Metrics{posture.MetricShoulderTilt: 0.08}
			_, issues := posture.Compare(current, baseline, cfg)

			Convey("Then shoulder tilt triggers", func() {
				So(issues, ShouldHaveLength, 1)
				So(issues[0].Label, ShouldEqual, posture.IssueShoulderTilt)
			})
		})
	})

	Convey("Given metrics missing from one side of the comparison", t, func() {
		cfg := posture.DefaultThresholds()

		Convey("When the current frame lacks a metric the baseline has", func() {
			baseline := posture.Metrics{
				posture.MetricHeadDrop:    0.10,
				posture.MetricEarShoulder: 0.30,
			}
			current := posture.Metrics{posture.MetricHeadDrop: 0.10}
			score, issues := posture.Compare(current, baseline, cfg)

			Convey("Then the absent category is skipped, not penalized", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When both maps are empty", func() {
			score, issues := posture.Compare(posture.Metrics{}, posture.Metrics{}, cfg)

			Convey("Then nothing can trigger", func() {
				So(score, ShouldEqual, 100)
				So(issues, ShouldBeEmpty)
			})
		})

		Convey("When face distance is non-positive on either side", func() {
			baseline := posture.Metrics{posture.MetricFaceDistance: -1.0}
			current := posture.Metrics{posture.MetricFaceDistance: 1.0}
			_, issues := posture.Compare(current, baseline, cfg)

			Convey("Then forward lean is not evaluated", func() {
				So(issues, ShouldBeEmpty)
			})
		})
	})

	Convey("Given inputs handed to Compare", t, func() {
		cfg := posture.DefaultThresholds()
		baseline := posture.Metrics{posture.MetricHeadDrop: 0.10}
		current := posture.Metrics{posture.MetricHeadDrop: 0.30}

		Convey("When a comparison runs", func() {
			posture.Compare(current, baseline, cfg)

			Convey("Then neither map is mutated", func() {
				So(current[posture.MetricHeadDrop], ShouldAlmostEqual, 0.30, 1e-12)
				So(baseline[posture.MetricHeadDrop], ShouldAlmostEqual, 0.10, 1e-12)
			})
		})
	})
}
