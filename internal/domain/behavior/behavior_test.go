package behavior_test

import (
	"fmt"
	"testing"

	"github.com/bountyhub/recommender/internal/domain/behavior"
	"github.com/bountyhub/recommender/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTypeScore(t *testing.T) {
	Convey("Given raw event counters", t, func() {
		Convey("When normalizing a single view", func() {
			So(behavior.TypeScore(1, model.EventView), ShouldAlmostEqual, 0.2, 1e-9)
		})

		Convey("When normalizing heavier event types", func() {
			Convey("Then the weights order the scores", func() {
				view := behavior.TypeScore(5, model.EventView)
				like := behavior.TypeScore(5, model.EventLike)
				submit := behavior.TypeScore(5, model.EventSubmit)
				complete := behavior.TypeScore(5, model.EventComplete)

				So(view, ShouldBeLessThan, like)
				So(like, ShouldBeLessThan, submit)
				So(submit, ShouldBeLessThan, complete)
				So(complete, ShouldAlmostEqual, 4.0, 1e-9)
			})
		})

		Convey("When the counter is very large", func() {
			Convey("Then the score caps at 10", func() {
				So(behavior.TypeScore(1000, model.EventView), ShouldEqual, 10.0)
				So(behavior.TypeScore(13, model.EventComplete), ShouldEqual, 10.0)
			})
		})

		Convey("When the counter is zero", func() {
			So(behavior.TypeScore(0, model.EventComplete), ShouldEqual, 0.0)
		})
	})
}

func TestImplicitScore(t *testing.T) {
	Convey("Given per-type scores", t, func() {
		Convey("When combining already-weighted scores", func() {
			Convey("Then the base weights are applied a second time", func() {
				// 2*0.1 + 1*0.2 + 0*0.3 + 4*0.4 = 2.0
				So(behavior.ImplicitScore(2, 1, 0, 4), ShouldAlmostEqual, 2.0, 1e-9)
			})
		})

		Convey("When every per-type score is maxed", func() {
			Convey("Then the combination reaches exactly 10", func() {
				So(behavior.ImplicitScore(10, 10, 10, 10), ShouldEqual, 10.0)
			})
		})

		Convey("When all inputs are zero", func() {
			So(behavior.ImplicitScore(0, 0, 0, 0), ShouldEqual, 0.0)
		})
	})
}

func TestUpdateAverage(t *testing.T) {
	Convey("Given a rolling price average", t, func() {
		Convey("When the average is empty", func() {
			Convey("Then the first price seeds it directly", func() {
				So(behavior.UpdateAverage(0, 250), ShouldEqual, 250.0)
			})
		})

		Convey("When the average already holds signal", func() {
			Convey("Then new prices fold in at one tenth", func() {
				So(behavior.UpdateAverage(100, 200), ShouldAlmostEqual, 110.0, 1e-9)
				So(behavior.UpdateAverage(100, 100), ShouldAlmostEqual, 100.0, 1e-9)
			})
		})
	})
}

func TestPriceRange(t *testing.T) {
	Convey("Given per-type rolling averages", t, func() {
		Convey("When some averages carry signal", func() {
			low, high := behavior.PriceRange(100, 0, 400, 0)

			Convey("Then the band spans half the lowest to 1.5x the highest", func() {
				So(low, ShouldAlmostEqual, 50.0, 1e-9)
				So(high, ShouldAlmostEqual, 600.0, 1e-9)
			})
		})

		Convey("When a single average exists", func() {
			low, high := behavior.PriceRange(0, 200, 0, 0)
			So(low, ShouldAlmostEqual, 100.0, 1e-9)
			So(high, ShouldAlmostEqual, 300.0, 1e-9)
		})

		Convey("When no average carries signal", func() {
			low, high := behavior.PriceRange(0, 0, 0, 0)

			Convey("Then the band collapses to zero", func() {
				So(low, ShouldEqual, 0.0)
				So(high, ShouldEqual, 0.0)
			})
		})
	})
}

func TestBlendWeights(t *testing.T) {
	Convey("Given cumulative interaction counts", t, func() {
		cases := []struct {
			count    int
			explicit float64
		}{
			{0, 0.8},
			{9, 0.8},
			{10, 0.8},
			{30, 0.65},
			{49, 0.8 - 39.0/40.0*0.3},
			{50, 0.5},
			{99, 0.5},
			{100, 0.3},
			{1000, 0.3},
		}

		for _, tc := range cases {
			Convey(fmt.Sprintf("When recomputing the ratio at %d interactions", tc.count), func() {
				explicit, implicit := behavior.BlendWeights(tc.count)

				Convey("Then the curve value holds and the pair sums to one", func() {
					So(explicit, ShouldAlmostEqual, tc.explicit, 1e-9)
					So(explicit+implicit, ShouldAlmostEqual, 1.0, 1e-9)
				})
			})
		}
	})
}
