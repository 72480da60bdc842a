package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bountyhub/recommender/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When an event id arrives for the first time", func() {
			seen := d.SeenAndRecord(ctx, "ev-1")

			Convey("Then it is not a duplicate", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a replay of the same id is a duplicate", func() {
				So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When distinct ids arrive", func() {
			So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "ev-2"), ShouldBeFalse)

			Convey("Then each is tracked independently", func() {
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When an id is unrecorded after an enqueue failure", func() {
			So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			d.Unrecord(ctx, "ev-1")

			Convey("Then a retry of the same id is accepted again", func() {
				So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a deduper bounded to three ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		for i := 1; i <= 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("ev-%d", i)), ShouldBeFalse)
		}

		Convey("When a fourth id arrives", func() {
			So(d.SeenAndRecord(ctx, "ev-4"), ShouldBeFalse)

			Convey("Then the oldest id is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "ev-1"), ShouldBeFalse)
			})

			Convey("And the newer ids are still tracked", func() {
				So(d.SeenAndRecord(ctx, "ev-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "ev-4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent producers racing on the same id", t, func() {
		d := dedupe.NewInMemoryDeduper()

		const goroutines = 32
		var wg sync.WaitGroup
		accepted := make(chan bool, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				accepted <- !d.SeenAndRecord(ctx, "ev-contested")
			}()
		}
		wg.Wait()
		close(accepted)

		Convey("Then exactly one producer wins", func() {
			wins := 0
			for ok := range accepted {
				if ok {
					wins++
				}
			}
			So(wins, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
