package worker_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bountyhub/recommender/internal/adapters/mq/queue"
	"github.com/bountyhub/recommender/internal/adapters/mq/worker"
	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// captureRecorder remembers every event it sees, per user, in arrival
// order.
type captureRecorder struct {
	mu     sync.Mutex
	byUser map[string][]model.InteractionEvent
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{byUser: make(map[string][]model.InteractionEvent)}
}

func (r *captureRecorder) RecordEvent(_ context.Context, ev model.InteractionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[ev.UserID] = append(r.byUser[ev.UserID], ev)
	return nil
}

func (r *captureRecorder) events(userID string) []model.InteractionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.InteractionEvent(nil), r.byUser[userID]...)
}

// captureSink counts raw interaction touches.
type captureSink struct {
	mu      sync.Mutex
	touches map[string]int
}

func newCaptureSink() *captureSink {
	return &captureSink{touches: make(map[string]int)}
}

func (s *captureSink) AddInteraction(_ context.Context, userID, bountyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches[userID+"/"+bountyID]++
	return nil
}

func (s *captureSink) count(userID, bountyID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touches[userID+"/"+bountyID]
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running pool over an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		recorder := newCaptureRecorder()
		sink := newCaptureSink()

		pool := worker.NewPool(4, q, recorder, sink)
		pool.Start(ctx)

		Convey("When events for many users flow through", func() {
			const perUser = 20
			users := []string{"alice", "bob", "carol"}
			for i := 0; i < perUser; i++ {
				for _, u := range users {
					ok := q.Enqueue(ctx, worker.Event{
						EventID:  fmt.Sprintf("%s-%d", u, i),
						UserID:   u,
						BountyID: "b1",
						Type:     model.EventView,
					})
					So(ok, ShouldBeTrue)
				}
			}

			So(q.Close(), ShouldBeNil)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then every event reaches the recorder", func() {
				for _, u := range users {
					So(recorder.events(u), ShouldHaveLength, perUser)
				}
			})

			Convey("Then one user's events arrive in submission order", func() {
				for _, u := range users {
					evs := recorder.events(u)
					for i, ev := range evs {
						So(ev.EventID, ShouldEqual, fmt.Sprintf("%s-%d", u, i))
					}
				}
			})

			Convey("Then the interaction sink saw every touch", func() {
				for _, u := range users {
					So(sink.count(u, "b1"), ShouldEqual, perUser)
				}
			})
		})

		Convey("When a claim event flows through", func() {
			ok := q.Enqueue(ctx, worker.Event{
				EventID:  "claim-1",
				UserID:   "alice",
				BountyID: "b2",
				Type:     model.EventClaim,
			})
			So(ok, ShouldBeTrue)

			So(q.Close(), ShouldBeNil)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the sink records the touch for social proof", func() {
				So(sink.count("alice", "b2"), ShouldEqual, 1)
			})

			Convey("Then the recorder still receives it", func() {
				So(recorder.events("alice"), ShouldHaveLength, 1)
			})
		})

		Convey("When the queue closes with nothing queued", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then shutdown returns promptly", func() {
				start := time.Now()
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})
	})

	Convey("Given a pool with a non-positive worker count", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pool := worker.NewPool(0, q, newCaptureRecorder(), newCaptureSink())
		pool.Start(ctx)

		Convey("When the queue closes", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then the defaulted pool still shuts down cleanly", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}
