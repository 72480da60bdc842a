// Package worker drains the interaction event queue into the behavior
// tracker asynchronously.
package worker

import (
	"context"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/bountyhub/recommender/internal/adapters/mq/queue"
	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/pkg/logger"
	"github.com/bountyhub/recommender/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerBufferSize        = 256
	workerShutdownTimeout   = 5 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Recorder folds one interaction event into the behavior profile.
type Recorder interface {
	RecordEvent(ctx context.Context, ev model.InteractionEvent) error
}

// InteractionSink records the raw (user, bounty) touch for the
// social-proof signal. Every event type counts here, including claim.
type InteractionSink interface {
	AddInteraction(ctx context.Context, userID, bountyID string) error
}

// Queue defines how the pool receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Pool fans interaction events out to workers. Events are sharded by
// user id, so all events of one user land on the same worker and the
// tracker's read-modify-write cycles are serialized per user without
// locking in the domain layer.
type Pool struct {
	recorder Recorder
	sink     InteractionSink
	queue    Queue

	lanes []chan Event
	wg    sync.WaitGroup
	done  chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount defaults to
// twice the CPU count.
func NewPool(workerCount int, q Queue, recorder Recorder, sink InteractionSink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		recorder: recorder,
		sink:     sink,
		queue:    q,
		lanes:    make([]chan Event, workerCount),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	for i := range p.lanes {
		p.lanes[i] = make(chan Event, workerBufferSize)
	}

	metrics.UpdateWorkerCount(workerCount)

	return p
}

// Start launches the dispatcher and one goroutine per lane. Workers run
// until the queue closes or ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(len(p.lanes))
	for i := range p.lanes {
		go p.runWorker(ctx, p.lanes[i])
	}
	go p.dispatch(ctx)
}

// dispatch routes incoming events onto lanes by user id hash and closes
// the lanes when the source drains.
func (p *Pool) dispatch(ctx context.Context) {
	defer func() {
		for _, lane := range p.lanes {
			close(lane)
		}
		p.wg.Wait()
		close(p.done)
	}()

	for ev := range p.queue.Dequeue(ctx) {
		lane := p.lanes[p.laneFor(ev.UserID)]
		select {
		case lane <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) laneFor(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(p.lanes)))
}

// runWorker processes one lane until it closes.
func (p *Pool) runWorker(ctx context.Context, lane <-chan Event) {
	defer p.wg.Done()
	for ev := range lane {
		p.processEvent(ctx, ev)
	}
}

// processEvent records the raw interaction for social proof and folds
// the event into the behavior profile.
func (p *Pool) processEvent(ctx context.Context, ev Event) {
	start := time.Now()
	defer func() {
		metrics.RecordTrackingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := p.sink.AddInteraction(ctx, ev.UserID, ev.BountyID); err != nil {
		metrics.RecordErrorByComponent("worker", "interaction_sink")
		p.logger.Error(ctx, "recording interaction failed",
			logger.String("eventID", ev.EventID),
			logger.Error(err),
		)
	}

	if err := p.recorder.RecordEvent(ctx, ev); err != nil {
		metrics.RecordErrorByComponent("worker", "tracking_error")
		p.logger.Error(ctx, "behavior tracking failed",
			logger.String("eventID", ev.EventID),
			logger.String("userID", ev.UserID),
			logger.Error(err),
		)
		return
	}

	metrics.RecordEventProcessed(string(ev.Type))
}

// Shutdown waits for the dispatcher and lanes to drain, up to the
// worker shutdown timeout. The queue must be closed first.
func (p *Pool) Shutdown(ctx context.Context) error {
	timeout := time.NewTimer(workerShutdownTimeout)
	defer timeout.Stop()

	select {
	case <-p.done:
		return nil
	case <-timeout.C:
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return ErrShutdownTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
