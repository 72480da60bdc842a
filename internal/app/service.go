// Package app provides the core business service tying the scoring
// engine, the behavior pipeline and the store together.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bountyhub/recommender/internal/adapters/mq/queue"
	"github.com/bountyhub/recommender/internal/adapters/mq/worker"
	"github.com/bountyhub/recommender/internal/adapters/repository"
	"github.com/bountyhub/recommender/internal/domain/behavior"
	"github.com/bountyhub/recommender/internal/domain/dedupe"
	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/internal/domain/ranking"
	"github.com/bountyhub/recommender/internal/domain/social"
	"github.com/bountyhub/recommender/pkg/logger"
	"github.com/bountyhub/recommender/pkg/metrics"
)

// FeedSort selects the ordering of a personalized feed.
type FeedSort string

// Feed sort keys.
const (
	SortFinal      FeedSort = "final"
	SortRelevance  FeedSort = "relevance"
	SortPriceAsc   FeedSort = "price_asc"
	SortPriceDesc  FeedSort = "price_desc"
	SortEngagement FeedSort = "engagement"
	SortNewest     FeedSort = "newest"
)

// Service implements the recommendation and behavior-tracking API.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	engine     *ranking.Engine
	tracker    *behavior.Tracker
	deduper    dedupe.Deduper
	eventQueue queue.Queue
	workerPool *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	engineOpts  []ranking.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100000,
		dedupeSize:  500000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting recommendation service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.engine = ranking.New(s.engineOpts...)
	s.tracker = behavior.NewTracker(s.store)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)

	s.workerPool = worker.NewPool(s.workerCount, s.eventQueue, s.tracker, s.store,
		worker.WithLogger(s.logger.Named("worker-pool")),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued events.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping recommendation service...")

	if q, ok := s.eventQueue.(*queue.InMemoryQueue); ok {
		_ = q.Close()
	}
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool did not drain cleanly", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
}

// RecordInteraction accepts one interaction event for asynchronous
// behavior tracking. Duplicate event ids are dropped; an empty id gets
// a generated one. Returns false when the queue rejected the event.
func (s *Service) RecordInteraction(ctx context.Context, ev model.InteractionEvent) bool {
	if ev.EventID == "" {
		ev.EventID = uuid.New().String()
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now()
	}

	if s.deduper.SeenAndRecord(ctx, ev.EventID) {
		metrics.RecordEventDuplicate()
		s.logger.Debug(ctx, "duplicate event dropped",
			logger.String("eventID", ev.EventID),
			logger.String("userID", ev.UserID),
		)
		return true
	}

	if !s.eventQueue.Enqueue(ctx, ev) {
		// Allow a retry of the same event id after backpressure.
		s.deduper.Unrecord(ctx, ev.EventID)
		s.logger.Warn(ctx, "event queue rejected interaction",
			logger.String("eventID", ev.EventID),
		)
		return false
	}
	return true
}

// buildInput assembles the per-request scoring snapshot: profile,
// explicit tag scores, open bounties with their tag weights, and the
// expanded mutual graph with its interaction sets. The three-layer
// expansion runs once per request and is reused across all candidates.
func (s *Service) buildInput(ctx context.Context, userID string) (ranking.Input, error) {
	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ranking.Input{}, fmt.Errorf("%w: %s", ranking.ErrMissingProfile, userID)
		}
		return ranking.Input{}, fmt.Errorf("load profile: %w", err)
	}

	tagScores, err := s.store.TagScores(ctx, userID)
	if err != nil {
		return ranking.Input{}, fmt.Errorf("load tag scores: %w", err)
	}
	scoreByTag := make(map[string]float64, len(tagScores))
	for _, ts := range tagScores {
		scoreByTag[ts.TagID] = ts.Score
	}

	bounties, err := s.store.OpenBounties(ctx)
	if err != nil {
		return ranking.Input{}, fmt.Errorf("load bounties: %w", err)
	}
	ids := make([]string, len(bounties))
	for i, b := range bounties {
		ids[i] = b.ID
	}
	tagMap, err := s.store.BountyTagMap(ctx, ids)
	if err != nil {
		return ranking.Input{}, fmt.Errorf("load bounty tags: %w", err)
	}

	mutuals := social.Expand(userID, func(id string) []model.MutualConnection {
		edges, edgeErr := s.store.MutualEdges(ctx, id)
		if edgeErr != nil {
			return nil
		}
		return edges
	})
	mutualIDs := make([]string, len(mutuals))
	for i, m := range mutuals {
		mutualIDs[i] = m.MutualID
	}
	interactions, err := s.store.MutualInteractions(ctx, mutualIDs)
	if err != nil {
		return ranking.Input{}, fmt.Errorf("load mutual interactions: %w", err)
	}

	names, err := s.store.TagNames(ctx)
	if err != nil {
		return ranking.Input{}, fmt.Errorf("load tag names: %w", err)
	}

	return ranking.Input{
		Profile:            profile,
		TagScores:          scoreByTag,
		TagNames:           names,
		Bounties:           bounties,
		BountyTags:         tagMap,
		Mutuals:            mutuals,
		MutualInteractions: interactions,
	}, nil
}

// Feed scores every accessible bounty for the user and returns the
// sorted personalized feed. An empty feed is a valid result, not an
// error. With explain set, each entry carries its tag-level breakdown.
func (s *Service) Feed(ctx context.Context, userID string, sortKey FeedSort, explain bool) ([]model.ScoredBounty, ranking.Debug, error) {
	start := time.Now()
	metrics.RecordFeedRequest()

	in, err := s.buildInput(ctx, userID)
	if err != nil {
		return nil, ranking.Debug{}, err
	}

	scored, debug := s.engine.ScoreAll(in, true, explain)
	if debug.Fallback {
		metrics.RecordRelevanceFallback()
	}
	metrics.RecordCandidatesScored(debug.TierFiltered)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	switch sortKey {
	case SortRelevance:
		ranking.SortByRelevance(scored)
	case SortPriceAsc:
		ranking.SortByPriceAsc(scored)
	case SortPriceDesc:
		ranking.SortByPriceDesc(scored)
	case SortEngagement:
		ranking.SortByEngagement(scored)
	case SortNewest:
		ranking.SortByNewest(scored)
	default:
		ranking.SortByFinalScore(scored)
	}
	return scored, debug, nil
}

// Recommend returns the primary and stretch picks for a user and
// appends the audit log entry.
func (s *Service) Recommend(ctx context.Context, userID string) (model.Recommendation, ranking.Debug, error) {
	start := time.Now()

	in, err := s.buildInput(ctx, userID)
	if err != nil {
		return model.Recommendation{}, ranking.Debug{}, err
	}

	rec, debug, err := s.engine.Recommend(in)
	if err != nil {
		if errors.Is(err, ranking.ErrNoCandidates) {
			metrics.RecordErrorByComponent("engine", "no_candidates")
		}
		return model.Recommendation{}, debug, err
	}
	if debug.Fallback {
		metrics.RecordRelevanceFallback()
	}
	metrics.RecordRecommendation()
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	entry := model.RecommendationLogEntry{
		ID:                uuid.New().String(),
		UserID:            userID,
		PrimaryBountyID:   rec.Primary.Bounty.ID,
		SecondaryBountyID: rec.Secondary.Bounty.ID,
		PrimaryScore:      breakdown(rec.Primary),
		SecondaryScore:    breakdown(rec.Secondary),
		Reason:            reasonFor(rec, debug),
		CreatedAt:         time.Now(),
	}
	if err := s.store.AppendRecommendationLog(ctx, entry); err != nil {
		// The audit trail is best-effort; the picks still stand.
		metrics.RecordErrorByComponent("app", "recommendation_log")
		s.logger.Warn(ctx, "appending recommendation log failed", logger.Error(err))
	}

	return rec, debug, nil
}

func breakdown(sb model.ScoredBounty) model.ScoreBreakdown {
	return model.ScoreBreakdown{
		Relevance:     sb.RelevanceScore,
		SocialBoost:   sb.SocialBoost,
		PriceAffinity: sb.PriceAffinity,
		Final:         sb.FinalScore,
	}
}

func reasonFor(rec model.Recommendation, debug ranking.Debug) string {
	switch {
	case debug.Fallback:
		return "relevance fallback: no candidate met the cutoff"
	case rec.Stretch:
		return "primary by final score; secondary via stretch rule"
	case rec.Primary.Bounty.ID == rec.Secondary.Bounty.ID:
		return "single qualifying bounty; secondary duplicates primary"
	default:
		return "primary and runner-up by final score"
	}
}

// Alerts returns the pending divergence prompts for a user, rate
// limited to one batch per rolling 24-hour window.
func (s *Service) Alerts(ctx context.Context, userID string) ([]model.DivergenceAlert, error) {
	alerts, err := s.tracker.Alerts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		metrics.RecordDivergenceAlert(string(a.Type))
	}
	return alerts, nil
}

// Respond applies the user's answer to a divergence prompt.
func (s *Service) Respond(ctx context.Context, userID, tagID string, response model.AlertResponse) error {
	return s.tracker.ApplyResponse(ctx, userID, tagID, response)
}

// BlendedSkills returns the user's explicit/implicit blended tag
// profile, strongest first.
func (s *Service) BlendedSkills(ctx context.Context, userID string) ([]model.BlendedTagScore, error) {
	return s.tracker.BlendedScores(ctx, userID)
}

// SaveSkills replaces the user's declared skill list wholesale, as the
// onboarding and skill-edit flows do.
func (s *Service) SaveSkills(ctx context.Context, userID string, rows []model.UserTagScore) error {
	return s.store.ReplaceTagScores(ctx, userID, rows)
}

// Store exposes the underlying store for seeding and inspection.
func (s *Service) Store() repository.Store {
	return s.store
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		users := s.store.CountUsers(ctx)
		bounties := s.store.CountBounties(ctx)

		stats["queueLength"] = queueLen
		stats["users"] = users
		stats["bounties"] = bounties

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalUsers(users)
		metrics.UpdateTotalBounties(bounties)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
