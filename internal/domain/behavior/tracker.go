package behavior

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// Profile update constants.
const (
	engagementPerInteraction = 2.0
	maxEngagement            = 100.0
)

// Tracker ingests interaction events and maintains the implicit
// per-tag and per-price profile, the blend weights and the divergence
// flags for each user.
type Tracker struct {
	store Store
	now   func() time.Time
}

// TrackerOption applies a configuration option to the Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the tracker's time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(store Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RecordEvent folds one interaction event into the user's implicit
// profile: tag counters and scores, rolling price averages, profile
// aggregates, blend weights and divergence flags. Claim events are not
// behavior signals and are ignored.
//
// Callers must serialize invocations per user; the store contract
// covers the per-row read-modify-write atomicity.
func (t *Tracker) RecordEvent(ctx context.Context, ev model.InteractionEvent) error {
	if !ev.Type.TracksBehavior() {
		return nil
	}

	tags, err := t.store.TagsForBounty(ctx, ev.BountyID)
	if err != nil {
		return fmt.Errorf("load bounty tags: %w", err)
	}

	for _, bt := range tags {
		if err := t.updateTagBehavior(ctx, ev, bt.TagID); err != nil {
			return err
		}
	}

	if err := t.updatePriceBehavior(ctx, ev); err != nil {
		return err
	}

	total, err := t.updateProfile(ctx, ev)
	if err != nil {
		return err
	}

	if err := t.updateBlend(ctx, ev.UserID, total); err != nil {
		return err
	}

	return t.detectDivergence(ctx, ev.UserID)
}

// updateTagBehavior increments the event counter for one (user, tag)
// pair and recomputes the per-type and implicit scores.
func (t *Tracker) updateTagBehavior(ctx context.Context, ev model.InteractionEvent, tagID string) error {
	row, err := t.store.TagBehavior(ctx, ev.UserID, tagID)
	if err != nil {
		return fmt.Errorf("load tag behavior: %w", err)
	}
	row.UserID = ev.UserID
	row.TagID = tagID
	if row.TagName == "" {
		if name, ok := t.store.TagName(ctx, tagID); ok {
			row.TagName = name
		}
	}

	switch ev.Type {
	case model.EventView:
		row.ViewCount++
		row.ViewScore = TypeScore(row.ViewCount, ev.Type)
	case model.EventLike:
		row.LikeCount++
		row.LikeScore = TypeScore(row.LikeCount, ev.Type)
	case model.EventSubmit:
		row.SubmitCount++
		row.SubmitScore = TypeScore(row.SubmitCount, ev.Type)
	case model.EventComplete:
		row.CompleteCount++
		row.CompleteScore = TypeScore(row.CompleteCount, ev.Type)
	}

	row.ImplicitScore = ImplicitScore(row.ViewScore, row.LikeScore, row.SubmitScore, row.CompleteScore)
	row.UpdatedAt = t.now()

	if err := t.store.PutTagBehavior(ctx, row); err != nil {
		return fmt.Errorf("store tag behavior: %w", err)
	}
	return nil
}

// updatePriceBehavior folds the event price into the per-type rolling
// average and refreshes the implicit price range.
func (t *Tracker) updatePriceBehavior(ctx context.Context, ev model.InteractionEvent) error {
	row, err := t.store.PriceBehavior(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load price behavior: %w", err)
	}
	row.UserID = ev.UserID

	switch ev.Type {
	case model.EventView:
		row.AvgViewed = UpdateAverage(row.AvgViewed, ev.Price)
	case model.EventLike:
		row.AvgLiked = UpdateAverage(row.AvgLiked, ev.Price)
	case model.EventSubmit:
		row.AvgSubmitted = UpdateAverage(row.AvgSubmitted, ev.Price)
	case model.EventComplete:
		row.AvgCompleted = UpdateAverage(row.AvgCompleted, ev.Price)
	}

	row.RangeMin, row.RangeMax = PriceRange(row.AvgViewed, row.AvgLiked, row.AvgSubmitted, row.AvgCompleted)
	row.UpdatedAt = t.now()

	if err := t.store.PutPriceBehavior(ctx, row); err != nil {
		return fmt.Errorf("store price behavior: %w", err)
	}
	return nil
}

// updateProfile advances the user's aggregate counters and, on views,
// the trailing arithmetic average of recent prices. Returns the new
// cumulative interaction count.
func (t *Tracker) updateProfile(ctx context.Context, ev model.InteractionEvent) (int, error) {
	profile, err := t.store.Profile(ctx, ev.UserID)
	if err != nil {
		return 0, fmt.Errorf("load profile: %w", err)
	}
	profile.UserID = ev.UserID

	profile.TotalInteractions++
	profile.EngagementScore = math.Min(float64(profile.TotalInteractions)*engagementPerInteraction, maxEngagement)

	if ev.Type == model.EventView {
		profile.RecentViewPrices = append(profile.RecentViewPrices, ev.Price)
		if n := len(profile.RecentViewPrices); n > model.ViewPriceWindow {
			profile.RecentViewPrices = profile.RecentViewPrices[n-model.ViewPriceWindow:]
		}
		var sum float64
		for _, p := range profile.RecentViewPrices {
			sum += p
		}
		profile.AvgPriceViewed = sum / float64(len(profile.RecentViewPrices))
	}

	if err := t.store.PutProfile(ctx, profile); err != nil {
		return 0, fmt.Errorf("store profile: %w", err)
	}
	return profile.TotalInteractions, nil
}

// updateBlend recomputes the explicit/implicit mixing ratio.
func (t *Tracker) updateBlend(ctx context.Context, userID string, totalInteractions int) error {
	cfg, err := t.store.BlendConfig(ctx, userID)
	if err != nil {
		return fmt.Errorf("load blend config: %w", err)
	}
	cfg.UserID = userID
	cfg.ExplicitWeight, cfg.ImplicitWeight = BlendWeights(totalInteractions)

	if err := t.store.PutBlendConfig(ctx, cfg); err != nil {
		return fmt.Errorf("store blend config: %w", err)
	}
	return nil
}
