package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/bountyhub/recommender/internal/app"
	"github.com/bountyhub/recommender/pkg/logger"
)

// Drain polling constants.
const (
	drainPollInterval = 50 * time.Millisecond
	drainTimeout      = 30 * time.Second
	sampleUsers       = 3
	feedPreviewSize   = 5
)

// Config controls one simulation run.
type Config struct {
	Users    int
	Bounties int
	Events   int
	Seed     int64
}

// Run seeds a marketplace, streams interaction events through the
// service and reports feeds, recommendations and divergence alerts for
// a few sample users.
func Run(ctx context.Context, svc *app.Service, cfg Config) error {
	log := logger.Named("simulation")

	gen := NewGenerator(cfg.Seed)
	world, err := gen.Seed(ctx, svc.Store(), cfg.Users, cfg.Bounties)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info(ctx, "world seeded",
		logger.Int("users", len(world.UserIDs)),
		logger.Int("bounties", len(world.BountyIDs)),
		logger.Int("tags", len(world.TagIDs)),
	)

	prices := make(map[string]float64, len(world.BountyIDs))
	for _, id := range world.BountyIDs {
		b, berr := svc.Store().Bounty(ctx, id)
		if berr != nil {
			return fmt.Errorf("reading seeded bounty: %w", berr)
		}
		prices[id] = b.Price
	}
	priceOf := func(bountyID string) float64 { return prices[bountyID] }

	accepted := 0
	for i := 0; i < cfg.Events; i++ {
		if svc.RecordInteraction(ctx, gen.NextEvent(world, priceOf)) {
			accepted++
		}
	}
	log.Info(ctx, "events submitted", logger.Int("accepted", accepted), logger.Int("total", cfg.Events))

	if err := waitForDrain(ctx, svc); err != nil {
		return err
	}

	for i, userID := range world.UserIDs {
		if i >= sampleUsers {
			break
		}
		if err := report(ctx, svc, log, userID); err != nil {
			return err
		}
	}
	return nil
}

// waitForDrain polls until the event queue empties so reports reflect
// all submitted behavior.
func waitForDrain(ctx context.Context, svc *app.Service) error {
	deadline := time.Now().Add(drainTimeout)
	for {
		stats := svc.Stats(ctx)
		if n, ok := stats["queueLength"].(int); ok && n == 0 {
			// One extra interval lets in-flight lane events finish.
			time.Sleep(drainPollInterval)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("event queue did not drain within %s", drainTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(drainPollInterval):
		}
	}
}

// report prints one user's feed preview, picks and pending alerts.
func report(ctx context.Context, svc *app.Service, log logger.Logger, userID string) error {
	feed, debug, err := svc.Feed(ctx, userID, app.SortFinal, false)
	if err != nil {
		return fmt.Errorf("feed for %s: %w", userID, err)
	}
	log.Info(ctx, "feed computed",
		logger.String("userID", userID),
		logger.Int("size", len(feed)),
		logger.Int("candidates", debug.Candidates),
		logger.Int("tierFiltered", debug.TierFiltered),
		logger.Int("relevanceFiltered", debug.FilteredByRelevance),
		logger.Bool("fallback", debug.Fallback),
	)
	for i, sb := range feed {
		if i >= feedPreviewSize {
			break
		}
		log.Info(ctx, "feed entry",
			logger.String("bounty", sb.Bounty.Title),
			logger.Float64("final", sb.FinalScore),
			logger.Float64("relevance", sb.RelevanceScore),
			logger.Float64("social", sb.SocialBoost),
			logger.Float64("price", sb.PriceAffinity),
		)
	}

	rec, _, err := svc.Recommend(ctx, userID)
	if err != nil {
		return fmt.Errorf("recommendation for %s: %w", userID, err)
	}
	log.Info(ctx, "recommendation",
		logger.String("userID", userID),
		logger.String("primary", rec.Primary.Bounty.Title),
		logger.Float64("primaryScore", rec.Primary.FinalScore),
		logger.String("secondary", rec.Secondary.Bounty.Title),
		logger.Float64("secondaryScore", rec.Secondary.FinalScore),
		logger.Bool("stretch", rec.Stretch),
	)

	alerts, err := svc.Alerts(ctx, userID)
	if err != nil {
		return fmt.Errorf("alerts for %s: %w", userID, err)
	}
	for _, a := range alerts {
		log.Info(ctx, "divergence alert",
			logger.String("tag", a.TagName),
			logger.String("kind", string(a.Type)),
			logger.Float64("explicit", a.ExplicitScore),
			logger.Float64("implicit", a.ImplicitScore),
			logger.String("prompt", a.Prompt),
		)
	}

	skills, err := svc.BlendedSkills(ctx, userID)
	if err != nil {
		return fmt.Errorf("blended skills for %s: %w", userID, err)
	}
	for i, sk := range skills {
		if i >= sampleUsers {
			break
		}
		log.Info(ctx, "blended skill",
			logger.String("tag", sk.TagName),
			logger.Float64("explicit", sk.Explicit),
			logger.Float64("implicit", sk.Implicit),
			logger.Float64("blended", sk.Blended),
		)
	}

	return nil
}
