// Package simulation seeds a store with marketplace data and drives the
// service end to end, standing in for the surrounding web application.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/bountyhub/recommender/internal/adapters/repository"
	"github.com/bountyhub/recommender/internal/domain/model"
)

// Tag vocabulary for generated marketplaces.
var tagNames = []string{
	"typescript", "golang", "react", "python", "rust",
	"design", "writing", "devops", "data", "security",
	"mobile", "smart-contracts",
}

// Generation ranges.
const (
	minBountyPrice = 50.0
	maxBountyPrice = 5000.0

	minSkillsPerUser  = 2
	maxSkillsPerUser  = 5
	minTagsPerBounty  = 1
	maxTagsPerBounty  = 3
	maxEdgesPerUser   = 4
	edgeStrengthFloor = 0.3
)

var tiers = []model.AccessTier{model.TierBasic, model.TierMiddle, model.TierHigh}

// World is the generated marketplace snapshot.
type World struct {
	UserIDs   []string
	BountyIDs []string
	TagIDs    []string
}

// Generator produces deterministic seed data from a fixed seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // deterministic seed for reproducible runs
}

// Seed populates the store with tags, users, bounties and a mutual
// graph.
func (g *Generator) Seed(ctx context.Context, store repository.Store, users, bounties int) (*World, error) {
	w := &World{}

	for i, name := range tagNames {
		id := fmt.Sprintf("tag-%02d", i+1)
		if err := store.PutTag(ctx, id, name); err != nil {
			return nil, fmt.Errorf("seed tag: %w", err)
		}
		w.TagIDs = append(w.TagIDs, id)
	}

	for i := 0; i < users; i++ {
		if err := g.seedUser(ctx, store, w); err != nil {
			return nil, err
		}
	}

	for i := 0; i < bounties; i++ {
		if err := g.seedBounty(ctx, store, w, i); err != nil {
			return nil, err
		}
	}

	if err := g.seedMutualGraph(ctx, store, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (g *Generator) seedUser(ctx context.Context, store repository.Store, w *World) error {
	id := uuid.New().String()
	tier := tiers[g.rng.Intn(len(tiers))]

	if err := store.PutProfile(ctx, model.UserProfile{
		UserID:     id,
		AccessTier: tier,
	}); err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}

	count := minSkillsPerUser + g.rng.Intn(maxSkillsPerUser-minSkillsPerUser+1)
	var rows []model.UserTagScore
	for _, idx := range g.rng.Perm(len(w.TagIDs))[:count] {
		rows = append(rows, model.UserTagScore{
			UserID:  id,
			TagID:   w.TagIDs[idx],
			TagName: tagNames[idx],
			Score:   float64(1 + g.rng.Intn(5)),
		})
	}
	if err := store.ReplaceTagScores(ctx, id, rows); err != nil {
		return fmt.Errorf("seed tag scores: %w", err)
	}

	w.UserIDs = append(w.UserIDs, id)
	return nil
}

func (g *Generator) seedBounty(ctx context.Context, store repository.Store, w *World, ordinal int) error {
	id := uuid.New().String()
	created := time.Now().Add(-time.Duration(g.rng.Intn(72)) * time.Hour)

	bounty := model.Bounty{
		ID:              id,
		Title:           fmt.Sprintf("Bounty #%d", ordinal+1),
		Price:           minBountyPrice + g.rng.Float64()*(maxBountyPrice-minBountyPrice),
		Tier:            tiers[g.rng.Intn(len(tiers))],
		Status:          model.StatusOpen,
		EngagementScore: g.rng.Float64() * 20,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	if err := store.PutBounty(ctx, bounty); err != nil {
		return fmt.Errorf("seed bounty: %w", err)
	}

	count := minTagsPerBounty + g.rng.Intn(maxTagsPerBounty-minTagsPerBounty+1)
	for _, idx := range g.rng.Perm(len(w.TagIDs))[:count] {
		if err := store.PutBountyTag(ctx, model.BountyTag{
			BountyID: id,
			TagID:    w.TagIDs[idx],
			Weight:   0.2 + g.rng.Float64()*0.8,
		}); err != nil {
			return fmt.Errorf("seed bounty tag: %w", err)
		}
	}

	w.BountyIDs = append(w.BountyIDs, id)
	return nil
}

// seedMutualGraph wires random layer-1 edges between users.
func (g *Generator) seedMutualGraph(ctx context.Context, store repository.Store, w *World) error {
	for _, userID := range w.UserIDs {
		edges := g.rng.Intn(maxEdgesPerUser + 1)
		for _, idx := range g.rng.Perm(len(w.UserIDs))[:edges] {
			other := w.UserIDs[idx]
			if other == userID {
				continue
			}
			if err := store.PutMutualEdge(ctx, userID, model.MutualConnection{
				MutualID: other,
				Layer:    1,
				Strength: edgeStrengthFloor + g.rng.Float64()*(1-edgeStrengthFloor),
			}); err != nil {
				return fmt.Errorf("seed mutual edge: %w", err)
			}
		}
	}
	return nil
}

// NextEvent draws one random interaction event over the world. Views
// dominate, completes are rare, mirroring real traffic shape.
func (g *Generator) NextEvent(w *World, priceOf func(bountyID string) float64) model.InteractionEvent {
	userID := w.UserIDs[g.rng.Intn(len(w.UserIDs))]
	bountyID := w.BountyIDs[g.rng.Intn(len(w.BountyIDs))]

	var eventType model.EventType
	switch roll := g.rng.Float64(); {
	case roll < 0.60:
		eventType = model.EventView
	case roll < 0.80:
		eventType = model.EventLike
	case roll < 0.92:
		eventType = model.EventSubmit
	case roll < 0.96:
		eventType = model.EventClaim
	default:
		eventType = model.EventComplete
	}

	return model.InteractionEvent{
		EventID:  uuid.New().String(),
		UserID:   userID,
		BountyID: bountyID,
		Type:     eventType,
		Price:    priceOf(bountyID),
		TS:       time.Now(),
	}
}
