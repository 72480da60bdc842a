package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// tagKey identifies a (user, tag) behavior row.
type tagKey struct {
	userID string
	tagID  string
}

// MemStore is an in-memory Store. Every method takes the store lock, so
// each individual read or write is atomic; callers needing a wider
// read-modify-write window (the behavior tracker) are serialized per
// user upstream by the worker pool's user sharding.
type MemStore struct {
	mu sync.RWMutex

	profiles     map[string]model.UserProfile
	tagScores    map[string]map[string]model.UserTagScore // userID -> tagID -> row
	tags         map[string]string                        // tagID -> name
	bounties     map[string]model.Bounty
	bountyOrder  []string
	bountyTags   map[string][]model.BountyTag
	edges        map[string][]model.MutualConnection
	interactions map[string]map[string]bool // userID -> bountyID -> true
	tagBehavior  map[tagKey]model.TagBehavior
	priceRows    map[string]model.PriceBehavior
	blendRows    map[string]model.BlendConfig
	recLog       map[string][]model.RecommendationLogEntry
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		profiles:     make(map[string]model.UserProfile),
		tagScores:    make(map[string]map[string]model.UserTagScore),
		tags:         make(map[string]string),
		bounties:     make(map[string]model.Bounty),
		bountyTags:   make(map[string][]model.BountyTag),
		edges:        make(map[string][]model.MutualConnection),
		interactions: make(map[string]map[string]bool),
		tagBehavior:  make(map[tagKey]model.TagBehavior),
		priceRows:    make(map[string]model.PriceBehavior),
		blendRows:    make(map[string]model.BlendConfig),
		recLog:       make(map[string][]model.RecommendationLogEntry),
	}
}

func (s *MemStore) Profile(_ context.Context, userID string) (model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return model.UserProfile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return p, nil
}

func (s *MemStore) PutProfile(_ context.Context, row model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[row.UserID] = row
	return nil
}

func (s *MemStore) TagScores(_ context.Context, userID string) ([]model.UserTagScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]model.UserTagScore, 0, len(s.tagScores[userID]))
	for _, row := range s.tagScores[userID] {
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *MemStore) ReplaceTagScores(_ context.Context, userID string, rows []model.UserTagScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]model.UserTagScore, len(rows))
	for _, row := range rows {
		if row.Score <= 0 {
			continue
		}
		row.UserID = userID
		m[row.TagID] = row
	}
	s.tagScores[userID] = m
	return nil
}

func (s *MemStore) PutTagScore(_ context.Context, row model.UserTagScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.Score <= 0 {
		delete(s.tagScores[row.UserID], row.TagID)
		return nil
	}
	if s.tagScores[row.UserID] == nil {
		s.tagScores[row.UserID] = make(map[string]model.UserTagScore)
	}
	s.tagScores[row.UserID][row.TagID] = row
	return nil
}

func (s *MemStore) DeleteTagScore(_ context.Context, userID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tagScores[userID], tagID)
	return nil
}

func (s *MemStore) TagName(_ context.Context, tagID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.tags[tagID]
	return name, ok
}

func (s *MemStore) PutTag(_ context.Context, tagID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tagID] = name
	return nil
}

func (s *MemStore) TagNames(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.tags))
	for id, name := range s.tags {
		out[id] = name
	}
	return out, nil
}

func (s *MemStore) Bounty(_ context.Context, id string) (model.Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bounties[id]
	if !ok {
		return model.Bounty{}, fmt.Errorf("bounty %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *MemStore) PutBounty(_ context.Context, row model.Bounty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bounties[row.ID]; !ok {
		s.bountyOrder = append(s.bountyOrder, row.ID)
	}
	s.bounties[row.ID] = row
	return nil
}

func (s *MemStore) OpenBounties(_ context.Context) ([]model.Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Bounty, 0, len(s.bounties))
	for _, id := range s.bountyOrder {
		if b := s.bounties[id]; b.Status == model.StatusOpen {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemStore) TagsForBounty(_ context.Context, bountyID string) ([]model.BountyTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.BountyTag(nil), s.bountyTags[bountyID]...), nil
}

func (s *MemStore) PutBountyTag(_ context.Context, row model.BountyTag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, bt := range s.bountyTags[row.BountyID] {
		if bt.TagID == row.TagID {
			s.bountyTags[row.BountyID][i] = row
			return nil
		}
	}
	s.bountyTags[row.BountyID] = append(s.bountyTags[row.BountyID], row)
	return nil
}

func (s *MemStore) BountyTagMap(_ context.Context, bountyIDs []string) (map[string][]model.BountyTag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]model.BountyTag, len(bountyIDs))
	for _, id := range bountyIDs {
		out[id] = append([]model.BountyTag(nil), s.bountyTags[id]...)
	}
	return out, nil
}

func (s *MemStore) MutualEdges(_ context.Context, userID string) ([]model.MutualConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MutualConnection(nil), s.edges[userID]...), nil
}

func (s *MemStore) PutMutualEdge(_ context.Context, userID string, edge model.MutualConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[userID] = append(s.edges[userID], edge)
	return nil
}

func (s *MemStore) AddInteraction(_ context.Context, userID, bountyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interactions[userID] == nil {
		s.interactions[userID] = make(map[string]bool)
	}
	s.interactions[userID][bountyID] = true
	return nil
}

func (s *MemStore) MutualInteractions(_ context.Context, userIDs []string) (map[string]map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]bool, len(userIDs))
	for _, id := range userIDs {
		seen := s.interactions[id]
		if len(seen) == 0 {
			continue
		}
		cp := make(map[string]bool, len(seen))
		for bountyID := range seen {
			cp[bountyID] = true
		}
		out[id] = cp
	}
	return out, nil
}

func (s *MemStore) TagBehavior(_ context.Context, userID, tagID string) (model.TagBehavior, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagBehavior[tagKey{userID, tagID}], nil
}

func (s *MemStore) PutTagBehavior(_ context.Context, row model.TagBehavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagBehavior[tagKey{row.UserID, row.TagID}] = row
	return nil
}

func (s *MemStore) TagBehaviors(_ context.Context, userID string) ([]model.TagBehavior, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TagBehavior
	for key, row := range s.tagBehavior {
		if key.userID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *MemStore) PriceBehavior(_ context.Context, userID string) (model.PriceBehavior, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.priceRows[userID], nil
}

func (s *MemStore) PutPriceBehavior(_ context.Context, row model.PriceBehavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceRows[row.UserID] = row
	return nil
}

func (s *MemStore) BlendConfig(_ context.Context, userID string) (model.BlendConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blendRows[userID], nil
}

func (s *MemStore) PutBlendConfig(_ context.Context, row model.BlendConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blendRows[row.UserID] = row
	return nil
}

func (s *MemStore) AppendRecommendationLog(_ context.Context, entry model.RecommendationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recLog[entry.UserID] = append(s.recLog[entry.UserID], entry)
	return nil
}

func (s *MemStore) RecommendationLog(_ context.Context, userID string) ([]model.RecommendationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RecommendationLogEntry(nil), s.recLog[userID]...), nil
}

func (s *MemStore) CountUsers(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *MemStore) CountBounties(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bounties)
}
