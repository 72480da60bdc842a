// Package repository defines the persistence surface the engine and the
// behavior tracker operate against, and an in-memory implementation.
//
// A real deployment plugs a durable row store in here; the core only
// ever sees snapshots read through this interface and rows written back
// through it.
package repository

import (
	"context"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// Store provides read/write access to every record the engine consumes
// and the tracker produces.
type Store interface {
	// Profile returns the user's profile, or ErrNotFound when the user
	// has not completed setup. Profiles are never silently defaulted.
	Profile(ctx context.Context, userID string) (model.UserProfile, error)
	PutProfile(ctx context.Context, row model.UserProfile) error

	// TagScores returns the user's explicit skill declarations.
	TagScores(ctx context.Context, userID string) ([]model.UserTagScore, error)
	// ReplaceTagScores swaps the user's declared skill list wholesale,
	// dropping entries whose score is not positive.
	ReplaceTagScores(ctx context.Context, userID string, rows []model.UserTagScore) error
	PutTagScore(ctx context.Context, row model.UserTagScore) error
	DeleteTagScore(ctx context.Context, userID, tagID string) error

	// Tag vocabulary.
	TagName(ctx context.Context, tagID string) (string, bool)
	PutTag(ctx context.Context, tagID, name string) error
	TagNames(ctx context.Context) (map[string]string, error)

	// Bounties.
	Bounty(ctx context.Context, id string) (model.Bounty, error)
	PutBounty(ctx context.Context, row model.Bounty) error
	// OpenBounties returns the current scoring candidates.
	OpenBounties(ctx context.Context) ([]model.Bounty, error)

	// Bounty tag weights.
	TagsForBounty(ctx context.Context, bountyID string) ([]model.BountyTag, error)
	PutBountyTag(ctx context.Context, row model.BountyTag) error
	// BountyTagMap returns the tag lists for a set of bounties in one read.
	BountyTagMap(ctx context.Context, bountyIDs []string) (map[string][]model.BountyTag, error)

	// Social graph. MutualEdges returns the stored layer-1 edges only;
	// higher layers are derived by the social expansion.
	MutualEdges(ctx context.Context, userID string) ([]model.MutualConnection, error)
	PutMutualEdge(ctx context.Context, userID string, edge model.MutualConnection) error
	// AddInteraction records that a user touched a bounty, feeding the
	// social-proof signal. Any event type counts.
	AddInteraction(ctx context.Context, userID, bountyID string) error
	// MutualInteractions returns, for each given user id, the set of
	// bounty ids that user has interacted with.
	MutualInteractions(ctx context.Context, userIDs []string) (map[string]map[string]bool, error)

	// Behavior rows. Reads return a zero-valued row when absent; the
	// store serializes each write so concurrent updates never lose
	// increments.
	TagBehavior(ctx context.Context, userID, tagID string) (model.TagBehavior, error)
	PutTagBehavior(ctx context.Context, row model.TagBehavior) error
	TagBehaviors(ctx context.Context, userID string) ([]model.TagBehavior, error)
	PriceBehavior(ctx context.Context, userID string) (model.PriceBehavior, error)
	PutPriceBehavior(ctx context.Context, row model.PriceBehavior) error
	BlendConfig(ctx context.Context, userID string) (model.BlendConfig, error)
	PutBlendConfig(ctx context.Context, row model.BlendConfig) error

	// Recommendation audit trail, append-only.
	AppendRecommendationLog(ctx context.Context, entry model.RecommendationLogEntry) error
	RecommendationLog(ctx context.Context, userID string) ([]model.RecommendationLogEntry, error)

	// Counts for stats and monitoring.
	CountUsers(ctx context.Context) int
	CountBounties(ctx context.Context) int
}
