// Package behavior converts raw interaction events into an implicit
// skill/price profile and blends it against the explicit profile with a
// trust curve that shifts as interaction history grows.
package behavior

import (
	"context"
	"math"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// Event base weights. Heavier actions carry more signal.
const (
	viewWeight     = 0.1
	likeWeight     = 0.2
	submitWeight   = 0.3
	completeWeight = 0.4
)

// Score bounds and update constants.
const (
	maxScore = 10.0

	// typeScoreScale doubles the weighted count before capping.
	typeScoreScale = 2.0

	// priceAlpha is the smoothing factor for the rolling price averages.
	priceAlpha = 0.1

	// Implicit price range margins around the observed averages.
	rangeLowFactor  = 0.5
	rangeHighFactor = 1.5
)

// Store is the persistence surface the tracker needs. Implementations
// must provide read-modify-write atomicity per (user, tag) row; the
// tracker assumes it runs under that guarantee and holds no locks.
type Store interface {
	TagsForBounty(ctx context.Context, bountyID string) ([]model.BountyTag, error)
	TagName(ctx context.Context, tagID string) (string, bool)

	TagBehavior(ctx context.Context, userID, tagID string) (model.TagBehavior, error)
	PutTagBehavior(ctx context.Context, row model.TagBehavior) error
	TagBehaviors(ctx context.Context, userID string) ([]model.TagBehavior, error)

	PriceBehavior(ctx context.Context, userID string) (model.PriceBehavior, error)
	PutPriceBehavior(ctx context.Context, row model.PriceBehavior) error

	BlendConfig(ctx context.Context, userID string) (model.BlendConfig, error)
	PutBlendConfig(ctx context.Context, row model.BlendConfig) error

	Profile(ctx context.Context, userID string) (model.UserProfile, error)
	PutProfile(ctx context.Context, row model.UserProfile) error

	TagScores(ctx context.Context, userID string) ([]model.UserTagScore, error)
	PutTagScore(ctx context.Context, row model.UserTagScore) error
	DeleteTagScore(ctx context.Context, userID, tagID string) error
}

// baseWeight returns the signal weight for a tracked event type.
func baseWeight(t model.EventType) float64 {
	switch t {
	case model.EventLike:
		return likeWeight
	case model.EventSubmit:
		return submitWeight
	case model.EventComplete:
		return completeWeight
	default:
		return viewWeight
	}
}

// TypeScore normalizes a raw event counter to a 0-10 score.
func TypeScore(count int, t model.EventType) float64 {
	s := float64(count) * baseWeight(t) * typeScoreScale
	return math.Min(maxScore, s)
}

// ImplicitScore combines the four per-type scores into one 0-10 value.
// The base weights are applied again here on the already-weighted
// per-type scores. The compounding is deliberate: it produces a
// slower-than-linear convergence toward 10 and is kept as-is.
func ImplicitScore(view, like, submit, complete float64) float64 {
	s := view*viewWeight + like*likeWeight + submit*submitWeight + complete*completeWeight
	return math.Min(maxScore, s)
}

// UpdateAverage folds a new price into a rolling exponential average.
// A zero current average is seeded with the price directly.
func UpdateAverage(current, price float64) float64 {
	if current == 0 {
		return price
	}
	return current*(1-priceAlpha) + price*priceAlpha
}

// PriceRange derives the implicit price band from the positive rolling
// averages: half the lowest to one-and-a-half times the highest.
func PriceRange(avgs ...float64) (low, high float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, a := range avgs {
		if a <= 0 {
			continue
		}
		lo = math.Min(lo, a)
		hi = math.Max(hi, a)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo * rangeLowFactor, hi * rangeHighFactor
}
