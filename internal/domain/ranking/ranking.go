// Package ranking composes the relevance, social and price models into a
// single weighted score per bounty and selects the primary/stretch
// recommendation pair.
package ranking

import (
	"sort"

	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/internal/domain/price"
	"github.com/bountyhub/recommender/internal/domain/relevance"
	"github.com/bountyhub/recommender/internal/domain/social"
)

// Default engine configuration constants.
const (
	defaultRelevanceWeight  = 0.55
	defaultSocialWeight     = 0.15
	defaultPriceWeight      = 0.20
	defaultEngagementWeight = 0.10

	defaultMinRelevance = 3.0
	defaultStretchRatio = 0.2

	// Sub-score normalization divisors.
	relevanceMax  = 10.0
	socialMax     = 2.0
	engagementMax = 10.0

	scoreScale = 10.0

	topRelevanceCount = 5
)

// Input is the per-request snapshot the engine scores against. All data
// is fetched once by the caller; the engine performs no I/O.
type Input struct {
	Profile model.UserProfile

	// TagScores maps tag id to the user's explicit score (1-5).
	TagScores map[string]float64

	// TagNames maps tag id to display name, for explain detail.
	TagNames map[string]string

	// Bounties are the scoring candidates. Only open bounties should be
	// supplied; the engine does not re-check status.
	Bounties []model.Bounty

	// BountyTags maps bounty id to its weighted tag list.
	BountyTags map[string][]model.BountyTag

	// Mutuals is the expanded three-layer connection list.
	Mutuals []model.MutualConnection

	// MutualInteractions maps a mutual's user id to the set of bounty
	// ids they have interacted with.
	MutualInteractions map[string]map[string]bool
}

// Debug carries the per-request counters exposed for tests and operator
// diagnostics. Scoring logic never reads these.
type Debug struct {
	Candidates          int
	TierFiltered        int
	FilteredByRelevance int
	TopRelevance        []float64
	Fallback            bool // relevance cutoff removed everything; unfiltered ranking used
}

// Engine scores bounty candidates for one user.
type Engine struct {
	relevanceWeight  float64
	socialWeight     float64
	priceWeight      float64
	engagementWeight float64

	minRelevance float64
	stretchRatio float64
}

// New constructs an Engine with default weights and thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		relevanceWeight:  defaultRelevanceWeight,
		socialWeight:     defaultSocialWeight,
		priceWeight:      defaultPriceWeight,
		engagementWeight: defaultEngagementWeight,
		minRelevance:     defaultMinRelevance,
		stretchRatio:     defaultStretchRatio,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// FilterByAccessTier returns the bounties visible to a user of the given
// tier: every bounty whose tier level does not exceed the user's. The
// filter is monotonic across tiers (basic sees a subset of middle, which
// sees a subset of high).
func FilterByAccessTier(bounties []model.Bounty, tier model.AccessTier) []model.Bounty {
	level := tier.Level()
	out := make([]model.Bounty, 0, len(bounties))
	for _, b := range bounties {
		if b.Tier.Level() <= level {
			out = append(out, b)
		}
	}
	return out
}

// scoreOne computes the four sub-scores and the weighted final score for
// a single bounty. Independent per bounty, so callers may parallelize.
func (e *Engine) scoreOne(in Input, b model.Bounty, explain bool) model.ScoredBounty {
	var rel float64
	var matches []model.TagMatch
	if explain {
		rel, matches = relevance.Explain(in.TagScores, in.BountyTags[b.ID], in.TagNames)
	} else {
		rel = relevance.Score(in.TagScores, in.BountyTags[b.ID])
	}

	boost := social.Boost(b.ID, in.Mutuals, in.MutualInteractions)
	affinity := price.Affinity(b.Price, b.Tier, in.Profile.AvgPriceViewed, in.Profile.AccessTier)

	engagement := b.EngagementScore
	if engagement > engagementMax {
		engagement = engagementMax
	}
	if engagement < 0 {
		engagement = 0
	}

	final := e.relevanceWeight*scoreScale*(rel/relevanceMax) +
		e.socialWeight*scoreScale*(boost/socialMax) +
		e.priceWeight*scoreScale*affinity +
		e.engagementWeight*scoreScale*(engagement/engagementMax)

	return model.ScoredBounty{
		Bounty:         b,
		RelevanceScore: rel,
		SocialBoost:    boost,
		PriceAffinity:  affinity,
		FinalScore:     final,
		TagMatches:     matches,
	}
}

// ScoreAll tier-filters and scores every candidate. With applyFilter the
// relevance cutoff is applied, unless it would empty the result, in
// which case the unfiltered set is returned and the fallback is signaled
// through the debug counters. The result is unsorted; sort order is the
// caller's concern (see the Sort helpers).
func (e *Engine) ScoreAll(in Input, applyFilter, explain bool) ([]model.ScoredBounty, Debug) {
	debug := Debug{Candidates: len(in.Bounties)}

	accessible := FilterByAccessTier(in.Bounties, in.Profile.AccessTier)
	debug.TierFiltered = len(accessible)

	scored := make([]model.ScoredBounty, 0, len(accessible))
	for _, b := range accessible {
		scored = append(scored, e.scoreOne(in, b, explain))
	}

	debug.TopRelevance = topRelevance(scored, topRelevanceCount)

	if !applyFilter {
		debug.FilteredByRelevance = len(scored)
		return scored, debug
	}

	filtered := make([]model.ScoredBounty, 0, len(scored))
	for _, sb := range scored {
		if sb.RelevanceScore >= e.minRelevance {
			filtered = append(filtered, sb)
		}
	}
	debug.FilteredByRelevance = len(filtered)

	if len(filtered) == 0 && len(scored) > 0 {
		// Nobody actually qualified; rank the unfiltered set so the
		// result is never empty. Callers detect this via the counters.
		debug.Fallback = true
		return scored, debug
	}
	return filtered, debug
}

// Recommend scores, filters and sorts the candidates, then picks the
// primary and stretch slots. The primary is the top by final score. The
// stretch is the strongest bounty whose relevance fell below the cutoff
// but whose final score still clears stretchRatio x primary, encouraging
// skill-broadening exposure without recommending junk. When no stretch
// candidate qualifies the secondary falls back to the second-ranked
// bounty, or to the primary itself when only one bounty qualifies at all.
func (e *Engine) Recommend(in Input) (model.Recommendation, Debug, error) {
	if in.Profile.UserID == "" {
		return model.Recommendation{}, Debug{}, ErrMissingProfile
	}

	scored, debug := e.ScoreAll(in, true, false)
	if len(scored) == 0 {
		return model.Recommendation{}, debug, ErrNoCandidates
	}

	SortByFinalScore(scored)
	primary := scored[0]

	rec := model.Recommendation{Primary: primary, Secondary: primary}

	if stretch, ok := e.pickStretch(in, primary); ok {
		rec.Secondary = stretch
		rec.Stretch = true
	} else if len(scored) > 1 {
		rec.Secondary = scored[1]
	}
	return rec, debug, nil
}

// pickStretch scans the tier-accessible candidates that failed the
// relevance cutoff for the strongest one still worth showing.
func (e *Engine) pickStretch(in Input, primary model.ScoredBounty) (model.ScoredBounty, bool) {
	accessible := FilterByAccessTier(in.Bounties, in.Profile.AccessTier)

	var best model.ScoredBounty
	var found bool
	for _, b := range accessible {
		if b.ID == primary.Bounty.ID {
			continue
		}
		sb := e.scoreOne(in, b, false)
		if sb.RelevanceScore >= e.minRelevance {
			continue
		}
		if sb.FinalScore <= e.stretchRatio*primary.FinalScore {
			continue
		}
		if !found || sb.FinalScore > best.FinalScore {
			best = sb
			found = true
		}
	}
	return best, found
}

// topRelevance returns the n highest relevance scores, descending.
func topRelevance(scored []model.ScoredBounty, n int) []float64 {
	rels := make([]float64, 0, len(scored))
	for _, sb := range scored {
		rels = append(rels, sb.RelevanceScore)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rels)))
	if len(rels) > n {
		rels = rels[:n]
	}
	return rels
}

// Feed sort keys.

// SortByFinalScore orders by final score descending.
func SortByFinalScore(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].FinalScore > s[j].FinalScore })
}

// SortByRelevance orders by relevance descending.
func SortByRelevance(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].RelevanceScore > s[j].RelevanceScore })
}

// SortByPriceAsc orders by bounty price ascending.
func SortByPriceAsc(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Bounty.Price < s[j].Bounty.Price })
}

// SortByPriceDesc orders by bounty price descending.
func SortByPriceDesc(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Bounty.Price > s[j].Bounty.Price })
}

// SortByEngagement orders by bounty engagement descending.
func SortByEngagement(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Bounty.EngagementScore > s[j].Bounty.EngagementScore })
}

// SortByNewest orders by creation time, newest first.
func SortByNewest(s []model.ScoredBounty) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Bounty.CreatedAt.After(s[j].Bounty.CreatedAt) })
}
