package ranking

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the four sub-score weights. Weights that are
// not positive are ignored; callers are expected to keep the four
// summing to 1.0.
func WithWeights(relevance, social, price, engagement float64) Option {
	return func(e *Engine) {
		if relevance > 0 {
			e.relevanceWeight = relevance
		}
		if social > 0 {
			e.socialWeight = social
		}
		if price > 0 {
			e.priceWeight = price
		}
		if engagement > 0 {
			e.engagementWeight = engagement
		}
	}
}

// WithMinRelevance sets the relevance cutoff below which bounties are
// excluded from the feed and the primary/secondary selection.
func WithMinRelevance(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.minRelevance = threshold
		}
	}
}

// WithStretchRatio sets the fraction of the primary's final score a
// stretch candidate must exceed to qualify as the secondary pick.
func WithStretchRatio(ratio float64) Option {
	return func(e *Engine) {
		if ratio > 0 && ratio < 1 {
			e.stretchRatio = ratio
		}
	}
}
