// Package relevance computes the skill-tag match between a user and a
// bounty.
package relevance

import (
	"fmt"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// Rescale constant: a perfect single-tag match (user score 5, weight 1)
// must land on 10, so the weighted average over [0,5] is doubled.
const rescale = 2.0

// Maximum relevance value.
const maxScore = 10.0

// Score maps a user's explicit tag scores (1-5) and a bounty's weighted
// tag list to a relevance value in [0,10]. Tags the user has no score
// for contribute 0. A bounty with no tags scores 0.
//
// This is a weighted average rescaled by 2, not a dot product: the
// weight sum in the denominator keeps partial overlap proportional to
// tag importance.
func Score(userTags map[string]float64, bountyTags []model.BountyTag) float64 {
	if len(bountyTags) == 0 {
		return 0
	}

	var products, weights float64
	for _, bt := range bountyTags {
		products += userTags[bt.TagID] * bt.Weight
		weights += bt.Weight
	}
	if weights <= 0 {
		return 0
	}

	score := products / weights * rescale
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Explain computes the same score as Score and additionally returns the
// per-tag contribution breakdown for feed "explain" detail. Tag names
// are resolved through names; a missing entry is substituted with a
// placeholder label rather than treated as an error.
func Explain(userTags map[string]float64, bountyTags []model.BountyTag, names map[string]string) (float64, []model.TagMatch) {
	if len(bountyTags) == 0 {
		return 0, nil
	}

	matches := make([]model.TagMatch, 0, len(bountyTags))
	for _, bt := range bountyTags {
		us := userTags[bt.TagID]
		matches = append(matches, model.TagMatch{
			TagID:     bt.TagID,
			TagName:   ResolveName(names, bt.TagID),
			UserScore: us,
			Weight:    bt.Weight,
			Product:   us * bt.Weight,
		})
	}
	return Score(userTags, bountyTags), matches
}

// ResolveName returns the display name for a tag id, falling back to a
// placeholder when the reference is stale.
func ResolveName(names map[string]string, tagID string) string {
	if name, ok := names[tagID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Tag %s", tagID)
}
