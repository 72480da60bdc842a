package behavior

import (
	"context"
	"sort"

	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/internal/domain/relevance"
)

// Blend curve breakpoints. Trust shifts from the explicit profile
// toward observed behavior as the interaction count grows.
const (
	blendWarmupCount    = 10
	blendMidpointCount  = 50
	blendEstablishCount = 100

	blendColdExplicit = 0.8
	blendMidExplicit  = 0.5
	blendWarmExplicit = 0.3
)

// BlendWeights recomputes the explicit/implicit mixing ratio from the
// cumulative interaction count. The pair always sums to 1.0.
//
// Four segments: flat 0.8/0.2 below 10 interactions, a linear slide to
// 0.5/0.5 between 10 and 50, flat through 100, then flat 0.3/0.7.
func BlendWeights(totalInteractions int) (explicit, implicit float64) {
	switch {
	case totalInteractions < blendWarmupCount:
		explicit = blendColdExplicit
	case totalInteractions < blendMidpointCount:
		progress := float64(totalInteractions-blendWarmupCount) / float64(blendMidpointCount-blendWarmupCount)
		explicit = blendColdExplicit - progress*(blendColdExplicit-blendMidExplicit)
	case totalInteractions < blendEstablishCount:
		explicit = blendMidExplicit
	default:
		explicit = blendWarmExplicit
	}
	return explicit, 1 - explicit
}

// BlendedScores merges the explicit and implicit signals over the union
// of tags carrying either, weighted by the user's current blend config,
// sorted descending by blended score.
func (t *Tracker) BlendedScores(ctx context.Context, userID string) ([]model.BlendedTagScore, error) {
	cfg, err := t.store.BlendConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	ew, iw := cfg.ExplicitWeight, cfg.ImplicitWeight
	if ew == 0 && iw == 0 {
		ew, iw = BlendWeights(0)
	}

	explicit, err := t.store.TagScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	behaviors, err := t.store.TagBehaviors(ctx, userID)
	if err != nil {
		return nil, err
	}

	byTag := make(map[string]*model.BlendedTagScore)
	for _, ts := range explicit {
		byTag[ts.TagID] = &model.BlendedTagScore{
			TagID:    ts.TagID,
			TagName:  ts.TagName,
			Explicit: ts.Score,
		}
	}
	for _, tb := range behaviors {
		entry, ok := byTag[tb.TagID]
		if !ok {
			entry = &model.BlendedTagScore{TagID: tb.TagID, TagName: tb.TagName}
			byTag[tb.TagID] = entry
		}
		entry.Implicit = tb.ImplicitScore
	}

	out := make([]model.BlendedTagScore, 0, len(byTag))
	for _, entry := range byTag {
		entry.Blended = entry.Explicit*ew + entry.Implicit*iw
		if entry.TagName == "" {
			if name, ok := t.store.TagName(ctx, entry.TagID); ok {
				entry.TagName = name
			} else {
				entry.TagName = relevance.ResolveName(nil, entry.TagID)
			}
		}
		out = append(out, *entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Blended > out[j].Blended })
	return out, nil
}
