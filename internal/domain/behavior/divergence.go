package behavior

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bountyhub/recommender/internal/domain/model"
)

// Divergence thresholds and prompt pacing.
const (
	newInterestImplicitMin = 3.0
	unusedSkillExplicitMin = 4.0
	unusedSkillImplicitMax = 1.0

	// promptInterval is the minimum gap between alert batches for one
	// user, to avoid prompt fatigue.
	promptInterval = 24 * time.Hour

	// Explicit score bounds when a divergence response adds a skill.
	minExplicitScore = 1.0
	maxExplicitScore = 5.0
)

// detectDivergence re-evaluates every tag behavior of the user against
// the explicit profile and sets or clears the divergence flags.
func (t *Tracker) detectDivergence(ctx context.Context, userID string) error {
	explicit, err := t.store.TagScores(ctx, userID)
	if err != nil {
		return fmt.Errorf("load tag scores: %w", err)
	}
	explicitByTag := make(map[string]float64, len(explicit))
	for _, ts := range explicit {
		explicitByTag[ts.TagID] = ts.Score
	}

	behaviors, err := t.store.TagBehaviors(ctx, userID)
	if err != nil {
		return fmt.Errorf("load tag behaviors: %w", err)
	}

	for _, row := range behaviors {
		score, declared := explicitByTag[row.TagID]

		var diverged bool
		var kind model.DivergenceType
		switch {
		case !declared && row.ImplicitScore >= newInterestImplicitMin:
			diverged, kind = true, model.DivergenceNewInterest
		case declared && score >= unusedSkillExplicitMin && row.ImplicitScore < unusedSkillImplicitMax:
			diverged, kind = true, model.DivergenceUnusedSkill
		}

		if diverged == row.Diverged && kind == row.DivergenceType {
			continue
		}
		row.Diverged = diverged
		row.DivergenceType = kind
		row.ExplicitAtFlag = 0
		if diverged {
			row.ExplicitAtFlag = score
		}
		if err := t.store.PutTagBehavior(ctx, row); err != nil {
			return fmt.Errorf("store divergence flag: %w", err)
		}
	}
	return nil
}

// Alerts returns the pending divergence prompts for a user. At most one
// batch is released per rolling 24-hour window; inside the window the
// result is empty without error. Returning a batch advances the
// last-shown timestamp and the prompt counter.
func (t *Tracker) Alerts(ctx context.Context, userID string) ([]model.DivergenceAlert, error) {
	cfg, err := t.store.BlendConfig(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load blend config: %w", err)
	}

	now := t.now()
	if !cfg.LastDivergencePromptAt.IsZero() && now.Sub(cfg.LastDivergencePromptAt) < promptInterval {
		return nil, nil
	}

	behaviors, err := t.store.TagBehaviors(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tag behaviors: %w", err)
	}

	var alerts []model.DivergenceAlert
	for _, row := range behaviors {
		if !row.Diverged {
			continue
		}
		alerts = append(alerts, model.DivergenceAlert{
			UserID:        userID,
			TagID:         row.TagID,
			TagName:       row.TagName,
			Type:          row.DivergenceType,
			ExplicitScore: row.ExplicitAtFlag,
			ImplicitScore: row.ImplicitScore,
			Prompt:        promptFor(row),
		})
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	cfg.UserID = userID
	cfg.LastDivergencePromptAt = now
	cfg.DivergencePromptCount++
	if err := t.store.PutBlendConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("store blend config: %w", err)
	}
	return alerts, nil
}

// promptFor renders the human-readable question for one flagged tag.
func promptFor(row model.TagBehavior) string {
	name := row.TagName
	if name == "" {
		name = fmt.Sprintf("Tag %s", row.TagID)
	}
	if row.DivergenceType == model.DivergenceNewInterest {
		return fmt.Sprintf("You've been engaging with %s bounties a lot. Add it to your skills?", name)
	}
	return fmt.Sprintf("You listed %s as a skill but rarely engage with it. Keep it?", name)
}

// ApplyResponse applies the user's answer to a divergence prompt. The
// flag is cleared in every case; add_skill and remove_skill also mutate
// the explicit tag score set directly.
func (t *Tracker) ApplyResponse(ctx context.Context, userID, tagID string, response model.AlertResponse) error {
	row, err := t.store.TagBehavior(ctx, userID, tagID)
	if err != nil {
		return fmt.Errorf("load tag behavior: %w", err)
	}

	switch response {
	case model.ResponseAddSkill:
		// Seed the explicit score from the observed implicit signal,
		// mapped onto the 1-5 declared scale.
		score := math.Round(row.ImplicitScore / 2)
		score = math.Max(minExplicitScore, math.Min(maxExplicitScore, score))
		if err := t.store.PutTagScore(ctx, model.UserTagScore{
			UserID:  userID,
			TagID:   tagID,
			TagName: row.TagName,
			Score:   score,
		}); err != nil {
			return fmt.Errorf("store tag score: %w", err)
		}
	case model.ResponseRemoveSkill:
		if err := t.store.DeleteTagScore(ctx, userID, tagID); err != nil {
			return fmt.Errorf("delete tag score: %w", err)
		}
	case model.ResponseKeep, model.ResponseDismiss:
		// Flag cleared below; nothing else to do.
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResponse, response)
	}

	row.UserID = userID
	row.TagID = tagID
	row.Diverged = false
	row.DivergenceType = ""
	row.ExplicitAtFlag = 0
	row.UpdatedAt = t.now()
	if err := t.store.PutTagBehavior(ctx, row); err != nil {
		return fmt.Errorf("store tag behavior: %w", err)
	}
	return nil
}
