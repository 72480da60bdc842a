package ranking_test

import (
	"testing"
	"time"

	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// baseInput builds a high-tier user with a habitual $1000 price point and
// one declared skill, scored 5.
func baseInput() ranking.Input {
	return ranking.Input{
		Profile: model.UserProfile{
			UserID:         "user-1",
			AccessTier:     model.TierHigh,
			AvgPriceViewed: 1000,
		},
		TagScores:  map[string]float64{"tag-go": 5},
		TagNames:   map[string]string{"tag-go": "golang", "tag-rust": "rust"},
		BountyTags: map[string][]model.BountyTag{},
	}
}

func addBounty(in *ranking.Input, b model.Bounty, tags ...model.BountyTag) {
	in.Bounties = append(in.Bounties, b)
	in.BountyTags[b.ID] = tags
}

func TestFilterByAccessTier(t *testing.T) {
	Convey("Given bounties across all three tiers", t, func() {
		bounties := []model.Bounty{
			{ID: "b-basic", Tier: model.TierBasic},
			{ID: "b-middle", Tier: model.TierMiddle},
			{ID: "b-high", Tier: model.TierHigh},
		}

		Convey("When filtering for each user tier", func() {
			basic := ranking.FilterByAccessTier(bounties, model.TierBasic)
			middle := ranking.FilterByAccessTier(bounties, model.TierMiddle)
			high := ranking.FilterByAccessTier(bounties, model.TierHigh)

			Convey("Then each tier sees exactly the bounties at or below it", func() {
				So(basic, ShouldHaveLength, 1)
				So(middle, ShouldHaveLength, 2)
				So(high, ShouldHaveLength, 3)
			})

			Convey("Then visibility grows monotonically with tier", func() {
				for _, b := range basic {
					So(middle, ShouldContain, b)
				}
				for _, b := range middle {
					So(high, ShouldContain, b)
				}
			})
		})
	})
}

func TestScoreAll(t *testing.T) {
	Convey("Given an engine with default weights", t, func() {
		engine := ranking.New()

		Convey("When scoring a perfectly matched bounty", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b1", TagID: "tag-go", Weight: 1.0},
			)

			scored, debug := engine.ScoreAll(in, true, false)

			Convey("Then the sub-scores compose into the expected final", func() {
				So(scored, ShouldHaveLength, 1)
				So(scored[0].RelevanceScore, ShouldEqual, 10.0)
				So(scored[0].SocialBoost, ShouldEqual, 0.0)
				So(scored[0].PriceAffinity, ShouldEqual, 1.0)
				// 0.55*10*(10/10) + 0 + 0.20*10*1.0 + 0 = 7.5
				So(scored[0].FinalScore, ShouldAlmostEqual, 7.5, 1e-9)
			})

			Convey("Then the counters reflect a clean pass", func() {
				So(debug.Candidates, ShouldEqual, 1)
				So(debug.TierFiltered, ShouldEqual, 1)
				So(debug.FilteredByRelevance, ShouldEqual, 1)
				So(debug.Fallback, ShouldBeFalse)
			})
		})

		Convey("When engagement exceeds the scoring cap", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh, EngagementScore: 40},
				model.BountyTag{BountyID: "b1", TagID: "tag-go", Weight: 1.0},
			)

			scored, _ := engine.ScoreAll(in, true, false)

			Convey("Then the engagement contribution clamps at its weight", func() {
				// 7.5 plus the full engagement slot: 0.10*10*(10/10) = 1.0.
				So(scored[0].FinalScore, ShouldAlmostEqual, 8.5, 1e-9)
			})
		})

		Convey("When every candidate falls below the relevance cutoff", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b1", TagID: "tag-rust", Weight: 1.0},
			)
			addBounty(&in,
				model.Bounty{ID: "b2", Price: 800, Tier: model.TierMiddle, EngagementScore: 5},
				model.BountyTag{BountyID: "b2", TagID: "tag-rust", Weight: 1.0},
			)

			scored, debug := engine.ScoreAll(in, true, false)

			Convey("Then the unfiltered set comes back instead of nothing", func() {
				So(scored, ShouldHaveLength, 2)
			})

			Convey("Then the fallback is visible in the counters", func() {
				So(debug.Fallback, ShouldBeTrue)
				So(debug.FilteredByRelevance, ShouldEqual, 0)
			})
		})

		Convey("When the filter is disabled", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b1", TagID: "tag-rust", Weight: 1.0},
			)

			scored, debug := engine.ScoreAll(in, false, false)

			Convey("Then low-relevance candidates survive without a fallback", func() {
				So(scored, ShouldHaveLength, 1)
				So(debug.Fallback, ShouldBeFalse)
			})
		})

		Convey("When explain mode is on", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b1", TagID: "tag-go", Weight: 1.0},
			)

			scored, _ := engine.ScoreAll(in, true, true)

			Convey("Then the per-tag breakdown is attached", func() {
				So(scored[0].TagMatches, ShouldHaveLength, 1)
				So(scored[0].TagMatches[0].TagName, ShouldEqual, "golang")
			})
		})

		Convey("When there are no candidates at all", func() {
			in := baseInput()
			scored, debug := engine.ScoreAll(in, true, false)

			Convey("Then both the result and the fallback stay empty", func() {
				So(scored, ShouldBeEmpty)
				So(debug.Fallback, ShouldBeFalse)
			})
		})
	})
}

func TestRecommend(t *testing.T) {
	Convey("Given an engine with default weights", t, func() {
		engine := ranking.New()

		Convey("When the user profile is missing", func() {
			in := baseInput()
			in.Profile.UserID = ""

			_, _, err := engine.Recommend(in)

			Convey("Then the missing-profile error comes back", func() {
				So(err, ShouldWrap, ranking.ErrMissingProfile)
			})
		})

		Convey("When no bounty survives tier filtering", func() {
			in := baseInput()
			in.Profile.AccessTier = model.TierBasic
			addBounty(&in, model.Bounty{ID: "b1", Price: 500, Tier: model.TierHigh})

			_, _, err := engine.Recommend(in)

			Convey("Then the no-candidates error comes back", func() {
				So(err, ShouldWrap, ranking.ErrNoCandidates)
			})
		})

		Convey("When a strong match and a plausible stretch exist", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b-main", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b-main", TagID: "tag-go", Weight: 1.0},
			)
			addBounty(&in,
				model.Bounty{ID: "b-stretch", Price: 900, Tier: model.TierHigh, EngagementScore: 10},
				model.BountyTag{BountyID: "b-stretch", TagID: "tag-rust", Weight: 1.0},
			)

			rec, _, err := engine.Recommend(in)

			Convey("Then the primary is the top-scored match", func() {
				So(err, ShouldBeNil)
				So(rec.Primary.Bounty.ID, ShouldEqual, "b-main")
			})

			Convey("Then the secondary is the stretch pick", func() {
				So(rec.Stretch, ShouldBeTrue)
				So(rec.Secondary.Bounty.ID, ShouldEqual, "b-stretch")
				So(rec.Secondary.RelevanceScore, ShouldBeLessThan, 3.0)
				So(rec.Secondary.FinalScore, ShouldBeGreaterThan, 0.2*rec.Primary.FinalScore)
			})
		})

		Convey("When no low-relevance bounty clears the stretch bar", func() {
			in := baseInput()
			in.TagScores["tag-ts"] = 4
			in.TagNames["tag-ts"] = "typescript"
			addBounty(&in,
				model.Bounty{ID: "b-main", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b-main", TagID: "tag-go", Weight: 1.0},
			)
			addBounty(&in,
				model.Bounty{ID: "b-second", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b-second", TagID: "tag-ts", Weight: 1.0},
			)

			rec, _, err := engine.Recommend(in)

			Convey("Then the secondary falls back to the runner-up", func() {
				So(err, ShouldBeNil)
				So(rec.Stretch, ShouldBeFalse)
				So(rec.Secondary.Bounty.ID, ShouldEqual, "b-second")
			})
		})

		Convey("When only one bounty exists", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b-only", Price: 1000, Tier: model.TierHigh},
				model.BountyTag{BountyID: "b-only", TagID: "tag-go", Weight: 1.0},
			)

			rec, _, err := engine.Recommend(in)

			Convey("Then the secondary mirrors the primary", func() {
				So(err, ShouldBeNil)
				So(rec.Stretch, ShouldBeFalse)
				So(rec.Secondary.Bounty.ID, ShouldEqual, rec.Primary.Bounty.ID)
			})
		})

		Convey("When every candidate falls below the relevance cutoff", func() {
			in := baseInput()
			addBounty(&in,
				model.Bounty{ID: "b1", Price: 1000, Tier: model.TierHigh, EngagementScore: 8},
				model.BountyTag{BountyID: "b1", TagID: "tag-rust", Weight: 1.0},
			)
			addBounty(&in,
				model.Bounty{ID: "b2", Price: 950, Tier: model.TierHigh, EngagementScore: 6},
				model.BountyTag{BountyID: "b2", TagID: "tag-rust", Weight: 1.0},
			)

			rec, debug, err := engine.Recommend(in)

			Convey("Then the fallback still produces two distinct picks", func() {
				So(err, ShouldBeNil)
				So(debug.Fallback, ShouldBeTrue)
				So(debug.FilteredByRelevance, ShouldEqual, 0)
				So(rec.Secondary.Bounty.ID, ShouldNotEqual, rec.Primary.Bounty.ID)
			})
		})
	})
}

func TestSortHelpers(t *testing.T) {
	Convey("Given a scored slice in arbitrary order", t, func() {
		now := time.Now()
		scored := []model.ScoredBounty{
			{Bounty: model.Bounty{ID: "a", Price: 300, EngagementScore: 5, CreatedAt: now.Add(-time.Hour)}, FinalScore: 4, RelevanceScore: 2},
			{Bounty: model.Bounty{ID: "b", Price: 100, EngagementScore: 9, CreatedAt: now}, FinalScore: 8, RelevanceScore: 6},
			{Bounty: model.Bounty{ID: "c", Price: 200, EngagementScore: 1, CreatedAt: now.Add(-2 * time.Hour)}, FinalScore: 6, RelevanceScore: 9},
		}

		Convey("When sorting by final score", func() {
			ranking.SortByFinalScore(scored)
			So(scored[0].Bounty.ID, ShouldEqual, "b")
			So(scored[2].Bounty.ID, ShouldEqual, "a")
		})

		Convey("When sorting by relevance", func() {
			ranking.SortByRelevance(scored)
			So(scored[0].Bounty.ID, ShouldEqual, "c")
		})

		Convey("When sorting by price ascending", func() {
			ranking.SortByPriceAsc(scored)
			So(scored[0].Bounty.Price, ShouldEqual, 100)
			So(scored[2].Bounty.Price, ShouldEqual, 300)
		})

		Convey("When sorting by price descending", func() {
			ranking.SortByPriceDesc(scored)
			So(scored[0].Bounty.Price, ShouldEqual, 300)
		})

		Convey("When sorting by engagement", func() {
			ranking.SortByEngagement(scored)
			So(scored[0].Bounty.EngagementScore, ShouldEqual, 9)
		})

		Convey("When sorting by newest", func() {
			ranking.SortByNewest(scored)
			So(scored[0].Bounty.ID, ShouldEqual, "b")
		})
	})
}
