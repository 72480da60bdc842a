package relevance_test

import (
	"testing"

	"github.com/bountyhub/recommender/internal/domain/model"
	"github.com/bountyhub/recommender/internal/domain/relevance"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given a user with explicit tag scores", t, func() {
		userTags := map[string]float64{
			"tag-go": 5,
			"tag-ts": 3,
		}

		Convey("When scoring a bounty with a single perfectly matched tag", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-go", Weight: 1.0},
			}

			Convey("Then a top score with full weight yields the maximum relevance", func() {
				So(relevance.Score(userTags, bountyTags), ShouldEqual, 10.0)
			})
		})

		Convey("When scoring a bounty with a partially matched tag set", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-go", Weight: 0.5},
				{BountyID: "b1", TagID: "tag-rust", Weight: 0.5},
			}

			Convey("Then the unmatched tag contributes zero and drags the average down", func() {
				// (5*0.5 + 0*0.5) / 1.0 * 2 = 5.0
				So(relevance.Score(userTags, bountyTags), ShouldEqual, 5.0)
			})
		})

		Convey("When scoring a bounty whose tags the user has no scores for", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-rust", Weight: 0.7},
				{BountyID: "b1", TagID: "tag-design", Weight: 0.3},
			}

			Convey("Then the relevance is zero", func() {
				So(relevance.Score(userTags, bountyTags), ShouldEqual, 0.0)
			})
		})

		Convey("When scoring a bounty with no tags at all", func() {
			Convey("Then the relevance is zero", func() {
				So(relevance.Score(userTags, nil), ShouldEqual, 0.0)
			})
		})

		Convey("When scoring a bounty with a zero total weight", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-go", Weight: 0},
			}

			Convey("Then the relevance is zero rather than a division error", func() {
				So(relevance.Score(userTags, bountyTags), ShouldEqual, 0.0)
			})
		})

		Convey("When weights vary across matched tags", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-go", Weight: 0.8},
				{BountyID: "b1", TagID: "tag-ts", Weight: 0.2},
			}

			Convey("Then the result is the weighted average rescaled by two", func() {
				// (5*0.8 + 3*0.2) / 1.0 * 2 = 9.2
				So(relevance.Score(userTags, bountyTags), ShouldAlmostEqual, 9.2, 1e-9)
			})

			Convey("And the result never exceeds the maximum", func() {
				So(relevance.Score(userTags, bountyTags), ShouldBeLessThanOrEqualTo, 10.0)
			})
		})

		Convey("When a stronger user score replaces a weaker one", func() {
			bountyTags := []model.BountyTag{
				{BountyID: "b1", TagID: "tag-ts", Weight: 1.0},
			}
			weak := relevance.Score(userTags, bountyTags)
			userTags["tag-ts"] = 5
			strong := relevance.Score(userTags, bountyTags)

			Convey("Then the relevance grows monotonically with the score", func() {
				So(strong, ShouldBeGreaterThan, weak)
			})
		})
	})
}

func TestExplain(t *testing.T) {
	Convey("Given a user, a tagged bounty and a name table", t, func() {
		userTags := map[string]float64{"tag-go": 4}
		bountyTags := []model.BountyTag{
			{BountyID: "b1", TagID: "tag-go", Weight: 0.5},
			{BountyID: "b1", TagID: "tag-gone", Weight: 0.5},
		}
		names := map[string]string{"tag-go": "golang"}

		Convey("When explaining the score", func() {
			score, matches := relevance.Explain(userTags, bountyTags, names)

			Convey("Then the score matches the plain computation", func() {
				So(score, ShouldEqual, relevance.Score(userTags, bountyTags))
			})

			Convey("Then every bounty tag appears in the breakdown", func() {
				So(matches, ShouldHaveLength, 2)
				So(matches[0].TagName, ShouldEqual, "golang")
				So(matches[0].Product, ShouldAlmostEqual, 2.0, 1e-9)
			})

			Convey("Then a stale tag reference gets a placeholder name", func() {
				So(matches[1].TagName, ShouldEqual, "Tag tag-gone")
				So(matches[1].UserScore, ShouldEqual, 0)
			})
		})

		Convey("When explaining a bounty with no tags", func() {
			score, matches := relevance.Explain(userTags, nil, names)

			Convey("Then both the score and the breakdown are empty", func() {
				So(score, ShouldEqual, 0)
				So(matches, ShouldBeNil)
			})
		})
	})
}
