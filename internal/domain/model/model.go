// Package model contains domain models passed between layers.
package model

import "time"

// AccessTier gates bounty visibility. Tiers are strictly ordered:
// basic < middle < high.
type AccessTier string

// Access tier values as stored and exchanged with collaborators.
const (
	TierBasic  AccessTier = "basic"
	TierMiddle AccessTier = "middle"
	TierHigh   AccessTier = "high"
)

// Level maps a tier to its numeric rank (basic=1, middle=2, high=3).
// Unknown tiers rank as basic.
func (t AccessTier) Level() int {
	switch t {
	case TierMiddle:
		return 2
	case TierHigh:
		return 3
	default:
		return 1
	}
}

// BountyStatus is the lifecycle state of a bounty. Only open bounties
// are scoring candidates.
type BountyStatus string

// Bounty status values.
const (
	StatusOpen      BountyStatus = "open"
	StatusClaimed   BountyStatus = "claimed"
	StatusCompleted BountyStatus = "completed"
	StatusExpired   BountyStatus = "expired"
)

// EventType classifies a user interaction with a bounty.
type EventType string

// Interaction event types. Claim is recorded for audit purposes but does
// not feed the behavior tracker.
const (
	EventView     EventType = "view"
	EventLike     EventType = "like"
	EventSubmit   EventType = "submit"
	EventClaim    EventType = "claim"
	EventComplete EventType = "complete"
)

// TracksBehavior reports whether this event type feeds the implicit
// behavior profile.
func (e EventType) TracksBehavior() bool {
	switch e {
	case EventView, EventLike, EventSubmit, EventComplete:
		return true
	default:
		return false
	}
}

// Bounty is a paid task listed on the marketplace.
type Bounty struct {
	ID              string
	Title           string
	Price           float64
	Tier            AccessTier
	Status          BountyStatus
	Views           int
	Submissions     int
	Likes           int
	EngagementScore float64 // 0-100
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BountyTag weights how strongly a tag characterizes a bounty.
type BountyTag struct {
	BountyID string
	TagID    string
	Weight   float64 // 0-1
}

// UserTagScore is an explicit, user-declared skill strength.
// Unique per (user, tag).
type UserTagScore struct {
	UserID  string
	TagID   string
	TagName string
	Score   float64 // 1-5
}

// ViewPriceWindow is the number of recent viewed prices kept on the
// profile for the trailing arithmetic average.
const ViewPriceWindow = 10

// UserProfile holds per-user aggregate state consumed by scoring.
type UserProfile struct {
	UserID            string
	AvgPriceViewed    float64 // trailing mean of the last 10 viewed prices
	RecentViewPrices  []float64
	EngagementScore   float64 // 0-100, min(totalInteractions*2, 100)
	AccessTier        AccessTier
	PlatformScore     float64 // 0-10
	TotalInteractions int
}

// MutualConnection is a social edge. Layer 1 edges are stored; layers 2
// and 3 are derived by graph expansion with strength decay.
type MutualConnection struct {
	MutualID string
	Layer    int     // 1-3, discovery layer
	Strength float64 // 0-1, after layer decay
}

// InteractionEvent is a raw behavior signal flowing through the queue.
type InteractionEvent struct {
	EventID  string // unique id for idempotency
	UserID   string
	BountyID string
	Type     EventType
	Price    float64 // bounty price at interaction time
	TS       time.Time
}

// TagMatch is the per-tag explain detail attached to a scored bounty
// when a caller requests the breakdown.
type TagMatch struct {
	TagID     string
	TagName   string
	UserScore float64
	Weight    float64
	Product   float64
}

// ScoredBounty is the ephemeral scoring result for one bounty.
type ScoredBounty struct {
	Bounty         Bounty
	RelevanceScore float64    // 0-10
	SocialBoost    float64    // 0-2
	PriceAffinity  float64    // 0-1
	FinalScore     float64    // 0-10
	TagMatches     []TagMatch // populated only in explain mode
}

// Recommendation is the two-slot pick returned to the caller. Secondary
// is the stretch slot and may equal Primary when only one bounty
// qualifies at all.
type Recommendation struct {
	Primary   ScoredBounty
	Secondary ScoredBounty
	Stretch   bool // secondary came from the low-relevance stretch rule
}

// RecommendationLogEntry is the append-only audit record for one
// recommendation request.
type RecommendationLogEntry struct {
	ID                string
	UserID            string
	PrimaryBountyID   string
	SecondaryBountyID string
	PrimaryScore      ScoreBreakdown
	SecondaryScore    ScoreBreakdown
	Reason            string
	CreatedAt         time.Time
}

// ScoreBreakdown is the compact four-part score stored with a log entry.
type ScoreBreakdown struct {
	Relevance     float64
	SocialBoost   float64
	PriceAffinity float64
	Final         float64
}

// TagBehavior holds the implicit signal for one (user, tag) pair: raw
// counters per event type, normalized per-type scores, and the derived
// implicit score.
type TagBehavior struct {
	UserID  string
	TagID   string
	TagName string

	ViewCount     int
	LikeCount     int
	SubmitCount   int
	CompleteCount int

	ViewScore     float64 // 0-10
	LikeScore     float64 // 0-10
	SubmitScore   float64 // 0-10
	CompleteScore float64 // 0-10

	ImplicitScore float64 // 0-10

	Diverged       bool
	DivergenceType DivergenceType
	ExplicitAtFlag float64 // explicit score observed at flag time
	UpdatedAt      time.Time
}

// PriceBehavior holds the rolling price signal for one user: one
// exponential average per event type and the derived implicit range.
type PriceBehavior struct {
	UserID string

	AvgViewed    float64
	AvgLiked     float64
	AvgSubmitted float64
	AvgCompleted float64

	RangeMin float64
	RangeMax float64

	Diverged  bool
	UpdatedAt time.Time
}

// BlendConfig holds the per-user explicit/implicit mixing state.
// ExplicitWeight + ImplicitWeight is always 1.0.
type BlendConfig struct {
	UserID                 string
	ExplicitWeight         float64
	ImplicitWeight         float64
	LastDivergencePromptAt time.Time
	DivergencePromptCount  int
}

// DivergenceType classifies a disagreement between the explicit and
// implicit profiles.
type DivergenceType string

// Divergence kinds.
const (
	DivergenceNewInterest DivergenceType = "new_interest"
	DivergenceUnusedSkill DivergenceType = "unused_skill"
)

// DivergenceAlert is a user-facing prompt produced when the explicit and
// implicit signals disagree beyond a threshold.
type DivergenceAlert struct {
	UserID        string
	TagID         string
	TagName       string
	Type          DivergenceType
	ExplicitScore float64
	ImplicitScore float64
	Prompt        string
}

// AlertResponse is the user's answer to a divergence prompt.
type AlertResponse string

// Alert response values.
const (
	ResponseAddSkill    AlertResponse = "add_skill"
	ResponseRemoveSkill AlertResponse = "remove_skill"
	ResponseKeep        AlertResponse = "keep"
	ResponseDismiss     AlertResponse = "dismiss"
)

// BlendedTagScore is the explicit/implicit mix for one tag, for external
// consumers of the blended profile.
type BlendedTagScore struct {
	TagID    string
	TagName  string
	Explicit float64
	Implicit float64
	Blended  float64
}
