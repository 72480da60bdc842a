package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrMissingProfile = errors.New("user profile not found; complete setup first")
	ErrNoCandidates   = errors.New("no accessible bounties to recommend")
)
