package behavior

import "errors"

// Sentinel kinds for behavior tracking errors.
var (
	ErrUnknownResponse = errors.New("unknown divergence response")
)
