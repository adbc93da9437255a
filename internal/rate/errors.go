package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter exceeds its action's budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnknownAction is returned by strict limiters for actions with no rule.
	ErrUnknownAction = errors.New("unknown rate limit action")
)
