// Package domain holds the types and errors shared by the matchmaking core.
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoSession is returned by mutating operations called without an authenticated user.
	ErrNoSession       = errors.New("no session")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrNotParticipant  = errors.New("user is not a participant of this match")
	ErrBlocked         = errors.New("a block exists between these users")
)

// RateLimitedError is a local admission-control rejection.
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited on %s, retry after %s", e.Action, e.RetryAfter)
}

// IsRateLimited unwraps err into a *RateLimitedError.
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
