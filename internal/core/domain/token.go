package domain

import (
	"errors"
	"fmt"
)

// TokenStatus represents the lifecycle state of a queue token.
type TokenStatus string

const (
	StatusWaiting TokenStatus = "waiting"
	StatusServing TokenStatus = "serving"
	StatusDone    TokenStatus = "done"
)

// Token types as displayed on the board.
const (
	TypeRegular  = "regular"
	TypePriority = "priority"
)

// validTransitions defines the allowed state machine transitions. The
// lifecycle is strictly linear: no state is skipped, and done is terminal.
var validTransitions = map[TokenStatus][]TokenStatus{
	StatusWaiting: {StatusServing},
	StatusServing: {StatusDone},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrTokenNotFound = errors.New("token not found")
var ErrCounterOccupied = errors.New("counter is already serving a token")
var ErrNothingServing = errors.New("no token serving at this counter")
var ErrVersionConflict = errors.New("queue state was modified concurrently")
var ErrUnknownSector = errors.New("unknown sector")

// CanTransitionTo reports whether a transition from the current status to
// next is valid.
func (s TokenStatus) CanTransitionTo(next TokenStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Token is a queued request for service. Counter is set only once the token
// reaches serving; Timestamp is issue time in Unix milliseconds and is the
// sole tie-break for serving order.
type Token struct {
	Number    string      `json:"number"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Sector    string      `json:"sector"`
	Status    TokenStatus `json:"status"`
	Counter   string      `json:"counter,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// TransitionTo advances the token's status, rejecting any edge outside
// waiting → serving → done.
func (t *Token) TransitionTo(next TokenStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	return nil
}
