package ports

import (
	"context"

	"github.com/tokenline/queue-display/internal/core/domain"
)

// IssueTokenInput carries the data needed to add a token to the queue.
type IssueTokenInput struct {
	Sector string // empty = the aggregate's active sector
	Name   string
	Type   string // empty = regular
	// RequestID enables idempotent issuing: replays with the same ID return
	// the originally issued token without creating a duplicate.
	RequestID string
}

// CallInput addresses the counter a staff action operates on.
type CallInput struct {
	Sector  string // empty = the aggregate's active sector
	Counter string
}

// CallResult reports what a call-next actually did. Both fields may be set
// (previous token finished, next one called), either alone, or neither when
// the call was a true no-op.
type CallResult struct {
	Called    *domain.Token `json:"called,omitempty"`
	Completed *domain.Token `json:"completed,omitempty"`
}

// QueueService is the token-lifecycle engine.
type QueueService interface {
	// IssueToken creates a waiting token with a fresh monotonic timestamp
	// and a display number unique within its sector.
	IssueToken(ctx context.Context, input IssueTokenInput) (domain.Token, error)

	// CallNext finishes the token serving at the counter (if any), then
	// calls the oldest waiting token in the sector to it. With nothing
	// waiting, the finish alone is persisted; with nothing serving either,
	// the call is a no-op.
	CallNext(ctx context.Context, input CallInput) (CallResult, error)

	// RepeatCall re-announces the token serving at the counter. No state
	// changes.
	RepeatCall(ctx context.Context, input CallInput) (domain.Token, error)

	// SetActiveSector switches the sector all views filter on.
	SetActiveSector(ctx context.Context, sector string) error
}

// Announcer is the best-effort audio/speech collaborator. Announce never
// blocks and never reports failure; delivery is purely a UX affordance.
type Announcer interface {
	Announce(ctx context.Context, number, counter string)
}
