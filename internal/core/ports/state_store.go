package ports

import (
	"context"

	"github.com/tokenline/queue-display/internal/core/domain"
)

// StateChange is emitted on the change feed after every successful save,
// including saves performed by other processes.
type StateChange struct {
	Version int64
}

// StateStore is the sole durable owner of the queue aggregate.
type StateStore interface {
	// Load reads the persisted aggregate. A missing or corrupt blob falls
	// back to domain.DefaultState; only infrastructure failures return an
	// error.
	Load(ctx context.Context) (domain.QueueState, error)

	// Save persists the aggregate in a single atomic write, guarded by the
	// version the caller loaded: if the durable copy has moved on, Save
	// returns domain.ErrVersionConflict and writes nothing. On success the
	// stored aggregate (with bumped version) is returned and a change
	// notification is published to all watchers.
	Save(ctx context.Context, state domain.QueueState) (domain.QueueState, error)

	// Watch subscribes to change notifications for the lifetime of ctx.
	// Notifications may coalesce; receivers must reload rather than trust
	// any in-memory copy.
	Watch(ctx context.Context) (<-chan StateChange, error)
}

// SessionStore holds session fields under keys separate from the queue
// aggregate, so the session can be cleared without touching queue data.
type SessionStore interface {
	SaveCurrentUser(ctx context.Context, user domain.User) error
	// LoadCurrentUser returns ok=false when no session is stored.
	LoadCurrentUser(ctx context.Context) (domain.User, bool, error)
	ClearCurrentUser(ctx context.Context) error
	// SaveActiveSector mirrors the aggregate's active sector under its own
	// key as a convenience for display clients.
	SaveActiveSector(ctx context.Context, sector string) error
	LoadActiveSector(ctx context.Context) (string, bool, error)
}
