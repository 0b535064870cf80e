// Package syncer keeps every attached view consistent with the durable
// queue state within a bounded delay.
package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/api/metrics"
	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
	"github.com/tokenline/queue-display/internal/hub"
)

const defaultInterval = 5 * time.Second

// Reload triggers, used as the metrics label.
const (
	TriggerStartup      = "startup"
	TriggerNotification = "notification"
	TriggerPoll         = "poll"
)

// Update is the envelope pushed to board stream clients on every refresh.
type Update struct {
	View    string           `json:"view"`
	Version int64            `json:"version"`
	Admin   *ports.AdminView `json:"admin,omitempty"`
	Lobby   *ports.LobbyView `json:"lobby,omitempty"`
}

// Synchronizer reacts to store change notifications and a periodic lobby
// poll: either way it discards its cached snapshot, reloads the aggregate
// from the durable store, and pushes fresh projections into the hub. The
// cache is only ever replaced wholesale under the lock; it exists so new
// stream clients get an immediate first frame, never as a write target.
type Synchronizer struct {
	store    ports.StateStore
	views    ports.ViewService
	hub      *hub.Hub
	clock    clockwork.Clock
	interval time.Duration
	log      zerolog.Logger

	mu       sync.RWMutex
	snapshot domain.QueueState
}

func New(store ports.StateStore, views ports.ViewService, h *hub.Hub, clock clockwork.Clock, interval time.Duration, log zerolog.Logger) *Synchronizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Synchronizer{
		store:    store,
		views:    views,
		hub:      h,
		clock:    clock,
		interval: interval,
		log:      log,
		snapshot: domain.DefaultState(),
	}
}

// Run blocks until ctx is cancelled, refreshing on every change
// notification and on each poll tick while lobby clients are attached. The
// poll self-heals from lost notifications; admin consoles rely on
// notifications alone.
func (s *Synchronizer) Run(ctx context.Context) error {
	changes, err := s.store.Watch(ctx)
	if err != nil {
		return err
	}

	s.Refresh(ctx, TriggerStartup)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				s.log.Warn().Msg("change feed closed, resubscribing")
				changes, err = s.store.Watch(ctx)
				if err != nil {
					return err
				}
				continue
			}
			s.Refresh(ctx, TriggerNotification)
		case <-ticker.Chan():
			if s.hub.CountView(hub.ViewLobby) == 0 {
				continue
			}
			s.Refresh(ctx, TriggerPoll)
		}
	}
}

// Refresh reloads the aggregate and broadcasts every attached subscription's
// projection. Load failures are logged and skipped; the next trigger retries.
func (s *Synchronizer) Refresh(ctx context.Context, trigger string) {
	state, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("trigger", trigger).Msg("state reload failed")
		return
	}
	metrics.SyncReloadsTotal.WithLabelValues(trigger).Inc()

	s.mu.Lock()
	s.snapshot = state
	s.mu.Unlock()

	for _, sub := range s.hub.Subscriptions() {
		payload, err := s.render(state, sub)
		if err != nil {
			s.log.Error().Err(err).Str("view", sub.View).Msg("view render failed")
			continue
		}
		s.hub.Broadcast(payload, sub)
	}
}

// Snapshot returns the last loaded aggregate. It is a cache: callers that
// are about to mutate must load from the store instead.
func (s *Synchronizer) Snapshot() domain.QueueState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// RenderFor produces the current payload for one subscription, used as the
// first frame when a stream client attaches.
func (s *Synchronizer) RenderFor(sub hub.Subscription) ([]byte, error) {
	return s.render(s.Snapshot(), sub)
}

func (s *Synchronizer) render(state domain.QueueState, sub hub.Subscription) ([]byte, error) {
	update := Update{View: sub.View, Version: state.Version}
	switch sub.View {
	case hub.ViewAdmin:
		view := s.views.Admin(state, sub.Sector, sub.Counter)
		update.Admin = &view
	default:
		view := s.views.Lobby(state, sub.Sector)
		update.Lobby = &view
	}
	return json.Marshal(update)
}
