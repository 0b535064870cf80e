package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
	"github.com/tokenline/queue-display/internal/core/service"
	"github.com/tokenline/queue-display/internal/hub"
)

type stubStore struct {
	mu      sync.Mutex
	state   domain.QueueState
	loadErr error
	loads   int
	changes chan ports.StateChange
}

func newStubStore(state domain.QueueState) *stubStore {
	return &stubStore{state: state, changes: make(chan ports.StateChange, 4)}
}

func (s *stubStore) Load(_ context.Context) (domain.QueueState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.QueueState{}, s.loadErr
	}
	s.loads++
	return s.state.Clone(), nil
}

func (s *stubStore) Save(_ context.Context, state domain.QueueState) (domain.QueueState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Version++
	s.state = state.Clone()
	return s.state.Clone(), nil
}

func (s *stubStore) Watch(_ context.Context) (<-chan ports.StateChange, error) {
	return s.changes, nil
}

func (s *stubStore) setState(state domain.QueueState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *stubStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func boardState(version int64) domain.QueueState {
	state := domain.DefaultState()
	state.Version = version
	state.Tokens = []domain.Token{
		{Number: "H001", Sector: "hospital", Status: domain.StatusServing, Counter: "1", Timestamp: 100},
		{Number: "H002", Sector: "hospital", Status: domain.StatusWaiting, Timestamp: 200},
	}
	return state
}

func lobbyClient(id string) *hub.Client {
	return &hub.Client{
		ID:           id,
		Send:         make(chan []byte, 8),
		Subscription: hub.Subscription{View: hub.ViewLobby, Sector: "hospital"},
	}
}

func receiveUpdate(t *testing.T, c *hub.Client) Update {
	t.Helper()
	select {
	case payload := <-c.Send:
		var update Update
		if err := json.Unmarshal(payload, &update); err != nil {
			t.Fatalf("unmarshal update: %v", err)
		}
		return update
	case <-time.After(2 * time.Second):
		t.Fatalf("no update received")
		return Update{}
	}
}

func TestSynchronizer_NotificationTriggersReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStubStore(boardState(1))
	boardHub := hub.New(zerolog.Nop())
	client := lobbyClient("l1")
	boardHub.Register(client)

	s := New(store, service.NewViewService(10), boardHub, clockwork.NewFakeClock(), time.Second, zerolog.Nop())
	go func() { _ = s.Run(ctx) }()

	// startup refresh pushes the first frame
	first := receiveUpdate(t, client)
	if first.View != hub.ViewLobby || first.Version != 1 {
		t.Fatalf("unexpected startup frame: %+v", first)
	}
	if first.Lobby == nil || len(first.Lobby.Serving) != 1 {
		t.Fatalf("startup frame missing board: %+v", first.Lobby)
	}

	// a store change notification forces a fresh load and broadcast
	store.setState(boardState(2))
	store.changes <- ports.StateChange{Version: 2}

	second := receiveUpdate(t, client)
	if second.Version != 2 {
		t.Fatalf("expected version 2 after notification, got %d", second.Version)
	}
}

func TestSynchronizer_PollOnlyWithLobbyClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStubStore(boardState(1))
	boardHub := hub.New(zerolog.Nop())
	admin := &hub.Client{
		ID:           "a1",
		Send:         make(chan []byte, 8),
		Subscription: hub.Subscription{View: hub.ViewAdmin, Sector: "hospital", Counter: "1"},
	}
	boardHub.Register(admin)

	clock := clockwork.NewFakeClock()
	s := New(store, service.NewViewService(10), boardHub, clock, time.Second, zerolog.Nop())
	go func() { _ = s.Run(ctx) }()

	receiveUpdate(t, admin) // startup frame
	startupLoads := store.loadCount()

	// no lobby client attached: the tick must not reload
	clock.BlockUntil(1)
	clock.Advance(time.Second)
	time.Sleep(50 * time.Millisecond)
	if got := store.loadCount(); got != startupLoads {
		t.Fatalf("poll reloaded without lobby clients: %d loads", got)
	}

	// with a lobby client the poll self-heals missed notifications
	lobby := lobbyClient("l1")
	boardHub.Register(lobby)
	store.setState(boardState(5))

	clock.Advance(time.Second)
	update := receiveUpdate(t, lobby)
	if update.Version != 5 {
		t.Fatalf("expected polled version 5, got %d", update.Version)
	}
}

func TestSynchronizer_RefreshSkipsOnLoadFailure(t *testing.T) {
	store := newStubStore(boardState(3))
	boardHub := hub.New(zerolog.Nop())
	s := New(store, service.NewViewService(10), boardHub, clockwork.NewFakeClock(), time.Second, zerolog.Nop())

	s.Refresh(context.Background(), TriggerStartup)
	if got := s.Snapshot().Version; got != 3 {
		t.Fatalf("snapshot version: got %d, want 3", got)
	}

	store.mu.Lock()
	store.loadErr = errors.New("redis down")
	store.mu.Unlock()

	// a failed reload keeps the last good snapshot
	s.Refresh(context.Background(), TriggerNotification)
	if got := s.Snapshot().Version; got != 3 {
		t.Fatalf("failed refresh replaced the snapshot: version %d", got)
	}
}

func TestSynchronizer_RenderFor(t *testing.T) {
	store := newStubStore(boardState(4))
	boardHub := hub.New(zerolog.Nop())
	s := New(store, service.NewViewService(10), boardHub, clockwork.NewFakeClock(), time.Second, zerolog.Nop())
	s.Refresh(context.Background(), TriggerStartup)

	payload, err := s.RenderFor(hub.Subscription{View: hub.ViewAdmin, Sector: "hospital", Counter: "1"})
	if err != nil {
		t.Fatalf("RenderFor: %v", err)
	}
	var update Update
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if update.View != hub.ViewAdmin || update.Admin == nil {
		t.Fatalf("expected admin payload, got %+v", update)
	}
	if update.Admin.Serving == nil || update.Admin.Serving.Number != "H001" {
		t.Fatalf("admin frame missing serving token: %+v", update.Admin)
	}
}
