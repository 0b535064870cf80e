package service

import (
	"reflect"
	"testing"

	"github.com/tokenline/queue-display/internal/core/domain"
)

func viewState() domain.QueueState {
	return domain.QueueState{
		ActiveSector: "hospital",
		Tokens: []domain.Token{
			{Number: "H005", Name: "Eve", Sector: "hospital", Status: domain.StatusWaiting, Timestamp: 500},
			{Number: "H003", Name: "Carol", Sector: "hospital", Status: domain.StatusServing, Counter: "3", Timestamp: 300},
			{Number: "H001", Name: "Ada", Sector: "hospital", Status: domain.StatusServing, Counter: "1", Timestamp: 100},
			{Number: "H002", Name: "Bob", Sector: "hospital", Status: domain.StatusServing, Counter: "2", Timestamp: 200},
			{Number: "H004", Name: "Dan", Sector: "hospital", Status: domain.StatusWaiting, Timestamp: 400},
			{Number: "H000", Name: "Old", Sector: "hospital", Status: domain.StatusDone, Counter: "1", Timestamp: 50},
			{Number: "P001", Name: "Pat", Sector: "pharmacy", Status: domain.StatusWaiting, Timestamp: 10},
		},
	}
}

func TestViewService_Admin(t *testing.T) {
	views := NewViewService(0)
	view := views.Admin(viewState(), "", "2")

	if view.Sector != "hospital" {
		t.Fatalf("empty sector must fall back to active sector, got %s", view.Sector)
	}
	if view.Serving == nil || view.Serving.Number != "H002" || view.Serving.Name != "Bob" {
		t.Fatalf("expected H002 serving at counter 2, got %+v", view.Serving)
	}

	var waiting []string
	for _, tv := range view.Waiting {
		waiting = append(waiting, tv.Number)
	}
	if want := []string{"H004", "H005"}; !reflect.DeepEqual(waiting, want) {
		t.Fatalf("waiting queue: got %v, want %v", waiting, want)
	}
}

func TestViewService_Admin_FreeCounter(t *testing.T) {
	views := NewViewService(0)
	view := views.Admin(viewState(), "hospital", "9")

	if view.Serving != nil {
		t.Fatalf("counter 9 serves nothing, got %+v", view.Serving)
	}
	if view.Waiting == nil {
		t.Fatalf("waiting must be an empty slice, not nil")
	}
}

func TestViewService_Lobby_OrdersDesksByCounter(t *testing.T) {
	views := NewViewService(0)
	view := views.Lobby(viewState(), "hospital")

	var counters []string
	for _, d := range view.Serving {
		counters = append(counters, d.Counter)
	}
	if want := []string{"1", "2", "3"}; !reflect.DeepEqual(counters, want) {
		t.Fatalf("desk order: got %v, want %v", counters, want)
	}
	if view.Serving[0].Number != "H001" {
		t.Fatalf("counter 1 shows %s, want H001", view.Serving[0].Number)
	}
}

func TestViewService_Lobby_CapsWaitingPreview(t *testing.T) {
	state := domain.QueueState{ActiveSector: "hospital"}
	for i := 0; i < 15; i++ {
		state.Tokens = append(state.Tokens, domain.Token{
			Number:    "H" + string(rune('A'+i)),
			Sector:    "hospital",
			Status:    domain.StatusWaiting,
			Timestamp: int64(100 - i), // reverse order: preview keeps store order
		})
	}

	views := NewViewService(10)
	view := views.Lobby(state, "")

	if len(view.Waiting) != 10 {
		t.Fatalf("expected 10 preview entries, got %d", len(view.Waiting))
	}
	if view.Waiting[0].Number != "HA" || view.Waiting[9].Number != "HJ" {
		t.Fatalf("preview re-sorted: first %s last %s", view.Waiting[0].Number, view.Waiting[9].Number)
	}
}

func TestViewService_Lobby_HidesNames(t *testing.T) {
	views := NewViewService(0)
	view := views.Lobby(viewState(), "hospital")

	for _, tv := range view.Waiting {
		if tv.Name != "" {
			t.Fatalf("lobby preview must not expose names, got %q", tv.Name)
		}
	}
}

func TestViewService_Lobby_EmptySector(t *testing.T) {
	views := NewViewService(0)
	view := views.Lobby(viewState(), "radiology")

	if len(view.Serving) != 0 || len(view.Waiting) != 0 {
		t.Fatalf("expected empty board, got %+v", view)
	}
	if view.Serving == nil || view.Waiting == nil {
		t.Fatalf("board slices must be empty, not nil")
	}
}
