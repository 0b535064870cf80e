package hub

import (
	"testing"

	"github.com/rs/zerolog"
)

func newClient(id string, sub Subscription) *Client {
	return &Client{ID: id, Send: make(chan []byte, 4), Subscription: sub}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_BroadcastMatching(t *testing.T) {
	h := New(zerolog.Nop())

	admin1 := newClient("a1", Subscription{View: ViewAdmin, Sector: "hospital", Counter: "1"})
	admin2 := newClient("a2", Subscription{View: ViewAdmin, Sector: "hospital", Counter: "2"})
	lobbyH := newClient("l1", Subscription{View: ViewLobby, Sector: "hospital"})
	lobbyP := newClient("l2", Subscription{View: ViewLobby, Sector: "pharmacy"})
	for _, c := range []*Client{admin1, admin2, lobbyH, lobbyP} {
		h.Register(c)
	}

	// scoped broadcast hits only the matching lobby
	h.Broadcast([]byte("x"), Subscription{View: ViewLobby, Sector: "hospital"})
	if len(drain(lobbyH)) != 1 {
		t.Fatalf("hospital lobby missed its update")
	}
	for _, c := range []*Client{admin1, admin2, lobbyP} {
		if len(drain(c)) != 0 {
			t.Fatalf("client %s got an update outside its subscription", c.ID)
		}
	}

	// empty meta fields are wildcards
	h.Broadcast([]byte("y"), Subscription{View: ViewAdmin})
	if len(drain(admin1)) != 1 || len(drain(admin2)) != 1 {
		t.Fatalf("wildcard admin broadcast missed a console")
	}
	if len(drain(lobbyH)) != 0 {
		t.Fatalf("lobby received an admin broadcast")
	}

	h.Broadcast([]byte("z"), Subscription{})
	for _, c := range []*Client{admin1, admin2, lobbyH, lobbyP} {
		if len(drain(c)) != 1 {
			t.Fatalf("client %s missed the all-views broadcast", c.ID)
		}
	}
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	h := New(zerolog.Nop())
	slow := &Client{ID: "s1", Send: make(chan []byte, 1), Subscription: Subscription{View: ViewLobby}}
	h.Register(slow)

	h.Broadcast([]byte("first"), Subscription{})
	h.Broadcast([]byte("second"), Subscription{}) // buffer full: dropped

	got := drain(slow)
	if len(got) != 1 || string(got[0]) != "first" {
		t.Fatalf("expected only the first message, got %d messages", len(got))
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := New(zerolog.Nop())
	client := newClient("c1", Subscription{View: ViewLobby})
	h.Register(client)

	h.Unregister(client)
	if _, open := <-client.Send; open {
		t.Fatalf("Send not closed on unregister")
	}

	// second unregister is a no-op, not a double close
	h.Unregister(client)

	h.Broadcast([]byte("x"), Subscription{})
}

func TestHub_SubscriptionsDedupes(t *testing.T) {
	h := New(zerolog.Nop())
	sub := Subscription{View: ViewLobby, Sector: "hospital"}
	h.Register(newClient("c1", sub))
	h.Register(newClient("c2", sub))
	h.Register(newClient("c3", Subscription{View: ViewAdmin, Sector: "hospital", Counter: "1"}))

	subs := h.Subscriptions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 distinct subscriptions, got %d: %v", len(subs), subs)
	}
}

func TestHub_CountView(t *testing.T) {
	h := New(zerolog.Nop())
	if h.CountView(ViewLobby) != 0 {
		t.Fatalf("fresh hub must be empty")
	}

	lobby := newClient("l1", Subscription{View: ViewLobby})
	h.Register(lobby)
	h.Register(newClient("a1", Subscription{View: ViewAdmin}))

	if got := h.CountView(ViewLobby); got != 1 {
		t.Fatalf("lobby count: got %d, want 1", got)
	}
	if got := h.CountView(ViewAdmin); got != 1 {
		t.Fatalf("admin count: got %d, want 1", got)
	}

	h.Unregister(lobby)
	if got := h.CountView(ViewLobby); got != 0 {
		t.Fatalf("lobby count after unregister: got %d, want 0", got)
	}
}
