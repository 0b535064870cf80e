package domain

import (
	"errors"
	"testing"
)

func TestTokenStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to TokenStatus
		want     bool
	}{
		{StatusWaiting, StatusServing, true},
		{StatusServing, StatusDone, true},
		{StatusWaiting, StatusDone, false},
		{StatusServing, StatusWaiting, false},
		{StatusDone, StatusServing, false},
		{StatusDone, StatusWaiting, false},
		{StatusDone, StatusDone, false},
		{StatusWaiting, StatusWaiting, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestToken_TransitionTo(t *testing.T) {
	tok := Token{Number: "H001", Status: StatusWaiting}

	if err := tok.TransitionTo(StatusServing); err != nil {
		t.Fatalf("waiting -> serving: %v", err)
	}
	if tok.Status != StatusServing {
		t.Fatalf("status not updated: %s", tok.Status)
	}

	if err := tok.TransitionTo(StatusDone); err != nil {
		t.Fatalf("serving -> done: %v", err)
	}

	// done is terminal
	if err := tok.TransitionTo(StatusServing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if tok.Status != StatusDone {
		t.Fatalf("failed transition must not mutate status, got %s", tok.Status)
	}
}
