package redis

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/core/domain"
)

func TestDecodeState(t *testing.T) {
	raw := []byte(`{
		"tokens": [{"number":"H001","sector":"hospital","status":"waiting","timestamp":100}],
		"users": [],
		"activeSector": "pharmacy",
		"version": 12
	}`)

	state := decodeState(raw, zerolog.Nop())
	if state.Version != 12 || state.ActiveSector != "pharmacy" {
		t.Fatalf("unexpected state: %+v", state)
	}
	if len(state.Tokens) != 1 || state.Tokens[0].Number != "H001" {
		t.Fatalf("tokens not decoded: %+v", state.Tokens)
	}
}

func TestDecodeState_CorruptBlobFallsBack(t *testing.T) {
	state := decodeState([]byte(`{"tokens": [`), zerolog.Nop())
	if state.ActiveSector != domain.DefaultSector || state.Version != 0 {
		t.Fatalf("expected defaults, got %+v", state)
	}
	if state.Tokens == nil || state.Users == nil {
		t.Fatalf("default slices must be non-nil")
	}
}

func TestDecodeState_BackfillsMissingFields(t *testing.T) {
	// a legacy blob written before users and activeSector existed
	state := decodeState([]byte(`{"version": 3}`), zerolog.Nop())
	if state.ActiveSector != domain.DefaultSector {
		t.Fatalf("activeSector not backfilled: %q", state.ActiveSector)
	}
	if state.Tokens == nil || state.Users == nil {
		t.Fatalf("missing collections not backfilled: %+v", state)
	}
	if state.Version != 3 {
		t.Fatalf("version lost in backfill: %d", state.Version)
	}
}
