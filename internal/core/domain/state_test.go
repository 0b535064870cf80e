package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleState() QueueState {
	return QueueState{
		ActiveSector: "hospital",
		Users:        []User{},
		Tokens: []Token{
			{Number: "H003", Sector: "hospital", Status: StatusWaiting, Timestamp: 300},
			{Number: "H001", Sector: "hospital", Status: StatusWaiting, Timestamp: 100},
			{Number: "H002", Sector: "hospital", Status: StatusWaiting, Timestamp: 200},
			{Number: "H000", Sector: "hospital", Status: StatusServing, Counter: "2", Timestamp: 50},
			{Number: "P001", Sector: "pharmacy", Status: StatusWaiting, Timestamp: 10},
		},
	}
}

func TestQueueState_WaitingSortsByTimestamp(t *testing.T) {
	state := sampleState()
	waiting := state.Waiting("hospital")

	var got []string
	for _, tok := range waiting {
		got = append(got, tok.Number)
	}
	want := []string{"H001", "H002", "H003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("waiting order: got %v, want %v", got, want)
	}
}

func TestQueueState_NextWaitingIsOldest(t *testing.T) {
	state := sampleState()
	next := state.NextWaiting("hospital")
	if next == nil || next.Number != "H001" {
		t.Fatalf("expected H001, got %+v", next)
	}

	if state.NextWaiting("radiology") != nil {
		t.Fatalf("expected nil for empty sector")
	}
}

func TestQueueState_ServingAtScopesSectorAndCounter(t *testing.T) {
	state := sampleState()

	if got := state.ServingAt("hospital", "2"); got == nil || got.Number != "H000" {
		t.Fatalf("expected H000 at hospital/2, got %+v", got)
	}
	// same counter, different sector: counters are sector-scoped
	if got := state.ServingAt("pharmacy", "2"); got != nil {
		t.Fatalf("expected nil at pharmacy/2, got %+v", got)
	}
	if got := state.ServingAt("hospital", "1"); got != nil {
		t.Fatalf("expected nil at hospital/1, got %+v", got)
	}
}

func TestQueueState_ServingSortsByCounter(t *testing.T) {
	state := QueueState{Tokens: []Token{
		{Number: "A3", Sector: "s", Status: StatusServing, Counter: "3"},
		{Number: "A1", Sector: "s", Status: StatusServing, Counter: "1"},
		{Number: "A10", Sector: "s", Status: StatusServing, Counter: "10"},
		{Number: "A2", Sector: "s", Status: StatusServing, Counter: "2"},
	}}

	var got []string
	for _, tok := range state.Serving("s") {
		got = append(got, tok.Counter)
	}
	want := []string{"1", "2", "3", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counter order: got %v, want %v", got, want)
	}
}

func TestQueueState_WaitingPreviewKeepsStoreOrder(t *testing.T) {
	state := QueueState{}
	for i := 0; i < 15; i++ {
		state.Tokens = append(state.Tokens, Token{
			Number: "H" + string(rune('A'+i)),
			Sector: "hospital",
			Status: StatusWaiting,
			// reverse timestamps: preview must NOT re-sort
			Timestamp: int64(100 - i),
		})
	}

	preview := state.WaitingPreview("hospital", 10)
	if len(preview) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(preview))
	}
	if preview[0].Number != "HA" || preview[9].Number != "HJ" {
		t.Fatalf("preview not in store order: first %s last %s", preview[0].Number, preview[9].Number)
	}
}

func TestQueueState_NextNumber(t *testing.T) {
	state := QueueState{Tokens: []Token{
		{Number: "H001", Sector: "hospital"},
		{Number: "H007", Sector: "hospital"},
		{Number: "P002", Sector: "pharmacy"},
	}}

	if got := state.NextNumber("hospital"); got != "H008" {
		t.Fatalf("expected H008, got %s", got)
	}
	if got := state.NextNumber("pharmacy"); got != "P003" {
		t.Fatalf("expected P003, got %s", got)
	}
	if got := state.NextNumber("radiology"); got != "R001" {
		t.Fatalf("expected R001, got %s", got)
	}
}

func TestQueueState_NextTimestampIsMonotonic(t *testing.T) {
	state := QueueState{Tokens: []Token{{Timestamp: 500}}}

	if got := state.NextTimestamp(100); got != 501 {
		t.Fatalf("expected 501 (past max+1), got %d", got)
	}
	if got := state.NextTimestamp(900); got != 900 {
		t.Fatalf("expected 900, got %d", got)
	}
}

func TestQueueState_JSONRoundTrip(t *testing.T) {
	original := sampleState()
	original.Version = 7

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored QueueState
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(original, restored) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", restored, original)
	}
}

func TestQueueState_CloneIsDeep(t *testing.T) {
	original := sampleState()
	clone := original.Clone()
	clone.Tokens[0].Status = StatusDone

	if original.Tokens[0].Status == StatusDone {
		t.Fatalf("clone shares token storage with original")
	}
}

func TestCompareCounters(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "10", -1},
		{"10", "2", 1},
		{"3", "3", 0},
		{"A", "B", -1},
	}
	for _, tc := range cases {
		if got := CompareCounters(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareCounters(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
