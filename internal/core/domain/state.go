package domain

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultSector is assumed when the persisted aggregate carries no sector.
const DefaultSector = "hospital"

// QueueState is the durable aggregate shared by every attached view. It is
// persisted as a single JSON blob; Version is bumped on every save and is
// the compare-and-swap guard against concurrent writers.
type QueueState struct {
	Tokens       []Token `json:"tokens"`
	Users        []User  `json:"users"`
	ActiveSector string  `json:"activeSector"`
	Version      int64   `json:"version"`
}

// DefaultState returns the aggregate a fresh deployment starts from, and the
// fallback when the persisted blob is missing or corrupt.
func DefaultState() QueueState {
	return QueueState{
		Tokens:       []Token{},
		Users:        []User{},
		ActiveSector: DefaultSector,
	}
}

// Clone returns a deep copy so callers can mutate freely without aliasing
// the cached snapshot.
func (s QueueState) Clone() QueueState {
	out := s
	out.Tokens = make([]Token, len(s.Tokens))
	copy(out.Tokens, s.Tokens)
	out.Users = make([]User, len(s.Users))
	copy(out.Users, s.Users)
	return out
}

// ServingAt returns the token currently serving at the given sector and
// counter, or nil. The pointer aliases the slice so callers may mutate it.
func (s *QueueState) ServingAt(sector, counter string) *Token {
	for i := range s.Tokens {
		t := &s.Tokens[i]
		if t.Status == StatusServing && t.Sector == sector && t.Counter == counter {
			return t
		}
	}
	return nil
}

// Waiting returns the sector's waiting tokens ordered by timestamp
// ascending (first come, first served).
func (s *QueueState) Waiting(sector string) []Token {
	var out []Token
	for _, t := range s.Tokens {
		if t.Status == StatusWaiting && t.Sector == sector {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// WaitingPreview returns up to limit waiting tokens for the sector in store
// order. The public board shows arrival order as persisted, not a re-sort.
func (s *QueueState) WaitingPreview(sector string, limit int) []Token {
	var out []Token
	for _, t := range s.Tokens {
		if t.Status != StatusWaiting || t.Sector != sector {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

// NextWaiting returns the oldest waiting token in the sector, or nil. The
// pointer aliases the slice so callers may mutate it.
func (s *QueueState) NextWaiting(sector string) *Token {
	var next *Token
	for i := range s.Tokens {
		t := &s.Tokens[i]
		if t.Status != StatusWaiting || t.Sector != sector {
			continue
		}
		if next == nil || t.Timestamp < next.Timestamp {
			next = t
		}
	}
	return next
}

// Serving returns all tokens being served in the sector, ordered by counter
// identifier ascending.
func (s *QueueState) Serving(sector string) []Token {
	var out []Token
	for _, t := range s.Tokens {
		if t.Status == StatusServing && t.Sector == sector {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareCounters(out[i].Counter, out[j].Counter) < 0
	})
	return out
}

// NextNumber produces the next display number for the sector: the sector's
// uppercased initial plus a zero-padded per-sector sequence, e.g. "H003".
func (s *QueueState) NextNumber(sector string) string {
	prefix := "T"
	if sector != "" {
		prefix = strings.ToUpper(sector[:1])
	}
	max := 0
	for _, t := range s.Tokens {
		if t.Sector != sector || !strings.HasPrefix(t.Number, prefix) {
			continue
		}
		if n, err := strconv.Atoi(t.Number[len(prefix):]); err == nil && n > max {
			max = n
		}
	}
	return prefix + pad3(max+1)
}

// NextTimestamp returns now, pushed forward if needed so that timestamps
// stay strictly monotonic across the aggregate.
func (s *QueueState) NextTimestamp(now int64) int64 {
	for _, t := range s.Tokens {
		if t.Timestamp >= now {
			now = t.Timestamp + 1
		}
	}
	return now
}

// CompareCounters orders counter identifiers ascending, numerically when
// both parse as integers ("2" before "10"), lexicographically otherwise.
func CompareCounters(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func pad3(n int) string {
	out := strconv.Itoa(n)
	for len(out) < 3 {
		out = "0" + out
	}
	return out
}
