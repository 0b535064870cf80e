package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
)

const defaultSaveRetries = 3

// IssueDeduper abstracts the idempotency store (Redis). Keys map an issue
// request ID to the token number it produced.
type IssueDeduper interface {
	Lookup(ctx context.Context, requestID string) (string, bool, error)
	Remember(ctx context.Context, requestID, number string) error
}

// QueueService implements the token-lifecycle engine on top of the durable
// state store. Every mutation is a load-mutate-save cycle guarded by the
// aggregate version; on conflict the whole cycle is retried against a fresh
// load, bounded by retries.
type QueueService struct {
	store     ports.StateStore
	sessions  ports.SessionStore
	announcer ports.Announcer
	dedup     IssueDeduper
	clock     clockwork.Clock
	retries   int
	log       zerolog.Logger
}

func NewQueueService(
	store ports.StateStore,
	sessions ports.SessionStore,
	announcer ports.Announcer,
	dedup IssueDeduper,
	clock clockwork.Clock,
	retries int,
	log zerolog.Logger,
) *QueueService {
	if retries <= 0 {
		retries = defaultSaveRetries
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &QueueService{
		store:     store,
		sessions:  sessions,
		announcer: announcer,
		dedup:     dedup,
		clock:     clock,
		retries:   retries,
		log:       log,
	}
}

// IssueToken adds a waiting token to the queue. A replayed request ID
// returns the originally issued token instead of creating a duplicate.
func (s *QueueService) IssueToken(ctx context.Context, input ports.IssueTokenInput) (domain.Token, error) {
	if input.RequestID != "" && s.dedup != nil {
		number, seen, err := s.dedup.Lookup(ctx, input.RequestID)
		if err != nil {
			s.log.Warn().Err(err).Str("request_id", input.RequestID).Msg("issue dedup lookup failed, issuing anyway")
		} else if seen {
			state, err := s.store.Load(ctx)
			if err != nil {
				return domain.Token{}, err
			}
			for _, t := range state.Tokens {
				if t.Number == number {
					s.log.Debug().Str("number", number).Msg("idempotent issue replay")
					return t, nil
				}
			}
		}
	}

	tokenType := input.Type
	if tokenType == "" {
		tokenType = domain.TypeRegular
	}

	var issued domain.Token
	err := s.mutate(ctx, func(state *domain.QueueState) (bool, error) {
		sector := input.Sector
		if sector == "" {
			sector = state.ActiveSector
		}
		issued = domain.Token{
			Number:    state.NextNumber(sector),
			Name:      input.Name,
			Type:      tokenType,
			Sector:    sector,
			Status:    domain.StatusWaiting,
			Timestamp: state.NextTimestamp(s.clock.Now().UnixMilli()),
		}
		state.Tokens = append(state.Tokens, issued)
		return true, nil
	})
	if err != nil {
		return domain.Token{}, err
	}

	if input.RequestID != "" && s.dedup != nil {
		if err := s.dedup.Remember(ctx, input.RequestID, issued.Number); err != nil {
			s.log.Warn().Err(err).Str("request_id", input.RequestID).Msg("failed to record issue request")
		}
	}

	s.log.Info().
		Str("number", issued.Number).
		Str("sector", issued.Sector).
		Str("type", issued.Type).
		Msg("token issued")
	return issued, nil
}

// CallNext finishes whatever the counter is serving in this sector and
// calls the oldest waiting token to it.
func (s *QueueService) CallNext(ctx context.Context, input ports.CallInput) (ports.CallResult, error) {
	var result ports.CallResult
	err := s.mutate(ctx, func(state *domain.QueueState) (bool, error) {
		result = ports.CallResult{}
		sector := input.Sector
		if sector == "" {
			sector = state.ActiveSector
		}

		changed := false
		if current := state.ServingAt(sector, input.Counter); current != nil {
			if err := current.TransitionTo(domain.StatusDone); err != nil {
				return false, err
			}
			done := *current
			result.Completed = &done
			changed = true
		}

		next := state.NextWaiting(sector)
		if next == nil {
			// Nothing waiting: persist the finish alone, or no-op entirely.
			return changed, nil
		}

		// The finish above frees the counter; a second occupant means the
		// aggregate was corrupted by a past race. Refuse to make it worse.
		if state.ServingAt(sector, input.Counter) != nil {
			return false, fmt.Errorf("%w: sector %s counter %s", domain.ErrCounterOccupied, sector, input.Counter)
		}

		if err := next.TransitionTo(domain.StatusServing); err != nil {
			return false, err
		}
		next.Counter = input.Counter
		called := *next
		result.Called = &called
		return true, nil
	})
	if err != nil {
		return ports.CallResult{}, err
	}

	if result.Called != nil {
		s.announcer.Announce(ctx, result.Called.Number, result.Called.Counter)
		s.log.Info().
			Str("number", result.Called.Number).
			Str("counter", result.Called.Counter).
			Msg("token called")
	}
	return result, nil
}

// RepeatCall re-announces the token serving at the counter without touching
// state.
func (s *QueueService) RepeatCall(ctx context.Context, input ports.CallInput) (domain.Token, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return domain.Token{}, err
	}
	sector := input.Sector
	if sector == "" {
		sector = state.ActiveSector
	}
	serving := state.ServingAt(sector, input.Counter)
	if serving == nil {
		return domain.Token{}, fmt.Errorf("%w: sector %s counter %s", domain.ErrNothingServing, sector, input.Counter)
	}
	s.announcer.Announce(ctx, serving.Number, serving.Counter)
	s.log.Info().Str("number", serving.Number).Str("counter", serving.Counter).Msg("call repeated")
	return *serving, nil
}

// SetActiveSector switches the sector all views filter on and mirrors it to
// the convenience session key.
func (s *QueueService) SetActiveSector(ctx context.Context, sector string) error {
	if sector == "" {
		return domain.ErrUnknownSector
	}
	err := s.mutate(ctx, func(state *domain.QueueState) (bool, error) {
		if state.ActiveSector == sector {
			return false, nil
		}
		state.ActiveSector = sector
		return true, nil
	})
	if err != nil {
		return err
	}
	if err := s.sessions.SaveActiveSector(ctx, sector); err != nil {
		s.log.Warn().Err(err).Str("sector", sector).Msg("failed to mirror active sector")
	}
	return nil
}

// mutate runs fn against a fresh load of the aggregate and saves the result,
// retrying the whole cycle when another writer got there first. fn returns
// false to skip the save (no-op mutations).
func (s *QueueService) mutate(ctx context.Context, fn func(state *domain.QueueState) (bool, error)) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		state, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		changed, err := fn(&state)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if _, err := s.store.Save(ctx, state); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				s.log.Debug().Int("attempt", attempt+1).Msg("concurrent write detected, retrying")
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("queue mutation: retries exhausted: %w", lastErr)
}
