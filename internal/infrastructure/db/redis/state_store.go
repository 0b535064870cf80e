package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/api/metrics"
	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/ports"
)

// Key layout: the whole {tokens, users, activeSector} aggregate lives in a
// single JSON blob, and every save announces itself on the change channel.
const (
	stateKey      = "queue_state_v3"
	changeChannel = "queue_state_changed"
)

// StateStore is the Redis-backed durable owner of the queue aggregate.
type StateStore struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewStateStore(client *redis.Client, log zerolog.Logger) *StateStore {
	return &StateStore{client: client, log: log}
}

// Load reads the aggregate. A missing key or corrupt blob falls back to
// defaults; only infrastructure failures surface as errors.
func (s *StateStore) Load(ctx context.Context) (domain.QueueState, error) {
	raw, err := s.client.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultState(), nil
	}
	if err != nil {
		return domain.QueueState{}, fmt.Errorf("load state: %w", err)
	}
	return decodeState(raw, s.log), nil
}

// decodeState merges the persisted blob onto defaults. Corrupt JSON is
// recovered locally: the caller gets defaults, never an error.
func decodeState(raw []byte, log zerolog.Logger) domain.QueueState {
	state := domain.DefaultState()
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Warn().Err(err).Msg("corrupt state blob, falling back to defaults")
		return domain.DefaultState()
	}
	if state.ActiveSector == "" {
		state.ActiveSector = domain.DefaultSector
	}
	if state.Tokens == nil {
		state.Tokens = []domain.Token{}
	}
	if state.Users == nil {
		state.Users = []domain.User{}
	}
	return state
}

// Save writes the aggregate as one key write, compare-and-swapped on the
// version the caller loaded. Two tabs racing a call-next lose cleanly here
// instead of silently double-assigning a token.
func (s *StateStore) Save(ctx context.Context, state domain.QueueState) (domain.QueueState, error) {
	expected := state.Version
	state.Version = expected + 1
	payload, err := json.Marshal(state)
	if err != nil {
		return domain.QueueState{}, fmt.Errorf("encode state: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, stateKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if expected != 0 {
				return domain.ErrVersionConflict
			}
		case err != nil:
			return fmt.Errorf("read current version: %w", err)
		default:
			var current struct {
				Version int64 `json:"version"`
			}
			// An undecodable blob carries no version to defend; overwrite it.
			if json.Unmarshal(raw, &current) == nil && current.Version != expected {
				return domain.ErrVersionConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, stateKey, payload, 0)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, stateKey)
	if errors.Is(err, redis.TxFailedErr) {
		err = domain.ErrVersionConflict
	}
	if errors.Is(err, domain.ErrVersionConflict) {
		metrics.SaveConflictsTotal.Inc()
		return domain.QueueState{}, domain.ErrVersionConflict
	}
	if err != nil {
		return domain.QueueState{}, fmt.Errorf("save state: %w", err)
	}

	// Notification loss is tolerable: the lobby poll self-heals.
	if err := s.client.Publish(ctx, changeChannel, strconv.FormatInt(state.Version, 10)).Err(); err != nil {
		s.log.Warn().Err(err).Msg("change notification publish failed")
	}
	return state, nil
}

// Watch subscribes to the change channel for the lifetime of ctx.
// Notifications coalesce: receivers reload the full state anyway, so a
// pending notification makes queuing more of them pointless.
func (s *StateStore) Watch(ctx context.Context) (<-chan ports.StateChange, error) {
	sub := s.client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe state changes: %w", err)
	}

	out := make(chan ports.StateChange, 1)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				version, _ := strconv.ParseInt(msg.Payload, 10, 64)
				select {
				case out <- ports.StateChange{Version: version}:
				default:
				}
			}
		}
	}()
	return out, nil
}
