package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tokenline/queue-display/internal/core/domain"
)

// Session keys are deliberately separate from the queue aggregate so the
// console session can be cleared without touching queue data.
const (
	currentUserKey  = "currentUser"
	activeSectorKey = "activeSector"
)

// SessionStore persists the console session and the active-sector mirror.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) SaveCurrentUser(ctx context.Context, user domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := s.client.Set(ctx, currentUserKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("save session user: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadCurrentUser(ctx context.Context) (domain.User, bool, error) {
	raw, err := s.client.Get(ctx, currentUserKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("load session user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false, nil
	}
	return user, true, nil
}

func (s *SessionStore) ClearCurrentUser(ctx context.Context) error {
	if err := s.client.Del(ctx, currentUserKey).Err(); err != nil {
		return fmt.Errorf("clear session user: %w", err)
	}
	return nil
}

// SaveActiveSector keeps the plain-string mirror of the aggregate's active
// sector for display clients that only need that one field.
func (s *SessionStore) SaveActiveSector(ctx context.Context, sector string) error {
	if err := s.client.Set(ctx, activeSectorKey, sector, 0).Err(); err != nil {
		return fmt.Errorf("save active sector: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadActiveSector(ctx context.Context) (string, bool, error) {
	sector, err := s.client.Get(ctx, activeSectorKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load active sector: %w", err)
	}
	return sector, true, nil
}
