package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tokenline/queue-display/internal/announce"
)

// announceChannel carries chime/speech cues to display clients. Pub/sub is
// fire-and-forget by nature, which matches the announcement contract.
const announceChannel = "announcements"

// AnnounceSink publishes announcement cues on a Redis channel.
type AnnounceSink struct {
	client *redis.Client
}

func NewAnnounceSink(client *redis.Client) *AnnounceSink {
	return &AnnounceSink{client: client}
}

func (s *AnnounceSink) Publish(ctx context.Context, cue announce.Announcement) error {
	payload, err := json.Marshal(cue)
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}
	if err := s.client.Publish(ctx, announceChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish announcement: %w", err)
	}
	return nil
}
