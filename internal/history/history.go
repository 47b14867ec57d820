// Package history records per-room action logs for debugging and audit.
package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	historyKeyPrefix = "history:"

	// Room histories expire a while after the last recorded action.
	historyExpiration = 2 * time.Hour

	// Keep at most this many entries per room.
	maxEntries = 1000
)

// ActionRecord captures one action applied to a room.
type ActionRecord struct {
	RoomCode  string         `json:"roomCode"`
	Index     int            `json:"index"`
	PlayerID  string         `json:"playerId,omitempty"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Recorder persists action records. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, rec ActionRecord) error
}

// RedisRecorder stores action records in per-room Redis lists.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder creates a recorder backed by the given client.
func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

// Record pushes the record onto the room's history list, trims it to the
// entry cap, and refreshes the expiration.
func (r *RedisRecorder) Record(ctx context.Context, rec ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := historyKeyPrefix + rec.RoomCode
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxEntries-1)
	pipe.Expire(ctx, key, historyExpiration)
	_, err = pipe.Exec(ctx)
	return err
}

// History returns up to limit most recent records for a room, newest first.
func (r *RedisRecorder) History(ctx context.Context, roomCode string, limit int) ([]ActionRecord, error) {
	key := historyKeyPrefix + roomCode
	raw, err := r.client.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]ActionRecord, 0, len(raw))
	for _, item := range raw {
		var rec ActionRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// NopRecorder discards all records. Used when Redis is not configured.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, ActionRecord) error { return nil }
