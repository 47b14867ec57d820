package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) (*RedisRecorder, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewRedisRecorder(client), mr
}

func TestRecordAndHistory(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := rec.Record(ctx, ActionRecord{
			RoomCode:  "ABC234",
			Index:     i,
			PlayerID:  "p1",
			Type:      "playCard",
			Payload:   map[string]any{"card": "red:7"},
			Timestamp: time.Now().UnixMilli(),
		})
		require.NoError(t, err)
	}

	records, err := rec.History(ctx, "ABC234", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, 2, records[0].Index)
	assert.Equal(t, 0, records[2].Index)
	assert.Equal(t, "playCard", records[0].Type)
	assert.Equal(t, "p1", records[0].PlayerID)
}

func TestHistoryLimit(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Record(ctx, ActionRecord{RoomCode: "XYZ789", Index: i, Type: "drawCard"}))
	}

	records, err := rec.History(ctx, "XYZ789", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 4, records[0].Index)
}

func TestHistoryExpiration(t *testing.T) {
	rec, mr := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, rec.Record(ctx, ActionRecord{RoomCode: "DEF456", Type: "roomCreated"}))
	assert.True(t, mr.Exists("history:DEF456"))

	mr.FastForward(historyExpiration + time.Minute)
	assert.False(t, mr.Exists("history:DEF456"))
}

func TestHistoryMissingRoom(t *testing.T) {
	rec, _ := newTestRecorder(t)

	records, err := rec.History(context.Background(), "NOPE22", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.Record(context.Background(), ActionRecord{RoomCode: "ANY"}))
}
