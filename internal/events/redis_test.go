package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisBus_RelaysToHub(t *testing.T) {
	_, rdb := newRedis(t)
	hub, url := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := NewRedisBus(rdb, hub, zerolog.Nop())
	go func() { _ = bus.Run(ctx) }()

	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, Channel).Result()
		return err == nil && n[Channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	ws := dial(t, url)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, New(VideoUploaded, map[string]string{"filename": "1_a.mp4"})))

	ev := readEvent(t, ws)
	assert.Equal(t, VideoUploaded, ev.Type)
	assert.Equal(t, map[string]any{"filename": "1_a.mp4"}, ev.Payload)
}

func TestRedisBus_PublishError(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.SetError("redis down")

	bus := NewRedisBus(rdb, NewHub(zerolog.Nop()), zerolog.Nop())
	assert.Error(t, bus.Publish(context.Background(), New(VideoDeleted, nil)))
}
