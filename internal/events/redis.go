package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const Channel = "videolib:events"

// RedisBus publishes events on a redis channel so every API replica can
// relay them to its own websocket clients.
type RedisBus struct {
	rdb *redis.Client
	hub *Hub
	log zerolog.Logger
}

func NewRedisBus(rdb *redis.Client, hub *Hub, log zerolog.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, hub: hub, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, Channel, string(data)).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run relays channel messages into the hub until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info().Str("channel", Channel).Msg("relaying redis events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := b.hub.send(ctx, []byte(msg.Payload)); err != nil {
				return nil
			}
		}
	}
}
