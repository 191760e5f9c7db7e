package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargesure/internal/models"
)

const changeChannel = "chargers:changes"

// ChargerChange is the event published on every accepted status mutation.
type ChargerChange struct {
	ChargerID string               `json:"charger_id"`
	StationID string               `json:"station_id"`
	Status    models.ChargerStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// ChangeFeed carries charger-change events over Redis pub/sub so every
// instance sees mutations accepted by any of them.
type ChangeFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewChangeFeed returns the feed.
func NewChangeFeed(client *redis.Client, logger *zap.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, logger: logger}
}

// Publish sends a change event; failures are logged, not fatal — the feed is
// a best-effort freshness channel, the database stays authoritative.
func (f *ChangeFeed) Publish(ctx context.Context, change ChargerChange) {
	data, err := json.Marshal(change)
	if err != nil {
		f.logger.Error("failed to encode charger change", zap.Error(err))
		return
	}
	if err := f.client.Publish(ctx, changeChannel, data).Err(); err != nil {
		f.logger.Warn("failed to publish charger change", zap.Error(err))
	}
}

// Subscribe delivers change events to the callback until ctx is done.
// Undecodable payloads are skipped.
func (f *ChangeFeed) Subscribe(ctx context.Context, fn func(ChargerChange)) func() {
	sub := f.client.Subscribe(ctx, changeChannel)

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change ChargerChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					f.logger.Warn("skipping malformed charger change", zap.Error(err))
					continue
				}
				fn(change)
			}
		}
	}()

	return func() {
		_ = sub.Close()
	}
}
