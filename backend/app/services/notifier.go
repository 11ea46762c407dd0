package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fleetpulse/backend/app/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// StatusChange is one online/offline edge observed by the sweeper.
type StatusChange struct {
	DeviceID string              `json:"deviceId"`
	From     models.DeviceStatus `json:"from"`
	To       models.DeviceStatus `json:"to"`
	LastSeen time.Time           `json:"lastSeen"`
	At       time.Time           `json:"at"`
}

type StatusNotifier interface {
	Notify(ctx context.Context, c StatusChange) error
}

// RedisNotifier publishes each change as JSON on a pub/sub channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
}

func NewRedisNotifier(rdb *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, c StatusChange) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, payload).Err()
}

type LogNotifier struct{ log zerolog.Logger }

func NewLogNotifier(log zerolog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Notify(_ context.Context, c StatusChange) error {
	ev := n.log.Info()
	if c.To == models.StatusOffline {
		ev = n.log.Warn()
	}
	ev.Str("device_id", c.DeviceID).
		Str("from", string(c.From)).
		Str("to", string(c.To)).
		Time("last_seen", c.LastSeen).
		Msg("device status changed")
	return nil
}

// Notifiers delivers to every member and reports all failures together.
type Notifiers []StatusNotifier

func (ns Notifiers) Notify(ctx context.Context, c StatusChange) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
