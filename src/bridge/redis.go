package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/escaperoom/backoffice/src/types"
)

// envelope wraps a mirrored event with the originating instance ID so
// consumers listening on a shared channel can de-duplicate by source.
type envelope struct {
	InstanceID string        `json:"instance_id"`
	Message    types.Message `json:"message"`
}

// RedisBridge mirrors broadcast events to a Redis pub/sub channel.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a bridge that publishes to <prefix>broadcast.
func NewRedisBridge(addr, password string, db int, prefix string, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBridge{
		client:     client,
		channel:    prefix + "broadcast",
		instanceID: uuid.New().String(),
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start verifies the Redis connection and marks the bridge active.
func (b *RedisBridge) Start() error {
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("channel", b.channel).
		Msg("redis mirror started")
	return nil
}

// Publish mirrors one broadcast event to Redis.
func (b *RedisBridge) Publish(msg types.Message) error {
	env := envelope{
		InstanceID: b.instanceID,
		Message:    msg,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(b.ctx, b.channel, data).Err()
}

// Stop closes the Redis connection.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}
