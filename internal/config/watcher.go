// Package config handles configuration management and hot reload.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ChangesChannel is the Redis pub/sub channel carrying change events.
const ChangesChannel = "gateway:config:changes"

// EntityRoute is the entity type of route definition changes.
const EntityRoute = "route"

// ConfigChangeEvent represents a configuration change from the admin side.
type ConfigChangeEvent struct {
	EventType  string                 `json:"event_type"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// AffectsRoutes reports whether the event should trigger a route reload.
func (e ConfigChangeEvent) AffectsRoutes() bool {
	return e.EntityType == EntityRoute || e.EntityType == "*"
}

// ConfigChangeHandler handles configuration change events.
type ConfigChangeHandler interface {
	HandleConfigChange(event ConfigChangeEvent) error
}

// Watcher listens for configuration changes via Redis pub/sub.
type Watcher struct {
	redis   *redis.Client
	handler ConfigChangeHandler
	channel string
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(redisClient *redis.Client, handler ConfigChangeHandler) *Watcher {
	return &Watcher{
		redis:   redisClient,
		handler: handler,
		channel: ChangesChannel,
	}
}

// Start subscribes and dispatches events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	logger := log.With().Str("component", "config_watcher").Logger()

	pubsub := w.redis.Subscribe(ctx, w.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.channel, err)
	}

	logger.Info().Str("channel", w.channel).Msg("Subscribed to configuration changes")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Configuration watcher shutting down")
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", w.channel)
			}
			if msg == nil {
				continue
			}
			dispatchEvent([]byte(msg.Payload), w.handler, "redis")
		}
	}
}

// HealthCheck verifies the watcher is connected to Redis.
func (w *Watcher) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return w.redis.Ping(ctx).Err()
}

// Publish sends a change event on the watcher's channel.
func Publish(ctx context.Context, client *redis.Client, event ConfigChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode config change event: %w", err)
	}
	if err := client.Publish(ctx, ChangesChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish config change event: %w", err)
	}
	return nil
}

// dispatchEvent decodes payload and hands it to handler. Malformed
// payloads and handler failures are logged and dropped.
func dispatchEvent(payload []byte, handler ConfigChangeHandler, source string) {
	var event ConfigChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Warn().
			Err(err).
			Str("component", "config_watcher").
			Str("source", source).
			Msg("Failed to parse config change event")
		return
	}

	log.Info().
		Str("component", "config_watcher").
		Str("source", source).
		Str("event_type", event.EventType).
		Str("entity_type", event.EntityType).
		Str("entity_id", event.EntityID).
		Str("action", event.Action).
		Msg("Received config change")

	if err := handler.HandleConfigChange(event); err != nil {
		log.Error().
			Err(err).
			Str("component", "config_watcher").
			Str("entity_type", event.EntityType).
			Str("action", event.Action).
			Msg("Failed to handle config change")
	}
}
