package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/saidutt46/switchboard-router/internal/logging"
	"github.com/saidutt46/switchboard-router/internal/router"
)

// KeyPrefix prefixes the hash holding one instance's stats.
const KeyPrefix = "dispatchd:stats:"

// Source supplies the live router's statistics.
type Source interface {
	Stats() (router.Stats, error)
}

// Publisher writes router statistics into a Redis hash.
type Publisher struct {
	client   *redis.Client
	source   Source
	key      string
	interval time.Duration
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewPublisher creates a publisher for one instance. The hash expires after
// three missed intervals so stale instances disappear.
func NewPublisher(client *redis.Client, source Source, instance string, interval time.Duration) *Publisher {
	return &Publisher{
		client:   client,
		source:   source,
		key:      KeyPrefix + instance,
		interval: interval,
		ttl:      3 * interval,
		logger:   logging.WithComponent("stats_publisher"),
	}
}

// Key returns the Redis hash key written by Publish.
func (p *Publisher) Key() string {
	return p.key
}

// Publish writes the current statistics once.
func (p *Publisher) Publish(ctx context.Context) error {
	s, err := p.source.Stats()
	if err != nil {
		return fmt.Errorf("failed to read router stats: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.HSet(ctx, p.key, fields(s))
	if p.ttl > 0 {
		pipe.Expire(ctx, p.key, p.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis HSET failed: %w", err)
	}
	return nil
}

// Run publishes on every tick until ctx is cancelled. Failures are logged
// and retried on the next tick.
func (p *Publisher) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info().Msg("Stats publishing disabled")
		return
	}

	p.logger.Info().
		Str("key", p.key).
		Dur("interval", p.interval).
		Msg("Starting stats publisher")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn().Err(err).Msg("Failed to publish router stats")
		}

		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Stats publisher stopped")
			return
		case <-ticker.C:
		}
	}
}

func fields(s router.Stats) map[string]any {
	f := map[string]any{
		"static_routes":   s.StaticRoutes,
		"dynamic_routes":  s.DynamicRoutes,
		"cache_size":      s.CacheSize,
		"cache_capacity":  s.CacheCapacity,
		"cache_enabled":   strconv.FormatBool(s.CacheEnabled),
		"cache_hits":      s.CacheHits,
		"cache_misses":    s.CacheMisses,
		"cache_evictions": s.CacheEvictions,
		"mode":            s.Mode,
		"engine":          s.Engine,
		"fallback":        strconv.FormatBool(s.Fallback),
		"published_at":    time.Now().UTC().Format(time.RFC3339),
	}
	if s.Alternate != nil {
		f["alternate_routes"] = s.Alternate.RouteCount
		f["alternate_cache_hits"] = s.Alternate.CacheHits
	}
	return f
}
