package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/pkg/circuitbreaker"
	"github.com/campus-agents/campus-hub/pkg/logger"
	"github.com/campus-agents/campus-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS PUBLISHER
// ══════════════════════════════════════════════════════════════════════════════

// RedisPublisher forwards envelopes to remote observers over Redis Pub/Sub.
// It also keeps the latest agent-status snapshot and a capped list of
// recent envelopes so a late observer can catch up.
type RedisPublisher struct {
	client  redis.UniversalClient
	config  RedisPublisherConfig
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// RedisPublisherConfig contains configuration for RedisPublisher.
type RedisPublisherConfig struct {
	// Channel is the Pub/Sub channel (default: "campus:notifications").
	Channel string

	// StatusKey holds the latest agent-status payload (default: "campus:agent-status").
	StatusKey string

	// RecentKey is the list of recent envelopes (default: "campus:recent").
	RecentKey string

	// RecentSize caps RecentKey (default: 100).
	RecentSize int64

	// Retrier retries transient errors. Nil means retry.BrokerPolicy.
	Retrier *retry.Retrier

	// Breaker guards the broker. Nil means circuitbreaker.Broker.
	Breaker *circuitbreaker.CircuitBreaker

	Logger *logger.Logger
}

// DefaultRedisPublisherConfig returns sensible defaults.
func DefaultRedisPublisherConfig() RedisPublisherConfig {
	return RedisPublisherConfig{
		Channel:    "campus:notifications",
		StatusKey:  "campus:agent-status",
		RecentKey:  "campus:recent",
		RecentSize: 100,
	}
}

// NewRedisPublisher creates a publisher on top of an existing client.
func NewRedisPublisher(client redis.UniversalClient, config RedisPublisherConfig) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}

	defaults := DefaultRedisPublisherConfig()
	if config.Channel == "" {
		config.Channel = defaults.Channel
	}
	if config.StatusKey == "" {
		config.StatusKey = defaults.StatusKey
	}
	if config.RecentKey == "" {
		config.RecentKey = defaults.RecentKey
	}
	if config.RecentSize <= 0 {
		config.RecentSize = defaults.RecentSize
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	log := config.Logger.With(logger.Component("redis_publisher"))
	p := &RedisPublisher{
		client:  client,
		config:  config,
		retrier: config.Retrier,
		breaker: config.Breaker,
		logger:  log,
	}
	if p.retrier == nil {
		policy := retry.BrokerPolicy()
		policy.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.Warn("publish retry", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
		}
		p.retrier = retry.New(policy)
	}
	if p.breaker == nil {
		p.breaker = circuitbreaker.Broker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed", logger.String("breaker", name),
				logger.String("from", from.String()), logger.String("to", to.String()))
		})
	}
	return p, nil
}

// Name returns the subscriber name.
func (p *RedisPublisher) Name() string { return "redis" }

// Channel returns the Pub/Sub channel.
func (p *RedisPublisher) Channel() string { return p.config.Channel }

// Handle publishes env and updates the catch-up keys in one MULTI/EXEC,
// so the live message and the recent list never diverge. A reply lost
// after EXEC makes the retry deliver env twice; readers drop repeated
// envelope ids (readRecent here, streamEnvelopes in campus watch).
func (p *RedisPublisher) Handle(ctx context.Context, env notification.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.retrier.Do(ctx, func(ctx context.Context) error {
			_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Publish(ctx, p.config.Channel, data)
				pipe.LPush(ctx, p.config.RecentKey, data)
				pipe.LTrim(ctx, p.config.RecentKey, 0, p.config.RecentSize-1)
				if env.Kind == notification.KindAgentStatus {
					pipe.Set(ctx, p.config.StatusKey, []byte(env.Payload), 0)
				}
				return nil
			})
			if err != nil {
				return retry.Retryable(fmt.Errorf("redis publish: %w", err))
			}
			return nil
		})
	})
}

// Recent returns up to limit recent envelopes, oldest first.
func (p *RedisPublisher) Recent(ctx context.Context, limit int) ([]notification.Envelope, error) {
	return readRecent(ctx, p.client, p.config.RecentKey, limit)
}

// LatestStatuses returns the last published agent-status snapshot.
// ok is false when nothing has been published yet.
func (p *RedisPublisher) LatestStatuses(ctx context.Context) (map[string]string, bool, error) {
	data, err := p.client.Get(ctx, p.config.StatusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", p.config.StatusKey, err)
	}

	n, err := notification.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	status, ok := n.(notification.AgentStatus)
	if !ok {
		return nil, false, fmt.Errorf("%s holds %s", p.config.StatusKey, n.Kind())
	}
	return status.Statuses, true, nil
}

func readRecent(ctx context.Context, client redis.UniversalClient, key string, limit int) ([]notification.Envelope, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	// LRANGE is newest first; keep the newest copy of a repeated envelope.
	out := make([]notification.Envelope, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		var env notification.Envelope
		if err := json.Unmarshal([]byte(item), &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if _, dup := seen[env.ID]; dup {
			continue
		}
		seen[env.ID] = struct{}{}
		out = append(out, env)
	}
	slices.Reverse(out)
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS WATCHER
// ══════════════════════════════════════════════════════════════════════════════

// RedisWatcher follows the notification channel from another process.
type RedisWatcher struct {
	client    redis.UniversalClient
	channel   string
	recentKey string
	logger    *logger.Logger
}

// NewRedisWatcher creates a watcher for the channel and recent list a
// RedisPublisher with the same config writes to.
func NewRedisWatcher(client redis.UniversalClient, config RedisPublisherConfig) *RedisWatcher {
	defaults := DefaultRedisPublisherConfig()
	if config.Channel == "" {
		config.Channel = defaults.Channel
	}
	if config.RecentKey == "" {
		config.RecentKey = defaults.RecentKey
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	return &RedisWatcher{
		client:    client,
		channel:   config.Channel,
		recentKey: config.RecentKey,
		logger:    config.Logger.With(logger.Component("redis_watcher")),
	}
}

// Replay calls fn for up to limit recent envelopes, oldest first.
func (w *RedisWatcher) Replay(ctx context.Context, limit int, fn func(notification.Envelope)) error {
	envs, err := readRecent(ctx, w.client, w.recentKey, limit)
	if err != nil {
		return err
	}
	for _, env := range envs {
		fn(env)
	}
	return nil
}

// Watch subscribes to the channel and calls fn for every envelope until
// ctx is done. Messages that do not decode are logged and skipped.
// ready, if non-nil, is closed once the subscription is confirmed.
func (w *RedisWatcher) Watch(ctx context.Context, ready chan<- struct{}, fn func(notification.Envelope)) error {
	pubsub := w.client.Subscribe(ctx, w.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env notification.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				w.logger.Warn("skipping undecodable message", logger.Err(err))
				continue
			}
			fn(env)
		}
	}
}
