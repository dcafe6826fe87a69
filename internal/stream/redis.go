package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/glotbridge/glotbridge-backend/internal/platform/envutil"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

// redisSink appends events to a Redis Stream per topic. XADD is
// confirmed by the server, which is the durability handshake the relay
// relies on before marking an outbox row published.
type redisSink struct {
	log       *logger.Logger
	rdb       *goredis.Client
	keyPrefix string
}

func NewRedisSink(log *logger.Logger) (Sink, error) {
	rdb, err := dial()
	if err != nil {
		return nil, err
	}
	return &redisSink{
		log:       log.With("service", "RedisSink"),
		rdb:       rdb,
		keyPrefix: envutil.String("REDIS_STREAM_PREFIX", "glotbridge:events:"),
	}, nil
}

func (s *redisSink) Publish(ctx context.Context, topic string, payload map[string]any) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis sink not initialized")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.keyPrefix + topic,
		Values: map[string]interface{}{"payload": raw},
	}).Err()
}

func (s *redisSink) Close() error { return s.rdb.Close() }

// redisWakeBus is a pub/sub channel: submitters ping it after enqueueing
// drafts, workers block on Wake() alongside their poll ticker.
type redisWakeBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	wake    chan struct{}
	cancel  context.CancelFunc
}

func NewRedisWakeBus(log *logger.Logger) (WakeBus, error) {
	rdb, err := dial()
	if err != nil {
		return nil, err
	}
	b := &redisWakeBus{
		log:     log.With("service", "RedisWakeBus"),
		rdb:     rdb,
		channel: envutil.String("REDIS_WAKE_CHANNEL", "glotbridge:wake"),
		wake:    make(chan struct{}, 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	sub := rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				select {
				case b.wake <- struct{}{}:
				default:
					// a wake is already queued
				}
			}
		}
	}()
	return b, nil
}

func (b *redisWakeBus) Notify(ctx context.Context) error {
	return b.rdb.Publish(ctx, b.channel, "1").Err()
}

func (b *redisWakeBus) Wake() <-chan struct{} { return b.wake }

func (b *redisWakeBus) Close() error {
	b.cancel()
	return b.rdb.Close()
}

// Dial opens a redis client from REDIS_ADDR / REDIS_PASSWORD / REDIS_DB
// and verifies
// it with a ping. Callers that need raw redis (the shared resolve cache)
// reuse the same settings as the sink and wake bus.
func Dial() (*goredis.Client, error) {
	return dial()
}

func dial() (*goredis.Client, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
