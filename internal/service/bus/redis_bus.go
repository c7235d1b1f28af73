// Package bus implements the command/event bus (spec §4.2) that decouples
// HTTP-triggered commands from the single goroutine that owns a station's
// OCPP socket.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

// StationTTL is how long a station's online presence key survives without a
// Heartbeat refresh before it is considered offline.
const StationTTL = 300 * time.Second

// OnlinePrefix namespaces the TTL presence keys scanned by ListOnline.
const OnlinePrefix = "ocpp:station:"

// RedisBus is the production ports.Bus backed by Redis Pub/Sub for
// cmd:<station_id> topics and a TTL key per online station, grounded on the
// source's RedisOcppManager (redis_manager.py).
type RedisBus struct {
	client *redis.Client
	log    *zap.Logger

	mu       sync.Mutex
	subReady map[string]chan struct{}
}

func NewRedisBus(url string, log *zap.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("bus: connected to redis")
	return &RedisBus{
		client:   client,
		log:      log,
		subReady: make(map[string]chan struct{}),
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topic string) (ports.BusSubscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("bus: subscribe %s: %w", topic, err)
	}

	sub := &redisSubscription{pubsub: pubsub, out: make(chan []byte, 32)}
	go sub.pump(b.log)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan []byte
}

func (s *redisSubscription) pump(log *zap.Logger) {
	defer close(s.out)
	ch := s.pubsub.Channel()
	for msg := range ch {
		s.out <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Channel() <-chan []byte {
	return s.out
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

func (b *RedisBus) MarkOnline(ctx context.Context, stationID string) error {
	key := OnlinePrefix + stationID
	return b.client.SetEx(ctx, key, "online", StationTTL).Err()
}

func (b *RedisBus) MarkOffline(ctx context.Context, stationID string) error {
	return b.client.Del(ctx, OnlinePrefix+stationID).Err()
}

func (b *RedisBus) IsOnline(ctx context.Context, stationID string) (bool, error) {
	n, err := b.client.Exists(ctx, OnlinePrefix+stationID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *RedisBus) ListOnline(ctx context.Context) ([]string, error) {
	var stations []string
	iter := b.client.Scan(ctx, 0, OnlinePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stations = append(stations, iter.Val()[len(OnlinePrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

func (b *RedisBus) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (b *RedisBus) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBus) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

// WaitForSubscription blocks until NotifySubscribed(stationID) fires or
// timeout elapses, mirroring the source's asyncio.Event-based
// wait_for_subscription (redis_manager.py).
func (b *RedisBus) WaitForSubscription(ctx context.Context, stationID string, timeout time.Duration) bool {
	ch := b.readyChan(stationID)

	select {
	case <-ch:
		return true
	default:
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		b.log.Warn("bus: subscription wait timed out", zap.String("station_id", stationID))
		return false
	case <-ctx.Done():
		return false
	}
}

func (b *RedisBus) NotifySubscribed(stationID string) {
	ch := b.readyChan(stationID)
	select {
	case <-ch:
		// already closed
	default:
		close(ch)
	}
}

func (b *RedisBus) readyChan(stationID string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subReady[stationID]
	if !ok {
		ch = make(chan struct{})
		b.subReady[stationID] = ch
	}
	return ch
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
