package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "room:"

// Ensure RedisFeed implements Feed
var _ Feed = (*RedisFeed)(nil)

// RedisFeed shares events between server instances through Redis Pub/Sub.
// Published events go to Redis only; local subscribers receive them when
// they come back through the pattern subscription, so each event is
// delivered once per instance.
type RedisFeed struct {
	rdb            *redis.Client
	local          *MemoryFeed
	publishTimeout time.Duration

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisFeed creates a feed backed by rdb. Call Start before expecting
// subscribers to receive anything.
func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{
		rdb:            rdb,
		local:          NewMemoryFeed(),
		publishTimeout: 5 * time.Second,
	}
}

// Start subscribes to every room channel and relays messages to local
// subscribers until ctx is cancelled or Close is called.
func (f *RedisFeed) Start(ctx context.Context) error {
	pubsub := f.rdb.PSubscribe(ctx, channelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("redis psubscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.pubsub = pubsub
	f.cancel = cancel
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				f.relay(ctx, msg.Channel, msg.Payload)
			}
		}
	}()

	slog.Info("Redis feed started", "pattern", channelPrefix+"*")
	return nil
}

// relay decodes one Redis message and hands it to local subscribers.
func (f *RedisFeed) relay(ctx context.Context, channel, payload string) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.Warn("Dropping malformed feed message", "channel", channel, "error", err)
		return
	}
	if want := strings.TrimPrefix(channel, channelPrefix); event.RoomCode != want {
		slog.Warn("Dropping feed message for wrong room", "channel", channel, "room_code", event.RoomCode)
		return
	}
	if err := f.local.Publish(ctx, event); err != nil {
		slog.Warn("Dropping invalid feed event", "channel", channel, "error", err)
	}
}

// Publish sends the event to the room's Redis channel.
func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.publishTimeout)
	defer cancel()

	if err := f.rdb.Publish(ctx, channelPrefix+event.RoomCode, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe registers h for events relayed from Redis for roomCode.
func (f *RedisFeed) Subscribe(roomCode string, h Handler) func() {
	return f.local.Subscribe(roomCode, h)
}

// Close stops relaying and closes the subscription. The Redis client itself
// is owned by the caller.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	pubsub, cancel := f.pubsub, f.cancel
	f.pubsub, f.cancel = nil, nil
	f.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
	}
	if pubsub != nil {
		err = pubsub.Close()
	}
	f.wg.Wait()
	f.local.Close()
	return err
}
