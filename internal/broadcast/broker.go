// Package broadcast fans messages out to every subscriber of a Redis
// pub/sub channel, across all API instances.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ChatChannel is the pub/sub channel used by the chat room.
const ChatChannel = "CHAT"

// ErrClosed is returned by Subscribe after Shutdown.
var ErrClosed = errors.New("broker is shut down")

// Broker publishes to and subscribes on Redis channels.
type Broker struct {
	client *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// New creates a Broker over client.
func New(client *redis.Client, logger *slog.Logger) *Broker {
	return &Broker{
		client: client,
		logger: logger.With("component", "broadcast"),
		subs:   make(map[*Subscription]struct{}),
	}
}

// Publish sends payload to every current subscriber of channel.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscription is a live subscription to one channel.
type Subscription struct {
	broker *Broker
	pubsub *redis.PubSub
	out    chan []byte
	done   chan struct{}
	once   sync.Once
}

// Subscribe joins channel. It returns once Redis has confirmed the
// subscription, so messages published afterwards are not missed.
func (b *Broker) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.mu.Unlock()

	ps := b.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	s := &Subscription{broker: b, pubsub: ps, out: make(chan []byte, 16), done: make(chan struct{})}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ps.Close()
		return nil, ErrClosed
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go s.forward()
	return s, nil
}

func (s *Subscription) forward() {
	defer close(s.out)
	for msg := range s.pubsub.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

// Messages yields payloads until the subscription is closed.
func (s *Subscription) Messages() <-chan []byte {
	return s.out
}

// Close leaves the channel. It is safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s)
		s.broker.mu.Unlock()
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

// Shutdown closes every open subscription and rejects new ones.
// It implements server.ShutdownFunc.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	b.logger.Info("closing subscriptions", "count", len(subs))

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
