// Package redis delivers Redis pub/sub messages to a stoker worker as
// wake-ups, so a worker in one process can be woken by publishers in
// another.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Waker is the part of a worker the notifier needs. *stoker.Worker
// implements it.
type Waker interface {
	Wakeup()
}

// ListenConfig carries optional settings for a Notifier.
type ListenConfig struct {
	// OnMessage runs for each received message, before the wake-up is
	// delivered. Hosts typically use it to set their work indicator so
	// the woken worker's check finds the work. Optional.
	OnMessage func(payload string)
}

// Notifier subscribes to a Redis pub/sub channel and wakes a worker for
// every message received. The message payload is a hint, not a queue
// entry: delivery is at-most-once and a worker that is already awake
// simply keeps working.
type Notifier struct {
	pubsub    *redis.PubSub
	waker     Waker
	onMessage func(payload string)

	done      chan struct{}
	closeOnce sync.Once
}

// Listen subscribes to channel on client and wakes w for every message.
// It returns once the subscription is confirmed by the server.
func Listen(ctx context.Context, client *redis.Client, channel string, w Waker) (*Notifier, error) {
	return ListenWithConfig(ctx, client, channel, w, ListenConfig{})
}

// ListenWithConfig is Listen with explicit configuration.
func ListenWithConfig(ctx context.Context, client *redis.Client, channel string, w Waker, cfg ListenConfig) (*Notifier, error) {
	if w == nil {
		panic("stoker/redis: nil waker")
	}

	pubsub := client.Subscribe(ctx, channel)

	// Wait for the subscription confirmation so that messages published
	// after Listen returns are guaranteed to be seen.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("stoker/redis: subscribing to %q: %w", channel, err)
	}

	n := &Notifier{
		pubsub:    pubsub,
		waker:     w,
		onMessage: cfg.OnMessage,
		done:      make(chan struct{}),
	}
	go n.loop()

	return n, nil
}

func (n *Notifier) loop() {
	defer close(n.done)

	// Channel() is closed by Close; go-redis reconnects under the hood
	// on transient errors.
	for msg := range n.pubsub.Channel() {
		if n.onMessage != nil {
			n.onMessage(msg.Payload)
		}
		n.waker.Wakeup()
	}
}

// Close tears down the subscription and waits for the delivery goroutine
// to exit. No wake-ups are delivered after Close returns. Close is
// idempotent.
func (n *Notifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.pubsub.Close()
		<-n.done
	})
	return err
}
