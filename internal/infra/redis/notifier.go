package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier fans change signals out across processes via Redis pub/sub.
// Payloads are ignored on receipt: a message only means "re-read the store".
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, sessionID string) error {
	return n.client.Publish(ctx, changeChannel(sessionID), "1").Err()
}

func (n *Notifier) Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, changeChannel(sessionID))
	// Force the subscription onto the wire before we report success.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range pubsub.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}

func changeChannel(sessionID string) string {
	return "quizlive:changed:" + sessionID
}
