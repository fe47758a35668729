package memory

import (
	"context"
	"testing"
	"time"
)

func TestNotifierFanOut(t *testing.T) {
	ctx := context.Background()
	notifier := NewNotifier()

	a, cancelA, err := notifier.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer cancelA()
	b, cancelB, err := notifier.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	defer cancelB()
	other, cancelOther, err := notifier.Subscribe(ctx, "s2")
	if err != nil {
		t.Fatalf("subscribe other: %v", err)
	}
	defer cancelOther()

	if err := notifier.Publish(ctx, "s1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for name, ch := range map[string]<-chan struct{}{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s missed the signal", name)
		}
	}
	select {
	case <-other:
		t.Fatalf("signal leaked across sessions")
	default:
	}
}

func TestNotifierCancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	notifier := NewNotifier()

	ch, cancel, err := notifier.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()
	cancel() // calling twice is safe

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Publishing to a session with no subscribers is a no-op.
	if err := notifier.Publish(ctx, "s1"); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestNotifierNeverBlocksPublisher(t *testing.T) {
	ctx := context.Background()
	notifier := NewNotifier()

	_, cancel, err := notifier.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	// Nobody drains the channel; repeated publishes must still return.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = notifier.Publish(ctx, "s1")
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
