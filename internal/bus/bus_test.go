package bus

import (
	"context"
	"errors"
	"testing"
)

func TestPublishRunsHandlersInOrder(t *testing.T) {
	b := New(nil)
	var order []string
	b.Subscribe(Pause, "audio", func(context.Context) error {
		order = append(order, "audio")
		return nil
	})
	b.Subscribe(Pause, "skill", func(context.Context) error {
		order = append(order, "skill")
		return nil
	})

	if err := b.Publish(context.Background(), Pause); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(order) != 2 || order[0] != "audio" || order[1] != "skill" {
		t.Errorf("handlers ran in order %v", order)
	}
}

func TestPublishAliases(t *testing.T) {
	b := New(nil)
	calls := 0
	b.Subscribe(Previous, "skill", func(context.Context) error {
		calls++
		return nil
	})

	for _, event := range []string{"previous", "prev", "mycroft.audio.service.prev", " PREVIOUS "} {
		if err := b.Publish(context.Background(), event); err != nil {
			t.Fatalf("Publish(%q) failed: %v", event, err)
		}
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	err := New(nil).Publish(context.Background(), "shuffle")
	if !errors.Is(err, ErrNoSubscribers) {
		t.Fatalf("expected ErrNoSubscribers, got %v", err)
	}
}

func TestPublishJoinsErrors(t *testing.T) {
	b := New(nil)
	boom := errors.New("boom")
	ran := false
	b.Subscribe(Next, "first", func(context.Context) error { return boom })
	b.Subscribe(Next, "second", func(context.Context) error {
		ran = true
		return nil
	})

	err := b.Publish(context.Background(), Next)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if !ran {
		t.Error("second handler should still run")
	}
}
