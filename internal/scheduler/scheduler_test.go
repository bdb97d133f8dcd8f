package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type noopTarget struct{}

func (noopTarget) Tick(context.Context, time.Time) {}

type notifyingTarget struct {
	ticked chan time.Time
}

func (n *notifyingTarget) Tick(_ context.Context, now time.Time) {
	select {
	case n.ticked <- now:
	default:
	}
}

func TestRun_TicksImmediatelyOnStart(t *testing.T) {
	target := &notifyingTarget{ticked: make(chan time.Time, 1)}
	s := New(target, time.UTC, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case now := <-target.ticked:
		if now.Location() != time.UTC {
			t.Fatalf("tick time not in configured location: %v", now.Location())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick before the first full interval elapsed")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(noopTarget{}, time.UTC, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop on cancellation")
	}
}
