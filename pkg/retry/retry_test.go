package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoReturnsNilOnFirstSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, nil, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	t.Parallel()

	last := errors.New("attempt 2 failed")
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, nil, func() error {
		calls++
		if calls == 1 {
			return errors.New("attempt 1 failed")
		}
		return last
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last attempt error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoStopsOnTerminalError(t *testing.T) {
	t.Parallel()

	terminal := errors.New("gone for good")
	calls := 0
	err := Do(context.Background(), 5, time.Millisecond, func(err error) bool {
		return !errors.Is(err, terminal)
	}, func() error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("terminal error must not be retried, got %d calls", calls)
	}
}

func TestDoSurfacesCancellationRaw(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 3, time.Minute, nil, func() error {
		calls++
		cancel()
		return errors.New("failed while context died")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
