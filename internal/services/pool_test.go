package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapOrderedKeepsInputOrder(t *testing.T) {
	items := []int{50, 40, 30, 20, 10}

	results := MapOrdered(context.Background(), items, 3, func(ctx context.Context, i int, ms int) (int, error) {
		// Earlier items finish last.
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms * 2, nil
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d: unexpected error: %v", i, r.Err)
		}
		if r.Value != items[i]*2 {
			t.Errorf("result[%d] = %d, want %d", i, r.Value, items[i]*2)
		}
	}
}

func TestMapOrderedBoundsConcurrency(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	items := make([]int, 12)

	MapOrdered(context.Background(), items, 2, func(ctx context.Context, i int, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			m := maxSeen.Load()
			if n <= m || maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if got := maxSeen.Load(); got > 2 {
		t.Fatalf("max in flight = %d, want <= 2", got)
	}
}

func TestMapOrderedIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	items := []string{"a", "b", "c"}

	results := MapOrdered(context.Background(), items, 2, func(ctx context.Context, i int, s string) (string, error) {
		if s == "b" {
			return "", boom
		}
		return s + s, nil
	})

	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("result[1].Err = %v, want boom", results[1].Err)
	}
	if results[0].Value != "aa" || results[2].Value != "cc" {
		t.Fatalf("unexpected values: %+v", results)
	}
}

func TestMapOrderedEmptyAndCancelled(t *testing.T) {
	if got := MapOrdered(context.Background(), []int(nil), 2, func(ctx context.Context, i int, v int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	}); len(got) != 0 {
		t.Fatalf("got %d results, want 0", len(got))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := MapOrdered(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, i int, v int) (int, error) {
		calls.Add(1)
		return v, nil
	})
	if calls.Load() != 0 {
		t.Fatalf("fn called %d times after cancel", calls.Load())
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("result[%d].Err = %v, want context.Canceled", i, r.Err)
		}
	}
}
