package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteCachesWithinTTL(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	var calls int32

	producer := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		got, err := Execute(ctx, c, "k", time.Minute, producer)
		if err != nil {
			t.Fatal(err)
		}
		if got != "value" {
			t.Fatalf("got %q", got)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("producer invoked %d times within TTL, want 1", n)
	}
}

type countingMetrics struct {
	hits, misses int
}

func (m *countingMetrics) RecordCacheHit(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestExecuteRecordsLookupOutcomes(t *testing.T) {
	m := &countingMetrics{}
	c := NewTTLCache(WithMetrics(m))
	ctx := context.Background()

	producer := func(ctx context.Context) ([]byte, error) {
		return []byte("v"), nil
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Execute(ctx, "k", time.Minute, producer); err != nil {
			t.Fatal(err)
		}
	}
	if m.misses != 1 {
		t.Fatalf("misses = %d, want 1", m.misses)
	}
	if m.hits != 2 {
		t.Fatalf("hits = %d, want 2", m.hits)
	}
}

func TestExecuteExpiryIsLazy(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	var calls int32

	producer := func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	first, _ := Execute(ctx, c, "k", 10*time.Millisecond, producer)
	time.Sleep(20 * time.Millisecond)
	if c.Len() != 1 {
		t.Fatalf("expired entry should stay resident until re-access, len=%d", c.Len())
	}
	second, _ := Execute(ctx, c, "k", 10*time.Millisecond, producer)
	if first == second {
		t.Fatal("expired entry must trigger recompute")
	}
}

func TestExecuteErrorNotCached(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	var calls int32

	producer := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "", errors.New("upstream down")
		}
		return "ok", nil
	}

	if _, err := Execute(ctx, c, "k", time.Minute, producer); err == nil {
		t.Fatal("expected error")
	}
	got, err := Execute(ctx, c, "k", time.Minute, producer)
	if err != nil || got != "ok" {
		t.Fatalf("failure must not be cached: %v %q", err, got)
	}
}

func TestExecuteSingleFlight(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	producer := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Execute(ctx, c, "k", time.Minute, producer)
			if err != nil || got != "shared" {
				t.Errorf("got %q err %v", got, err)
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("concurrent misses invoked producer %d times, want 1", n)
	}
}

func TestExecuteHeterogeneousTypesShareOneInstance(t *testing.T) {
	c := NewTTLCache()
	ctx := context.Background()

	type overview struct {
		Name string `json:"name"`
		Cap  float64 `json:"cap"`
	}

	s, err := Execute(ctx, c, "str", time.Minute, func(ctx context.Context) (string, error) { return "abc", nil })
	if err != nil || s != "abc" {
		t.Fatalf("string: %q %v", s, err)
	}
	o, err := Execute(ctx, c, "ov", time.Minute, func(ctx context.Context) (overview, error) {
		return overview{Name: "SOL", Cap: 1e9}, nil
	})
	if err != nil || o.Name != "SOL" {
		t.Fatalf("struct: %+v %v", o, err)
	}
}
