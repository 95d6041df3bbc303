package speech

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

var errProviderThrottled = errors.New("synthesis throttled: 429")

func newTestPreloader(t *testing.T, synth Synthesizer) (*Preloader, *Breaker, *atomic.Int64) {
	t.Helper()
	fetcher, breaker := newTestFetcher(t, synth)
	p := NewPreloader(config.PreloadConfig{PacingDelayMS: 2500}, fetcher, breaker, nil, testLogger())
	var slept atomic.Int64
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept.Add(1)
		return ctx.Err()
	}
	t.Cleanup(func() { p.Close() })
	return p, breaker, &slept
}

func waitDrained(t *testing.T, p *Preloader) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		idle := !p.draining
		p.mu.Unlock()
		if idle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("preloader never drained")
}

func TestPreloadWarmsQueueInOrder(t *testing.T) {
	synth := &fakeSynth{}
	p, _, slept := newTestPreloader(t, synth)

	p.Enqueue("one", "two", "three")
	waitDrained(t, p)

	if got := synth.calls.Load(); got != 3 {
		t.Fatalf("remote called %d times, want 3", got)
	}
	if got := slept.Load(); got != 3 {
		t.Fatalf("paced %d times, want 3", got)
	}
	if p.Pending() != 0 {
		t.Fatal("queue should be empty after drain")
	}
}

func TestPreloadDedupsQueuedTexts(t *testing.T) {
	synth := &fakeSynth{gate: make(chan struct{})}
	p, _, _ := newTestPreloader(t, synth)

	p.Enqueue("hello")
	p.Enqueue("hello", "hello")
	p.Enqueue("world")

	close(synth.gate)
	waitDrained(t, p)
	if got := synth.calls.Load(); got != 2 {
		t.Fatalf("remote called %d times, want 2", got)
	}
}

func TestPreloadSkipsPacingOnCacheHit(t *testing.T) {
	synth := &fakeSynth{}
	p, _, slept := newTestPreloader(t, synth)

	p.Enqueue("warm me")
	waitDrained(t, p)
	before := slept.Load()

	p.Enqueue("warm me")
	waitDrained(t, p)

	if got := synth.calls.Load(); got != 1 {
		t.Fatalf("remote called %d times, want 1", got)
	}
	if slept.Load() != before {
		t.Fatal("cache hit should not pace")
	}
}

func TestPreloadDropsWhileBreakerOpen(t *testing.T) {
	synth := &fakeSynth{}
	p, breaker, _ := newTestPreloader(t, synth)

	breaker.Trip()
	p.Enqueue("suppressed")
	waitDrained(t, p)

	if synth.calls.Load() != 0 {
		t.Fatal("no remote calls while breaker is open")
	}
	if p.Pending() != 0 {
		t.Fatal("texts enqueued during cooldown should be dropped")
	}
}

func TestPreloadDiscardsQueueOnThrottle(t *testing.T) {
	synth := &fakeSynth{err: errProviderThrottled, gate: make(chan struct{})}
	fetcher, breaker := newTestFetcher(t, synth)
	synth.breaker = breaker
	p := NewPreloader(config.PreloadConfig{PacingDelayMS: 1}, fetcher, breaker, nil, testLogger())
	t.Cleanup(func() { p.Close() })

	p.Enqueue("a", "b", "c")
	close(synth.gate)
	waitDrained(t, p)

	// Fetch of "a" tripped the breaker but still returns its own error;
	// "b" then hits the open breaker and the rest is discarded.
	if got := synth.calls.Load(); got > 2 {
		t.Fatalf("remote called %d times, want at most 2", got)
	}
	if p.Pending() != 0 {
		t.Fatal("queue should be discarded after throttle")
	}
}
