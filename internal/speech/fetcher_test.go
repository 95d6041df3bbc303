package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSynth counts calls and can be made to block, fail, or throttle.
type fakeSynth struct {
	calls   atomic.Int64
	err     error
	gate    chan struct{}
	breaker *Breaker
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		if f.breaker != nil {
			f.breaker.Trip()
		}
		return nil, f.err
	}
	return []byte("pcm:" + text), nil
}

func newTestFetcher(t *testing.T, synth Synthesizer) (*Fetcher, *Breaker) {
	t.Helper()
	breaker := NewBreaker(time.Minute, nil, testLogger())
	cache := openTestCache(t, "v9-puck")
	return NewFetcher(cache, synth, breaker, nil, testLogger()), breaker
}

func TestFetchCachesRemoteResult(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{}
	f, _ := newTestFetcher(t, synth)

	audio, err := f.Fetch(ctx, "Pick your world!")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(audio) != "pcm:Pick your world!" {
		t.Fatalf("unexpected audio %q", audio)
	}

	if _, err := f.Fetch(ctx, "Pick your world!"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if got := synth.calls.Load(); got != 1 {
		t.Fatalf("remote called %d times, want 1", got)
	}
}

func TestFetchDedupsConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{gate: make(chan struct{})}
	f, _ := newTestFetcher(t, synth)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Fetch(ctx, "Great building!")
		}(i)
	}

	// Let every caller reach the in-flight table before the fetch settles.
	deadline := time.Now().Add(2 * time.Second)
	for synth.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(synth.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if string(results[i]) != "pcm:Great building!" {
			t.Fatalf("caller %d got %q", i, results[i])
		}
	}
	if got := synth.calls.Load(); got != 1 {
		t.Fatalf("remote called %d times, want 1", got)
	}
}

func TestFetchSuppressedWhileBreakerOpen(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{}
	f, breaker := newTestFetcher(t, synth)

	breaker.Trip()
	if _, err := f.Fetch(ctx, "Zoom zoom!"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("want ErrThrottled, got %v", err)
	}
	if synth.calls.Load() != 0 {
		t.Fatal("remote must not be called while breaker is open")
	}
}

func TestFetchServesCacheWhileBreakerOpen(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{}
	f, breaker := newTestFetcher(t, synth)

	if _, err := f.Fetch(ctx, "Roar!"); err != nil {
		t.Fatalf("warm fetch: %v", err)
	}
	breaker.Trip()
	audio, err := f.Fetch(ctx, "Roar!")
	if err != nil {
		t.Fatalf("cached fetch during cooldown: %v", err)
	}
	if string(audio) != "pcm:Roar!" {
		t.Fatalf("unexpected audio %q", audio)
	}
}

func TestWarmReportsCacheHit(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{}
	f, _ := newTestFetcher(t, synth)

	cached, err := f.Warm(ctx, "Let's build!")
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if cached {
		t.Fatal("first warm should report a miss")
	}

	cached, err = f.Warm(ctx, "Let's build!")
	if err != nil {
		t.Fatalf("second warm: %v", err)
	}
	if !cached {
		t.Fatal("second warm should report a hit")
	}
}

func TestFetchCallerCancellation(t *testing.T) {
	synth := &fakeSynth{gate: make(chan struct{})}
	f, _ := newTestFetcher(t, synth)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, "Onward!")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for synth.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	// The fetch itself keeps running and still lands in the cache.
	close(synth.gate)
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if audio, ok := f.cache.Get(context.Background(), "Onward!"); ok {
			if string(audio) != "pcm:Onward!" {
				t.Fatalf("unexpected cached audio %q", audio)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("abandoned fetch never reached the cache")
}
