package speech

import (
	"context"
	"errors"
	"sync"

	"log/slog"
)

// ErrThrottled is returned when the breaker is open and no cached audio
// exists for the requested text.
var ErrThrottled = errors.New("remote synthesis suppressed by breaker")

// Fetcher resolves spoken text to decoded audio. Lookup order is cache,
// then any identical fetch already in flight, then the breaker gate, then
// the remote synthesizer. Successful remote results are written back to the
// cache before the in-flight entry settles, so a concurrent caller that
// joined late still lands on a hit.
type Fetcher struct {
	cache   *Cache
	remote  Synthesizer
	breaker *Breaker
	metrics *Metrics
	log     *slog.Logger

	mu       sync.Mutex
	inflight map[string]*fetchCall
}

type fetchCall struct {
	done chan struct{}
	data []byte
	err  error
}

func NewFetcher(cache *Cache, remote Synthesizer, breaker *Breaker, metrics *Metrics, log *slog.Logger) *Fetcher {
	return &Fetcher{
		cache:    cache,
		remote:   remote,
		breaker:  breaker,
		metrics:  metrics,
		log:      log.With(slog.String("component", "audio-fetcher")),
		inflight: make(map[string]*fetchCall),
	}
}

// Fetch returns decoded audio for text. Concurrent calls for the same text
// share a single remote request.
func (f *Fetcher) Fetch(ctx context.Context, text string) ([]byte, error) {
	audio, _, err := f.fetch(ctx, text)
	return audio, err
}

// Warm is Fetch for the preload worker: it additionally reports whether the
// audio was already cached, so the caller can skip pacing on hits.
func (f *Fetcher) Warm(ctx context.Context, text string) (cached bool, err error) {
	_, cached, err = f.fetch(ctx, text)
	return cached, err
}

func (f *Fetcher) fetch(ctx context.Context, text string) (audio []byte, cached bool, err error) {
	if audio, ok := f.cache.Get(ctx, text); ok {
		f.metrics.CacheHit(ctx)
		return audio, true, nil
	}
	f.metrics.CacheMiss(ctx)

	f.mu.Lock()
	if call, ok := f.inflight[text]; ok {
		f.mu.Unlock()
		select {
		case <-call.done:
			return call.data, false, call.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	if !f.breaker.Allow() {
		f.mu.Unlock()
		return nil, false, ErrThrottled
	}

	call := &fetchCall{done: make(chan struct{})}
	f.inflight[text] = call
	f.mu.Unlock()

	// The fetch runs on its own goroutine so a caller whose context is
	// cancelled mid-flight can leave without abandoning joiners.
	go f.run(call, text)

	select {
	case <-call.done:
		return call.data, false, call.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (f *Fetcher) run(call *fetchCall, text string) {
	ctx := context.Background()
	f.metrics.RemoteFetch(ctx)
	audio, err := f.remote.Synthesize(ctx, text)
	if err != nil {
		f.metrics.RemoteFailure(ctx)
		f.log.Warn("remote synthesis failed",
			slog.String("key", CacheKey(text)),
			slog.String("error", err.Error()))
	} else {
		f.cache.Put(ctx, text, audio)
	}

	f.mu.Lock()
	delete(f.inflight, text)
	f.mu.Unlock()

	call.data, call.err = audio, err
	close(call.done)
}
