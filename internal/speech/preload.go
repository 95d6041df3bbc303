package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

// Preloader warms the audio cache in the background. Texts are drained
// in enqueue order by a single worker, with a pacing delay between remote
// fetches so warming never competes with live speech for provider quota.
// Cache hits skip the delay. While the breaker is open the queue is
// discarded rather than retried; upcoming content is enqueued again the
// next time the view shows it.
type Preloader struct {
	fetcher *Fetcher
	breaker *Breaker
	metrics *Metrics
	pacing  time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	queue    []string
	queued   map[string]bool
	draining bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPreloader(cfg config.PreloadConfig, fetcher *Fetcher, breaker *Breaker, metrics *Metrics, log *slog.Logger) *Preloader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Preloader{
		fetcher: fetcher,
		breaker: breaker,
		metrics: metrics,
		pacing:  time.Duration(cfg.PacingDelayMS) * time.Millisecond,
		log:     log.With(slog.String("component", "preloader")),
		queued:  make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
		sleep:   sleepCtx,
	}
}

// Enqueue adds texts to the warm queue. Texts already queued, and all texts
// while the breaker is open, are dropped.
func (p *Preloader) Enqueue(texts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		return
	}
	if !p.breaker.Allow() {
		p.metrics.PreloadDropped(p.ctx)
		p.log.Debug("preload dropped, breaker open", slog.Int("count", len(texts)))
		return
	}

	added := 0
	for _, text := range texts {
		if text == "" || p.queued[text] {
			continue
		}
		p.queued[text] = true
		p.queue = append(p.queue, text)
		added++
	}
	if added == 0 {
		return
	}
	if !p.draining {
		p.draining = true
		p.wg.Add(1)
		go p.drain()
	}
}

// Pending reports the number of texts awaiting warm-up.
func (p *Preloader) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops the worker and discards the queue.
func (p *Preloader) Close() error {
	p.cancel()
	p.wg.Wait()
	return nil
}

func (p *Preloader) drain() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(p.queue) == 0 || p.ctx.Err() != nil {
			p.queue = nil
			p.queued = make(map[string]bool)
			p.draining = false
			p.mu.Unlock()
			return
		}
		text := p.queue[0]
		p.queue = p.queue[1:]
		delete(p.queued, text)
		p.mu.Unlock()

		cached, err := p.fetcher.Warm(p.ctx, text)
		if errors.Is(err, ErrThrottled) {
			p.discard("breaker open")
			return
		}
		if err != nil {
			p.log.Debug("preload fetch failed",
				slog.String("key", CacheKey(text)),
				slog.String("error", err.Error()))
		}
		if cached {
			continue
		}
		if err := p.sleep(p.ctx, p.pacing); err != nil {
			return
		}
	}
}

func (p *Preloader) discard(reason string) {
	p.mu.Lock()
	dropped := len(p.queue)
	p.queue = nil
	p.queued = make(map[string]bool)
	p.draining = false
	p.mu.Unlock()
	if dropped > 0 {
		p.metrics.PreloadDropped(p.ctx)
		p.log.Debug("preload queue discarded",
			slog.String("reason", reason), slog.Int("dropped", dropped))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
