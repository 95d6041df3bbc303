package speech

import (
	"context"
	"sync"

	"log/slog"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/audio"
)

// Output is the playback surface the controller drives. Play starts the
// audio and returns a handle whose Done channel closes when the clip ends
// or is stopped.
type Output interface {
	Play(pcm []byte, rate float64) (Playing, error)
}

type Playing interface {
	Done() <-chan struct{}
	Stop()
}

// DeviceOutput adapts the audio device to the controller's Output.
type DeviceOutput struct {
	Device *audio.Device
}

func (o DeviceOutput) Play(pcm []byte, rate float64) (Playing, error) {
	return o.Device.Play(pcm, rate)
}

// Result reports how a Speak call ended.
type Result struct {
	// Played is true when the utterance ran to completion rather than
	// being interrupted by a newer request or Stop.
	Played bool
	// Fallback is true when on-device narration spoke instead of
	// synthesized audio.
	Fallback bool
}

// Controller serializes speech. At most one utterance is audible; a new
// Speak or an explicit Stop invalidates the session in progress, and the
// superseded call returns promptly with Played false. Talking state changes
// are pushed to the registered listener.
type Controller struct {
	fetcher  *Fetcher
	narrator Narrator
	out      Output
	metrics  *Metrics
	log      *slog.Logger

	mu        sync.Mutex
	session   uint64
	playback  Playing
	release   chan struct{}
	talking   bool
	notify    func(talking bool)
	pending   []bool
	notifying bool
}

func NewController(fetcher *Fetcher, narrator Narrator, out Output, metrics *Metrics, log *slog.Logger) *Controller {
	return &Controller{
		fetcher:  fetcher,
		narrator: narrator,
		out:      out,
		metrics:  metrics,
		log:      log.With(slog.String("component", "playback-controller")),
	}
}

// OnTalking registers the single listener for talking-state transitions.
// Must be called before the controller is in use.
func (c *Controller) OnTalking(fn func(talking bool)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Talking reports whether an utterance is currently audible.
func (c *Controller) Talking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.talking
}

// Stop interrupts any utterance in progress. Idle calls are no-ops.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.session++
	c.interruptLocked()
	c.mu.Unlock()
	c.narrator.Cancel()
}

// Speak voices text and blocks until the utterance completes or is
// superseded. A superseded call returns Result{Played: false} and no error.
// Synthesis failure falls back to on-device narration; only a failure of
// both paths yields an error.
//
// The talking flag covers the whole call, fetch included, so the mascot
// animates while audio is still on its way.
func (c *Controller) Speak(ctx context.Context, text string, rate float64) (Result, error) {
	c.mu.Lock()
	c.session++
	id := c.session
	c.interruptLocked()
	release := make(chan struct{})
	c.release = release
	c.setTalkingLocked(true)
	c.mu.Unlock()
	c.narrator.Cancel()
	c.metrics.SessionStarted(ctx)

	audioData, err := c.fetcher.Fetch(ctx, text)
	if !c.current(id) {
		return Result{}, nil
	}
	if err != nil {
		c.log.Info("falling back to on-device narration",
			slog.String("key", CacheKey(text)),
			slog.String("reason", err.Error()))
		return c.narrate(ctx, id, text, rate)
	}

	playback, err := c.out.Play(audioData, rate)
	if err != nil {
		c.log.Warn("audio output failed, narrating instead",
			slog.String("error", err.Error()))
		return c.narrate(ctx, id, text, rate)
	}

	c.mu.Lock()
	if id != c.session {
		c.mu.Unlock()
		playback.Stop()
		return Result{}, nil
	}
	c.playback = playback
	c.setTalkingLocked(true)
	c.mu.Unlock()

	defer c.clear(id)
	select {
	case <-playback.Done():
		return Result{Played: c.current(id)}, nil
	case <-release:
		playback.Stop()
		return Result{}, nil
	case <-ctx.Done():
		playback.Stop()
		return Result{}, ctx.Err()
	}
}

func (c *Controller) narrate(ctx context.Context, id uint64, text string, rate float64) (Result, error) {
	c.mu.Lock()
	if id != c.session {
		c.mu.Unlock()
		return Result{}, nil
	}
	c.setTalkingLocked(true)
	c.mu.Unlock()
	c.metrics.FallbackUsed(ctx)

	err := c.narrator.Speak(ctx, text, rate)
	c.clear(id)
	if !c.current(id) {
		return Result{}, nil
	}
	if err != nil {
		return Result{Fallback: true}, err
	}
	return Result{Played: true, Fallback: true}, nil
}

// interruptLocked stops the active playback and wakes its waiter. Caller
// holds c.mu.
func (c *Controller) interruptLocked() {
	if c.release != nil {
		close(c.release)
		c.release = nil
	}
	if c.playback != nil {
		c.playback.Stop()
		c.playback = nil
	}
	c.setTalkingLocked(false)
}

func (c *Controller) current(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id == c.session
}

func (c *Controller) clear(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.session {
		return
	}
	c.playback = nil
	c.release = nil
	c.setTalkingLocked(false)
}

// setTalkingLocked records a transition and queues it for the listener.
// Deliveries happen off the lock but strictly in transition order; a
// reversed true/false pair would leave the view animating forever.
func (c *Controller) setTalkingLocked(talking bool) {
	if c.talking == talking {
		return
	}
	c.talking = talking
	if c.notify == nil {
		return
	}
	c.pending = append(c.pending, talking)
	if !c.notifying {
		c.notifying = true
		go c.dispatch()
	}
}

func (c *Controller) dispatch() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.notifying = false
			c.mu.Unlock()
			return
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		notify := c.notify
		c.mu.Unlock()
		notify(next)
	}
}
