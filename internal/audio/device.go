package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/ebitengine/oto/v3"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

// ErrUnavailable is returned when no audio hardware could be opened. Callers
// treat it as "no audio produced" and fall through to other output paths.
var ErrUnavailable = errors.New("audio device unavailable")

// Device wraps the platform audio output. The underlying context is created
// lazily on the first Start call and reused afterwards; Start is safe to call
// from a user-interaction handler any number of times.
type Device struct {
	sampleRate int
	channels   int
	log        *slog.Logger

	mu       sync.Mutex
	ctx      *oto.Context
	startErr error
	tried    bool
}

func NewDevice(cfg config.AudioConfig, log *slog.Logger) *Device {
	return &Device{
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		log:        log.With(slog.String("component", "audio-device")),
	}
}

// Start opens the audio context if it is not open yet. Idempotent; a failed
// open is remembered so repeated calls stay cheap.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startLocked()
}

func (d *Device) startLocked() error {
	if d.ctx != nil {
		return nil
	}
	if d.tried {
		return d.startErr
	}
	d.tried = true

	op := &oto.NewContextOptions{
		SampleRate:   d.sampleRate,
		ChannelCount: d.channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		d.startErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		d.log.Warn("audio context unavailable", slog.String("error", err.Error()))
		return d.startErr
	}
	<-ready
	d.ctx = ctx
	d.log.Info("audio device ready",
		slog.Int("sample_rate", d.sampleRate),
		slog.Int("channels", d.channels))
	return nil
}

func (d *Device) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx != nil
}

// Playback owns one active buffer source. Done is closed when playback ends
// naturally or is stopped; Stop releases the source and is safe to call more
// than once.
type Playback struct {
	player *oto.Player
	done   chan struct{}
	once   sync.Once
}

func (p *Playback) Done() <-chan struct{} { return p.done }

func (p *Playback) Stop() { p.finish() }

func (p *Playback) finish() {
	p.once.Do(func() {
		_ = p.player.Close()
		close(p.done)
	})
}

// Play decodes raw 16-bit little-endian mono PCM, applies rate as a playback
// speed multiplier, and starts playback. At most one Playback should be live
// at a time; the caller owns that invariant.
func (d *Device) Play(pcm []byte, rate float64) (*Playback, error) {
	d.mu.Lock()
	err := d.startLocked()
	ctx := d.ctx
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(pcm) < 2 {
		return nil, errors.New("empty pcm buffer")
	}

	pcm = resamplePCM(pcm, rate)
	player := ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	p := &Playback{player: player, done: make(chan struct{})}
	go p.watch()
	return p, nil
}

// watch polls the player until the buffer drains, then signals completion.
// oto has no end-of-stream callback, so this is the onended analog.
func (p *Playback) watch() {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		select {
		case <-p.done:
			return
		default:
		}
		if !p.player.IsPlaying() {
			p.finish()
			return
		}
	}
}

// resamplePCM stretches or compresses the sample stream by linear
// interpolation so a fixed-rate output device plays it faster or slower.
// rate 0.9 yields more output samples, lengthening the utterance.
func resamplePCM(pcm []byte, rate float64) []byte {
	if rate <= 0 {
		rate = 1.0
	}
	if rate == 1.0 {
		return pcm
	}

	in := make([]int16, len(pcm)/2)
	for i := range in {
		in[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	outLen := int(float64(len(in)) / rate)
	if outLen < 1 {
		outLen = 1
	}
	out := make([]byte, outLen*2)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * rate
		idx := int(pos)
		frac := pos - float64(idx)
		s0 := in[min(idx, len(in)-1)]
		s1 := in[min(idx+1, len(in)-1)]
		v := float64(s0) + (float64(s1)-float64(s0))*frac
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
