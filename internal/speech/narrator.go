package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"log/slog"

	"github.com/mattn/go-shellwords"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

// Narrator is the on-device fallback voice used when remote synthesis is
// unavailable. Speak blocks until narration finishes, is cancelled, or the
// context ends. Cancel interrupts any narration in progress.
type Narrator interface {
	Speak(ctx context.Context, text string, rate float64) error
	Cancel()
}

// baseWPM approximates the default speaking pace of the system voices; the
// rate multiplier scales it, so 0.9 slows narration for the gentler tier.
const baseWPM = 175

// ExecNarrator shells out to whichever speech command the host offers. The
// engine is resolved lazily on first use and remembered, including the
// no-engine case, which degrades every Speak to a silent no-op.
type ExecNarrator struct {
	command string
	locale  string
	log     *slog.Logger

	mu       sync.Mutex
	resolved bool
	engine   []string
	rated    func(args []string, rate float64) []string
	cancel   context.CancelFunc
}

func NewExecNarrator(cfg config.NarratorConfig, log *slog.Logger) *ExecNarrator {
	return &ExecNarrator{
		command: cfg.Command,
		locale:  cfg.Locale,
		log:     log.With(slog.String("component", "fallback-narrator")),
	}
}

func (n *ExecNarrator) Speak(ctx context.Context, text string, rate float64) error {
	engine, rated := n.resolve()
	if len(engine) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()
	defer func() {
		cancel()
		n.mu.Lock()
		if n.cancel != nil {
			n.cancel = nil
		}
		n.mu.Unlock()
	}()

	args := append([]string{}, engine[1:]...)
	if rated != nil {
		args = rated(args, rate)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, engine[0], args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("narrator %s: %w", engine[0], err)
	}
	return nil
}

// Cancel kills any narration in progress. Safe to call at any time.
func (n *ExecNarrator) Cancel() {
	n.mu.Lock()
	cancel := n.cancel
	n.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (n *ExecNarrator) resolve() ([]string, func([]string, float64) []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resolved {
		return n.engine, n.rated
	}
	n.resolved = true

	if n.command != "" {
		args, err := shellwords.NewParser().Parse(n.command)
		if err != nil || len(args) == 0 {
			n.log.Warn("narrator command unusable, narration disabled",
				slog.String("command", n.command))
			return nil, nil
		}
		n.engine = args
		n.log.Info("fallback narrator ready", slog.String("engine", args[0]))
		return n.engine, nil
	}

	for _, cand := range []struct {
		name  string
		rated func(args []string, rate float64) []string
	}{
		{"say", func(args []string, rate float64) []string {
			return append(args, "-r", strconv.Itoa(wpm(rate)))
		}},
		{"espeak-ng", n.espeakArgs},
		{"espeak", n.espeakArgs},
		{"flite", nil},
	} {
		path, err := exec.LookPath(cand.name)
		if err != nil {
			continue
		}
		n.engine = []string{path}
		n.rated = cand.rated
		n.log.Info("fallback narrator ready", slog.String("engine", cand.name))
		return n.engine, n.rated
	}

	n.log.Warn("no speech engine on PATH, fallback narration disabled")
	return nil, nil
}

func (n *ExecNarrator) espeakArgs(args []string, rate float64) []string {
	if n.locale != "" {
		args = append(args, "-v", n.locale)
	}
	return append(args, "-s", strconv.Itoa(wpm(rate)))
}

func wpm(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(baseWPM * rate)
}
