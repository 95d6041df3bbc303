package speech

import (
	"context"
	"testing"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

func TestNarratorUsesConfiguredCommand(t *testing.T) {
	n := NewExecNarrator(config.NarratorConfig{Command: "echo -n"}, testLogger())
	if err := n.Speak(context.Background(), "hello there", 1); err != nil {
		t.Fatalf("speak: %v", err)
	}
}

func TestNarratorBadCommandDisablesNarration(t *testing.T) {
	n := NewExecNarrator(config.NarratorConfig{Command: "'unterminated"}, testLogger())
	if err := n.Speak(context.Background(), "hello", 1); err != nil {
		t.Fatalf("disabled narrator should no-op, got %v", err)
	}
}

func TestNarratorCancelWithoutSpeechIsSafe(t *testing.T) {
	n := NewExecNarrator(config.NarratorConfig{}, testLogger())
	n.Cancel()
}

func TestWPM(t *testing.T) {
	cases := []struct {
		rate float64
		want int
	}{
		{1, 175},
		{0.9, 157},
		{0, 175},
		{-1, 175},
	}
	for _, tc := range cases {
		if got := wpm(tc.rate); got != tc.want {
			t.Errorf("wpm(%v) = %d, want %d", tc.rate, got, tc.want)
		}
	}
}
