package audio

import "testing"

func TestRenderEffectDurations(t *testing.T) {
	const sampleRate = 24000

	within := func(got, want int) bool {
		diff := got - want
		return diff >= -4 && diff <= 4
	}

	short := renderEffect(EffectClick, sampleRate)
	if !within(len(short), int(0.1*sampleRate)*2) {
		t.Fatalf("click: expected ~%d bytes, got %d", int(0.1*sampleRate)*2, len(short))
	}

	chime := renderEffect(EffectSuccess, sampleRate)
	// Last note starts at 0.3s and rings for 0.4s.
	if !within(len(chime), int(0.7*sampleRate)*2) {
		t.Fatalf("success: expected ~%d bytes, got %d", int(0.7*sampleRate)*2, len(chime))
	}
}

func TestRenderEffectNotSilent(t *testing.T) {
	pcm := renderEffect(EffectPop, 24000)
	for i := 0; i < len(pcm); i += 2 {
		if pcm[i] != 0 || pcm[i+1] != 0 {
			return
		}
	}
	t.Fatal("expected non-silent samples")
}

func TestParseEffect(t *testing.T) {
	for _, name := range []string{"click", "success", "pop", "sparkle"} {
		e, err := ParseEffect(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if e.String() != name {
			t.Fatalf("round trip mismatch: %q != %q", e.String(), name)
		}
	}
	if _, err := ParseEffect("boom"); err == nil {
		t.Fatal("expected error for unknown effect")
	}
}

func TestResamplePCM(t *testing.T) {
	pcm := make([]byte, 2000)
	same := resamplePCM(pcm, 1.0)
	if len(same) != len(pcm) {
		t.Fatalf("rate 1.0 should not change length: %d", len(same))
	}

	slower := resamplePCM(pcm, 0.9)
	if len(slower) <= len(pcm) {
		t.Fatalf("rate 0.9 should stretch the buffer, got %d <= %d", len(slower), len(pcm))
	}

	faster := resamplePCM(pcm, 1.25)
	if len(faster) >= len(pcm) {
		t.Fatalf("rate 1.25 should shrink the buffer, got %d >= %d", len(faster), len(pcm))
	}
}
