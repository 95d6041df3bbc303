package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Effect is the closed set of procedural UI sounds. Effects are synthesized
// from oscillator primitives rather than fetched or cached audio.
type Effect int

const (
	EffectClick Effect = iota
	EffectSuccess
	EffectPop
	EffectSparkle
)

func ParseEffect(name string) (Effect, error) {
	switch name {
	case "click":
		return EffectClick, nil
	case "success":
		return EffectSuccess, nil
	case "pop":
		return EffectPop, nil
	case "sparkle":
		return EffectSparkle, nil
	default:
		return 0, fmt.Errorf("unknown sound effect %q", name)
	}
}

func (e Effect) String() string {
	switch e {
	case EffectClick:
		return "click"
	case EffectSuccess:
		return "success"
	case EffectPop:
		return "pop"
	case EffectSparkle:
		return "sparkle"
	default:
		return "unknown"
	}
}

// PlayEffect synthesizes and plays a sound effect. Fire-and-forget: failures
// are swallowed because effects are decorative.
func (d *Device) PlayEffect(e Effect) {
	pcm := renderEffect(e, d.sampleRate)
	if _, err := d.Play(pcm, 1.0); err != nil {
		d.log.Debug("sound effect dropped", "effect", e.String(), "error", err.Error())
	}
}

type note struct {
	freq  float64
	start float64
	dur   float64
	gain  float64
}

func effectNotes(e Effect) []note {
	switch e {
	case EffectSuccess:
		// Rising C-major chime: C5 E5 G5 C6.
		freqs := []float64{523.25, 659.25, 783.99, 1046.50}
		notes := make([]note, len(freqs))
		for i, f := range freqs {
			notes[i] = note{freq: f, start: float64(i) * 0.1, dur: 0.4, gain: 0.2}
		}
		return notes
	case EffectClick:
		return []note{{freq: 300, dur: 0.1, gain: 0.1}}
	case EffectPop:
		return []note{{freq: 800, dur: 0.1, gain: 0.1}}
	default:
		return []note{{freq: 1200, dur: 0.1, gain: 0.1}}
	}
}

// renderEffect mixes decaying sine tones into one 16-bit mono PCM buffer.
func renderEffect(e Effect, sampleRate int) []byte {
	notes := effectNotes(e)

	total := 0.0
	for _, n := range notes {
		if end := n.start + n.dur; end > total {
			total = end
		}
	}
	frames := int(total * float64(sampleRate))
	mix := make([]float64, frames)

	for _, n := range notes {
		startFrame := int(n.start * float64(sampleRate))
		durFrames := int(n.dur * float64(sampleRate))
		for i := 0; i < durFrames && startFrame+i < frames; i++ {
			t := float64(i) / float64(sampleRate)
			// Exponential decay from full gain down to near silence.
			env := n.gain * math.Pow(0.01/n.gain, t/n.dur)
			mix[startFrame+i] += env * math.Sin(2*math.Pi*n.freq*t)
		}
	}

	pcm := make([]byte, frames*2)
	for i, v := range mix {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*32767)))
	}
	return pcm
}
