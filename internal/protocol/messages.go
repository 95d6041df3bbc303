package protocol

import "time"

// SpeakRequest asks the speech service to vocalize one utterance. Key is an
// opaque caller label echoed back in SpeakDone; Text is the caching and
// deduplication identity; Rate scales playback speed (0.9 for tiny builders).
type SpeakRequest struct {
	Key  string  `json:"key"`
	Text string  `json:"text"`
	Rate float64 `json:"rate"`
}

// SpeakDone reports that a speak request resolved. Played is false when the
// utterance was superseded before producing audio.
type SpeakDone struct {
	Key       string    `json:"key"`
	Played    bool      `json:"played"`
	Fallback  bool      `json:"fallback"`
	Timestamp time.Time `json:"timestamp"`
}

// PreloadRequest asks the background worker to warm the cache for a text.
type PreloadRequest struct {
	Text string `json:"text"`
}

// EffectRequest triggers a procedural UI sound effect.
type EffectRequest struct {
	Kind string `json:"kind"`
}

// TalkingState is broadcast whenever the mascot starts or stops talking, so
// the view layer can animate the mouth.
type TalkingState struct {
	Talking   bool      `json:"talking"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressState is the persisted save: completed mission IDs plus the chosen
// builder level.
type ProgressState struct {
	CompletedMissions []string `json:"completed_missions"`
	Level             string   `json:"level"`
}

const (
	SubjectSpeechInit    = "speech.init"
	SubjectSpeechSpeak   = "speech.speak"
	SubjectSpeechStop    = "speech.stop"
	SubjectSpeechPreload = "speech.preload"
	SubjectSpeechEffect  = "speech.effect"
	SubjectSpeechDone    = "speech.done"
	SubjectSpeechTalking = "speech.talking"

	SubjectProgressLoad  = "progress.load"
	SubjectProgressSave  = "progress.save"
	SubjectProgressReset = "progress.reset"
)
