package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"github.com/cornellj834-lang/Lego-Adventure-App/internal/config"
)

// Synthesizer produces raw decoded audio for a text. Implementations return
// an error on any failure; callers recover locally (fallback narration), so
// errors never travel past the speech package.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// RemoteClient calls a generateContent-style speech endpoint that answers
// with base64 single-channel 16-bit PCM at 24 kHz. A throttling response
// trips the shared breaker before the error is returned; callers must check
// the breaker before invoking Synthesize.
type RemoteClient struct {
	endpoint string
	apiKey   string
	model    string
	voice    string
	breaker  *Breaker
	client   *http.Client
	log      *slog.Logger
}

func NewRemoteClient(cfg config.SpeechConfig, breaker *Breaker, log *slog.Logger) *RemoteClient {
	return &RemoteClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		voice:    cfg.Voice,
		breaker:  breaker,
		client: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeoutMS) * time.Millisecond,
		},
		log: log.With(slog.String("component", "synthesis-client")),
	}
}

type synthRequest struct {
	Contents         []synthContent `json:"contents"`
	GenerationConfig synthGenConfig `json:"generationConfig"`
}

type synthContent struct {
	Parts []synthPart `json:"parts"`
}

type synthPart struct {
	Text string `json:"text"`
}

type synthGenConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	SpeechConfig       synthSpeechConfig `json:"speechConfig"`
}

type synthSpeechConfig struct {
	VoiceConfig synthVoiceConfig `json:"voiceConfig"`
}

type synthVoiceConfig struct {
	PrebuiltVoiceConfig synthPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type synthPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type synthResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData struct {
					Data string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *RemoteClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.New("synthesis api key missing")
	}

	payload := synthRequest{
		Contents: []synthContent{{Parts: []synthPart{{Text: text}}}},
		GenerationConfig: synthGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: synthSpeechConfig{
				VoiceConfig: synthVoiceConfig{
					PrebuiltVoiceConfig: synthPrebuiltVoice{VoiceName: c.voice},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		c.endpoint, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.breaker.Trip()
		return nil, fmt.Errorf("synthesis throttled: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("synthesis returned status %s", resp.Status)
	}

	var parsed synthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode synthesis response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("synthesis response has no audio part")
	}
	data := parsed.Candidates[0].Content.Parts[0].InlineData.Data
	if data == "" {
		return nil, errors.New("synthesis response has empty audio data")
	}
	audio, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return audio, nil
}
