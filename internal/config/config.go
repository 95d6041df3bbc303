package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// AudioConfig describes the output device. The synthesis wire format is fixed
// at single-channel 16-bit PCM, so channels stays at 1 unless a future voice
// model changes that.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// SpeechConfig covers the remote synthesis client.
type SpeechConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Voice          string `yaml:"voice"`
	FetchTimeoutMS int    `yaml:"fetch_timeout_ms"`
}

// NarratorConfig covers the on-device fallback voice. Command, when set,
// overrides the built-in engine preference order.
type NarratorConfig struct {
	Command string `yaml:"command"`
	Locale  string `yaml:"locale"`
}

type CacheConfig struct {
	Path       string `yaml:"path"`
	Generation string `yaml:"generation"`
}

type PreloadConfig struct {
	PacingDelayMS     int `yaml:"pacing_delay_ms"`
	BreakerCooldownMS int `yaml:"breaker_cooldown_ms"`
}

type ProgressConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Audio       AudioConfig     `yaml:"audio"`
	Speech      SpeechConfig    `yaml:"speech"`
	Narrator    NarratorConfig  `yaml:"narrator"`
	Cache       CacheConfig     `yaml:"cache"`
	Preload     PreloadConfig   `yaml:"preload"`
	Progress    ProgressConfig  `yaml:"progress"`
}

func Default() Config {
	return Config{
		RuntimeName: "adventure-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Audio: AudioConfig{
			SampleRate: 24000,
			Channels:   1,
		},
		Speech: SpeechConfig{
			Endpoint:       "https://generativelanguage.googleapis.com",
			Model:          "gemini-2.5-flash-preview-tts",
			Voice:          "Puck",
			FetchTimeoutMS: 15000,
		},
		Narrator: NarratorConfig{
			Locale: "en-US",
		},
		Cache: CacheConfig{
			Path:       "./data/tts-cache.db",
			Generation: "v9-puck",
		},
		Preload: PreloadConfig{
			PacingDelayMS:     2500,
			BreakerCooldownMS: 60000,
		},
		Progress: ProgressConfig{
			Path: "./data/progress.db",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ADVENTURE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ADVENTURE_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ADVENTURE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ADVENTURE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ADVENTURE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ADVENTURE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ADVENTURE_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "ADVENTURE_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ADVENTURE_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "ADVENTURE_BUS_SERVERS")
	overrideInt(&cfg.Bus.ConnectTimeout, "ADVENTURE_BUS_CONNECT_TIMEOUT_MS")
	overrideInt(&cfg.Audio.SampleRate, "ADVENTURE_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "ADVENTURE_AUDIO_CHANNELS")
	overrideString(&cfg.Speech.Endpoint, "ADVENTURE_SPEECH_ENDPOINT")
	overrideString(&cfg.Speech.APIKey, "ADVENTURE_SPEECH_API_KEY")
	overrideString(&cfg.Speech.Model, "ADVENTURE_SPEECH_MODEL")
	overrideString(&cfg.Speech.Voice, "ADVENTURE_SPEECH_VOICE")
	overrideInt(&cfg.Speech.FetchTimeoutMS, "ADVENTURE_SPEECH_FETCH_TIMEOUT_MS")
	overrideString(&cfg.Narrator.Command, "ADVENTURE_NARRATOR_COMMAND")
	overrideString(&cfg.Narrator.Locale, "ADVENTURE_NARRATOR_LOCALE")
	overrideString(&cfg.Cache.Path, "ADVENTURE_CACHE_PATH")
	overrideString(&cfg.Cache.Generation, "ADVENTURE_CACHE_GENERATION")
	overrideInt(&cfg.Preload.PacingDelayMS, "ADVENTURE_PRELOAD_PACING_DELAY_MS")
	overrideInt(&cfg.Preload.BreakerCooldownMS, "ADVENTURE_PRELOAD_BREAKER_COOLDOWN_MS")
	overrideString(&cfg.Progress.Path, "ADVENTURE_PROGRESS_PATH")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if cfg.Speech.Endpoint == "" {
		return errors.New("speech.endpoint must not be empty")
	}
	if cfg.Speech.Model == "" {
		return errors.New("speech.model must not be empty")
	}
	if cfg.Speech.FetchTimeoutMS <= 0 {
		return errors.New("speech.fetch_timeout_ms must be positive")
	}
	if cfg.Cache.Path == "" {
		return errors.New("cache.path must not be empty")
	}
	if cfg.Cache.Generation == "" {
		return errors.New("cache.generation must not be empty")
	}
	if cfg.Preload.PacingDelayMS < 0 {
		return errors.New("preload.pacing_delay_ms must be >= 0")
	}
	if cfg.Preload.BreakerCooldownMS <= 0 {
		return errors.New("preload.breaker_cooldown_ms must be positive")
	}
	if cfg.Progress.Path == "" {
		return errors.New("progress.path must not be empty")
	}
	return nil
}
