package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names accepted for the external speech collaborators
const (
	ProviderOpenAI   = "openai"
	ProviderDeepgram = "deepgram"
	ProviderMock     = "mock"
)

// Config holds all configuration for the dialogue gateway and its client
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Speech synthesis collaborator (text -> audio bytes)
	SynthProvider string `envconfig:"SYNTH_PROVIDER" default:"openai"` // openai, mock
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	SynthModel    string `envconfig:"SYNTH_MODEL" default:"tts-1"`
	VoiceProfile  string `envconfig:"VOICE_PROFILE" default:"female"` // female -> shimmer, male -> echo

	// Speed transform applied to every synthesized sentence
	SpeechRate float64 `envconfig:"SPEECH_RATE" default:"1.1"`

	// Transcription collaborator (audio bytes -> word timestamps)
	TranscriberProvider string `envconfig:"TRANSCRIBER_PROVIDER" default:"deepgram"` // deepgram, mock
	DeepgramAPIKey      string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel       string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage    string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`

	// Word timing shaping: visual sync lead subtracted from each word start
	WordLeadMs int `envconfig:"WORD_LEAD_MS" default:"150"`

	// Directory for temporary synthesis artifacts (created on demand, always cleaned up)
	TempDir string `envconfig:"TEMP_DIR" default:"./audio"`

	// Resilience configuration for collaborator HTTP calls
	RetryMaxAttempts    int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialBackoff int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"` // milliseconds

	// Client configuration
	ServerURL        string `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	RevealIntervalMs int    `envconfig:"REVEAL_INTERVAL_MS" default:"20"` // per-character reveal pace

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks that the selected providers have the keys they need
func (c *Config) validate() error {
	if c.SynthProvider == ProviderOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when SYNTH_PROVIDER is %q", ProviderOpenAI)
	}
	if c.TranscriberProvider == ProviderDeepgram && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required when TRANSCRIBER_PROVIDER is %q", ProviderDeepgram)
	}
	if c.SpeechRate < 0.5 || c.SpeechRate > 2.0 {
		return fmt.Errorf("SPEECH_RATE %v is outside the supported atempo range [0.5, 2.0]", c.SpeechRate)
	}
	return nil
}

// SynthVoice maps the configured voice profile to a synthesis voice name
func (c *Config) SynthVoice() string {
	if c.VoiceProfile == "male" {
		return "echo"
	}
	return "shimmer"
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
