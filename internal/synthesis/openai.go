package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neelparekh9/dialogue-gateway/internal/config"
	"github.com/neelparekh9/dialogue-gateway/internal/resilience"
)

const openAISpeechURL = "https://api.openai.com/v1/audio/speech"

// OpenAISynthesizer implements Synthesizer using the OpenAI speech API
type OpenAISynthesizer struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	retry      *resilience.RetryConfig
}

// speechRequest represents the request payload for the OpenAI speech API
type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// NewOpenAISynthesizer creates a new OpenAI speech client
func NewOpenAISynthesizer(cfg *config.Config) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		apiKey:     cfg.OpenAIAPIKey,
		apiURL:     openAISpeechURL,
		model:      cfg.SynthModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// Speak converts one sentence to WAV audio bytes
func (c *OpenAISynthesizer) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	reqBody := speechRequest{
		Model:          c.model,
		Voice:          voice,
		Input:          text,
		ResponseFormat: "wav",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var audio []byte
	err = resilience.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("openai API returned status %d: %s", resp.StatusCode, string(body))
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read audio response: %w", err)
		}
		return nil
	}, c.retry, resilience.IsRetryableNetworkError)

	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai returned empty audio data")
	}

	return audio, nil
}
