package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neelparekh9/dialogue-gateway/internal/config"
	"github.com/neelparekh9/dialogue-gateway/internal/interaction"
	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/stream"
	"github.com/neelparekh9/dialogue-gateway/internal/synthesis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("synth_provider", cfg.SynthProvider).
		Str("transcriber_provider", cfg.TranscriberProvider).
		Int("script_nodes", script.Len()).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Dialogue Gateway Service starting")

	synth, transform, transcriber := buildPipeline(cfg)
	processor := synthesis.NewProcessor(cfg, synth, transform, transcriber, logger)
	producer := stream.NewProducer(processor, logger)

	// Create HTTP server
	mux := http.NewServeMux()

	interaction.NewHandler(producer, logger).Register(mux)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint: the gateway is ready when its speech collaborators
	// are configured and ffmpeg is on the path
	checks := map[string]observability.HealthCheckFunc{
		"synthesizer": func(ctx context.Context) (bool, error) {
			if cfg.SynthProvider == config.ProviderOpenAI && cfg.OpenAIAPIKey == "" {
				return false, fmt.Errorf("missing OpenAI API key")
			}
			return true, nil
		},
		"transcriber": func(ctx context.Context) (bool, error) {
			if cfg.TranscriberProvider == config.ProviderDeepgram && cfg.DeepgramAPIKey == "" {
				return false, fmt.Errorf("missing Deepgram API key")
			}
			return true, nil
		},
		"transformer": func(ctx context.Context) (bool, error) {
			if ff, ok := transform.(*synthesis.FFmpegTransformer); ok && !ff.Available() {
				return false, fmt.Errorf("ffmpeg not found on PATH")
			}
			return true, nil
		},
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Streams stay open for the length of a whole line, so the write timeout
	// has to cover many sentence syntheses
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/interaction/{nodeId}", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

// buildPipeline selects the synthesis collaborators from configuration.
// Mock providers keep local development free of API keys and costs.
func buildPipeline(cfg *config.Config) (synthesis.Synthesizer, synthesis.Transformer, synthesis.Transcriber) {
	var synth synthesis.Synthesizer
	switch cfg.SynthProvider {
	case config.ProviderMock:
		synth = synthesis.MockSynthesizer{}
	default:
		synth = synthesis.NewOpenAISynthesizer(cfg)
	}

	var transform synthesis.Transformer
	ff := synthesis.NewFFmpegTransformer()
	if ff.Available() {
		transform = ff
	} else {
		warnLogger := observability.GetLogger()
		warnLogger.Warn().Msg("ffmpeg not found; audio will play at its original pace")
		transform = synthesis.CopyTransformer{}
	}

	var transcriber synthesis.Transcriber
	switch cfg.TranscriberProvider {
	case config.ProviderMock:
		transcriber = synthesis.MockTranscriber{}
	default:
		transcriber = synthesis.NewDeepgramTranscriber(cfg)
	}

	return synth, transform, transcriber
}
