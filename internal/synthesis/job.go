package synthesis

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neelparekh9/dialogue-gateway/internal/config"
	"github.com/neelparekh9/dialogue-gateway/internal/observability"
)

// Pipeline stage names, used for logging and failure metrics
const (
	stageSynthesis     = "synthesis"
	stageTransform     = "transform"
	stageTranscription = "transcription"
)

// Processor runs the per-sentence pipeline: synthesize, speed up, transcribe.
// Temporary artifacts created along the way never outlive one call.
type Processor struct {
	cfg         *config.Config
	synth       Synthesizer
	transform   Transformer
	transcriber Transcriber
	logger      zerolog.Logger
}

// NewProcessor wires the three collaborators into a sentence processor
func NewProcessor(cfg *config.Config, synth Synthesizer, transform Transformer, transcriber Transcriber, logger zerolog.Logger) *Processor {
	return &Processor{
		cfg:         cfg,
		synth:       synth,
		transform:   transform,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Synthesize turns one sentence into an encoded audio payload with word
// timings. Collaborator failures come back as a failed Result, never as an
// error: the caller owns the abort-or-skip policy.
func (p *Processor) Synthesize(ctx context.Context, text string) Result {
	start := time.Now()

	// Every temp artifact is tracked the moment its path is chosen and
	// removed on all exit paths. Deletion failures are logged, not escalated.
	var created []string
	defer func() {
		for _, path := range created {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn().Err(err).Str("path", path).Msg("Failed to delete temp audio file")
				observability.RecordCleanupFailure()
			}
		}
	}()

	fail := func(stage string, err error) Result {
		p.logger.Error().Err(err).Str("stage", stage).Str("sentence", text).Msg("Sentence synthesis failed")
		observability.RecordSynthesis(start, stage)
		return Result{
			SentenceText: text,
			Failed:       true,
			Reason:       fmt.Sprintf("%s: %v", stage, err),
		}
	}

	// MkdirAll is safe under concurrent first-use by sibling jobs
	if err := os.MkdirAll(p.cfg.TempDir, 0o755); err != nil {
		return fail(stageSynthesis, fmt.Errorf("create temp dir: %w", err))
	}

	raw, err := p.synth.Speak(ctx, text, p.cfg.SynthVoice())
	if err != nil {
		return fail(stageSynthesis, err)
	}

	name := fmt.Sprintf("speech_%s.wav", uuid.New().String())
	rawPath := filepath.Join(p.cfg.TempDir, name)
	created = append(created, rawPath)
	if err := os.WriteFile(rawPath, raw, 0o644); err != nil {
		return fail(stageSynthesis, fmt.Errorf("write temp audio: %w", err))
	}

	spedPath := filepath.Join(p.cfg.TempDir, "spedup_"+name)
	created = append(created, spedPath)
	if err := p.transform.SpeedUp(ctx, rawPath, spedPath, p.cfg.SpeechRate); err != nil {
		return fail(stageTransform, err)
	}

	sped, err := os.ReadFile(spedPath)
	if err != nil {
		return fail(stageTransform, fmt.Errorf("read sped-up audio: %w", err))
	}

	timed, err := p.transcriber.Transcribe(ctx, spedPath)
	if err != nil {
		return fail(stageTranscription, err)
	}

	observability.RecordSynthesis(start, "")

	return Result{
		SentenceText: text,
		AudioBase64:  base64.StdEncoding.EncodeToString(sped),
		Words:        p.shapeWords(timed),
	}
}

// shapeWords converts transcriber seconds into display offsets: a fixed lead
// is subtracted from each start so the reveal slightly precedes the audio.
func (p *Processor) shapeWords(timed []TimedWord) []Word {
	if len(timed) == 0 {
		return nil
	}

	lead := float64(p.cfg.WordLeadMs)
	words := make([]Word, 0, len(timed))
	for _, w := range timed {
		words = append(words, Word{
			Text:          w.Text,
			StartOffsetMs: 1000*w.Start - lead,
			DurationMs:    1000 * (w.End - w.Start),
		})
	}
	return words
}
