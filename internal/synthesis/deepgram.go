package synthesis

import (
	"context"
	"fmt"

	prerecorded "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/neelparekh9/dialogue-gateway/internal/config"
)

// DeepgramTranscriber implements Transcriber using Deepgram's prerecorded
// REST API with word-level timestamps
type DeepgramTranscriber struct {
	apiKey   string
	model    string
	language string
}

// NewDeepgramTranscriber creates a new Deepgram prerecorded client
func NewDeepgramTranscriber(cfg *config.Config) *DeepgramTranscriber {
	return &DeepgramTranscriber{
		apiKey:   cfg.DeepgramAPIKey,
		model:    cfg.DeepgramModel,
		language: cfg.DeepgramLanguage,
	}
}

// Transcribe uploads one audio file and returns its word timings in seconds
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audioPath string) ([]TimedWord, error) {
	c := listenClient.NewREST(d.apiKey, &interfaces.ClientOptions{})
	dg := prerecorded.New(c)

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:     d.model,
		Language:  d.language,
		Punctuate: true,
	}

	res, err := dg.FromFile(ctx, audioPath, options)
	if err != nil {
		return nil, fmt.Errorf("deepgram transcription failed: %w", err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		// No word boundaries is a valid outcome, not an error
		return nil, nil
	}

	alt := res.Results.Channels[0].Alternatives[0]
	words := make([]TimedWord, 0, len(alt.Words))
	for _, w := range alt.Words {
		text := w.PunctuatedWord
		if text == "" {
			text = w.Word
		}
		words = append(words, TimedWord{
			Text:  text,
			Start: w.Start,
			End:   w.End,
		})
	}

	return words, nil
}
