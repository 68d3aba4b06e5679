package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/segment"
	"github.com/neelparekh9/dialogue-gateway/internal/synthesis"
)

// SentenceProcessor runs one sentence through the synthesis pipeline
type SentenceProcessor interface {
	Synthesize(ctx context.Context, text string) synthesis.Result
}

// FirstSentenceError aborts a line before any frame is written: the opening
// sentence is an awaited prerequisite to all output
type FirstSentenceError struct {
	Sentence string
	Reason   string
}

func (e *FirstSentenceError) Error() string {
	return fmt.Sprintf("first sentence %q failed: %s", e.Sentence, e.Reason)
}

// Producer turns one dialogue line into an ordered frame stream
type Producer struct {
	proc   SentenceProcessor
	logger zerolog.Logger
}

// NewProducer creates a line stream producer
func NewProducer(proc SentenceProcessor, logger zerolog.Logger) *Producer {
	return &Producer{proc: proc, logger: logger}
}

// LineStream is a line whose first sentence has already been synthesized.
// Splitting the awaited first sentence from the fan-out lets the HTTP
// handler fail the whole request before any byte reaches the wire.
type LineStream struct {
	producer  *Producer
	line      *script.Line
	sentences []segment.Sentence
	first     synthesis.Result
	started   time.Time
}

// StartLine segments a line and synthesizes sentence 0 synchronously.
// First-chunk latency is therefore one synthesis round-trip no matter how
// many sentences follow.
func (p *Producer) StartLine(ctx context.Context, line *script.Line) (*LineStream, error) {
	started := time.Now()
	sentences := segment.Split(line.Dialogue)

	first := p.proc.Synthesize(ctx, sentences[0].Text)
	if first.Failed {
		return nil, &FirstSentenceError{Sentence: sentences[0].Text, Reason: first.Reason}
	}

	return &LineStream{
		producer:  p,
		line:      line,
		sentences: sentences,
		first:     first,
		started:   started,
	}, nil
}

// SentenceCount returns how many sentences the line was split into
func (ls *LineStream) SentenceCount() int {
	return len(ls.sentences)
}

// WriteTo streams the line's frames: the NEW AUDIO frame immediately, then
// the remaining sentences fanned out concurrently but written strictly in
// original index order, then the END frame. Individual sentence failures
// degrade their own frame; only transport errors abort the stream.
func (ls *LineStream) WriteTo(ctx context.Context, w io.Writer) error {
	enc := json.NewEncoder(w) // Encode terminates every frame with '\n'
	flusher, _ := w.(http.Flusher)

	writeFrame := func(f Frame, metricType string) error {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("write %s frame: %w", f.Type, err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		audioBytes := 0
		if f.Audio != nil {
			audioBytes = len(f.Audio.AudioBase64)
		}
		observability.RecordFrame(metricType, audioBytes)
		return nil
	}

	if err := writeFrame(sentenceFrame(ls.line, ls.first, TypeNewAudio), "new_audio"); err != nil {
		return err
	}
	observability.RecordFirstChunk(ls.started)

	// Fan out the remaining sentences. Results land in launch-index slots;
	// completion order is never visible on the wire.
	rest := ls.sentences[1:]
	results := make([]synthesis.Result, len(rest))

	var g errgroup.Group
	for i, s := range rest {
		g.Go(func() error {
			results[i] = ls.producer.proc.Synthesize(ctx, s.Text)
			return nil
		})
	}
	g.Wait()

	for _, res := range results {
		if res.Failed {
			ls.producer.logger.Warn().
				Int("node_id", ls.line.NodeID).
				Str("sentence", res.SentenceText).
				Msg("Streaming error chunk for failed sentence")
		}
		if err := writeFrame(sentenceFrame(ls.line, res, TypeChunk), "chunk"); err != nil {
			return err
		}
	}

	return writeFrame(endFrame(ls.line), "end")
}
