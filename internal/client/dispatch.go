package client

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

// AudioSink plays decoded WAV clips. PlayNow interrupts whatever is queued;
// Enqueue schedules a clip after the ones already waiting.
type AudioSink interface {
	PlayNow(wav []byte) error
	Enqueue(wav []byte) error
}

// Session consumes one line's frames: audio goes to the sink, text goes
// through the reveal engine, and the END frame captures where the dialogue
// can go next
type Session struct {
	sink   AudioSink
	reveal *Reveal
	logger zerolog.Logger

	mu            sync.Mutex
	ended         bool
	nextNode      int
	options       []script.Option
	wholeDialogue string
}

// NewSession creates a session for one dialogue line
func NewSession(sink AudioSink, reveal *Reveal, logger zerolog.Logger) *Session {
	return &Session{sink: sink, reveal: reveal, logger: logger}
}

// Dispatch routes one frame. Frames must arrive in wire order; the first
// must be NEW AUDIO and the last END CHUNK.
func (s *Session) Dispatch(f stream.Frame) error {
	switch f.Type {
	case stream.TypeNewAudio:
		if err := s.playFrame(f, s.sink.PlayNow); err != nil {
			return err
		}
		s.reveal.Start(f.Dialogue)

	case stream.TypeChunk:
		// Flush the previous sentence before the next one starts typing
		s.reveal.Cancel()
		if err := s.playFrame(f, s.sink.Enqueue); err != nil {
			return err
		}
		s.reveal.Start(f.Dialogue)

	case stream.TypeEnd:
		s.reveal.Cancel()
		s.mu.Lock()
		s.ended = true
		if f.Input != nil {
			s.nextNode = f.Input.NextNode
		}
		s.options = f.Options
		s.wholeDialogue = f.WholeDialogue
		s.mu.Unlock()

	case stream.TypePlaceholder:
		// Placeholder lines show their text at once, no typing animation
		s.reveal.Cancel()
		if err := s.playFrame(f, s.sink.PlayNow); err != nil {
			return err
		}
		s.reveal.Start(f.Dialogue)
		s.reveal.Cancel()

	default:
		return &ProtocolError{Line: f.Type, Err: fmt.Errorf("unknown frame type")}
	}
	return nil
}

// playFrame decodes and plays a sentence frame's audio. A frame degraded by
// a server-side synthesis failure plays nothing; the text still advances.
func (s *Session) playFrame(f stream.Frame, play func([]byte) error) error {
	if f.Error != "" || f.Audio == nil || f.Audio.AudioBase64 == "" {
		s.logger.Warn().
			Int("node_id", f.NodeID).
			Str("sentence", f.Dialogue).
			Str("error", f.Error).
			Msg("Sentence arrived without audio")
		return nil
	}

	wav, err := base64.StdEncoding.DecodeString(f.Audio.AudioBase64)
	if err != nil {
		return &ProtocolError{Line: f.Dialogue, Err: fmt.Errorf("decode audio: %w", err)}
	}
	return play(wav)
}

// Ended reports whether the END frame has been dispatched
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// NextNode returns the node the dialogue continues at, valid once Ended
func (s *Session) NextNode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextNode
}

// Options returns the clickable branches offered by the END frame
func (s *Session) Options() []script.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// WholeDialogue returns the full line text carried by the END frame
func (s *Session) WholeDialogue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wholeDialogue
}
