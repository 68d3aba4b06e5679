package client

import (
	"errors"
	"testing"
	"time"

	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

// recordingSink logs playback calls instead of touching a sound device
type recordingSink struct {
	played []string // "now" or "queued", in call order
}

func (r *recordingSink) PlayNow(wav []byte) error {
	r.played = append(r.played, "now")
	return nil
}

func (r *recordingSink) Enqueue(wav []byte) error {
	r.played = append(r.played, "queued")
	return nil
}

func newTestSession(sink AudioSink) *Session {
	return NewSession(sink, NewReveal(time.Microsecond, func(string) {}), observability.GetLogger())
}

func audioFrame(frameType, dialogue string) stream.Frame {
	return stream.Frame{
		NodeID:   1,
		Dialogue: dialogue,
		Audio:    &stream.AudioPayload{AudioBase64: "QVVESU8="},
		Type:     frameType,
	}
}

func TestSession_DispatchesFullLine(t *testing.T) {
	sink := &recordingSink{}
	s := newTestSession(sink)

	frames := []stream.Frame{
		audioFrame(stream.TypeNewAudio, "First sentence."),
		audioFrame(stream.TypeChunk, "Second one."),
		{
			NodeID:        1,
			Dialogue:      "First sentence. Second one.",
			Input:         &script.Input{NextNode: 2},
			Options:       []script.Option{{OptionText: "Ask about career growth", NextNode: 2}},
			Type:          stream.TypeEnd,
			WholeDialogue: "First sentence. Second one.",
		},
	}
	for _, f := range frames {
		if err := s.Dispatch(f); err != nil {
			t.Fatalf("Dispatch(%s) failed: %v", f.Type, err)
		}
	}

	if len(sink.played) != 2 || sink.played[0] != "now" || sink.played[1] != "queued" {
		t.Errorf("Playback calls = %v, want [now queued]", sink.played)
	}
	if !s.Ended() {
		t.Fatal("Session must be ended after the END frame")
	}
	if s.NextNode() != 2 {
		t.Errorf("NextNode = %d, want 2", s.NextNode())
	}
	if len(s.Options()) != 1 || s.Options()[0].NextNode != 2 {
		t.Errorf("Options = %+v", s.Options())
	}
	if s.WholeDialogue() != "First sentence. Second one." {
		t.Errorf("WholeDialogue = %q", s.WholeDialogue())
	}
}

func TestSession_DegradedChunkSkipsAudioOnly(t *testing.T) {
	sink := &recordingSink{}
	s := newTestSession(sink)

	if err := s.Dispatch(audioFrame(stream.TypeNewAudio, "First sentence.")); err != nil {
		t.Fatal(err)
	}
	failed := stream.Frame{
		NodeID:   1,
		Dialogue: "Second one.",
		Type:     stream.TypeChunk,
		Error:    "Failed to process sentence: Second one.",
	}
	if err := s.Dispatch(failed); err != nil {
		t.Fatalf("A degraded chunk must not fail dispatch: %v", err)
	}

	if len(sink.played) != 1 {
		t.Errorf("Playback calls = %v; the failed sentence must not play", sink.played)
	}
}

func TestSession_PlaceholderShowsTextAtOnce(t *testing.T) {
	sink := &recordingSink{}
	var rendered string
	reveal := NewReveal(time.Hour, func(s string) { rendered = s })
	s := NewSession(sink, reveal, observability.GetLogger())

	if err := s.Dispatch(audioFrame(stream.TypePlaceholder, "One moment please.")); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if len(sink.played) != 1 || sink.played[0] != "now" {
		t.Errorf("Playback calls = %v, want immediate play", sink.played)
	}
	if rendered != "One moment please." {
		t.Errorf("Rendered %q, want the full text with no typing delay", rendered)
	}
	if s.Ended() {
		t.Error("Placeholder must not end the session")
	}
}

func TestSession_UnknownFrameType(t *testing.T) {
	s := newTestSession(&recordingSink{})

	err := s.Dispatch(stream.Frame{Type: "MYSTERY"})

	var pErr *ProtocolError
	if !errors.As(err, &pErr) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
}

func TestSession_BadAudioBase64(t *testing.T) {
	s := newTestSession(&recordingSink{})

	f := stream.Frame{
		Dialogue: "First sentence.",
		Audio:    &stream.AudioPayload{AudioBase64: "!!not base64!!"},
		Type:     stream.TypeNewAudio,
	}

	var pErr *ProtocolError
	if !errors.As(s.Dispatch(f), &pErr) {
		t.Fatal("Expected ProtocolError for undecodable audio")
	}
}
