package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/synthesis"
)

// scriptedProcessor fabricates synthesis results without touching any
// collaborator; sentences listed in fail come back failed
type scriptedProcessor struct {
	fail map[string]bool
}

func (s *scriptedProcessor) Synthesize(_ context.Context, text string) synthesis.Result {
	if s.fail[strings.TrimSpace(text)] {
		return synthesis.Result{SentenceText: text, Failed: true, Reason: "synthesis: boom"}
	}
	return synthesis.Result{
		SentenceText: text,
		AudioBase64:  "QVVESU8=",
		Words: []synthesis.Word{
			{Text: "word", StartOffsetMs: -150, DurationMs: 300},
		},
	}
}

var testLine = &script.Line{
	NodeID:   1,
	Dialogue: "Alex, we're excited about you joining our team. We're offering $85,000 per year, plus benefits. Do you have any questions?",
	Input:    &script.Input{NextNode: 2},
	Options:  []script.Option{{OptionText: "Ask about career growth", NextNode: 2}},
}

func decodeFrames(t *testing.T, raw []byte) []Frame {
	t.Helper()
	var frames []Frame
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			t.Fatalf("malformed frame %q: %v", scanner.Text(), err)
		}
		frames = append(frames, f)
	}
	return frames
}

func produce(t *testing.T, proc SentenceProcessor, line *script.Line) []Frame {
	t.Helper()
	p := NewProducer(proc, observability.GetLogger())

	ls, err := p.StartLine(context.Background(), line)
	if err != nil {
		t.Fatalf("StartLine failed: %v", err)
	}

	var buf bytes.Buffer
	if err := ls.WriteTo(context.Background(), &buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	return decodeFrames(t, buf.Bytes())
}

func TestProduceLine_FrameSequence(t *testing.T) {
	frames := produce(t, &scriptedProcessor{}, testLine)

	// 3 sentences: one NEW AUDIO, two CHUNKs, one END
	if len(frames) != 4 {
		t.Fatalf("Expected 4 frames, got %d", len(frames))
	}

	if frames[0].Type != TypeNewAudio {
		t.Errorf("Frame 0 type = %q, want %q", frames[0].Type, TypeNewAudio)
	}
	for i := 1; i <= 2; i++ {
		if frames[i].Type != TypeChunk {
			t.Errorf("Frame %d type = %q, want %q", i, frames[i].Type, TypeChunk)
		}
	}
	if frames[3].Type != TypeEnd {
		t.Errorf("Frame 3 type = %q, want %q", frames[3].Type, TypeEnd)
	}

	// Sentences arrive in original index order
	if !strings.Contains(frames[0].Dialogue, "excited about you joining") {
		t.Errorf("Frame 0 carries the wrong sentence: %q", frames[0].Dialogue)
	}
	if !strings.Contains(frames[1].Dialogue, "$85,000") {
		t.Errorf("Frame 1 carries the wrong sentence: %q", frames[1].Dialogue)
	}
	if !strings.Contains(frames[2].Dialogue, "any questions?") {
		t.Errorf("Frame 2 carries the wrong sentence: %q", frames[2].Dialogue)
	}

	// END carries no audio but the full line context
	if frames[3].Audio != nil {
		t.Error("END frame must not carry audio")
	}
	if frames[3].WholeDialogue != testLine.Dialogue {
		t.Errorf("END wholeDialogue = %q", frames[3].WholeDialogue)
	}
	if frames[3].Input == nil || frames[3].Input.NextNode != 2 {
		t.Errorf("END input = %+v, want nextNode 2", frames[3].Input)
	}
	if len(frames[3].Options) != 1 || frames[3].Options[0].NextNode != 2 {
		t.Errorf("END options = %+v", frames[3].Options)
	}
}

func TestProduceLine_SingleSentence(t *testing.T) {
	line := &script.Line{NodeID: 5, Dialogue: "Great!", Input: &script.Input{NextNode: 6}}
	frames := produce(t, &scriptedProcessor{}, line)

	if len(frames) != 2 {
		t.Fatalf("Expected NEW AUDIO + END for a one-sentence line, got %d frames", len(frames))
	}
	if frames[0].Type != TypeNewAudio || frames[1].Type != TypeEnd {
		t.Errorf("Unexpected frame types: %q, %q", frames[0].Type, frames[1].Type)
	}
	if frames[0].Audio == nil || frames[0].Audio.AudioBase64 == "" {
		t.Error("NEW AUDIO frame must carry audio")
	}
}

func TestProduceLine_FirstSentenceFailure(t *testing.T) {
	proc := &scriptedProcessor{fail: map[string]bool{
		"Alex, we're excited about you joining our team.": true,
	}}
	p := NewProducer(proc, observability.GetLogger())

	_, err := p.StartLine(context.Background(), testLine)
	if err == nil {
		t.Fatal("Expected StartLine to fail when sentence 0 fails")
	}

	var fsErr *FirstSentenceError
	if !errors.As(err, &fsErr) {
		t.Fatalf("Expected FirstSentenceError, got %T: %v", err, err)
	}
}

func TestProduceLine_MiddleSentenceFailure(t *testing.T) {
	proc := &scriptedProcessor{fail: map[string]bool{
		"We're offering $85,000 per year, plus benefits.": true,
	}}
	frames := produce(t, proc, testLine)

	if len(frames) != 4 {
		t.Fatalf("A failed middle sentence must not shorten the stream; got %d frames", len(frames))
	}

	failed := frames[1]
	if failed.Type != TypeChunk {
		t.Errorf("Failed slot type = %q, want CHUNK", failed.Type)
	}
	if failed.Audio != nil {
		t.Error("Failed chunk must not carry audio")
	}
	if !strings.Contains(failed.Error, "Failed to process sentence") {
		t.Errorf("Failed chunk error = %q", failed.Error)
	}

	// Siblings and END are unaffected
	if frames[2].Audio == nil {
		t.Error("Sibling sentence lost its audio")
	}
	if frames[3].Type != TypeEnd {
		t.Errorf("Last frame type = %q, want END", frames[3].Type)
	}
}

func TestAudioPayload_ParallelArrays(t *testing.T) {
	res := synthesis.Result{
		AudioBase64: "QVVESU8=",
		Words: []synthesis.Word{
			{Text: "Do", StartOffsetMs: -150, DurationMs: 200},
			{Text: "you", StartOffsetMs: 80, DurationMs: 180},
		},
	}

	payload := audioPayload(res)
	if payload == nil {
		t.Fatal("Expected payload")
	}
	if len(payload.Words) != 2 || len(payload.WTimes) != 2 || len(payload.WDurations) != 2 {
		t.Fatalf("Parallel arrays out of step: %+v", payload)
	}
	if payload.Words[0] != "Do" || payload.WTimes[0] != -150 || payload.WDurations[0] != 200 {
		t.Errorf("First word mis-mapped: %+v", payload)
	}
}
