package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

const wireBody = `{"nodeId":1,"dialogue":"First sentence.","audio":{"audioBase64":"QVVESU8="},"input":{"nextNode":2},"options":null,"type":"NEW AUDIO","wholeDialogue":"First sentence. Second one."}
{"nodeId":1,"dialogue":"Second one.","audio":{"audioBase64":"QVVESU8="},"input":{"nextNode":2},"options":null,"type":"CHUNK","wholeDialogue":"First sentence. Second one."}
{"nodeId":1,"dialogue":"First sentence. Second one.","audio":null,"input":{"nextNode":2},"options":null,"type":"END CHUNK","wholeDialogue":"First sentence. Second one."}
`

// feedChunked pushes the body through a Decoder in fixed-size slices
func feedChunked(t *testing.T, body string, size int) []stream.Frame {
	t.Helper()
	dec := &Decoder{}
	var frames []stream.Frame
	for start := 0; start < len(body); start += size {
		end := start + size
		if end > len(body) {
			end = len(body)
		}
		got, err := dec.Feed([]byte(body[start:end]))
		if err != nil {
			t.Fatalf("Feed failed at offset %d: %v", start, err)
		}
		frames = append(frames, got...)
	}
	if err := dec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return frames
}

func TestDecoder_ChunkingIsInvisible(t *testing.T) {
	// The same frames must come out whatever the read boundaries were
	for _, size := range []int{1, 3, 7, 64, len(wireBody)} {
		frames := feedChunked(t, wireBody, size)
		if len(frames) != 3 {
			t.Fatalf("chunk size %d: expected 3 frames, got %d", size, len(frames))
		}
		if frames[0].Type != stream.TypeNewAudio ||
			frames[1].Type != stream.TypeChunk ||
			frames[2].Type != stream.TypeEnd {
			t.Errorf("chunk size %d: wrong frame order: %q %q %q",
				size, frames[0].Type, frames[1].Type, frames[2].Type)
		}
		if frames[1].Dialogue != "Second one." {
			t.Errorf("chunk size %d: frame 1 dialogue = %q", size, frames[1].Dialogue)
		}
	}
}

func TestDecoder_MalformedLine(t *testing.T) {
	dec := &Decoder{}
	_, err := dec.Feed([]byte("{\"nodeId\":1,\"type\":\"NEW AUDIO\"}\nnot json\n"))

	var pErr *ProtocolError
	if !errors.As(err, &pErr) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}
	if pErr.Line != "not json" {
		t.Errorf("ProtocolError line = %q", pErr.Line)
	}
}

func TestDecoder_TruncatedTail(t *testing.T) {
	dec := &Decoder{}
	frames, err := dec.Feed([]byte("{\"nodeId\":1,\"type\":\"NEW AUDIO\"}\n{\"nodeId\":1,\"ty"))
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("Expected the one complete frame, got %d", len(frames))
	}

	var pErr *ProtocolError
	if !errors.As(dec.Close(), &pErr) {
		t.Fatal("Expected Close to flag the truncated frame")
	}
}

// drip serves one byte per Read call
type drip struct{ r io.Reader }

func (d drip) Read(p []byte) (int, error) { return d.r.Read(p[:1]) }

func TestConsume_StopsAtEndFrame(t *testing.T) {
	trailing := wireBody + "this junk after END must never be parsed\n"
	var seen []string

	err := Consume(context.Background(), drip{strings.NewReader(trailing)}, func(f stream.Frame) error {
		seen = append(seen, f.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if len(seen) != 3 || seen[2] != stream.TypeEnd {
		t.Errorf("Frame types seen: %v", seen)
	}
}

func TestConsume_CallbackErrorAborts(t *testing.T) {
	boom := errors.New("player broke")
	err := Consume(context.Background(), bytes.NewReader([]byte(wireBody)), func(stream.Frame) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error back, got %v", err)
	}
}

func TestConsume_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Consume(ctx, strings.NewReader(wireBody), func(stream.Frame) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
