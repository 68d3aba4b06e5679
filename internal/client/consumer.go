// Package client consumes a dialogue line stream: it re-assembles frames
// from arbitrary network chunking and drives playback and text reveal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

// ProtocolError reports a body that violates the newline-delimited frame
// protocol: a line that is not valid JSON, or bytes left over at EOF
type ProtocolError struct {
	Line string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation on %q: %v", e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Decoder re-assembles newline-delimited frames from arbitrarily sized
// reads. Network chunk boundaries carry no meaning: a frame may arrive
// split across many reads or packed together with its neighbours.
type Decoder struct {
	pending []byte
}

// Feed appends one read's worth of bytes and returns every frame completed
// by it. A trailing partial line stays buffered for the next call.
func (d *Decoder) Feed(data []byte) ([]stream.Frame, error) {
	d.pending = append(d.pending, data...)

	var frames []stream.Frame
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			return frames, nil
		}
		line := d.pending[:idx]
		d.pending = d.pending[idx+1:]

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var f stream.Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return frames, &ProtocolError{Line: string(line), Err: err}
		}
		frames = append(frames, f)
	}
}

// Close checks that the body ended on a frame boundary
func (d *Decoder) Close() error {
	if len(bytes.TrimSpace(d.pending)) != 0 {
		return &ProtocolError{Line: string(d.pending), Err: fmt.Errorf("truncated frame at end of stream")}
	}
	return nil
}

// Consume reads a streamed response body to EOF, invoking fn for every
// frame in arrival order. It returns once fn has seen the END frame, the
// body ends, or the context is cancelled.
func Consume(ctx context.Context, body io.Reader, fn func(stream.Frame) error) error {
	dec := &Decoder{}
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			frames, err := dec.Feed(buf[:n])
			if err != nil {
				return err
			}
			for _, f := range frames {
				if err := fn(f); err != nil {
					return err
				}
				if f.Type == stream.TypeEnd {
					return nil
				}
			}
		}
		if readErr == io.EOF {
			return dec.Close()
		}
		if readErr != nil {
			return fmt.Errorf("read stream body: %w", readErr)
		}
	}
}
