// Package stream defines the newline-delimited wire protocol for one
// dialogue line and the producer that writes it.
package stream

import (
	"fmt"

	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/synthesis"
)

// Frame types carried on the wire. Exactly one NewAudio and one End frame
// are written per line; the sentences in between are Chunk frames.
const (
	TypeNewAudio    = "NEW AUDIO"
	TypeChunk       = "CHUNK"
	TypeEnd         = "END CHUNK"
	TypePlaceholder = "PLACEHOLDER"
)

// ResponseModeHeader tells the client how to decode the body
const ResponseModeHeader = "X-Response-Mode"

// Response modes carried in ResponseModeHeader
const (
	ModeStreamed    = "streamed"
	ModePrerecorded = "prerecorded"
)

// AudioPayload is the per-sentence audio attachment: base64 WAV plus
// parallel word/time/duration arrays when word boundaries are known
type AudioPayload struct {
	AudioBase64 string    `json:"audioBase64"`
	Words       []string  `json:"words,omitempty"`
	WTimes      []float64 `json:"wtimes,omitempty"`
	WDurations  []float64 `json:"wdurations,omitempty"`
}

// Frame is one newline-delimited protocol message
type Frame struct {
	NodeID        int             `json:"nodeId"`
	Dialogue      string          `json:"dialogue"`
	Audio         *AudioPayload   `json:"audio"`
	Input         *script.Input   `json:"input"`
	Options       []script.Option `json:"options"`
	Type          string          `json:"type"`
	WholeDialogue string          `json:"wholeDialogue"`
	Error         string          `json:"error,omitempty"`
}

// audioPayload converts a successful synthesis result to its wire shape
func audioPayload(res synthesis.Result) *AudioPayload {
	if res.Failed || res.AudioBase64 == "" {
		return nil
	}

	payload := &AudioPayload{AudioBase64: res.AudioBase64}
	for _, w := range res.Words {
		payload.Words = append(payload.Words, w.Text)
		payload.WTimes = append(payload.WTimes, w.StartOffsetMs)
		payload.WDurations = append(payload.WDurations, w.DurationMs)
	}
	return payload
}

// sentenceFrame builds the NEW AUDIO or CHUNK frame for one sentence.
// A failed sentence keeps its slot: the frame is written without audio and
// with an error message, preserving index continuity for the client.
func sentenceFrame(line *script.Line, res synthesis.Result, frameType string) Frame {
	f := Frame{
		NodeID:        line.NodeID,
		Dialogue:      res.SentenceText,
		Audio:         audioPayload(res),
		Input:         line.Input,
		Options:       line.Options,
		Type:          frameType,
		WholeDialogue: line.Dialogue,
	}
	if res.Failed {
		f.Error = fmt.Sprintf("Failed to process sentence: %s", res.SentenceText)
	}
	return f
}

// endFrame builds the final no-audio frame carrying the whole line context
func endFrame(line *script.Line) Frame {
	return Frame{
		NodeID:        line.NodeID,
		Dialogue:      line.Dialogue,
		Audio:         nil,
		Input:         line.Input,
		Options:       line.Options,
		Type:          TypeEnd,
		WholeDialogue: line.Dialogue,
	}
}
