package synthesis

import "context"

// Word is one spoken word with display timing, offsets in milliseconds
// relative to the start of the sentence audio
type Word struct {
	Text          string
	StartOffsetMs float64
	DurationMs    float64
}

// TimedWord is a raw transcription word with offsets in seconds
type TimedWord struct {
	Text  string
	Start float64
	End   float64
}

// Result is the outcome of one sentence synthesis job. A failed job carries
// the sentence text and a reason instead of audio; the caller decides what a
// failure means for the rest of the line.
type Result struct {
	SentenceText string
	AudioBase64  string
	Words        []Word // nil when the transcriber yields no word boundaries
	Failed       bool
	Reason       string
}

// Synthesizer converts text into raw audio bytes (WAV)
type Synthesizer interface {
	Speak(ctx context.Context, text, voice string) ([]byte, error)
}

// Transformer rewrites an audio file at a different playback rate
type Transformer interface {
	SpeedUp(ctx context.Context, inPath, outPath string, rate float64) error
}

// Transcriber extracts word-level timestamps from an audio file.
// Returning an empty word list without error is valid: the sentence is then
// delivered without timing data.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]TimedWord, error)
}
