package synthesis

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"
)

// MockSynthesizer renders any text as a short sine-wave WAV, for local runs
// and end-to-end tests without API keys
type MockSynthesizer struct{}

// Speak generates ~120ms of a 440Hz tone per word, 16kHz mono PCM16
func (MockSynthesizer) Speak(_ context.Context, text, _ string) ([]byte, error) {
	const sampleRate = 16000
	const samplesPerWord = 1920 // 120ms
	const freq = 440.0

	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		wordCount = 1
	}

	n := wordCount * samplesPerWord
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		val := int16(3000 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
		pcm[2*i] = byte(val)
		pcm[2*i+1] = byte(val >> 8)
	}

	return encodeWAV(pcm, sampleRate, 1), nil
}

// MockTranscriber derives uniform word timings from the sentence text
// instead of calling a transcription API
type MockTranscriber struct {
	Sentence    string
	PerWordSec  float64
	FailWithErr error
}

// Transcribe returns one timed word per whitespace-separated token
func (m MockTranscriber) Transcribe(_ context.Context, _ string) ([]TimedWord, error) {
	if m.FailWithErr != nil {
		return nil, m.FailWithErr
	}

	per := m.PerWordSec
	if per <= 0 {
		per = 0.3
	}

	var words []TimedWord
	for i, w := range strings.Fields(m.Sentence) {
		start := float64(i) * per
		words = append(words, TimedWord{Text: w, Start: start, End: start + per})
	}
	return words, nil
}

// CopyTransformer stands in for ffmpeg where the binary is unavailable:
// the "sped up" file is a byte copy of the input
type CopyTransformer struct{}

// SpeedUp copies inPath to outPath
func (CopyTransformer) SpeedUp(_ context.Context, inPath, outPath string, _ float64) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// encodeWAV wraps raw PCM16 samples in a minimal RIFF/WAVE container
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer

	byteRate := sampleRate * channels * 2
	dataLen := uint32(len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)

	return buf.Bytes()
}
