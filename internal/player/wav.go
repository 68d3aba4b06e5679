// Package player decodes WAV clips and plays them through the system
// speaker, keeping sentence clips in arrival order.
package player

import (
	"encoding/binary"
	"fmt"
)

// Clip is a decoded WAV payload ready for the audio device
type Clip struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	PCM           []byte
}

// DurationMs estimates the clip's play time
func (c *Clip) DurationMs() int {
	bytesPerSec := c.SampleRate * c.Channels * c.BitsPerSample / 8
	if bytesPerSec == 0 {
		return 0
	}
	return len(c.PCM) * 1000 / bytesPerSec
}

// DecodeWAV extracts the PCM payload and format from a RIFF/WAVE buffer.
// Only uncompressed PCM is supported; chunks other than fmt and data are
// skipped.
func DecodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE buffer")
	}

	clip := &Clip{}
	haveFmt, haveData := false, false

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if end > len(data) {
			return nil, fmt.Errorf("chunk %q overruns the buffer", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return nil, fmt.Errorf("unsupported audio format %d, want PCM", format)
			}
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			clip.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			clip.PCM = data[body:end]
			haveData = true
		}

		// Chunks are word-aligned
		offset = end
		if size%2 == 1 {
			offset++
		}
	}

	if !haveFmt || !haveData {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}
	return clip, nil
}
