package player

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/rs/zerolog"
)

const queueDepth = 16

// SpeakerQueue plays clips through the system audio device via oto. Clips
// feed a single playback goroutine, so sentence audio never overlaps. The
// audio context is opened lazily with the first clip's format; later clips
// must match it.
type SpeakerQueue struct {
	logger zerolog.Logger

	mu     sync.Mutex
	otoCtx *oto.Context
	out    *oto.Player
	rate   int
	depth  int // bytes per sample
	closed bool

	clips chan *Clip
	done  chan struct{}
}

// NewSpeakerQueue starts the playback goroutine
func NewSpeakerQueue(logger zerolog.Logger) *SpeakerQueue {
	q := &SpeakerQueue{
		logger: logger,
		clips:  make(chan *Clip, queueDepth),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// PlayNow drops every pending clip and plays this one next
func (q *SpeakerQueue) PlayNow(wav []byte) error {
	clip, err := DecodeWAV(wav)
	if err != nil {
		return fmt.Errorf("decode clip: %w", err)
	}

	for {
		select {
		case stale := <-q.clips:
			q.logger.Debug().Int("duration_ms", stale.DurationMs()).Msg("Dropping queued clip")
		default:
			return q.push(clip)
		}
	}
}

// Enqueue schedules a clip behind the pending ones
func (q *SpeakerQueue) Enqueue(wav []byte) error {
	clip, err := DecodeWAV(wav)
	if err != nil {
		return fmt.Errorf("decode clip: %w", err)
	}
	return q.push(clip)
}

func (q *SpeakerQueue) push(clip *Clip) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return fmt.Errorf("speaker queue is closed")
	}

	select {
	case q.clips <- clip:
		return nil
	default:
		return fmt.Errorf("speaker queue is full")
	}
}

// Close stops accepting clips, lets the current one finish, and releases
// the audio device
func (q *SpeakerQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	close(q.clips)
	<-q.done

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.out != nil {
		q.out.Close()
	}
	if q.otoCtx != nil {
		return q.otoCtx.Close()
	}
	return nil
}

func (q *SpeakerQueue) loop() {
	defer close(q.done)
	for clip := range q.clips {
		if err := q.play(clip); err != nil {
			q.logger.Warn().Err(err).Msg("Failed to play clip")
		}
	}
}

func (q *SpeakerQueue) play(clip *Clip) error {
	out, err := q.playerFor(clip)
	if err != nil {
		return err
	}
	_, err = out.Write(clip.PCM)
	return err
}

// playerFor opens the audio context on first use. oto contexts are fixed
// format, so a clip with a different rate or depth is rejected rather than
// played at the wrong pitch.
func (q *SpeakerQueue) playerFor(clip *Clip) (*oto.Player, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	depth := clip.BitsPerSample / 8
	if q.otoCtx == nil {
		ctx, err := oto.NewContext(clip.SampleRate, clip.Channels, depth, 8192)
		if err != nil {
			return nil, fmt.Errorf("open audio device: %w", err)
		}
		q.otoCtx = ctx
		q.out = ctx.NewPlayer()
		q.rate = clip.SampleRate
		q.depth = depth
		q.logger.Info().Int("sample_rate", clip.SampleRate).Int("channels", clip.Channels).Msg("Audio device opened")
	}

	if clip.SampleRate != q.rate || clip.BitsPerSample/8 != q.depth {
		return nil, fmt.Errorf("clip format %dHz/%dbit does not match device %dHz/%dbit",
			clip.SampleRate, clip.BitsPerSample, q.rate, q.depth*8)
	}
	return q.out, nil
}
