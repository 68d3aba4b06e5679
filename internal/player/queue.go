package player

import "sync"

// Queue plays WAV clips in order. PlayNow throws away anything still
// waiting and starts fresh; Enqueue appends behind the pending clips.
type Queue interface {
	PlayNow(wav []byte) error
	Enqueue(wav []byte) error
	Close() error
}

// NullQueue decodes clips but plays nothing. It backs muted runs and tests.
type NullQueue struct {
	mu     sync.Mutex
	played int
}

// NewNullQueue creates a silent queue
func NewNullQueue() *NullQueue {
	return &NullQueue{}
}

// PlayNow validates the clip and counts it
func (n *NullQueue) PlayNow(wav []byte) error {
	if _, err := DecodeWAV(wav); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.played++
	return nil
}

// Enqueue validates and counts the clip
func (n *NullQueue) Enqueue(wav []byte) error {
	return n.PlayNow(wav)
}

// Close is a no-op
func (n *NullQueue) Close() error { return nil }

// Played returns how many clips were accepted
func (n *NullQueue) Played() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.played
}
