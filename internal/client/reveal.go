package client

import (
	"sync"
	"time"
)

// RevealState is the lifecycle of one sentence reveal
type RevealState int

const (
	RevealIdle RevealState = iota
	RevealRevealing
	RevealDone
	RevealCancelled
)

// Reveal types a sentence out one character at a time on a fixed interval,
// mimicking speech pacing. Start replaces any running reveal; Cancel
// finishes the current sentence instantly. Reveals operate on runes, so
// multi-byte characters are never split.
type Reveal struct {
	interval time.Duration
	render   func(string)

	mu    sync.Mutex
	state RevealState
	gen   int // bumped on every Start/Cancel; stale tickers see it and stop
	text  []rune
	shown int
}

// NewReveal creates a reveal engine that passes each partial sentence to
// render as it grows
func NewReveal(interval time.Duration, render func(string)) *Reveal {
	return &Reveal{interval: interval, render: render, state: RevealIdle}
}

// State returns the current lifecycle state
func (r *Reveal) State() RevealState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Shown returns the text revealed so far
func (r *Reveal) Shown() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.text[:r.shown])
}

// Start begins revealing text, implicitly cancelling any reveal in flight.
// The replaced reveal does not flush its remaining characters; callers that
// want the previous sentence completed call Cancel first.
func (r *Reveal) Start(text string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.state = RevealRevealing
	r.text = []rune(text)
	r.shown = 0
	r.mu.Unlock()

	go r.run(gen)
}

// Cancel stops a running reveal and renders the full sentence at once.
// Cancelling an idle or finished reveal is a no-op.
func (r *Reveal) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RevealRevealing {
		return
	}

	r.gen++
	r.shown = len(r.text)
	r.state = RevealCancelled
	r.render(string(r.text))
}

func (r *Reveal) run(gen int) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		// A newer Start or a Cancel owns the state now
		if r.gen != gen {
			r.mu.Unlock()
			return
		}

		if r.shown < len(r.text) {
			r.shown++
		}
		partial := string(r.text[:r.shown])
		done := r.shown >= len(r.text)
		if done {
			r.state = RevealDone
		}
		render := r.render
		r.mu.Unlock()

		render(partial)
		if done {
			return
		}
	}
}
