// Package segment splits one dialogue line into the ordered sentences that
// drive per-sentence synthesis and streaming.
package segment

import (
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Sentence is one ordered piece of a dialogue line
type Sentence struct {
	Index int
	Text  string
}

// IsFirst reports whether this is the line's opening sentence
func (s Sentence) IsFirst() bool {
	return s.Index == 0
}

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer

	// Fallback split on sentence-ending punctuation
	boundaryRe = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

func loadTokenizer() *sentences.DefaultSentenceTokenizer {
	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err == nil {
			tokenizer = t
		}
	})
	return tokenizer
}

// Split returns the ordered, non-empty sentence sequence for a line.
// It prefers the trained English tokenizer and falls back to a punctuation
// regex; text with no boundary at all degenerates to a single sentence.
// The concatenation of the returned texts always reconstructs the input
// up to whitespace.
func Split(text string) []Sentence {
	if strings.TrimSpace(text) == "" {
		return []Sentence{{Index: 0, Text: text}}
	}

	parts := tokenize(text)
	if !reconstructs(text, parts) {
		parts = regexSplit(text)
	}
	if len(parts) == 0 {
		parts = []string{text}
	}

	out := make([]Sentence, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, Sentence{Index: len(out), Text: p})
	}
	if len(out) == 0 {
		out = []Sentence{{Index: 0, Text: text}}
	}
	return out
}

func tokenize(text string) []string {
	t := loadTokenizer()
	if t == nil {
		return nil
	}

	var parts []string
	for _, s := range t.Tokenize(text) {
		if s == nil || s.Text == "" {
			continue
		}
		parts = append(parts, s.Text)
	}
	return parts
}

// regexSplit keeps every byte of the input: gaps between matches and any
// trailing fragment without closing punctuation become sentences too.
func regexSplit(text string) []string {
	idxs := boundaryRe.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var parts []string
	last := 0
	for _, ix := range idxs {
		if gap := text[last:ix[0]]; strings.TrimSpace(gap) != "" {
			parts = append(parts, gap)
		}
		parts = append(parts, text[ix[0]:ix[1]])
		last = ix[1]
	}
	if rest := text[last:]; strings.TrimSpace(rest) != "" {
		parts = append(parts, rest)
	}
	return parts
}

// reconstructs reports whether parts rebuild text ignoring whitespace
func reconstructs(text string, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	return squash(strings.Join(parts, "")) == squash(text)
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
