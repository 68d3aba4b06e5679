// Package script holds the static dialogue graph the gateway walks through.
// Lines are fixed; only delivery (audio + timing + streaming) is dynamic.
package script

import "errors"

// ErrNodeNotFound is returned when a requested node id is not in the script
var ErrNodeNotFound = errors.New("script node not found")

// Option is a clickable branch the user may take after a line
type Option struct {
	OptionText string `json:"optionText"`
	NextNode   int    `json:"nextNode"`
}

// Input describes the free-form input affordance shown after a line
type Input struct {
	NextNode int `json:"nextNode"`
}

// Line is one scripted dialogue turn, possibly multi-sentence
type Line struct {
	NodeID   int      `json:"nodeId"`
	Dialogue string   `json:"dialogue"`
	Input    *Input   `json:"input,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// sequence is the scripted negotiation demo, followed regardless of user input
var sequence = []Line{
	{
		NodeID:   1,
		Dialogue: "Alex, we're excited about you joining our team. We're offering $85,000 per year, plus benefits. Do you have any questions?",
		Input:    &Input{NextNode: 2},
		Options: []Option{
			{OptionText: "Ask about career growth", NextNode: 2},
		},
	},
	{
		NodeID:   2,
		Dialogue: "We offer an annual $2,000 learning stipend and mentorship programs. There's also a 10% performance-based bonus on top of your salary.",
		Input:    &Input{NextNode: 3},
	},
	{
		NodeID:   3,
		Dialogue: "I see where you're coming from. We can do $90,000 and increase your learning stipend to $3,000.",
		Input:    &Input{NextNode: 4},
	},
	{
		NodeID:   4,
		Dialogue: "Agreed! Welcome to the team.",
		Input:    &Input{NextNode: 5},
	},
	{
		NodeID:   5,
		Dialogue: "Great!",
		Input:    &Input{NextNode: 6},
	},
	{
		NodeID:   6,
		Dialogue: "Would you like to restart the conversation?",
		Input:    &Input{NextNode: 1},
	},
}

// Lookup returns the line for a node id
func Lookup(nodeID int) (*Line, error) {
	for i := range sequence {
		if sequence[i].NodeID == nodeID {
			return &sequence[i], nil
		}
	}
	return nil, ErrNodeNotFound
}

// Len returns the number of scripted lines
func Len() int {
	return len(sequence)
}
