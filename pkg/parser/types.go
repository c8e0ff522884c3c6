// Package parser reconstructs chat messages from exported transcript text.
package parser

import "time"

// Record is a single chat message reconstructed from a transcript.
type Record struct {
	// Date is the calendar date of the message (midnight UTC).
	Date time.Time

	// Time is the time-of-day text exactly as found in the transcript,
	// e.g. "14:05" or "2:05 PM".
	Time string

	// Author is the sender, or nil for system messages.
	Author *string

	// Body is the message text with continuation lines folded in.
	Body string
}

// IsSystem returns true if the record has no author.
func (r *Record) IsSystem() bool {
	return r.Author == nil
}

// AuthorName returns the author, or an empty string for system messages.
func (r *Record) AuthorName() string {
	if r.Author == nil {
		return ""
	}
	return *r.Author
}

// DateStrategy reports which date interpretation was applied to a batch.
type DateStrategy string

const (
	// DateStrategyNone means no record carried a date token.
	DateStrategyNone DateStrategy = "none"

	// DateStrategyPrimary means every date parsed with the primary layout.
	DateStrategyPrimary DateStrategy = "primary"

	// DateStrategyFallback means at least one date failed the primary layout
	// and the whole batch was re-read with the fallback layouts.
	DateStrategyFallback DateStrategy = "fallback"
)

// ParseStats describes what happened to the lines of a transcript.
type ParseStats struct {
	// Lines is the number of lines read.
	Lines int `json:"lines"`

	// MessageStarts is the number of lines that began a message.
	MessageStarts int `json:"message_starts"`

	// Continuations is the number of lines folded into a previous message.
	Continuations int `json:"continuations"`

	// Orphans is the number of lines discarded before the first message.
	Orphans int `json:"orphans"`

	// Dropped is the number of records removed during date normalization.
	Dropped int `json:"dropped"`

	// DateStrategy is the date interpretation applied to the batch.
	DateStrategy DateStrategy `json:"date_strategy"`
}

// Result is the detailed outcome of parsing a transcript.
type Result struct {
	Records []Record
	Stats   ParseStats
}
