// Package output provides formatting and output generation for chat reports.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/chatstat/pkg/parser"
	"github.com/ccollicutt/chatstat/pkg/stats"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides the headline numbers.
	Summary Summary `json:"summary"`

	// Stats contains the full statistics.
	Stats *stats.Result `json:"stats"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Summary provides the headline numbers of a report.
type Summary struct {
	Messages        int `json:"messages"`
	Authors         int `json:"authors"`
	MediaMessages   int `json:"media_messages"`
	Emojis          int `json:"emojis"`
	Links           int `json:"links"`
	RecordsDropped  int `json:"records_dropped"`
	RecordsFiltered int `json:"records_filtered"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// ID uniquely identifies the report.
	ID string `json:"id"`

	// TranscriptID is the store identifier of the transcript, if stored.
	TranscriptID string `json:"transcript_id,omitempty"`

	// Sources lists the transcripts that were analyzed.
	Sources []string `json:"sources"`

	// ContentHash is the SHA-256 of the transcript text.
	ContentHash string `json:"content_hash,omitempty"`

	// DateRange is the date filter that was applied, if any.
	DateRange *DateRange `json:"date_range,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`

	// DateStrategy is the date interpretation the parser applied.
	DateStrategy parser.DateStrategy `json:"date_strategy"`

	// Parse holds the line-level parse statistics.
	Parse parser.ParseStats `json:"parse"`
}

// DateRange represents an inclusive date window. A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// NewReport creates a Report from a parse result and its statistics.
func NewReport(parsed *parser.Result, result *stats.Result, sources []string) *Report {
	report := &Report{
		Stats: result,
		Metadata: Metadata{
			ID:           uuid.NewString(),
			Sources:      sources,
			AnalyzedAt:   result.EndTime,
			Duration:     result.EndTime.Sub(result.StartTime),
			DateStrategy: parsed.Stats.DateStrategy,
			Parse:        parsed.Stats,
		},
		Summary: Summary{
			Messages:        result.Messages,
			Authors:         result.DistinctAuthors(),
			MediaMessages:   result.MediaMessages,
			Emojis:          result.Emojis.Total,
			Links:           result.Links,
			RecordsDropped:  parsed.Stats.Dropped,
			RecordsFiltered: result.Filtered,
		},
	}

	if report.Metadata.AnalyzedAt.IsZero() {
		report.Metadata.AnalyzedAt = time.Now()
	}

	return report
}

// HasMessages returns true if any message survived parsing and filtering.
func (r *Report) HasMessages() bool {
	return r.Summary.Messages > 0
}

// RecordView is the JSON shape of a parsed record.
type RecordView struct {
	Date   string  `json:"date"`
	Time   string  `json:"time"`
	Author *string `json:"author"`
	Body   string  `json:"body"`
}

// NewRecordView converts a record for JSON output. Dates use 2006-01-02.
func NewRecordView(rec parser.Record) RecordView {
	return RecordView{
		Date:   rec.Date.Format(time.DateOnly),
		Time:   rec.Time,
		Author: rec.Author,
		Body:   rec.Body,
	}
}

// NewRecordViews converts records in order.
func NewRecordViews(records []parser.Record) []RecordView {
	views := make([]RecordView, len(records))
	for i, rec := range records {
		views[i] = NewRecordView(rec)
	}
	return views
}
