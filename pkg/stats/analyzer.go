package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/parser"
)

// Analyzer runs a record sequence through a set of collectors.
type Analyzer struct {
	collectors []Collector

	// Options
	dateRange  *DateRange
	authors    map[string]bool // nil means all authors
	dropSystem bool
}

// DateRange is an inclusive window of calendar dates. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := truncateDate(t)
	if !r.Start.IsZero() && d.Before(truncateDate(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(truncateDate(r.End)) {
		return false
	}
	return true
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithDateRange limits analysis to records dated between start and end,
// both inclusive. Either bound may be zero.
func WithDateRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if start.IsZero() && end.IsZero() {
			return
		}
		a.dateRange = &DateRange{Start: start, End: end}
	}
}

// WithAuthorFilter limits analysis to messages sent by the given authors.
// System messages never match an author filter.
func WithAuthorFilter(authors []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(authors) > 0 {
			a.authors = make(map[string]bool, len(authors))
			for _, name := range authors {
				a.authors[name] = true
			}
		}
	}
}

// WithDropSystemMessages removes authorless records before analysis.
func WithDropSystemMessages(drop bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.dropSystem = drop
	}
}

// NewAnalyzer creates an analyzer with every collector configured from cfg.
func NewAnalyzer(cfg config.StatsConfig, opts ...AnalyzerOption) *Analyzer {
	placeholders := cfg.MediaPlaceholders
	if len(placeholders) == 0 {
		placeholders = config.DefaultMediaPlaceholders()
	}
	maxWords := cfg.MaxWords
	if maxWords <= 0 {
		maxWords = config.DefaultMaxWords
	}
	topEmojis := cfg.TopEmojis
	if topEmojis <= 0 {
		topEmojis = config.DefaultTopEmojis
	}

	a := &Analyzer{
		dropSystem: cfg.DropSystemMessages,
		collectors: []Collector{
			NewCountsCollector(placeholders),
			NewEmojiCollector(topEmojis),
			NewLinksCollector(),
			NewAuthorsCollector(),
			NewActivityCollector(),
			NewWordsCollector(placeholders, Stopwords(cfg.Stopwords), maxWords),
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Collectors returns the names of the configured collectors in run order.
func (a *Analyzer) Collectors() []string {
	names := make([]string, len(a.collectors))
	for i, c := range a.collectors {
		names[i] = c.Name()
	}
	return names
}

// Analyze processes records in order and returns the collected statistics.
func (a *Analyzer) Analyze(ctx context.Context, records []parser.Record) (*Result, error) {
	result := &Result{StartTime: time.Now()}

	// Reset all collectors before analysis
	for _, c := range a.collectors {
		c.Reset()
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := &records[i]
		if !a.keep(rec) {
			result.Filtered++
			continue
		}

		result.RecordsAnalyzed++

		for _, c := range a.collectors {
			if err := c.Process(ctx, rec); err != nil {
				return nil, fmt.Errorf("processing record with collector %q: %w", c.Name(), err)
			}
		}
	}

	for _, c := range a.collectors {
		if err := c.Finalize(ctx, result); err != nil {
			return nil, fmt.Errorf("finalizing collector %q: %w", c.Name(), err)
		}
	}

	result.EndTime = time.Now()

	return result, nil
}

func (a *Analyzer) keep(rec *parser.Record) bool {
	if a.dropSystem && rec.IsSystem() {
		return false
	}
	if a.dateRange != nil && !a.dateRange.Contains(rec.Date) {
		return false
	}
	if a.authors != nil && (rec.IsSystem() || !a.authors[*rec.Author]) {
		return false
	}
	return true
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
