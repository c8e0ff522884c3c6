package stats

import (
	"context"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// Collector accumulates one statistic over a record sequence.
// Each statistic (counts, emoji, links, authors, activity, words) implements this interface.
type Collector interface {
	// Name returns the collector name for reporting.
	Name() string

	// Process handles a single record, updating internal state.
	Process(ctx context.Context, rec *parser.Record) error

	// Finalize writes the collected values into res.
	// Called after all records have been processed.
	Finalize(ctx context.Context, res *Result) error

	// Reset clears internal state for reuse.
	Reset()
}
