package stats

import (
	"context"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// CountsCollector counts messages and media placeholders.
type CountsCollector struct {
	placeholders map[string]bool

	messages int
	media    int
}

// NewCountsCollector creates a counts collector. A body equal to one of
// placeholders counts as a media message.
func NewCountsCollector(placeholders []string) *CountsCollector {
	c := &CountsCollector{placeholders: make(map[string]bool, len(placeholders))}
	for _, p := range placeholders {
		c.placeholders[p] = true
	}
	return c
}

// Name returns the collector name.
func (c *CountsCollector) Name() string {
	return CollectorCounts
}

// Process handles a single record.
func (c *CountsCollector) Process(_ context.Context, rec *parser.Record) error {
	c.messages++
	if c.placeholders[rec.Body] {
		c.media++
	}
	return nil
}

// Finalize writes the counts into res.
func (c *CountsCollector) Finalize(_ context.Context, res *Result) error {
	res.Messages = c.messages
	res.MediaMessages = c.media
	return nil
}

// Reset clears internal state for reuse.
func (c *CountsCollector) Reset() {
	c.messages = 0
	c.media = 0
}
