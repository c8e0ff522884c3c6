package stats

import (
	"context"
	"sort"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// AuthorsCollector ranks authors by message count.
// System messages are not attributed to anyone.
type AuthorsCollector struct {
	counts map[string]int
}

// NewAuthorsCollector creates an authors collector.
func NewAuthorsCollector() *AuthorsCollector {
	return &AuthorsCollector{counts: make(map[string]int)}
}

// Name returns the collector name.
func (c *AuthorsCollector) Name() string {
	return CollectorAuthors
}

// Process handles a single record.
func (c *AuthorsCollector) Process(_ context.Context, rec *parser.Record) error {
	if rec.IsSystem() {
		return nil
	}
	c.counts[*rec.Author]++
	return nil
}

// Finalize writes the ranking into res, busiest first and ties by name.
func (c *AuthorsCollector) Finalize(_ context.Context, res *Result) error {
	authors := make([]AuthorCount, 0, len(c.counts))
	for name, n := range c.counts {
		authors = append(authors, AuthorCount{Name: name, Messages: n})
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Messages != authors[j].Messages {
			return authors[i].Messages > authors[j].Messages
		}
		return authors[i].Name < authors[j].Name
	})
	res.Authors = authors
	return nil
}

// Reset clears internal state for reuse.
func (c *AuthorsCollector) Reset() {
	c.counts = make(map[string]int)
}
