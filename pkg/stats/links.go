package stats

import (
	"context"
	"regexp"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

var linkPattern = regexp.MustCompile(`https?://\S+`)

// CountLinks returns the number of http and https URLs in s.
func CountLinks(s string) int {
	return len(linkPattern.FindAllStringIndex(s, -1))
}

// LinksCollector counts shared links.
type LinksCollector struct {
	links int
}

// NewLinksCollector creates a links collector.
func NewLinksCollector() *LinksCollector {
	return &LinksCollector{}
}

// Name returns the collector name.
func (c *LinksCollector) Name() string {
	return CollectorLinks
}

// Process handles a single record.
func (c *LinksCollector) Process(_ context.Context, rec *parser.Record) error {
	c.links += CountLinks(rec.Body)
	return nil
}

// Finalize writes the link count into res.
func (c *LinksCollector) Finalize(_ context.Context, res *Result) error {
	res.Links = c.links
	return nil
}

// Reset clears internal state for reuse.
func (c *LinksCollector) Reset() {
	c.links = 0
}
