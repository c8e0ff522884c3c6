package stats

import (
	"context"
	"sort"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// ExtractEmojis returns the emoji grapheme clusters of s in order.
// A cluster such as a flag or a skin-toned hand counts once.
func ExtractEmojis(s string) []string {
	var out []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		if isASCII(cluster) {
			continue
		}
		if gomoji.ContainsEmoji(cluster) {
			out = append(out, cluster)
		}
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// EmojiCollector counts emoji and ranks the most used ones.
type EmojiCollector struct {
	top int

	total  int
	counts map[string]int
	order  map[string]int
}

// NewEmojiCollector creates an emoji collector keeping the top n emoji.
func NewEmojiCollector(n int) *EmojiCollector {
	c := &EmojiCollector{top: n}
	c.Reset()
	return c
}

// Name returns the collector name.
func (c *EmojiCollector) Name() string {
	return CollectorEmoji
}

// Process handles a single record.
func (c *EmojiCollector) Process(_ context.Context, rec *parser.Record) error {
	for _, e := range ExtractEmojis(rec.Body) {
		c.total++
		if _, seen := c.order[e]; !seen {
			c.order[e] = len(c.order)
		}
		c.counts[e]++
	}
	return nil
}

// Finalize writes the emoji statistics into res. Equal counts keep the
// order of first appearance.
func (c *EmojiCollector) Finalize(_ context.Context, res *Result) error {
	top := make([]Frequency, 0, len(c.counts))
	for e, n := range c.counts {
		top = append(top, Frequency{Value: e, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return c.order[top[i].Value] < c.order[top[j].Value]
	})
	if len(top) > c.top {
		top = top[:c.top]
	}

	res.Emojis = EmojiStats{Total: c.total, Top: top}
	return nil
}

// Reset clears internal state for reuse.
func (c *EmojiCollector) Reset() {
	c.total = 0
	c.counts = make(map[string]int)
	c.order = make(map[string]int)
}
