package stats

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// CleanText lowercases s and removes ASCII punctuation.
func CleanText(s string) string {
	lower := cases.Lower(language.Und).String(s)
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
			return -1
		}
		return r
	}, lower)
}

// Tokenize cleans s and splits it into words, dropping stopwords,
// single-rune tokens and numbers.
func Tokenize(s string, stop StopwordSet) []string {
	fields := strings.Fields(CleanText(s))
	out := fields[:0]
	for _, w := range fields {
		if utf8.RuneCountInString(w) < 2 || isNumeric(w) || stop.Contains(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// WordsCollector builds the word-frequency list for a word cloud.
type WordsCollector struct {
	placeholders []string
	stop         StopwordSet
	max          int

	counts map[string]int
}

// NewWordsCollector creates a words collector. Bodies containing one of
// placeholders are skipped and at most max words are reported.
func NewWordsCollector(placeholders []string, stop StopwordSet, max int) *WordsCollector {
	return &WordsCollector{
		placeholders: placeholders,
		stop:         stop,
		max:          max,
		counts:       make(map[string]int),
	}
}

// Name returns the collector name.
func (c *WordsCollector) Name() string {
	return CollectorWords
}

// Process handles a single record.
func (c *WordsCollector) Process(_ context.Context, rec *parser.Record) error {
	for _, p := range c.placeholders {
		if strings.Contains(rec.Body, p) {
			return nil
		}
	}
	for _, w := range Tokenize(rec.Body, c.stop) {
		c.counts[w]++
	}
	return nil
}

// Finalize writes the most frequent words into res, ties alphabetical.
func (c *WordsCollector) Finalize(_ context.Context, res *Result) error {
	words := make([]Frequency, 0, len(c.counts))
	for w, n := range c.counts {
		words = append(words, Frequency{Value: w, Count: n})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Value < words[j].Value
	})
	if len(words) > c.max {
		words = words[:c.max]
	}
	res.Words = words
	return nil
}

// Reset clears internal state for reuse.
func (c *WordsCollector) Reset() {
	c.counts = make(map[string]int)
}
