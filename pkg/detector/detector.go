// Package detector provides automatic date format detection for chat transcripts.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

const defaultSampleSize = 500

var (
	dateFieldsPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})`)
	meridiemPattern   = regexp.MustCompile(`\d{1,2}:\d{2}[\s\x{00A0}\x{202F}]?[aApP]\.?[mM]\.?$`)
)

// DetectionResult holds the result of sampling a transcript.
type DetectionResult struct {
	SampledLines  int // Number of lines sampled
	MessageStarts int // Number of sampled lines that begin a message

	DayFirst      int // Dates whose first field exceeds 12
	MonthFirst    int // Dates whose second field exceeds 12
	Order         DateOrder
	Ambiguous     bool // True if the order could not be decided from the sample
	TwoDigitYear  int  // Dates with a two-digit year
	FourDigitYear int  // Dates with a four-digit year
	TwelveHour    int  // Times with an AM/PM marker

	Matches []FormatMatch // Candidate formats, sorted by confidence descending

	SuggestedPrimary  string   // Layout to use as date_format.primary
	SuggestedFallback []string // Layouts to use as date_format.fallback

	SampleLine string // First message-start line
	Note       string // Warning about date ordering if applicable
}

// FormatMatch represents a candidate format with its confidence score.
type FormatMatch struct {
	Format     *DateFormat
	Confidence float64   // 0.0 to 1.0 (share of message starts parsed)
	MatchCount int       // Number of dates that parsed
	SampleDate time.Time // Parsed date from the sample line
}

// Detector samples transcripts to identify their date format.
type Detector struct {
	formats    []*DateFormat
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 500).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector with the default candidate formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: defaultSampleSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a transcript file and returns the detection result.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of transcript lines. Only message-start
// lines contribute evidence.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
	}

	counts := make([]int, len(d.formats))
	samples := make([]time.Time, len(d.formats))

	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\uFEFF"))
		if !parser.IsMessageStart(line) {
			continue
		}
		result.MessageStarts++
		if result.SampleLine == "" {
			result.SampleLine = line
		}

		head := parser.MessageStartPattern().FindStringSubmatch(line)[1]
		if meridiemPattern.MatchString(head) {
			result.TwelveHour++
		}

		fields := dateFieldsPattern.FindStringSubmatch(head)
		if fields == nil {
			continue
		}
		first, _ := strconv.Atoi(fields[1])
		second, _ := strconv.Atoi(fields[2])
		if first > 12 {
			result.DayFirst++
		}
		if second > 12 {
			result.MonthFirst++
		}
		switch len(fields[3]) {
		case 2:
			result.TwoDigitYear++
		case 4:
			result.FourDigitYear++
		}

		token := fields[0]
		for i, f := range d.formats {
			t, err := time.Parse(f.Layout, token)
			if err != nil {
				continue
			}
			if counts[i] == 0 {
				samples[i] = t
			}
			counts[i]++
		}
	}

	for i, f := range d.formats {
		if counts[i] == 0 {
			continue
		}
		result.Matches = append(result.Matches, FormatMatch{
			Format:     f,
			Confidence: float64(counts[i]) / float64(result.MessageStarts),
			MatchCount: counts[i],
			SampleDate: samples[i],
		})
	}

	// Sort by confidence descending; candidate order breaks ties
	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})

	result.decide()

	return result
}

// decide settles the order and the suggested layouts from the evidence.
func (r *DetectionResult) decide() {
	switch {
	case r.DayFirst > 0 && r.MonthFirst > 0:
		r.Order = OrderMixed
		r.Ambiguous = true
		r.Note = fmt.Sprintf("Dates disagree on field order (%d day-first, %d month-first). "+
			"The whole transcript will be read with the fallback layouts.", r.DayFirst, r.MonthFirst)
	case r.DayFirst > 0:
		r.Order = OrderDayFirst
	case r.MonthFirst > 0:
		r.Order = OrderMonthFirst
	default:
		r.Order = OrderAmbiguous
		r.Ambiguous = r.MessageStarts > 0
		if r.Ambiguous {
			r.Note = "No sampled date has a field above 12, so day/month order cannot be told apart. " +
				"Day first is assumed; verify the suggested layout against your export."
		}
	}

	twoDigit := r.TwoDigitYear > r.FourDigitYear
	primary := FormatFor(r.Order, twoDigit)
	r.SuggestedPrimary = primary.Layout

	other := OrderMonthFirst
	if primary.Order == OrderMonthFirst {
		other = OrderDayFirst
	}
	r.SuggestedFallback = []string{FormatFor(other, twoDigit).Layout}
	for _, layout := range parser.DefaultFallbackLayouts() {
		if layout == r.SuggestedPrimary || slices.Contains(r.SuggestedFallback, layout) {
			continue
		}
		r.SuggestedFallback = append(r.SuggestedFallback, layout)
	}
}

// sampleFile reads up to sampleSize non-empty lines from a file.
// Uses simple head sampling for efficiency.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < d.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one message start was found.
func (r *DetectionResult) HasMatch() bool {
	return r.MessageStarts > 0
}
