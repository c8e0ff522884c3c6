package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ccollicutt/chatstat/pkg/stats"
)

const barWidth = 30

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "chatstat: %d messages, %d authors, %d media, %d emojis, %d links\n",
		report.Summary.Messages,
		report.Summary.Authors,
		report.Summary.MediaMessages,
		report.Summary.Emojis,
		report.Summary.Links)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== Chat Analysis Report ===")
	fmt.Fprintln(w)

	s := report.Summary
	fmt.Fprintln(w, "[TOTALS]")
	fmt.Fprintf(w, "  Messages: %d\n", s.Messages)
	fmt.Fprintf(w, "  Media:    %d\n", s.MediaMessages)
	fmt.Fprintf(w, "  Emojis:   %d\n", s.Emojis)
	fmt.Fprintf(w, "  Links:    %d\n", s.Links)
	fmt.Fprintln(w)

	if st := report.Stats; st != nil {
		f.formatPeriod(st, w)
		f.formatAuthors(st, w)
		f.formatActivity(st, w)
		f.formatEmojis(st, w)
		f.formatWords(st, w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d messages from %d authors, %d records dropped, %d filtered\n",
		s.Messages, s.Authors, s.RecordsDropped, s.RecordsFiltered)

	if f.opts.Verbose {
		m := report.Metadata
		if len(m.Sources) > 0 {
			fmt.Fprintf(w, "Sources: %s\n", strings.Join(m.Sources, ", "))
		}
		fmt.Fprintf(w, "Lines: %d read, %d message starts, %d continuations, %d orphans\n",
			m.Parse.Lines, m.Parse.MessageStarts, m.Parse.Continuations, m.Parse.Orphans)
		fmt.Fprintf(w, "Date strategy: %s\n", m.DateStrategy)
		if m.ID != "" {
			fmt.Fprintf(w, "Report ID: %s\n", m.ID)
		}
		fmt.Fprintf(w, "Duration: %s\n", m.Duration.Round(time.Millisecond))
	}

	return nil
}

func (f *TextFormatter) formatPeriod(st *stats.Result, w io.Writer) {
	if st.Activity.First.IsZero() {
		return
	}
	fmt.Fprintf(w, "Period: %s to %s\n\n",
		st.Activity.First.Format(time.DateOnly),
		st.Activity.Last.Format(time.DateOnly))
}

func (f *TextFormatter) formatAuthors(st *stats.Result, w io.Writer) {
	fmt.Fprintln(w, "[AUTHORS]")
	if len(st.Authors) == 0 {
		fmt.Fprintln(w, "  No authored messages")
		fmt.Fprintln(w)
		return
	}

	authors := st.Authors
	if !f.opts.Verbose && len(authors) > 10 {
		authors = authors[:10]
	}
	width := 0
	for _, a := range authors {
		width = max(width, len(a.Name))
	}
	for i, a := range authors {
		fmt.Fprintf(w, "  %2d. %-*s %d\n", i+1, width, a.Name, a.Messages)
	}
	if len(authors) < len(st.Authors) {
		fmt.Fprintf(w, "  ... and %d more\n", len(st.Authors)-len(authors))
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatActivity(st *stats.Result, w io.Writer) {
	a := st.Activity
	fmt.Fprintln(w, "[ACTIVITY]")

	hour, n := a.PeakHour()
	if n == 0 {
		fmt.Fprintln(w, "  No timed messages")
		fmt.Fprintln(w)
		return
	}
	day, dn := a.PeakWeekday()
	fmt.Fprintf(w, "  Busiest hour: %02d:00 (%d messages)\n", hour, n)
	fmt.Fprintf(w, "  Busiest day:  %s (%d messages)\n", day, dn)

	if f.opts.Verbose {
		peak := n
		for h, c := range a.Hours {
			fmt.Fprintf(w, "  %02dh %5d %s\n", h, c, bar(c, peak))
		}
		for d, c := range a.Weekdays {
			fmt.Fprintf(w, "  %-9s %5d %s\n", time.Weekday(d), c, bar(c, dn))
		}
		if a.UnparsedTimes > 0 {
			fmt.Fprintf(w, "  Unreadable times: %d\n", a.UnparsedTimes)
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatEmojis(st *stats.Result, w io.Writer) {
	if len(st.Emojis.Top) == 0 {
		return
	}
	fmt.Fprintln(w, "[EMOJIS]")
	parts := make([]string, len(st.Emojis.Top))
	for i, e := range st.Emojis.Top {
		parts[i] = fmt.Sprintf("%s %d", e.Value, e.Count)
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  "))
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatWords(st *stats.Result, w io.Writer) {
	if len(st.Words) == 0 {
		return
	}
	fmt.Fprintln(w, "[WORDS]")
	words := st.Words
	if !f.opts.Verbose && len(words) > 20 {
		words = words[:20]
	}
	parts := make([]string, len(words))
	for i, word := range words {
		parts[i] = fmt.Sprintf("%s(%d)", word.Value, word.Count)
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " "))
	fmt.Fprintln(w)
}

func bar(n, peak int) string {
	if peak == 0 || n == 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*barWidth/peak))
}
