package parser

import "time"

// Default date layouts. The primary layout is day/month/four-digit year.
// The fallback prefers month-first, then day-first, then two-digit years.
const DefaultPrimaryLayout = "2/1/2006"

// DefaultFallbackLayouts returns the layouts tried when the primary layout
// fails for any record of a batch.
func DefaultFallbackLayouts() []string {
	return []string{"1/2/2006", "1/2/06", "2/1/2006", "2/1/06"}
}

// Option configures date normalization.
type Option func(*options)

type options struct {
	primary  string
	fallback []string
}

// WithPrimaryLayout sets the layout every date is tried with first.
func WithPrimaryLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.primary = layout
		}
	}
}

// WithFallbackLayouts sets the layouts used when the primary layout fails.
func WithFallbackLayouts(layouts []string) Option {
	return func(o *options) {
		if len(layouts) > 0 {
			o.fallback = layouts
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		primary:  DefaultPrimaryLayout,
		fallback: DefaultFallbackLayouts(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// normalizeDates parses the date token of every pending record.
// The choice between primary and fallback is made once for the whole batch:
// a single token that fails the primary layout switches every record to the
// fallback layouts. Records missing a date or time token, or whose date
// cannot be parsed, are dropped.
func normalizeDates(pending []*pendingRecord, primary string, fallback []string) ([]Record, DateStrategy) {
	strategy := DateStrategyNone
	for _, p := range pending {
		if p.date == nil {
			continue
		}
		strategy = DateStrategyPrimary
		if _, err := time.Parse(primary, *p.date); err != nil {
			strategy = DateStrategyFallback
			break
		}
	}

	records := make([]Record, 0, len(pending))
	for _, p := range pending {
		if p.date == nil || p.clock == nil {
			continue
		}

		var (
			date time.Time
			ok   bool
		)
		if strategy == DateStrategyFallback {
			date, ok = parseAny(*p.date, fallback)
		} else {
			date, ok = parseAny(*p.date, []string{primary})
		}
		if !ok {
			continue
		}

		records = append(records, Record{
			Date:   date,
			Time:   *p.clock,
			Author: p.author,
			Body:   p.body.String(),
		})
	}

	return records, strategy
}

// parseAny returns the first successful parse of value among layouts.
func parseAny(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
