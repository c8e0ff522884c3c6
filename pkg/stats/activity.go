package stats

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})[\s\x{00A0}\x{202F}]*(?:([aApP])\.?[mM]\.?)?$`)

// ParseHour returns the hour of day (0-23) of a message time such as
// "14:05", "2:05 PM" or "2:05 p.m.".
func ParseHour(t string) (int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return 0, false
	}

	switch strings.ToLower(m[3]) {
	case "":
		if hour > 23 {
			return 0, false
		}
	case "a":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	}

	return hour, true
}

// ActivityCollector builds hour-of-day and day-of-week histograms.
type ActivityCollector struct {
	activity Activity
}

// NewActivityCollector creates an activity collector.
func NewActivityCollector() *ActivityCollector {
	return &ActivityCollector{}
}

// Name returns the collector name.
func (c *ActivityCollector) Name() string {
	return CollectorActivity
}

// Process handles a single record.
func (c *ActivityCollector) Process(_ context.Context, rec *parser.Record) error {
	if hour, ok := ParseHour(rec.Time); ok {
		c.activity.Hours[hour]++
	} else {
		c.activity.UnparsedTimes++
	}

	c.activity.Weekdays[rec.Date.Weekday()]++

	if c.activity.First.IsZero() || rec.Date.Before(c.activity.First) {
		c.activity.First = rec.Date
	}
	if rec.Date.After(c.activity.Last) {
		c.activity.Last = rec.Date
	}
	return nil
}

// Finalize writes the histograms into res.
func (c *ActivityCollector) Finalize(_ context.Context, res *Result) error {
	res.Activity = c.activity
	return nil
}

// Reset clears internal state for reuse.
func (c *ActivityCollector) Reset() {
	c.activity = Activity{}
}
