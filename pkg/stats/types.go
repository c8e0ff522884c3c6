// Package stats derives descriptive statistics from parsed chat records.
package stats

import (
	"time"
)

// Collector names.
const (
	CollectorCounts   = "counts"
	CollectorEmoji    = "emoji"
	CollectorLinks    = "links"
	CollectorAuthors  = "authors"
	CollectorActivity = "activity"
	CollectorWords    = "words"
)

// Result contains the statistics for one analyzed record sequence.
type Result struct {
	// RecordsAnalyzed is the number of records that passed the filters.
	RecordsAnalyzed int `json:"records_analyzed"`

	// Filtered is the number of records removed by the filters.
	Filtered int `json:"filtered"`

	// Messages is the total message count, system messages included.
	Messages int `json:"messages"`

	// MediaMessages counts bodies equal to a media placeholder.
	MediaMessages int `json:"media_messages"`

	Emojis   EmojiStats    `json:"emojis"`
	Links    int           `json:"links"`
	Authors  []AuthorCount `json:"authors"`
	Activity Activity      `json:"activity"`

	// Words is the ranked word-frequency list for a word cloud.
	Words []Frequency `json:"words"`

	// StartTime and EndTime bracket the analysis run.
	StartTime time.Time `json:"-"`
	EndTime   time.Time `json:"-"`
}

// Frequency is a value with its occurrence count.
type Frequency struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// EmojiStats summarizes emoji usage.
type EmojiStats struct {
	Total int         `json:"total"`
	Top   []Frequency `json:"top"`
}

// AuthorCount is the number of messages sent by one author.
type AuthorCount struct {
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

// Activity holds the temporal histograms.
type Activity struct {
	// Hours counts messages per hour of day (0-23).
	Hours [24]int `json:"hours"`

	// Weekdays counts messages per day of week, Sunday first.
	Weekdays [7]int `json:"weekdays"`

	// UnparsedTimes counts records whose time text could not be read.
	UnparsedTimes int `json:"unparsed_times"`

	// First and Last are the earliest and latest message dates.
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// PeakHour returns the busiest hour and its count. The lowest hour wins ties.
func (a Activity) PeakHour() (hour, count int) {
	for h, n := range a.Hours {
		if n > count {
			hour, count = h, n
		}
	}
	return hour, count
}

// PeakWeekday returns the busiest day of the week and its count.
func (a Activity) PeakWeekday() (time.Weekday, int) {
	var day time.Weekday
	count := 0
	for d, n := range a.Weekdays {
		if n > count {
			day, count = time.Weekday(d), n
		}
	}
	return day, count
}

// DistinctAuthors returns the number of distinct authors.
func (r *Result) DistinctAuthors() int {
	return len(r.Authors)
}
