package detector

import "fmt"

// DateOrder is the field order of a transcript date token.
type DateOrder string

const (
	// OrderDayFirst means dates read day/month/year.
	OrderDayFirst DateOrder = "day-first"

	// OrderMonthFirst means dates read month/day/year.
	OrderMonthFirst DateOrder = "month-first"

	// OrderAmbiguous means no sampled date had a field above 12.
	OrderAmbiguous DateOrder = "ambiguous"

	// OrderMixed means the sample holds evidence for both orders.
	OrderMixed DateOrder = "mixed"
)

// DateFormat represents a candidate interpretation of the date token.
type DateFormat struct {
	Name         string    // Human-readable name
	Layout       string    // Go time layout for parsing
	Order        DateOrder // Field order
	TwoDigitYear bool      // True if the year is written with two digits
	Example      string    // Example date token
}

// DefaultFormats returns the candidate date formats, day-first formats first.
func DefaultFormats() []*DateFormat {
	return []*DateFormat{
		{
			Name:    "Day first, four-digit year",
			Layout:  "2/1/2006",
			Order:   OrderDayFirst,
			Example: "24/11/2023",
		},
		{
			Name:         "Day first, two-digit year",
			Layout:       "2/1/06",
			Order:        OrderDayFirst,
			TwoDigitYear: true,
			Example:      "24/11/23",
		},
		{
			Name:    "Month first, four-digit year",
			Layout:  "1/2/2006",
			Order:   OrderMonthFirst,
			Example: "11/24/2023",
		},
		{
			Name:         "Month first, two-digit year",
			Layout:       "1/2/06",
			Order:        OrderMonthFirst,
			TwoDigitYear: true,
			Example:      "11/24/23",
		},
	}
}

// FormatFor returns the candidate format for an order and year width.
// Ambiguous and mixed orders resolve to day first.
func FormatFor(order DateOrder, twoDigitYear bool) *DateFormat {
	if order != OrderMonthFirst {
		order = OrderDayFirst
	}
	for _, f := range DefaultFormats() {
		if f.Order == order && f.TwoDigitYear == twoDigitYear {
			return f
		}
	}
	panic(fmt.Sprintf("detector: no format for %s", order))
}
