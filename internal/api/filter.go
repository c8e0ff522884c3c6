package api

import (
	"fmt"
	"net/http"
	"time"
)

// filter holds the record filters read from query parameters.
type filter struct {
	from    time.Time
	to      time.Time
	authors []string
}

// parseFilter reads from, to (2006-01-02) and repeated author parameters.
func parseFilter(r *http.Request) (filter, error) {
	var f filter
	q := r.URL.Query()

	for name, dst := range map[string]*time.Time{"from": &f.from, "to": &f.to} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filter{}, fmt.Errorf("invalid %s date %q (want YYYY-MM-DD)", name, v)
		}
		*dst = t
	}

	if !f.from.IsZero() && !f.to.IsZero() && f.to.Before(f.from) {
		return filter{}, fmt.Errorf("to date %s is before from date %s", q.Get("to"), q.Get("from"))
	}

	f.authors = q["author"]
	return f, nil
}
