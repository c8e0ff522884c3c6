package parser

import (
	"strings"
)

const (
	headSeparator   = " - "
	authorSeparator = ": "
	bom             = "\uFEFF"
)

// pendingRecord is a record whose date token has not been parsed yet.
type pendingRecord struct {
	date   *string
	clock  *string
	author *string
	body   strings.Builder
}

// Assembler folds classified lines into records.
// It has two states: no record yet (current < 0) and a current record that
// continuation lines are appended to.
type Assembler struct {
	pending []*pendingRecord
	current int
	stats   ParseStats
}

// NewAssembler creates an Assembler with no current record.
func NewAssembler() *Assembler {
	return &Assembler{current: -1}
}

// Feed processes one line of the transcript.
func (a *Assembler) Feed(line string) {
	line = strings.TrimSpace(line)
	a.stats.Lines++

	if IsMessageStart(line) {
		head, tail, _ := strings.Cut(line, headSeparator)
		rec := &pendingRecord{}
		rec.date, rec.clock = SplitHead(head)
		var body string
		rec.author, body = SplitTail(tail)
		rec.body.WriteString(body)

		a.pending = append(a.pending, rec)
		a.current = len(a.pending) - 1
		a.stats.MessageStarts++
		return
	}

	if a.current < 0 {
		a.stats.Orphans++
		return
	}

	cur := a.pending[a.current]
	cur.body.WriteByte(' ')
	cur.body.WriteString(line)
	a.stats.Continuations++
}

// Len returns the number of records assembled so far, before normalization.
func (a *Assembler) Len() int {
	return len(a.pending)
}

// Finish normalizes dates and returns the assembled records.
// The Assembler should not be fed after Finish.
func (a *Assembler) Finish(opts ...Option) *Result {
	o := newOptions(opts)
	records, strategy := normalizeDates(a.pending, o.primary, o.fallback)

	stats := a.stats
	stats.DateStrategy = strategy
	stats.Dropped = len(a.pending) - len(records)

	return &Result{Records: records, Stats: stats}
}

// Records normalizes dates with the default layouts and returns the records.
func (a *Assembler) Records() []Record {
	return a.Finish().Records
}

// SplitHead splits the timestamp segment into its date and time tokens.
// A head with a comma must split into exactly two parts on ", ";
// otherwise it is split on the first space. Both results are nil when
// neither split applies.
func SplitHead(head string) (date, clock *string) {
	if strings.Contains(head, ",") {
		parts := strings.Split(head, ", ")
		if len(parts) != 2 {
			return nil, nil
		}
		return &parts[0], &parts[1]
	}

	d, c, ok := strings.Cut(head, " ")
	if !ok {
		return nil, nil
	}
	return &d, &c
}

// SplitTail splits the text after the timestamp into author and body at the
// first ": ". Without a separator the whole tail is the body of a system
// message and author is nil.
func SplitTail(tail string) (author *string, body string) {
	name, rest, ok := strings.Cut(tail, authorSeparator)
	if !ok {
		return nil, tail
	}
	return &name, rest
}

// Parse reconstructs the records of a transcript.
// It never fails: malformed lines become continuations or are discarded.
func Parse(text string) []Record {
	return ParseDetailed(text).Records
}

// ParseDetailed parses a transcript and reports line-level statistics.
func ParseDetailed(text string, opts ...Option) *Result {
	a := NewAssembler()
	text = strings.TrimPrefix(text, bom)

	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			a.Feed(text)
			break
		}
		a.Feed(text[:i])
		text = text[i+1:]
	}

	return a.Finish(opts...)
}
