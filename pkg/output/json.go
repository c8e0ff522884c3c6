package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter writes reports as indented JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// quietReport is the --quiet payload: the headline numbers plus enough
// metadata to find the full report again.
type quietReport struct {
	ID           string   `json:"id"`
	TranscriptID string   `json:"transcript_id,omitempty"`
	Sources      []string `json:"sources"`
	Summary      Summary  `json:"summary"`
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format encodes the report. Quiet output drops the statistics and parse
// details but keeps the report and transcript identifiers.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if f.opts.Quiet {
		return encoder.Encode(quietReport{
			ID:           report.Metadata.ID,
			TranscriptID: report.Metadata.TranscriptID,
			Sources:      report.Metadata.Sources,
			Summary:      report.Summary,
		})
	}

	return encoder.Encode(report)
}
