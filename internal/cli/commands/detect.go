package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <transcript>",
		Short: "Detect the date format of a transcript",
		Long: `Sample a transcript to detect how its message dates are written.

Only lines that begin a message are considered. A date field above 12
decides the order: a first field above 12 means day first, a second field
above 12 means month first. When no field is above 12 the order cannot
be decided and day first is assumed.

Also reports the year width and whether times use AM/PM, and prints a
ready-to-use YAML snippet. Optionally generates a starter config file
with --write-config.

Example:
  chatstat detect chat.txt
  chatstat detect --sample 2000 chat.txt
  chatstat detect --write-config chatstat.yaml chat.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 500, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every candidate format, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	transcript := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (must be text or json)", opts.Output)
	}

	if _, err := os.Stat(transcript); os.IsNotExist(err) {
		return fmt.Errorf("transcript not found: %s", transcript)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, transcript)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, transcript, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(out, result, transcript, opts)
	default:
		outputDetectText(out, result, transcript, opts)
		return nil
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, transcript string, opts *DetectOptions) {
	p := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	p("=== Date Format Detection ===\n\n")
	p("File: %s\n", transcript)
	p("Lines sampled: %d\n", result.SampledLines)
	p("Message lines: %d\n\n", result.MessageStarts)

	if !result.HasMatch() {
		p("No message lines found.\n\n")
		p("Tip: Message lines look like '12/05/2023, 14:05 - Ana: Hola'.\n")
		p("Check that the file is an exported chat transcript.\n")
		return
	}

	p("Date order: %s (%d day-first, %d month-first)\n", result.Order, result.DayFirst, result.MonthFirst)
	p("Year width: %s\n", yearWidth(result))
	if result.TwelveHour > 0 {
		p("Clock: 12-hour (%d/%d times with AM/PM)\n", result.TwelveHour, result.MessageStarts)
	} else {
		p("Clock: 24-hour\n")
	}
	p("\n")

	if best := result.BestMatch(); best != nil {
		p("Best match: %s\n", best.Format.Name)
		p("Confidence: %.1f%% (%d/%d dates parsed)\n", best.Confidence*100, best.MatchCount, result.MessageStarts)
		p("Sample line:\n  %s\n", result.SampleLine)
		p("Parsed as: %s\n\n", best.SampleDate.Format("2006-01-02"))
	}

	if result.Note != "" {
		p("Note: %s\n\n", result.Note)
	}

	p("--- Configuration snippet (copy to your config file) ---\n\n")
	p("%s\n", dateFormatYAML(result))

	if opts.ShowAll && len(result.Matches) > 1 {
		p("--- Alternative formats ---\n")
		for i, m := range result.Matches[1:] {
			p("%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
			p("   layout: \"%s\"\n", m.Format.Layout)
		}
		p("\n")
	}
}

func yearWidth(result *detector.DetectionResult) string {
	switch {
	case result.TwoDigitYear > 0 && result.FourDigitYear > 0:
		return fmt.Sprintf("mixed (%d two-digit, %d four-digit)", result.TwoDigitYear, result.FourDigitYear)
	case result.TwoDigitYear > 0:
		return "two-digit"
	default:
		return "four-digit"
	}
}

// dateFormatYAML renders the suggested date_format section.
func dateFormatYAML(result *detector.DetectionResult) string {
	var sb strings.Builder
	sb.WriteString("date_format:\n")
	fmt.Fprintf(&sb, "  primary: \"%s\"\n", result.SuggestedPrimary)
	sb.WriteString("  fallback:\n")
	for _, layout := range result.SuggestedFallback {
		fmt.Fprintf(&sb, "    - \"%s\"\n", layout)
	}
	return sb.String()
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Layout     string  `json:"layout"`
	Order      string  `json:"order"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleDate string  `json:"sample_date"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File              string      `json:"file"`
	SampledLines      int         `json:"sampled_lines"`
	MessageStarts     int         `json:"message_starts"`
	Order             string      `json:"order"`
	Ambiguous         bool        `json:"ambiguous"`
	TwelveHour        bool        `json:"twelve_hour"`
	SuggestedPrimary  string      `json:"suggested_primary,omitempty"`
	SuggestedFallback []string    `json:"suggested_fallback,omitempty"`
	Matches           []JSONMatch `json:"matches"`
	Note              string      `json:"note,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, transcript string, opts *DetectOptions) error {
	out := JSONOutput{
		File:          transcript,
		SampledLines:  result.SampledLines,
		MessageStarts: result.MessageStarts,
		Order:         string(result.Order),
		Ambiguous:     result.Ambiguous,
		TwelveHour:    result.TwelveHour > 0,
		Note:          result.Note,
		Matches:       make([]JSONMatch, 0),
	}
	if result.HasMatch() {
		out.SuggestedPrimary = result.SuggestedPrimary
		out.SuggestedFallback = result.SuggestedFallback
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:       m.Format.Name,
			Layout:     m.Format.Layout,
			Order:      string(m.Format.Order),
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleDate: m.SampleDate.Format("2006-01-02"),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file with the detected format.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, transcript, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no message lines found")
	}

	content := generateStarterConfig(transcript, result)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(transcript string, result *detector.DetectionResult) string {
	absTranscript := transcript
	if abs, err := filepath.Abs(transcript); err == nil {
		absTranscript = abs
	}

	return fmt.Sprintf(`# chatstat configuration
# Generated by: chatstat detect
# Detected date order: %s

transcripts:
  - %s
  # Add more transcripts or use globs:
  # - exports/*.txt

%s
stats:
  # Extra words to leave out of the word ranking:
  # stopwords: [jaja, jeje]
  max_words: 150
  top_emojis: 10
  # drop_system_messages: true

# Example: post every report to a webhook
# webhooks:
#   - name: team
#     url: https://example.com/hooks/chatstat
#     token: ${CHATSTAT_WEBHOOK_TOKEN}
#     trigger: on_messages

# Example: publish reports to NATS
# nats:
#   url: nats://localhost:4222
#   subject: chatstat.reports

# Example: cache parsed transcripts
# store:
#   path: chatstat.sqlite
`, result.Order, absTranscript, dateFormatYAML(result))
}
