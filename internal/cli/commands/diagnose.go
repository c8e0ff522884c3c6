package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/detector"
	"github.com/ccollicutt/chatstat/pkg/parser"
	"github.com/ccollicutt/chatstat/pkg/stats"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <transcript>",
		Short: "Diagnose why a transcript parses badly",
		Long: `Diagnose common problems with a transcript and the configuration.

Checks:
- Transcript existence and size
- Message lines found, and lines before the first message
- Which date layouts applied and how many messages were dropped
- Number of authors and system messages
- Webhook, NATS and store settings from --config

Example:
  chatstat diagnose chat.txt
  chatstat diagnose -v -c chatstat.yaml chat.txt  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, transcript string, opts *DiagnoseOptions) error {
	ctx := commandContext(cmd)
	results := []DiagnosticResult{}

	// 1. Config file, if one was given
	cfg, result := checkConfig(ctx, flagValue(cmd, FlagConfig))
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(cmd.OutOrStdout(), results, opts)
		return nil
	}

	// 2. Transcript file
	result = checkTranscriptExists(transcript)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(cmd.OutOrStdout(), results, opts)
		return nil
	}

	// 3. Parse it and look at what happened
	text, err := parser.ReadTranscript(ctx, transcript)
	if err != nil {
		results = append(results, DiagnosticResult{
			Check:    "Transcript Read",
			Status:   StatusError,
			Message:  fmt.Sprintf("Cannot read transcript: %v", err),
			Suggests: []string{"Check file permissions"},
		})
		printDiagnostics(cmd.OutOrStdout(), results, opts)
		return nil
	}
	parsed := parser.ParseDetailed(text, cfg.ParserOptions()...)

	results = append(results, checkMessageStarts(transcript, text, parsed))
	if parsed.Stats.MessageStarts > 0 {
		results = append(results, checkDates(ctx, cfg, transcript, parsed, opts))
		results = append(results, checkAuthors(ctx, cfg, parsed, opts))
	}

	// 4. Notification and store settings
	results = append(results, checkWebhooks(cfg, opts)...)
	results = append(results, checkNATS(cfg, opts)...)
	results = append(results, checkStore(cfg, opts)...)

	printDiagnostics(cmd.OutOrStdout(), results, opts)
	return nil
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	cfg, err := config.LoadOrDefault(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		if errors.Is(err, fs.ErrNotExist) {
			result.Suggests = []string{
				"Check the file path is correct",
				"Use 'chatstat detect <transcript> --write-config chatstat.yaml' to generate a starter config",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	if path == "" {
		result.Message = "No config file given, using defaults"
	} else {
		result.Message = fmt.Sprintf("Loaded: %s", path)
	}
	result.Details = []string{
		fmt.Sprintf("Primary date layout: %s", cfg.DateFormat.Primary),
		fmt.Sprintf("Fallback layouts: %s", strings.Join(cfg.DateFormat.Fallback, ", ")),
	}
	return cfg, result
}

func checkTranscriptExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Transcript File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Transcript not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access transcript: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Transcript is empty"
		result.Suggests = []string{"Export the chat again, without media"}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkMessageStarts(transcript, text string, parsed *parser.Result) DiagnosticResult {
	s := parsed.Stats
	result := DiagnosticResult{
		Check: "Message Lines",
		Details: []string{
			fmt.Sprintf("Lines: %d", s.Lines),
			fmt.Sprintf("Message lines: %d", s.MessageStarts),
			fmt.Sprintf("Continuation lines: %d", s.Continuations),
		},
	}

	if s.MessageStarts == 0 {
		result.Status = StatusError
		result.Message = "No line looks like the start of a message"
		result.Suggests = []string{
			"Message lines look like '12/05/2023, 14:05 - Ana: Hola'",
			"Use 'chatstat detect " + transcript + "' to inspect the file",
		}
		if first := firstNonEmpty(text); first != "" {
			result.Details = append(result.Details, "First line:", truncate(first, 80))
		}
		return result
	}

	if s.Orphans > 0 {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d message(s); %d line(s) before the first message were ignored", s.MessageStarts, s.Orphans)
		result.Suggests = []string{"Check that the file was not cut at the start"}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("%d message(s) found", s.MessageStarts)
	return result
}

func checkDates(ctx context.Context, cfg *config.Config, transcript string, parsed *parser.Result, opts *DiagnoseOptions) DiagnosticResult {
	s := parsed.Stats
	result := DiagnosticResult{
		Check: "Dates",
	}

	switch {
	case len(parsed.Records) == 0:
		result.Status = StatusError
		result.Message = fmt.Sprintf("No date parsed; all %d message(s) were dropped", s.Dropped)
	case s.Dropped > 0:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d message(s) dropped because their date did not parse", s.Dropped)
	case s.DateStrategy == parser.DateStrategyFallback:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Primary layout %q failed; fallback layouts were used", cfg.DateFormat.Primary)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("All dates parsed with %q", cfg.DateFormat.Primary)
	}
	result.Details = []string{fmt.Sprintf("Date strategy: %s", s.DateStrategy)}

	if result.Status == StatusOK && !opts.Verbose {
		return result
	}

	// Suggest layouts from the file itself
	det, err := detector.New().DetectFromFile(ctx, transcript)
	if err != nil || !det.HasMatch() {
		return result
	}
	if result.Status != StatusOK && det.SuggestedPrimary != cfg.DateFormat.Primary {
		result.Suggests = append(result.Suggests,
			fmt.Sprintf("Detected date order: %s", det.Order),
			fmt.Sprintf("Suggested primary layout: %s", det.SuggestedPrimary),
		)
	}
	if det.Note != "" {
		result.Details = append(result.Details, det.Note)
	}
	return result
}

func checkAuthors(ctx context.Context, cfg *config.Config, parsed *parser.Result, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Authors",
	}

	res, err := stats.NewAnalyzer(cfg.Stats).Analyze(ctx, parsed.Records)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Analysis failed: %v", err)
		return result
	}

	system := 0
	for i := range parsed.Records {
		if parsed.Records[i].IsSystem() {
			system++
		}
	}

	switch len(res.Authors) {
	case 0:
		result.Status = StatusWarning
		result.Message = "Only system messages found"
		result.Suggests = []string{"Author names are separated from the text by ': '"}
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d author(s), %d system message(s)", len(res.Authors), system)
	}

	if opts.Verbose {
		for _, a := range res.Authors {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d", a.Name, a.Messages))
		}
	}
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", webhookName(wh)),
		}

		if wh.Token == "" && strings.Contains(wh.URL, "token") {
			result.Status = StatusWarning
			result.Message = "URL mentions a token but no bearer token is set"
		} else {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func checkNATS(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	if !cfg.NATS.Enabled() {
		if opts.Verbose {
			return []DiagnosticResult{{
				Check:   "NATS",
				Status:  StatusOK,
				Message: "Publishing disabled (optional)",
			}}
		}
		return nil
	}

	return []DiagnosticResult{{
		Check:   "NATS",
		Status:  StatusOK,
		Message: fmt.Sprintf("Reports go to %s on %s", cfg.NATS.Subject, cfg.NATS.URL),
	}}
}

func checkStore(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	if cfg.Store.Path == "" {
		if opts.Verbose {
			return []DiagnosticResult{{
				Check:   "Store",
				Status:  StatusOK,
				Message: "Parse cache disabled (optional)",
			}}
		}
		return nil
	}

	result := DiagnosticResult{
		Check: "Store",
	}
	info, err := os.Stat(cfg.Store.Path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%s will be created on first use", cfg.Store.Path)
	case err != nil:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot access store: %v", err)
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Store path is a directory"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%s (%d bytes)", cfg.Store.Path, info.Size())
	}
	return []DiagnosticResult{result}
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	p := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	p("=== chatstat Diagnostics ===\n\n")

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		p("[%s] %s\n", icon, r.Check)
		p("    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				p("      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			p("      Hint: %s\n", s)
		}

		p("\n")
	}

	p("---\n")
	p("Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		p("\nFix the errors above before running analysis.\n")
	} else if warnCount > 0 {
		p("\nThe transcript is usable but has warnings.\n")
	} else {
		p("\nTranscript looks good!\n")
	}
}

func firstNonEmpty(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
