package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/output"
	"github.com/ccollicutt/chatstat/pkg/parser"
	"github.com/ccollicutt/chatstat/pkg/publish"
	"github.com/ccollicutt/chatstat/pkg/stats"
	"github.com/ccollicutt/chatstat/pkg/store"
	"github.com/ccollicutt/chatstat/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output    string
	From      string
	To        string
	Authors   []string
	Verbose   bool
	Quiet     bool
	StorePath string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string

	// NATS options
	NATSURL     string
	NATSSubject string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [transcript...]",
		Short: "Compute statistics for chat transcripts",
		Long: `Parse one or more exported chat transcripts and report statistics.

Reports:
  - Message, media placeholder, emoji and link counts
  - Messages per author
  - Activity by hour of day and day of week
  - Most frequent words

Transcripts are read from the arguments (globs allowed) or from the
transcripts list in the config file. Several transcripts are analyzed
as one conversation, in path order.

Exit codes:
  0 - Report produced
  1 - No valid messages found
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Only analyze messages on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Only analyze messages on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&opts.Authors, "author", nil, "Only analyze messages from this author (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show histograms, all authors and parse details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "SQLite file used to cache parsed transcripts")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_messages", "When to fire webhook (on_messages|always|never)")

	// NATS flags
	cmd.Flags().StringVar(&opts.NATSURL, "nats-url", "", "NATS server to publish the report to")
	cmd.Flags().StringVar(&opts.NATSSubject, "nats-subject", "", "NATS subject for the report (default from config)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	// Validate flags before touching any file
	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	from, to, err := parseDateFlags(opts.From, opts.To)
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Transcripts
	}
	if len(patterns) == 0 {
		return fmt.Errorf("no transcripts given (pass paths or set transcripts in the config file)")
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding transcripts: %w", err)
	}

	text, err := parser.ReadTranscripts(ctx, files)
	if err != nil {
		return err
	}
	hash := parser.ContentHash(text)

	storePath := opts.StorePath
	if storePath == "" {
		storePath = cfg.Store.Path
	}

	parsed, transcriptID, err := parseWithCache(ctx, cfg, storePath, strings.Join(files, ","), text)
	if err != nil {
		return err
	}

	if len(parsed.Records) == 0 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), errNoMessages)
		ExitCode = ExitNoMessages
		return nil
	}

	a := stats.NewAnalyzer(cfg.Stats,
		stats.WithDateRange(from, to),
		stats.WithAuthorFilter(opts.Authors),
	)
	result, err := a.Analyze(ctx, parsed.Records)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	// Create report
	report := output.NewReport(parsed, result, files)
	report.Metadata.ContentHash = hash
	report.Metadata.TranscriptID = transcriptID
	if !from.IsZero() || !to.IsZero() {
		report.Metadata.DateRange = &output.DateRange{From: from, To: to}
	}

	// Output report
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Notifications are logged but don't fail the analysis
	sendWebhooks(ctx, cfg, opts, report)
	publishReport(ctx, cfg, opts, report)

	ExitCode = ExitOK
	return nil
}

// parseWithCache parses text, or loads the records stored under its parse
// key. The key covers the date layouts, so records parsed with other layouts
// are never reused. Without a store path it always parses.
func parseWithCache(ctx context.Context, cfg *config.Config, storePath, source, text string) (*parser.Result, string, error) {
	if storePath == "" {
		return parser.ParseDetailed(text, cfg.ParserOptions()...), "", nil
	}

	st, err := store.Open(ctx, storePath)
	if err != nil {
		return nil, "", err
	}
	defer st.Close()

	key := cfg.ParseKey(text)
	id, records, found, err := st.LookupByHash(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if found {
		slog.Debug("parse cache hit", "transcript_id", id, "records", len(records))
		return &parser.Result{Records: records}, id, nil
	}

	parsed := parser.ParseDetailed(text, cfg.ParserOptions()...)
	if len(parsed.Records) == 0 {
		return parsed, "", nil
	}

	id, err = st.SaveTranscript(ctx, source, key, parsed.Records)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("transcript cached", "transcript_id", id, "records", len(parsed.Records))
	return parsed, id, nil
}

// parseDateFlags parses the --from and --to values.
func parseDateFlags(fromStr, toStr string) (from, to time.Time, err error) {
	if fromStr != "" {
		from, err = time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", fromStr)
		}
	}
	if toStr != "" {
		to, err = time.Parse(time.DateOnly, toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", toStr)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", toStr, fromStr)
	}
	return from, to, nil
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient(webhook.WithLogger(slog.Default()))
	client.Notify(ctx, report, webhooks)
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)

	// Add config file webhooks
	webhooks = append(webhooks, cfg.Webhooks...)

	// Add CLI webhook if specified
	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnMessages
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// natsConfig applies the NATS flags over the config file settings.
func natsConfig(cfg *config.Config, opts *AnalyzeOptions) config.NATSConfig {
	nc := cfg.NATS
	if opts.NATSURL != "" {
		nc.URL = opts.NATSURL
	}
	if opts.NATSSubject != "" {
		nc.Subject = opts.NATSSubject
	}
	return nc
}

// publishReport publishes the report to NATS when a server is configured.
func publishReport(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	nc := natsConfig(cfg, opts)
	if !nc.Enabled() {
		return
	}

	client, err := publish.NewClient(ctx, nc, slog.Default())
	if err != nil {
		slog.Warn("nats unavailable", "url", nc.URL, "error", err)
		return
	}
	defer client.Close()

	if err := client.PublishReport(report); err != nil {
		slog.Warn("publish report failed", "subject", client.Subject(), "error", err)
	}
}
