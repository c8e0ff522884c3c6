package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a chatstat configuration file without running analysis.

Checks:
  - YAML syntax
  - Date layouts (must contain day, month and year)
  - Stats limits
  - Webhook URLs and triggers
  - NATS URL and subject
  - Transcript file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration valid!\n")
	_, _ = fmt.Fprintf(out, "  Transcripts: %d pattern(s)\n", len(cfg.Transcripts))
	_, _ = fmt.Fprintf(out, "  Date layout: %s (fallback: %v)\n", cfg.DateFormat.Primary, cfg.DateFormat.Fallback)
	_, _ = fmt.Fprintf(out, "  Webhooks:    %d\n", len(cfg.Webhooks))
	if cfg.NATS.Enabled() {
		_, _ = fmt.Fprintf(out, "  NATS:        %s (subject %s)\n", cfg.NATS.URL, cfg.NATS.Subject)
	}
	if cfg.Store.Path != "" {
		_, _ = fmt.Fprintf(out, "  Store:       %s\n", cfg.Store.Path)
	}

	if len(cfg.Transcripts) == 0 {
		_, _ = fmt.Fprintf(out, "\nNo transcripts configured; pass them to analyze as arguments.\n")
		return nil
	}

	// Missing transcripts are warnings only
	files, err := parser.ExpandGlobs(cfg.Transcripts)
	if err != nil {
		_, _ = fmt.Fprintf(out, "\nWarning: Error expanding transcript patterns: %v\n", err)
	} else if len(files) == 0 {
		_, _ = fmt.Fprintf(out, "\nWarning: No files match transcript patterns\n")
	} else {
		_, _ = fmt.Fprintf(out, "\nTranscripts matched: %d\n", len(files))
		for _, f := range files {
			_, _ = fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}
