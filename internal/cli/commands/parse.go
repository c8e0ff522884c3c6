package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/output"
	"github.com/ccollicutt/chatstat/pkg/parser"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Stats bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <transcript>",
		Short: "Print parsed messages as JSON lines",
		Long: `Parse a transcript and print one JSON object per message.

Each line holds date (YYYY-MM-DD), time, author (null for system
messages) and body.

Example:
  chatstat parse chat.txt
  chatstat parse chat.txt | jq 'select(.author == "Ana")'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "Print parse statistics to stderr")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *ParseOptions) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	text, err := parser.ReadTranscript(ctx, path)
	if err != nil {
		return err
	}

	parsed := parser.ParseDetailed(text, cfg.ParserOptions()...)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	for _, rec := range parsed.Records {
		if err := encoder.Encode(output.NewRecordView(rec)); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	if opts.Stats {
		s := parsed.Stats
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
			"lines=%d messages=%d continuations=%d orphans=%d dropped=%d dates=%s\n",
			s.Lines, s.MessageStarts, s.Continuations, s.Orphans, s.Dropped, s.DateStrategy)
	}

	if len(parsed.Records) == 0 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), errNoMessages)
		ExitCode = ExitNoMessages
		return nil
	}

	ExitCode = ExitOK
	return nil
}
