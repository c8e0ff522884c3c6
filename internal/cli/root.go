// Package cli provides the command-line interface for chatstat.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand())
}

func run(rootCmd *cobra.Command) int {
	commands.ExitCode = commands.ExitOK
	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var configPath, logLevel string

	rootCmd := &cobra.Command{
		Use:   "chatstat",
		Short: "Statistics for exported chat transcripts",
		Long: `chatstat parses exported chat transcripts and reports who talks,
when, and about what.

It reports:
  - Message, media, emoji and link counts
  - Messages per author
  - Activity by hour of day and day of week
  - The most frequent words, ready for a word cloud

Reports can be printed as text or JSON, posted to webhooks, published
to NATS, and served over HTTP with 'chatstat serve'.

Exit codes:
  0 - Success
  1 - No valid messages found
  2 - Configuration or runtime error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(commands.NewLogger(cmd.ErrOrStderr(), logLevel, false))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, commands.FlagConfig, "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, commands.FlagLogLevel, "", "Log level (debug|info|warn|error), overrides the config file")

	// Add subcommands
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
