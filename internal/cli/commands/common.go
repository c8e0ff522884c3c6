package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes.
const (
	ExitOK         = 0
	ExitNoMessages = 1
	ExitError      = 2
)

// errNoMessages is reported when a transcript yields no records.
const errNoMessages = "no valid messages found"

// Global flag names shared through the root command.
const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

// NewLogger builds a slog logger writing to w. JSON selects the JSON handler.
func NewLogger(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// flagValue returns a local or inherited flag value, or "" if the flag is not defined.
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// loadConfig loads the --config file, or the defaults when none is given.
// The config's log level applies unless --log-level was set.
func loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, flagValue(cmd, FlagConfig))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flagValue(cmd, FlagLogLevel) == "" {
		slog.SetDefault(NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, false))
	}

	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
