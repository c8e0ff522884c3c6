package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatstat/internal/api"
	"github.com/ccollicutt/chatstat/pkg/publish"
	"github.com/ccollicutt/chatstat/pkg/store"
	"github.com/ccollicutt/chatstat/pkg/webhook"
)

// ServeOptions holds command-line options for the serve command.
type ServeOptions struct {
	Addr      string
	StorePath string
	NATSURL   string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transcript analysis HTTP API",
		Long: `Start an HTTP server that analyzes uploaded transcripts.

Endpoints:
  GET  /health
  POST /api/v1/transcripts                 upload a transcript, get its report
  GET  /api/v1/transcripts                 list stored transcripts
  GET  /api/v1/transcripts/{id}/records    stored records
  GET  /api/v1/transcripts/{id}/report     report for a stored transcript

The stored-transcript endpoints need a store (--store or store.path).
Logs are JSON on stderr. SIGINT or SIGTERM shuts the server down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "SQLite file for uploaded transcripts")
	cmd.Flags().StringVar(&opts.NATSURL, "nats-url", "", "NATS server to publish reports to")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	level := flagValue(cmd, FlagLogLevel)
	if level == "" {
		level = cfg.LogLevel
	}
	logger := NewLogger(cmd.ErrOrStderr(), level, true)

	addr := opts.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	serverOpts := []api.Option{
		api.WithLogger(logger),
		api.WithWebhooks(webhook.NewClient(webhook.WithLogger(logger))),
	}

	storePath := opts.StorePath
	if storePath == "" {
		storePath = cfg.Store.Path
	}
	if storePath != "" {
		st, err := store.Open(ctx, storePath)
		if err != nil {
			return err
		}
		defer st.Close()
		serverOpts = append(serverOpts, api.WithStore(st))
		logger.Info("store opened", "path", storePath)
	}

	nc := cfg.NATS
	if opts.NATSURL != "" {
		nc.URL = opts.NATSURL
	}
	if nc.Enabled() {
		pub, err := publish.NewClient(ctx, nc, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		serverOpts = append(serverOpts, api.WithPublisher(pub))
	}

	srv := api.NewServer(cfg, serverOpts...)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	ExitCode = ExitOK
	return nil
}
