// Package publish announces finished chat reports on a NATS subject.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/output"
)

// EventReportCreated is the event name carried by every report message.
const EventReportCreated = "report.created"

// DefaultFlushTimeout bounds how long PublishReport waits for the server.
const DefaultFlushTimeout = 5 * time.Second

// Conn is the subset of *nats.Conn the client needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// ReportEvent is the message published for a report.
type ReportEvent struct {
	Event      string         `json:"event"`
	ReportID   string         `json:"report_id"`
	Sources    []string       `json:"sources,omitempty"`
	AnalyzedAt time.Time      `json:"analyzed_at"`
	Summary    output.Summary `json:"summary"`
}

// NewReportEvent builds the event for a report.
func NewReportEvent(report *output.Report) ReportEvent {
	return ReportEvent{
		Event:      EventReportCreated,
		ReportID:   report.Metadata.ID,
		Sources:    report.Metadata.Sources,
		AnalyzedAt: report.Metadata.AnalyzedAt,
		Summary:    report.Summary,
	}
}

// Client publishes report events.
type Client struct {
	conn         Conn
	subject      string
	flushTimeout time.Duration
	logger       *slog.Logger
}

// NewClient connects to the NATS server described by cfg.
func NewClient(_ context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("chatstat"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return NewClientWithConn(nc, cfg.Subject, logger), nil
}

// NewClientWithConn wraps an existing connection.
func NewClientWithConn(conn Conn, subject string, logger *slog.Logger) *Client {
	if subject == "" {
		subject = config.DefaultNATSSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:         conn,
		subject:      subject,
		flushTimeout: DefaultFlushTimeout,
		logger:       logger,
	}
}

// Subject returns the subject reports are published on.
func (c *Client) Subject() string {
	return c.subject
}

// PublishReport publishes the report event and waits for the server to
// acknowledge it.
func (c *Client) PublishReport(report *output.Report) error {
	payload, err := json.Marshal(NewReportEvent(report))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.conn.Publish(c.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", c.subject, err)
	}
	if err := c.conn.FlushTimeout(c.flushTimeout); err != nil {
		return fmt.Errorf("flush %s: %w", c.subject, err)
	}
	c.logger.Info("report published", "subject", c.subject, "report_id", report.Metadata.ID)
	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.conn.Close()
}
