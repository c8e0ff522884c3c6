package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ApplyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}

	cfg := DefaultConfig()
	cfg.ApplyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if err := validateDateFormat(&cfg.DateFormat); err != nil {
		return fmt.Errorf("date_format: %w", err)
	}

	if err := validateStats(&cfg.Stats); err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	if err := validateNATS(&cfg.NATS); err != nil {
		return fmt.Errorf("nats: %w", err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.MaxUploadBytes < 0 {
		return errors.New("server: max_upload_bytes must be >= 0")
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUpload
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "":
		cfg.LogLevel = DefaultLogLevel
	case "debug", "info", "warn", "error":
		cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	default:
		return fmt.Errorf("log_level: invalid level %q (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	return nil
}

// ParserOptions returns the parser options described by the date format.
func (c *Config) ParserOptions() []parser.Option {
	return []parser.Option{
		parser.WithPrimaryLayout(c.DateFormat.Primary),
		parser.WithFallbackLayouts(c.DateFormat.Fallback),
	}
}

// ParseKey returns the store key for text parsed with this date format.
func (c *Config) ParseKey(text string) string {
	return parser.CacheKey(text, c.DateFormat.Primary, c.DateFormat.Fallback)
}

func validateDateFormat(df *DateFormat) error {
	if df.Primary == "" {
		return errors.New("primary is required")
	}
	if err := validateLayout(df.Primary); err != nil {
		return fmt.Errorf("primary: %w", err)
	}

	if len(df.Fallback) == 0 {
		df.Fallback = parser.DefaultFallbackLayouts()
	}
	for i, layout := range df.Fallback {
		if err := validateLayout(layout); err != nil {
			return fmt.Errorf("fallback[%d]: %w", i, err)
		}
	}

	return nil
}

// validateLayout checks that a layout round-trips a date, which requires
// day, month and year elements.
func validateLayout(layout string) error {
	ref := time.Date(2023, time.November, 24, 0, 0, 0, 0, time.UTC)
	parsed, err := time.Parse(layout, ref.Format(layout))
	if err != nil {
		return fmt.Errorf("invalid layout %q: %w", layout, err)
	}
	if !parsed.Equal(ref) {
		return fmt.Errorf("layout %q must contain day, month, and year", layout)
	}
	return nil
}

func validateStats(s *StatsConfig) error {
	if s.MaxWords < 0 {
		return errors.New("max_words must be >= 0")
	}
	if s.MaxWords == 0 {
		s.MaxWords = DefaultMaxWords
	}
	if s.TopEmojis < 0 {
		return errors.New("top_emojis must be >= 0")
	}
	if s.TopEmojis == 0 {
		s.TopEmojis = DefaultTopEmojis
	}
	if len(s.MediaPlaceholders) == 0 {
		s.MediaPlaceholders = DefaultMediaPlaceholders()
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnMessages
	case WebhookTriggerOnMessages, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_messages, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateNATS(n *NATSConfig) error {
	n.Token = expandEnvVar(n.Token)
	if n.Subject == "" {
		n.Subject = DefaultNATSSubject
	}
	if strings.ContainsAny(n.Subject, " \t*>") {
		return fmt.Errorf("invalid subject %q (no spaces or wildcards)", n.Subject)
	}
	if n.URL == "" {
		return nil
	}

	u, err := url.Parse(n.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("url scheme must be nats, tls, ws, or wss, got %q", u.Scheme)
	}
	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
