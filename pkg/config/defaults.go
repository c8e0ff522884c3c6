package config

import (
	"os"
	"strings"
	"time"

	"github.com/ccollicutt/chatstat/pkg/parser"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultMaxWords       = 150
	DefaultTopEmojis      = 10
	DefaultNATSSubject    = "chatstat.reports"
	DefaultServerAddr     = ":8080"
	DefaultMaxUpload      = 32 << 20
	DefaultLogLevel       = "info"
)

// Environment variable names.
const (
	EnvTranscripts = "CHATSTAT_TRANSCRIPTS"
	EnvDateLayout  = "CHATSTAT_DATE_LAYOUT"
	EnvStorePath   = "CHATSTAT_STORE_PATH"
	EnvNATSURL     = "CHATSTAT_NATS_URL"
	EnvLogLevel    = "CHATSTAT_LOG_LEVEL"
)

// DefaultMediaPlaceholders returns the bodies exports use for omitted media.
func DefaultMediaPlaceholders() []string {
	return []string{"<Multimedia omitido>", "<Media omitted>"}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DateFormat: DateFormat{
			Primary:  parser.DefaultPrimaryLayout,
			Fallback: parser.DefaultFallbackLayouts(),
		},
		Stats: StatsConfig{
			MediaPlaceholders: DefaultMediaPlaceholders(),
			MaxWords:          DefaultMaxWords,
			TopEmojis:         DefaultTopEmojis,
		},
		NATS: NATSConfig{
			Subject: DefaultNATSSubject,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: DefaultMaxUpload,
		},
		LogLevel: DefaultLogLevel,
	}
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvironmentOverrides() {
	if v := os.Getenv(EnvTranscripts); v != "" {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		c.Transcripts = paths
	}
	if v := os.Getenv(EnvDateLayout); v != "" {
		c.DateFormat.Primary = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}
