// Package config provides configuration loading and validation for chatstat.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	Transcripts []string        `yaml:"transcripts,omitempty"`
	DateFormat  DateFormat      `yaml:"date_format"`
	Stats       StatsConfig     `yaml:"stats"`
	Webhooks    []WebhookConfig `yaml:"webhooks,omitempty"`
	NATS        NATSConfig      `yaml:"nats,omitempty"`
	Store       StoreConfig     `yaml:"store,omitempty"`
	Server      ServerConfig    `yaml:"server,omitempty"`
	LogLevel    string          `yaml:"log_level,omitempty"`
}

// DateFormat defines how the date token of a message is interpreted.
type DateFormat struct {
	// Primary is the Go time layout every date is tried with first.
	// See https://pkg.go.dev/time#pkg-constants for format.
	Primary string `yaml:"primary"`

	// Fallback layouts are used for the whole transcript when any date
	// fails the primary layout. The first layout that parses wins.
	Fallback []string `yaml:"fallback,omitempty"`
}

// StatsConfig controls statistics collection.
type StatsConfig struct {
	// MediaPlaceholders are message bodies that stand for omitted media.
	MediaPlaceholders []string `yaml:"media_placeholders,omitempty"`

	// Stopwords are added to the built-in stopword list.
	Stopwords []string `yaml:"stopwords,omitempty"`

	// MaxWords caps the word-frequency list.
	MaxWords int `yaml:"max_words,omitempty"`

	// TopEmojis caps the emoji frequency list.
	TopEmojis int `yaml:"top_emojis,omitempty"`

	// DropSystemMessages removes authorless records before analysis.
	DropSystemMessages bool `yaml:"drop_system_messages,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnMessages fires only when the transcript had messages (default).
	WebhookTriggerOnMessages WebhookTrigger = "on_messages"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_messages" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// NATSConfig defines where reports are published. Publishing is disabled
// when URL is empty.
type NATSConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Token   string `yaml:"token,omitempty"`
}

// Enabled returns true if a NATS server is configured.
func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

// StoreConfig defines the SQLite parse cache. Disabled when Path is empty.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Addr           string `yaml:"addr,omitempty"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes,omitempty"`
}
