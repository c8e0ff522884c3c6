package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
transcripts:
  - chats/*.txt
date_format:
  primary: "1/2/2006"
  fallback: ["2/1/2006"]
stats:
  stopwords: [jaja, jeje]
  max_words: 50
  drop_system_messages: true
webhooks:
  - name: team
    url: https://example.com/hook
    timeout: 30s
nats:
  url: nats://localhost:4222
store:
  path: cache.sqlite
log_level: DEBUG
`
	path := writeTempFile(t, "config.yaml", content)

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Transcripts) != 1 {
		t.Errorf("Transcripts = %d, want 1", len(cfg.Transcripts))
	}
	if cfg.DateFormat.Primary != "1/2/2006" {
		t.Errorf("Primary = %q, want %q", cfg.DateFormat.Primary, "1/2/2006")
	}
	if len(cfg.DateFormat.Fallback) != 1 {
		t.Errorf("Fallback = %v, want 1 layout", cfg.DateFormat.Fallback)
	}
	if cfg.Stats.MaxWords != 50 {
		t.Errorf("MaxWords = %d, want 50", cfg.Stats.MaxWords)
	}
	if cfg.Stats.TopEmojis != DefaultTopEmojis {
		t.Errorf("TopEmojis = %d, want default %d", cfg.Stats.TopEmojis, DefaultTopEmojis)
	}
	if !cfg.Stats.DropSystemMessages {
		t.Error("DropSystemMessages = false, want true")
	}
	if len(cfg.Stats.MediaPlaceholders) != 2 {
		t.Errorf("MediaPlaceholders = %v, want defaults", cfg.Stats.MediaPlaceholders)
	}
	if cfg.Webhooks[0].Timeout != 30*time.Second {
		t.Errorf("Webhook timeout = %v, want 30s", cfg.Webhooks[0].Timeout)
	}
	if cfg.Webhooks[0].Trigger != WebhookTriggerOnMessages {
		t.Errorf("Webhook trigger = %q, want on_messages", cfg.Webhooks[0].Trigger)
	}
	if cfg.NATS.Subject != DefaultNATSSubject {
		t.Errorf("NATS subject = %q, want %q", cfg.NATS.Subject, DefaultNATSSubject)
	}
	if !cfg.NATS.Enabled() {
		t.Error("NATS.Enabled() = false, want true")
	}
	if cfg.Store.Path != "cache.sqlite" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeTempFile(t, "empty.yaml", "")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DateFormat.Primary != "2/1/2006" {
		t.Errorf("Primary = %q, want default", cfg.DateFormat.Primary)
	}
	if cfg.Stats.MaxWords != DefaultMaxWords {
		t.Errorf("MaxWords = %d, want %d", cfg.Stats.MaxWords, DefaultMaxWords)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)

	_, err := Load(context.Background(), path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoadOrDefault_NoPath(t *testing.T) {
	cfg, err := LoadOrDefault(context.Background(), "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.DateFormat.Primary == "" {
		t.Error("LoadOrDefault() returned empty primary layout")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvTranscripts, "a.txt, b.txt,")
	t.Setenv(EnvDateLayout, "1/2/06")
	t.Setenv(EnvStorePath, "/tmp/env.sqlite")
	t.Setenv(EnvNATSURL, "nats://env:4222")
	t.Setenv(EnvLogLevel, "warn")

	path := writeTempFile(t, "config.yaml", "store:\n  path: file.sqlite\n")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Transcripts) != 2 || cfg.Transcripts[1] != "b.txt" {
		t.Errorf("Transcripts = %v, want [a.txt b.txt]", cfg.Transcripts)
	}
	if cfg.DateFormat.Primary != "1/2/06" {
		t.Errorf("Primary = %q, want env override", cfg.DateFormat.Primary)
	}
	if cfg.Store.Path != "/tmp/env.sqlite" {
		t.Errorf("Store.Path = %q, want env override", cfg.Store.Path)
	}
	if cfg.NATS.URL != "nats://env:4222" {
		t.Errorf("NATS.URL = %q, want env override", cfg.NATS.URL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestValidate_DateFormat(t *testing.T) {
	tests := []struct {
		name     string
		primary  string
		fallback []string
		wantErr  bool
	}{
		{"default day first", "2/1/2006", nil, false},
		{"padded layout", "02/01/2006", []string{"01/02/06"}, false},
		{"empty primary", "", nil, true},
		{"year only", "2006", nil, true},
		{"missing day", "01/2006", nil, true},
		{"bad fallback", "2/1/2006", []string{"nonsense"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DateFormat = DateFormat{Primary: tt.primary, Fallback: tt.fallback}

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_EmptyFallbackGetsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DateFormat.Fallback = nil

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(cfg.DateFormat.Fallback) == 0 {
		t.Error("Fallback not defaulted")
	}
}

func TestValidate_Stats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stats.MaxWords = -1
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for negative max_words")
	}

	cfg = DefaultConfig()
	cfg.Stats.TopEmojis = -5
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for negative top_emojis")
	}
}

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{"valid https", WebhookConfig{URL: "https://example.com/hook"}, false},
		{"valid http with trigger", WebhookConfig{URL: "http://localhost:9000", Trigger: WebhookTriggerAlways}, false},
		{"missing url", WebhookConfig{Name: "x"}, true},
		{"bad scheme", WebhookConfig{URL: "ftp://example.com"}, true},
		{"no host", WebhookConfig{URL: "https://"}, true},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "sometimes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.Webhooks[0].Timeout != DefaultWebhookTimeout {
				t.Errorf("Timeout = %v, want default", cfg.Webhooks[0].Timeout)
			}
		})
	}
}

func TestValidate_WebhookTokenFromEnv(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")

	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com", Token: "${HOOK_TOKEN}"}}

	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Webhooks[0].Token != "s3cret" {
		t.Errorf("Token = %q, want expanded value", cfg.Webhooks[0].Token)
	}
}

func TestValidate_NATS(t *testing.T) {
	tests := []struct {
		name    string
		nats    NATSConfig
		wantErr bool
	}{
		{"disabled", NATSConfig{}, false},
		{"valid", NATSConfig{URL: "nats://localhost:4222", Subject: "chat.reports"}, false},
		{"tls", NATSConfig{URL: "tls://nats.example.com:4222"}, false},
		{"bad scheme", NATSConfig{URL: "http://localhost:4222"}, true},
		{"wildcard subject", NATSConfig{URL: "nats://localhost:4222", Subject: "chat.>"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.NATS = tt.nats

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Error("Validate() expected error for invalid log level")
	}
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("CHATSTAT_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"literal", "literal"},
		{"$CHATSTAT_TEST_VAR", "value"},
		{"${CHATSTAT_TEST_VAR}", "value"},
		{"${CHATSTAT_MISSING_VAR}", ""},
	}

	for _, tt := range tests {
		if got := expandEnvVar(tt.in); got != tt.want {
			t.Errorf("expandEnvVar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParserOptions(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.ParserOptions()); got != 2 {
		t.Errorf("len(ParserOptions()) = %d, want 2", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestParseKey(t *testing.T) {
	const text = "01/02/2023, 10:00 - Ana: hi\n"
	base := DefaultConfig().ParseKey(text)

	tests := []struct {
		name   string
		modify func(*Config)
		same   bool
	}{
		{"unchanged", func(*Config) {}, true},
		{"primary layout", func(c *Config) { c.DateFormat.Primary = "1/2/2006" }, false},
		{"fallback layouts", func(c *Config) { c.DateFormat.Fallback = []string{"2006-01-02"} }, false},
		{"unrelated setting", func(c *Config) { c.LogLevel = "debug" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if got := cfg.ParseKey(text) == base; got != tt.same {
				t.Errorf("ParseKey() equal to default = %v, want %v", got, tt.same)
			}
		})
	}
}
