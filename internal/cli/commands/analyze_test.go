package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ccollicutt/chatstat/pkg/config"
	"github.com/ccollicutt/chatstat/pkg/output"
)

func TestNewAnalyzeCommand(t *testing.T) {
	cmd := NewAnalyzeCommand()

	if cmd.Use != "analyze [transcript...]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{
		"output", "from", "to", "author", "verbose", "quiet", "store",
		"webhook-url", "webhook-token", "webhook-trigger", "nats-url", "nats-subject",
	}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestRunAnalyze_Text(t *testing.T) {
	path := writeFile(t, "chat.txt", sampleTranscript)

	stdout, _, err := execute(t, NewAnalyzeCommand(), path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if ExitCode != ExitOK {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitOK)
	}

	for _, want := range []string{
		"=== Chat Analysis Report ===",
		"[AUTHORS]",
		"Summary: 5 messages from 2 authors",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunAnalyze_JSON(t *testing.T) {
	path := writeFile(t, "chat.txt", sampleTranscript)

	stdout, _, err := execute(t, NewAnalyzeCommand(), "-o", "json", path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}

	s := report.Summary
	if s.Messages != 5 || s.Authors != 2 || s.MediaMessages != 1 || s.Links != 1 || s.Emojis != 3 {
		t.Errorf("Summary = %+v", s)
	}
	if report.Metadata.Parse.Orphans != 1 {
		t.Errorf("Orphans = %d, want 1", report.Metadata.Parse.Orphans)
	}
	if report.Metadata.Parse.Continuations != 1 {
		t.Errorf("Continuations = %d, want 1", report.Metadata.Parse.Continuations)
	}
	if report.Metadata.ContentHash == "" {
		t.Error("ContentHash is empty")
	}
	if len(report.Stats.Authors) != 2 || report.Stats.Authors[0].Name != "Ana" {
		t.Errorf("Authors = %+v, want Ana first", report.Stats.Authors)
	}
}

func TestRunAnalyze_Filters(t *testing.T) {
	path := writeFile(t, "chat.txt", sampleTranscript)

	stdout, _, err := execute(t, NewAnalyzeCommand(),
		"-o", "json", "--from", "2023-05-13", "--to", "2023-05-14", "--author", "Luis", path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Summary.Messages != 1 {
		t.Errorf("Messages = %d, want 1", report.Summary.Messages)
	}
	if report.Summary.RecordsFiltered != 4 {
		t.Errorf("RecordsFiltered = %d, want 4", report.Summary.RecordsFiltered)
	}
	if report.Metadata.DateRange == nil {
		t.Error("DateRange not set")
	}
}

func TestRunAnalyze_MultipleTranscriptsInPathOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	writeTo(t, first, "12/05/2023, 14:05 - Ana: uno")
	writeTo(t, second, "13/05/2023, 09:00 - Luis: dos\n")

	stdout, _, err := execute(t, NewAnalyzeCommand(), "-o", "json", filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Summary.Messages != 2 {
		t.Errorf("Messages = %d, want 2", report.Summary.Messages)
	}
	if len(report.Metadata.Sources) != 2 || report.Metadata.Sources[0] != first {
		t.Errorf("Sources = %v, want [%s %s]", report.Metadata.Sources, first, second)
	}
}

func TestRunAnalyze_NoMessages(t *testing.T) {
	path := writeFile(t, "notes.txt", "just some notes\nwithout any dates\n")

	stdout, stderr, err := execute(t, NewAnalyzeCommand(), path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if ExitCode != ExitNoMessages {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitNoMessages)
	}
	if !strings.Contains(stderr, "no valid messages found") {
		t.Errorf("stderr = %q", stderr)
	}
	if stdout != "" {
		t.Errorf("expected no report, got %q", stdout)
	}
}

func TestRunAnalyze_Errors(t *testing.T) {
	path := writeFile(t, "chat.txt", sampleTranscript)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no transcripts", nil, "no transcripts given"},
		{"no match", []string{filepath.Join(t.TempDir(), "*.txt")}, "reading transcript"},
		{"missing file", []string{"/nonexistent/chat.txt"}, "reading transcript"},
		{"bad output", []string{"-o", "xml", path}, "unknown output format"},
		{"bad from", []string{"--from", "12/05/2023", path}, "invalid --from"},
		{"inverted range", []string{"--from", "2023-05-14", "--to", "2023-05-12", path}, "before --from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewAnalyzeCommand(), tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunAnalyze_StoreCache(t *testing.T) {
	path := writeFile(t, "chat.txt", sampleTranscript)
	storePath := filepath.Join(t.TempDir(), "cache.sqlite")

	run := func() output.Report {
		stdout, _, err := execute(t, NewAnalyzeCommand(), "-o", "json", "--store", storePath, path)
		if err != nil {
			t.Fatalf("analyze error = %v", err)
		}
		var report output.Report
		if err := json.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		return report
	}

	first := run()
	second := run()

	if first.Metadata.TranscriptID == "" {
		t.Fatal("TranscriptID empty with --store")
	}
	if second.Metadata.TranscriptID != first.Metadata.TranscriptID {
		t.Errorf("second run id = %q, want cached %q", second.Metadata.TranscriptID, first.Metadata.TranscriptID)
	}
	if second.Summary.Messages != first.Summary.Messages {
		t.Errorf("cached Messages = %d, want %d", second.Summary.Messages, first.Summary.Messages)
	}
}

func TestParseWithCache_LayoutChange(t *testing.T) {
	text := "01/02/2023, 10:00 - Ana: hi\n"
	storePath := filepath.Join(t.TempDir(), "cache.sqlite")

	dayFirst := config.DefaultConfig()
	monthFirst := config.DefaultConfig()
	monthFirst.DateFormat.Primary = "1/2/2006"

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"day first", dayFirst, "2023-02-01"},
		{"month first", monthFirst, "2023-01-02"},
		{"day first again", dayFirst, "2023-02-01"},
	}

	ids := make([]string, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, id, err := parseWithCache(context.Background(), tt.cfg, storePath, "chat.txt", text)
			if err != nil {
				t.Fatalf("parseWithCache() error = %v", err)
			}
			if len(parsed.Records) != 1 {
				t.Fatalf("records = %d, want 1", len(parsed.Records))
			}
			if got := parsed.Records[0].Date.Format("2006-01-02"); got != tt.want {
				t.Errorf("date = %s, want %s", got, tt.want)
			}
			ids[i] = id
		})
	}

	if ids[0] == ids[1] {
		t.Errorf("layouts share transcript id %q", ids[0])
	}
	if ids[2] != ids[0] {
		t.Errorf("repeat id = %q, want cached %q", ids[2], ids[0])
	}
}

func TestRunAnalyze_Webhook(t *testing.T) {
	var received atomic.Int32
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var report output.Report
		if err := json.Unmarshal(body, &report); err == nil && report.Summary.Messages == 5 {
			received.Add(1)
		}
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeFile(t, "chat.txt", sampleTranscript)

	_, _, err := execute(t, NewAnalyzeCommand(), "-q",
		"--webhook-url", server.URL, "--webhook-token", "s3cret", path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	if received.Load() != 1 {
		t.Errorf("webhook received %d reports, want 1", received.Load())
	}
	if auth, _ := gotAuth.Load().(string); auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestRunAnalyze_WebhookFailureDoesNotFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	path := writeFile(t, "chat.txt", sampleTranscript)

	_, _, err := execute(t, NewAnalyzeCommand(), "-q", "--webhook-url", server.URL, path)
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if ExitCode != ExitOK {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitOK)
	}
}

func TestCollectWebhooks(t *testing.T) {
	t.Run("config only", func(t *testing.T) {
		cfg := &config.Config{
			Webhooks: []config.WebhookConfig{
				{Name: "slack", URL: "https://slack.com/webhook"},
				{Name: "chat", URL: "https://chat.example.com/webhook"},
			},
		}

		webhooks := collectWebhooks(cfg, &AnalyzeOptions{})

		if len(webhooks) != 2 {
			t.Errorf("got %d webhooks, want 2", len(webhooks))
		}
	})

	t.Run("cli only", func(t *testing.T) {
		opts := &AnalyzeOptions{
			WebhookURL:     "https://cli.example.com/webhook",
			WebhookToken:   "secret",
			WebhookTrigger: "always",
		}

		webhooks := collectWebhooks(&config.Config{}, opts)

		if len(webhooks) != 1 {
			t.Fatalf("got %d webhooks, want 1", len(webhooks))
		}
		if webhooks[0].Name != "cli" {
			t.Errorf("got name %q, want cli", webhooks[0].Name)
		}
		if webhooks[0].Token != "secret" {
			t.Errorf("got token %q, want secret", webhooks[0].Token)
		}
		if webhooks[0].Trigger != config.WebhookTriggerAlways {
			t.Errorf("got trigger %q, want always", webhooks[0].Trigger)
		}
	})

	t.Run("default trigger", func(t *testing.T) {
		webhooks := collectWebhooks(&config.Config{}, &AnalyzeOptions{WebhookURL: "https://example.com/webhook"})

		if len(webhooks) != 1 {
			t.Fatalf("got %d webhooks, want 1", len(webhooks))
		}
		if webhooks[0].Trigger != config.WebhookTriggerOnMessages {
			t.Errorf("got trigger %q, want on_messages", webhooks[0].Trigger)
		}
	})
}

func TestNATSConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NATS.URL = "nats://config:4222"

	tests := []struct {
		name        string
		opts        AnalyzeOptions
		wantURL     string
		wantSubject string
	}{
		{"config values", AnalyzeOptions{}, "nats://config:4222", config.DefaultNATSSubject},
		{"flag overrides", AnalyzeOptions{NATSURL: "nats://flag:4222", NATSSubject: "chat.flag"}, "nats://flag:4222", "chat.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := natsConfig(cfg, &tt.opts)
			if nc.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", nc.URL, tt.wantURL)
			}
			if nc.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", nc.Subject, tt.wantSubject)
			}
		})
	}
}

func TestParseDateFlags(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"none", "", "", false},
		{"from only", "2023-05-12", "", false},
		{"both", "2023-05-12", "2023-05-12", false},
		{"bad to", "", "2023-13-01", true},
		{"inverted", "2023-05-13", "2023-05-12", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseDateFlags(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
