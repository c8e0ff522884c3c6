package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTranscript = `12/05/2023, 14:05 - Los mensajes están cifrados de extremo a extremo.
12/05/2023, 14:05 - Ana: Hola
que tal
12/05/2023, 14:06 - Luis: bien, y tú?
`

func TestParseReader(t *testing.T) {
	result, err := ParseReader(context.Background(), strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}

	if len(result.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(result.Records))
	}
	if result.Records[1].Body != "Hola que tal" {
		t.Errorf("records[1].Body = %q, want %q", result.Records[1].Body, "Hola que tal")
	}
	if !result.Records[0].IsSystem() {
		t.Error("records[0] should be a system message")
	}
}

func TestParseReader_MatchesParse(t *testing.T) {
	result, err := ParseReader(context.Background(), strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}

	direct := ParseDetailed(sampleTranscript)
	if len(direct.Records) != len(result.Records) {
		t.Fatalf("ParseReader() = %d records, ParseDetailed() = %d", len(result.Records), len(direct.Records))
	}
	for i := range direct.Records {
		if direct.Records[i].Body != result.Records[i].Body {
			t.Errorf("records[%d].Body differs: %q vs %q", i, direct.Records[i].Body, result.Records[i].Body)
		}
	}
	if direct.Stats != result.Stats {
		t.Errorf("Stats differ: %+v vs %+v", direct.Stats, result.Stats)
	}
}

func TestParseReader_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseReader(ctx, strings.NewReader(sampleTranscript))
	if err != context.Canceled {
		t.Errorf("ParseReader() error = %v, want context.Canceled", err)
	}
}

func TestReadTranscript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.txt")
	if err := os.WriteFile(path, []byte("\uFEFF"+sampleTranscript), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := ReadTranscript(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadTranscript() error = %v", err)
	}
	if text != sampleTranscript {
		t.Errorf("ReadTranscript() did not strip BOM: %q", text[:10])
	}
}

func TestReadTranscript_FileNotFound(t *testing.T) {
	_, err := ReadTranscript(context.Background(), "/nonexistent/chat.txt")
	if err == nil {
		t.Error("ReadTranscript() expected error for missing file")
	}
}

func TestReadTranscripts_JoinsInOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	// No trailing newline on the first file.
	if err := os.WriteFile(a, []byte("12/05/2023, 14:05 - Ana: uno"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("13/05/2023, 10:00 - Luis: dos\n"), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := ReadTranscripts(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("ReadTranscripts() error = %v", err)
	}

	records := Parse(text)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Body != "uno" || records[1].Body != "dos" {
		t.Errorf("bodies = %q, %q", records[0].Body, records[1].Body)
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash(sampleTranscript)
	h2 := ContentHash(sampleTranscript)
	h3 := ContentHash(sampleTranscript + "x")

	if h1 != h2 {
		t.Error("ContentHash() is not deterministic")
	}
	if h1 == h3 {
		t.Error("ContentHash() collided for different input")
	}
	if len(h1) != 64 {
		t.Errorf("len(ContentHash()) = %d, want 64", len(h1))
	}
}

func TestCacheKey(t *testing.T) {
	base := CacheKey(sampleTranscript, DefaultPrimaryLayout, DefaultFallbackLayouts())

	tests := []struct {
		name     string
		text     string
		primary  string
		fallback []string
	}{
		{"text", sampleTranscript + "x", DefaultPrimaryLayout, DefaultFallbackLayouts()},
		{"primary layout", sampleTranscript, "1/2/2006", DefaultFallbackLayouts()},
		{"fallback layouts", sampleTranscript, DefaultPrimaryLayout, []string{"2006-01-02"}},
		{"layout text moved into transcript", sampleTranscript + "\x00" + DefaultPrimaryLayout, "", DefaultFallbackLayouts()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CacheKey(tt.text, tt.primary, tt.fallback); got == base {
				t.Errorf("CacheKey() unchanged when %s differs", tt.name)
			}
		})
	}

	if again := CacheKey(sampleTranscript, DefaultPrimaryLayout, DefaultFallbackLayouts()); again != base {
		t.Error("CacheKey() is not deterministic")
	}
	if base == ContentHash(sampleTranscript) {
		t.Error("CacheKey() equals ContentHash() of the bare text")
	}
}
