package parser

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single transcript line.
const maxLineSize = 16 * 1024 * 1024

// ParseReader parses a transcript from r line by line.
// Only read errors and context cancellation are returned.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	a := NewAssembler()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	first := true
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		a.Feed(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	return a.Finish(opts...), nil
}

// ReadTranscript reads a whole transcript file into memory.
// A leading byte order mark is removed.
func ReadTranscript(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return "", fmt.Errorf("reading transcript %s: %w", path, err)
	}

	return strings.TrimPrefix(string(data), bom), nil
}

// ReadTranscripts reads several transcripts and joins them in path order.
func ReadTranscripts(ctx context.Context, paths []string) (string, error) {
	var sb strings.Builder
	for _, path := range paths {
		text, err := ReadTranscript(ctx, path)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// ContentHash returns the hex SHA-256 of a transcript, used as a cache key.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CacheKey identifies a parse result: the transcript text together with the
// date layouts it is read with. Changing either gives a different key.
func CacheKey(text, primary string, fallback []string) string {
	return ContentHash(text + "\x00" + primary + "\x00" + strings.Join(fallback, ","))
}
