package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const sampleTranscript = `Los mensajes y llamadas están cifrados de extremo a extremo.
12/05/2023, 14:05 - Ana: Hola! 😀
12/05/2023, 14:06 - Luis: mira esto https://example.com/foto
que buena
13/05/2023, 09:00 - Ana: <Media omitted>
13/05/2023, 09:01 - Ana cambió el asunto a "Viaje"
14/05/2023, 21:30 - Luis: Nota: revisa esto: ok 😀😀
`

// writeFile creates a file under a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	ExitCode = ExitOK

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTo writes content to an exact path.
func writeTo(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
