package cmd

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout redirects stdout while fn runs and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	outputChan := make(chan string)
	go func() {
		data, _ := io.ReadAll(r)
		outputChan <- string(data)
	}()

	fn()

	w.Close()
	os.Stdout = oldStdout
	return <-outputChan
}

func TestVersionCommand(t *testing.T) {
	output := captureStdout(t, func() {
		VersionCmd.Run(VersionCmd, nil)
	})

	if !strings.HasPrefix(output, "pgsync v") {
		t.Errorf("expected version output to start with 'pgsync v', got: %s", output)
	}

	versionPart := strings.TrimSpace(strings.TrimPrefix(output, "pgsync v"))
	if len(versionPart) == 0 {
		t.Error("expected version information after 'pgsync v', got empty string")
	}
}

func TestVersionCommandRegistered(t *testing.T) {
	for _, c := range RootCmd.Commands() {
		if c.Name() == "version" {
			if c.Short != "Show version information" {
				t.Errorf("unexpected short description: %s", c.Short)
			}
			return
		}
	}
	t.Error("expected the version command to be registered on the root command")
}
