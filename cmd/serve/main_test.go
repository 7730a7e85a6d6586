package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dsn string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triage.yaml")
	body := "store:\n  dsn: " + dsn + "\n  table: disaster_messages\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"-no-such-flag"}, &stderr); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestRunMissingConfig(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stderr)
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "config:") {
		t.Errorf("stderr should report the config error, got %q", stderr.String())
	}
}

func TestRunMissingTableReturnsError(t *testing.T) {
	cfg := writeConfig(t, filepath.Join(t.TempDir(), "empty.db"))

	var stderr bytes.Buffer
	if code := run([]string{"-config", cfg, "-addr", "127.0.0.1:0"}, &stderr); code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
}
