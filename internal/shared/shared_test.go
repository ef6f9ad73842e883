package shared

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key/value pair, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger Creates Parent Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "nbx.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("written to file")

		if got := mustRead(t, path); !strings.Contains(got, "written to file") {
			t.Errorf("expected file to contain log line, got %q", got)
		}
	})

	t.Run("SetLogLevel Filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestParseLevel(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    log.Level
		wantErr bool
	}{
		{name: "empty defaults to info", input: "", want: log.InfoLevel},
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "mixed case", input: "WARN", want: log.WarnLevel},
		{name: "unknown", input: "chatty", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Errorf("expected unique ids, got %s twice", a)
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestBrowser(t *testing.T) {
	t.Run("NotebookURL", func(t *testing.T) {
		got, err := NotebookURL("http://localhost:8502/", "notebook:abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "http://localhost:8502/notebooks/notebook:abc" {
			t.Errorf("unexpected url %s", got)
		}
	})

	t.Run("NotebookURL Requires ID", func(t *testing.T) {
		if _, err := NotebookURL("http://localhost:8502", "  "); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("NotebookURL Rejects Relative Base", func(t *testing.T) {
		if _, err := NotebookURL("localhost", "id"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("OpenBrowser", func(t *testing.T) {
		origRuntime, origStart := getRuntime, startCommand
		defer func() { getRuntime, startCommand = origRuntime, origStart }()

		var started *exec.Cmd
		startCommand = func(cmd *exec.Cmd) error {
			started = cmd
			return nil
		}

		getRuntime = func() string { return "linux" }
		if err := OpenBrowser("http://example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if started == nil || started.Args[0] != "xdg-open" {
			t.Errorf("expected xdg-open to be started, got %+v", started)
		}

		getRuntime = func() string { return "plan9" }
		if err := OpenBrowser("http://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(b)
}
