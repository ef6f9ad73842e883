package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	th "github.com/desertthunder/nbx/internal/testing"
	"gopkg.in/yaml.v3"
)

func fixtures() []models.Notebook {
	active := th.Notebook("nb1", 1, false)
	active.Name = "Research"
	active.Description = "Papers, with | pipes"

	archived := th.Notebook("nb2", 2, true)
	archived.Name = "Old"
	archived.Description = ""
	return []models.Notebook{active, archived}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatTable},
		{"table", FormatTable},
		{"JSON", FormatJSON},
		{" yaml ", FormatYAML},
		{"csv", FormatCSV},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseFormat("xml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	now := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(fixtures())
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Name,Description,Sources,Notes,Insights,Podcasts,Archived,Updated" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[1][2] != "Papers, with | pipes" {
			t.Errorf("expected description to round trip, got %q", records[1][2])
		}
		if records[2][7] != "true" {
			t.Errorf("expected archived flag, got %q", records[2][7])
		}
		if records[1][8] != "2024-01-01T01:00:00Z" {
			t.Errorf("expected RFC 3339 updated time, got %q", records[1][8])
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		data, err := ToMarkdown(fixtures(), "Notebooks")
		if err != nil {
			t.Fatalf("ToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "# Notebooks\n") {
			t.Errorf("Markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Notebooks**: 2 (1 active)") {
			t.Errorf("Markdown missing summary")
		}
		if !strings.Contains(output, `Papers, with \| pipes`) {
			t.Errorf("Markdown should escape pipes in cells")
		}
		if !strings.Contains(output, "Old _(archived)_") {
			t.Errorf("Markdown should mark archived notebooks")
		}
	})

	t.Run("ToMarkdown Empty", func(t *testing.T) {
		data, _ := ToMarkdown(nil, "Notebooks")
		if strings.Contains(string(data), "|") {
			t.Errorf("expected no table for empty collection, got %s", data)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(fixtures())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded []models.Notebook
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Name != "Research" || !decoded[1].Archived {
			t.Errorf("unexpected decoded notebooks %+v", decoded)
		}
		if !strings.Contains(string(data), `"sourcesCount"`) {
			t.Errorf("expected camelCase keys, got %s", data)
		}
	})

	t.Run("ToYAML", func(t *testing.T) {
		data, err := ToYAML(fixtures())
		if err != nil {
			t.Fatalf("ToYAML failed: %v", err)
		}

		var decoded []map[string]any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid YAML: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 documents, got %d", len(decoded))
		}
		if decoded[0]["sources_count"] != 1 {
			t.Errorf("expected snake_case counters, got %v", decoded[0])
		}
		if decoded[0]["updated"] != "2024-01-01T01:00:00Z" {
			t.Errorf("expected RFC 3339 timestamp, got %v", decoded[0]["updated"])
		}
		if _, ok := decoded[0]["created"]; ok {
			t.Errorf("expected zero created time to be omitted")
		}
	})

	t.Run("Table", func(t *testing.T) {
		output := Table(fixtures(), now)

		for _, want := range []string{"NAME", "Research", "Old", "No description provided", "4 hours ago"} {
			if !strings.Contains(output, want) {
				t.Errorf("table missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("Table Empty", func(t *testing.T) {
		if !strings.Contains(Table(nil, now), "No notebooks yet.") {
			t.Error("expected empty state message")
		}
	})

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notebooks.csv")
		if err := WriteFile(path, FormatCSV, fixtures(), now); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Name") {
			t.Errorf("unexpected file content %s", content)
		}
	})

	t.Run("WriteFile Bad Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.json")
		if err := WriteFile(path, FormatJSON, fixtures(), now); err == nil {
			t.Error("expected error for missing directory")
		}
		if _, err := os.Stat(path); err == nil {
			t.Error("file should not exist")
		}
	})

	t.Run("Write Unknown Format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, Format("xml"), fixtures(), now); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestDashboard(t *testing.T) {
	now := time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)
	stats := models.Stats{ActiveNotebooks: 1, TotalSources: 1200, AIInsights: 2, PodcastsGenerated: 3}

	output := Dashboard(stats, fixtures()[:1], now)

	for _, want := range []string{"Dashboard", "Active notebooks: 1", "Sources: 1,200", "Recent notebooks", "Research"} {
		if !strings.Contains(output, want) {
			t.Errorf("dashboard missing %q:\n%s", want, output)
		}
	}
}

func TestRelative(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	if got := Relative(models.Timestamp{}, now); got != "never" {
		t.Errorf("expected never, got %q", got)
	}
	if got := Relative(models.NewTimestamp(now.Add(-2*time.Hour)), now); got != "2 hours ago" {
		t.Errorf("expected 2 hours ago, got %q", got)
	}
}

func TestExtension(t *testing.T) {
	want := map[Format]string{
		FormatJSON:     ".json",
		FormatYAML:     ".yaml",
		FormatCSV:      ".csv",
		FormatMarkdown: ".md",
		FormatTable:    ".txt",
	}
	for f, ext := range want {
		if got := Extension(f); got != ext {
			t.Errorf("Extension(%s) = %q, want %q", f, got, ext)
		}
	}
}
