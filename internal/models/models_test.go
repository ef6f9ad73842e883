package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimestamp(t *testing.T) {
	t.Run("ParseTimestamp", func(t *testing.T) {
		want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
		tc := []struct {
			name  string
			input string
		}{
			{name: "RFC3339", input: "2024-05-01T12:30:00Z"},
			{name: "RFC3339 With Offset", input: "2024-05-01T14:30:00+02:00"},
			{name: "No Zone", input: "2024-05-01T12:30:00"},
			{name: "Space Separated", input: "2024-05-01 12:30:00"},
			{name: "Fractional Seconds", input: "2024-05-01 12:30:00.000000"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseTimestamp(tt.input)
				if err != nil {
					t.Fatalf("ParseTimestamp(%q) error: %v", tt.input, err)
				}
				if !got.Equal(want) {
					t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got.Time, want)
				}
			})
		}

		t.Run("Empty Is Zero", func(t *testing.T) {
			got, err := ParseTimestamp("  ")
			if err != nil || !got.IsZero() {
				t.Errorf("expected zero timestamp without error, got %v, %v", got, err)
			}
		})

		t.Run("Garbage", func(t *testing.T) {
			if _, err := ParseTimestamp("yesterday"); err == nil {
				t.Error("expected error for unrecognized input")
			}
		})
	})

	t.Run("JSON", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`null`), &ts); err != nil || !ts.IsZero() {
			t.Errorf("expected null to decode to zero, got %v, %v", ts, err)
		}
		if err := json.Unmarshal([]byte(`42`), &ts); err == nil {
			t.Error("expected error for non-string timestamp")
		}

		in := NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `"2024-01-02T03:04:05Z"` {
			t.Errorf("unexpected encoding %s", data)
		}
	})
}

func TestNotebook(t *testing.T) {
	t.Run("Decode API Payload", func(t *testing.T) {
		payload := `{
			"id": "notebook:1",
			"name": "Research",
			"description": "Papers",
			"sourcesCount": 3,
			"insightsCount": 2,
			"archived": false,
			"updated": "2024-05-01 12:30:00"
		}`

		var nb Notebook
		if err := json.Unmarshal([]byte(payload), &nb); err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		if nb.ID != "notebook:1" || nb.Name != "Research" {
			t.Errorf("unexpected identity fields: %+v", nb)
		}
		if nb.SourcesCount != 3 || nb.InsightsCount != 2 {
			t.Errorf("unexpected counts: %+v", nb)
		}
		if nb.NotesCount != 0 || nb.PodcastsCount != 0 {
			t.Errorf("missing counts should decode as zero: %+v", nb)
		}
		if nb.Updated.IsZero() {
			t.Error("expected updated timestamp to be parsed")
		}
		if !nb.Created.IsZero() {
			t.Error("expected created to be zero when absent")
		}
	})

	t.Run("Encode Omits Zero Created", func(t *testing.T) {
		data, err := json.Marshal(Notebook{ID: "a", Name: "A"})
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if strings.Contains(string(data), `"created"`) {
			t.Errorf("expected created to be omitted, got %s", data)
		}
		if !strings.Contains(string(data), `"sourcesCount":0`) {
			t.Errorf("expected camelCase counts, got %s", data)
		}
	})

	t.Run("Icon", func(t *testing.T) {
		if got := (Notebook{Name: "AI"}).Icon(); got != "💼" {
			t.Errorf("expected icon for length 2 to be 💼, got %s", got)
		}
		if got := (Notebook{Name: "Research"}).Icon(); got != "🧠" {
			t.Errorf("expected icon for length 8 to wrap to 🧠, got %s", got)
		}
	})

	t.Run("DisplayDescription", func(t *testing.T) {
		if got := (Notebook{Description: "  "}).DisplayDescription(); got != "No description provided" {
			t.Errorf("unexpected placeholder %q", got)
		}
		if got := (Notebook{Description: "x"}).DisplayDescription(); got != "x" {
			t.Errorf("unexpected description %q", got)
		}
	})
}

func TestNotebookInputAndPatch(t *testing.T) {
	in := NotebookInput{Name: "  Name ", Description: "\tdesc\n"}.Normalize()
	if in.Name != "Name" || in.Description != "desc" {
		t.Errorf("expected trimmed input, got %+v", in)
	}

	if !(NotebookPatch{}).IsEmpty() {
		t.Error("expected zero patch to be empty")
	}

	patch := NotebookPatch{Name: Ptr("X")}
	data, _ := json.Marshal(patch)
	if string(data) != `{"name":"X"}` {
		t.Errorf("expected only name in patch body, got %s", data)
	}

	archived := NotebookPatch{Archived: Ptr(false)}
	data, _ = json.Marshal(archived)
	if string(data) != `{"archived":false}` {
		t.Errorf("expected explicit false to be sent, got %s", data)
	}
}
