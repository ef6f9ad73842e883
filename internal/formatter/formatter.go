// package formatter renders notebook collections for the terminal and exports them to JSON, YAML, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Format is an output format accepted by --format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatCSV, FormatMarkdown}

const descriptionWidth = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = cellStyle.Foreground(lipgloss.Color("#626262"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// ParseFormat validates a --format value. Empty input selects [FormatTable]; "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return FormatTable, nil
	case "md":
		return FormatMarkdown, nil
	}

	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, s, formatNames())
}

// Write renders notebooks to w in format f. Relative times in tables are computed against now.
func Write(w io.Writer, f Format, notebooks []models.Notebook, now time.Time) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case FormatTable, "":
		data = []byte(Table(notebooks, now) + "\n")
	case FormatJSON:
		data, err = ToJSON(notebooks)
	case FormatYAML:
		data, err = ToYAML(notebooks)
	case FormatCSV:
		data, err = ToCSV(notebooks)
	case FormatMarkdown:
		data, err = ToMarkdown(notebooks, "Notebooks")
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// WriteFile renders notebooks in format f to the file at path.
func WriteFile(path string, f Format, notebooks []models.Notebook, now time.Time) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, notebooks, now); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Table renders notebooks as a bordered terminal table.
func Table(notebooks []models.Notebook, now time.Time) string {
	if len(notebooks) == 0 {
		return mutedStyle.Render("No notebooks yet.")
	}

	rows := make([][]string, 0, len(notebooks))
	for _, nb := range notebooks {
		rows = append(rows, []string{
			nb.ID,
			nb.Icon() + " " + nb.Name,
			truncate(nb.DisplayDescription(), descriptionWidth),
			strconv.Itoa(nb.SourcesCount),
			strconv.Itoa(nb.NotesCount),
			strconv.Itoa(nb.InsightsCount),
			strconv.Itoa(nb.PodcastsCount),
			yesNo(nb.Archived),
			Relative(nb.Updated, now),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "NAME", "DESCRIPTION", "SOURCES", "NOTES", "INSIGHTS", "PODCASTS", "ARCHIVED", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if notebooks[row].Archived {
				return mutedStyle
			}
			return cellStyle
		})

	return t.String()
}

// StatsLine renders dashboard counters on one line.
func StatsLine(s models.Stats) string {
	return fmt.Sprintf("Active notebooks: %s  Sources: %s  AI insights: %s  Podcasts: %s",
		humanize.Comma(int64(s.ActiveNotebooks)),
		humanize.Comma(int64(s.TotalSources)),
		humanize.Comma(int64(s.AIInsights)),
		humanize.Comma(int64(s.PodcastsGenerated)),
	)
}

// Dashboard renders the stats line followed by the recent notebooks table.
func Dashboard(s models.Stats, recent []models.Notebook, now time.Time) string {
	var b strings.Builder
	b.WriteString(headerStyle.UnsetPadding().Render("Dashboard"))
	b.WriteString("\n")
	b.WriteString(StatsLine(s))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.UnsetPadding().Render("Recent notebooks"))
	b.WriteString("\n")
	b.WriteString(Table(recent, now))
	b.WriteString("\n")
	return b.String()
}

// Relative formats ts relative to now, such as "3 hours ago". The zero time renders as "never".
func Relative(ts models.Timestamp, now time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return humanize.RelTime(ts.Time, now, "ago", "from now")
}

// ToJSON renders v as indented JSON.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML renders v as YAML.
func ToYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ToCSV converts notebooks to CSV with columns: ID, Name, Description, Sources, Notes, Insights, Podcasts, Archived, Updated
func ToCSV(notebooks []models.Notebook) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Description", "Sources", "Notes", "Insights", "Podcasts", "Archived", "Updated"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, nb := range notebooks {
		record := []string{
			nb.ID,
			nb.Name,
			nb.Description,
			strconv.Itoa(nb.SourcesCount),
			strconv.Itoa(nb.NotesCount),
			strconv.Itoa(nb.InsightsCount),
			strconv.Itoa(nb.PodcastsCount),
			strconv.FormatBool(nb.Archived),
			isoTime(nb.Updated),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown converts notebooks to a Markdown document with a summary line and a table.
func ToMarkdown(notebooks []models.Notebook, title string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)

	active := 0
	for _, nb := range notebooks {
		if !nb.Archived {
			active++
		}
	}
	fmt.Fprintf(&buf, "**Notebooks**: %d (%d active)\n\n", len(notebooks), active)

	if len(notebooks) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| | Name | Description | Sources | Notes | Insights | Podcasts | Updated |\n")
	buf.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, nb := range notebooks {
		name := escapeCell(nb.Name)
		if nb.Archived {
			name += " _(archived)_"
		}
		fmt.Fprintf(&buf, "| %s | %s | %s | %d | %d | %d | %d | %s |\n",
			nb.Icon(), name, escapeCell(nb.Description),
			nb.SourcesCount, nb.NotesCount, nb.InsightsCount, nb.PodcastsCount,
			isoTime(nb.Updated),
		)
	}

	return buf.Bytes(), nil
}

func isoTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Extension returns the file extension, with the leading dot, used for exports in format f.
func Extension(f Format) string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

func formatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
