package models

import (
	"strings"
)

// Notebook is the primary organizational entity: a container for sources, notes, insights and podcasts.
type Notebook struct {
	ID            string    `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description" yaml:"description"`
	SourcesCount  int       `json:"sourcesCount" yaml:"sources_count"`
	NotesCount    int       `json:"notesCount" yaml:"notes_count"`
	InsightsCount int       `json:"insightsCount" yaml:"insights_count"`
	PodcastsCount int       `json:"podcastsCount" yaml:"podcasts_count"`
	Archived      bool      `json:"archived" yaml:"archived"`
	Created       Timestamp `json:"created,omitzero" yaml:"created,omitempty"`
	Updated       Timestamp `json:"updated" yaml:"updated"`
}

// NotebookInput is the request body for creating a notebook.
type NotebookInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Normalize trims surrounding whitespace from both fields.
func (in NotebookInput) Normalize() NotebookInput {
	return NotebookInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// NotebookPatch is a partial update. Nil fields are omitted from the request body.
type NotebookPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p NotebookPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Archived == nil
}

// Stats are the dashboard counters computed from a notebook collection.
type Stats struct {
	ActiveNotebooks   int `json:"activeNotebooks" yaml:"active_notebooks"`
	TotalSources      int `json:"totalSources" yaml:"total_sources"`
	AIInsights        int `json:"aiInsights" yaml:"ai_insights"`
	PodcastsGenerated int `json:"podcastsGenerated" yaml:"podcasts_generated"`
}

var notebookIcons = []string{"🧠", "🌍", "💼", "🔬", "📊", "🎯", "💡", "🚀"}

// Icon picks a stable decorative icon for a notebook from the length of its name.
func (n Notebook) Icon() string {
	return notebookIcons[len([]rune(n.Name))%len(notebookIcons)]
}

// DisplayDescription returns the description or a placeholder when it's blank.
func (n Notebook) DisplayDescription() string {
	if strings.TrimSpace(n.Description) == "" {
		return "No description provided"
	}
	return n.Description
}

// Ptr returns a pointer to v, for building a [NotebookPatch].
func Ptr[T any](v T) *T {
	return &v
}
