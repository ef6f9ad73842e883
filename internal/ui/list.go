package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
)

var _ list.DefaultItem = notebookItem{}

// notebookItem wraps [models.Notebook] to implement [list.DefaultItem].
type notebookItem struct {
	notebook models.Notebook
	now      time.Time
}

func (i notebookItem) FilterValue() string { return i.notebook.Name }

func (i notebookItem) Title() string {
	title := fmt.Sprintf("%s %s", i.notebook.Icon(), i.notebook.Name)
	if i.notebook.Archived {
		title += " (archived)"
	}
	return title
}

func (i notebookItem) Description() string {
	return fmt.Sprintf("%s • %d sources • %d notes • updated %s",
		i.notebook.DisplayDescription(),
		i.notebook.SourcesCount,
		i.notebook.NotesCount,
		formatter.Relative(i.notebook.Updated, i.now),
	)
}
