package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nbx/internal/models"
)

const nameLimit = 120

// notebookForm collects a name and a description for create and edit.
type notebookForm struct {
	name        textinput.Model
	description textarea.Model
	focusDesc   bool
	err         string
}

func newNotebookForm(width int) notebookForm {
	name := textinput.New()
	name.Placeholder = "Notebook name"
	name.CharLimit = nameLimit
	name.Prompt = "› "

	desc := textarea.New()
	desc.Placeholder = "What is this notebook about?"
	desc.ShowLineNumbers = false
	desc.SetHeight(4)

	if width > 8 {
		name.Width = width - 8
		desc.SetWidth(width - 8)
	}

	name.Focus()
	return notebookForm{name: name, description: desc}
}

// fill loads an existing notebook for editing.
func (f *notebookForm) fill(nb models.Notebook) {
	f.name.SetValue(nb.Name)
	f.description.SetValue(nb.Description)
}

func (f *notebookForm) toggleFocus() tea.Cmd {
	f.focusDesc = !f.focusDesc
	if f.focusDesc {
		f.name.Blur()
		return f.description.Focus()
	}
	f.description.Blur()
	return f.name.Focus()
}

// validate reports the inline message for a blank name.
func (f *notebookForm) validate() bool {
	if strings.TrimSpace(f.name.Value()) == "" {
		f.err = "Notebook name is required"
		return false
	}
	f.err = ""
	return true
}

func (f *notebookForm) input() models.NotebookInput {
	return models.NotebookInput{Name: f.name.Value(), Description: f.description.Value()}.Normalize()
}

func (f *notebookForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focusDesc {
		f.description, cmd = f.description.Update(msg)
	} else {
		f.name, cmd = f.name.Update(msg)
	}
	return cmd
}

func (f notebookForm) view() string {
	var b strings.Builder
	b.WriteString(styles.label.Render("Name"))
	b.WriteString("\n")
	b.WriteString(f.name.View())
	b.WriteString("\n\n")
	b.WriteString(styles.label.Render("Description"))
	b.WriteString("\n")
	b.WriteString(f.description.View())
	if f.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.error.Render(f.err))
	}
	return b.String()
}
