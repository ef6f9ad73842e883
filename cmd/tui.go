package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive notebook dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	if err := r.connect(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Session:     r.session,
		Store:       r.store,
		WebURL:      r.config.Web.URL,
		RecentLimit: r.recentLimit(),
		OpenBrowser: r.openBrowser,
		Now:         r.now,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
