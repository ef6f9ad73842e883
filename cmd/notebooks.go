package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/repositories"
	"github.com/desertthunder/nbx/internal/session"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/store"
	"github.com/desertthunder/nbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// NotebooksList prints active notebooks, or archived/all with the matching flags.
//
// With --cached the last snapshot is read from the local database and the API is not contacted.
func (r *Runner) NotebooksList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("archived") && cmd.Bool("all") {
		return fmt.Errorf("%w: --archived and --all are mutually exclusive", shared.ErrInvalidFlag)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var notebooks []models.Notebook
	if cmd.Bool("cached") {
		if notebooks, err = r.cached(ctx); err != nil {
			return err
		}
	} else {
		if err := r.load(ctx); err != nil {
			return err
		}
		notebooks = r.store.Notebooks()
	}

	notebooks = filterArchived(cmd, notebooks)
	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, format, notebooks, r.now()); err != nil {
			return err
		}
		r.logger.Info("notebooks exported", "path", path, "count", len(notebooks), "format", format)
		return r.writePlain("✓ Wrote %d notebooks to %s\n", len(notebooks), path)
	}
	return formatter.Write(r.output, format, notebooks, r.now())
}

// NotebooksExport writes every selected notebook to its own file and prints progress as files land.
func (r *Runner) NotebooksExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("archived") && cmd.Bool("all") {
		return fmt.Errorf("%w: --archived and --all are mutually exclusive", shared.ErrInvalidFlag)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatter.FormatTable {
		return fmt.Errorf("%w: --format table cannot be exported, use json, yaml, csv or markdown", shared.ErrInvalidFlag)
	}

	if err := r.load(ctx); err != nil {
		return err
	}
	notebooks := filterArchived(cmd, r.store.Notebooks())

	prog := make(chan tasks.ProgressUpdate, len(notebooks)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.writePlain("%s\n", u.Message)
		}
	}()

	result, err := tasks.BulkExport(ctx, prog, notebooks, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		Now:        r.now,
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.logger.Info("bulk export finished", "dir", result.OutputDirectory, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	r.writePlain("✓ Exported %d of %d notebooks to %s\n", result.SuccessfulExports, result.TotalNotebooks, result.OutputDirectory)
	if result.FailedExports > 0 {
		return fmt.Errorf("%d notebooks failed to export, see %s", result.FailedExports, result.ManifestPath)
	}
	return nil
}

// NotebooksRecent prints the most recently updated active notebooks.
func (r *Runner) NotebooksRecent(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	limit := r.recentLimit()
	if cmd.IsSet("limit") {
		if limit = int(cmd.Int("limit")); limit < 1 {
			return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
		}
	}

	if err := r.load(ctx); err != nil {
		return err
	}
	return formatter.Write(r.output, format, store.Recent(r.store.Notebooks(), limit), r.now())
}

// NotebooksCreate creates a notebook named by the first argument.
func (r *Runner) NotebooksCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: notebook name is required", shared.ErrMissingArgument)
	}

	if err := r.load(ctx); err != nil {
		return err
	}

	nb, err := r.store.Create(ctx, name, cmd.String("description"))
	if err != nil {
		return fmt.Errorf("failed to create notebook: %w", err)
	}

	r.writePlain("✓ Created %s %s (%s)\n", nb.Icon(), nb.Name, nb.ID)
	if cmd.Bool("open") {
		return r.openNotebook(nb.ID)
	}
	return nil
}

// NotebooksUpdate applies the given flags as a partial update.
func (r *Runner) NotebooksUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: notebook id is required", shared.ErrMissingArgument)
	}
	if cmd.Bool("archive") && cmd.Bool("unarchive") {
		return fmt.Errorf("%w: --archive and --unarchive are mutually exclusive", shared.ErrInvalidFlag)
	}

	var patch models.NotebookPatch
	if cmd.IsSet("name") {
		patch.Name = models.Ptr(cmd.String("name"))
	}
	if cmd.IsSet("description") {
		patch.Description = models.Ptr(cmd.String("description"))
	}
	switch {
	case cmd.Bool("archive"):
		patch.Archived = models.Ptr(true)
	case cmd.Bool("unarchive"):
		patch.Archived = models.Ptr(false)
	}
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update, pass --name, --description, --archive or --unarchive", shared.ErrMissingArgument)
	}

	if err := r.load(ctx); err != nil {
		return err
	}

	nb, err := r.store.Update(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update notebook: %w", err)
	}

	status := "active"
	if nb.Archived {
		status = "archived"
	}
	return r.writePlain("✓ Updated %s (%s)\n", nb.Name, status)
}

// NotebooksDelete deletes a notebook after confirmation.
func (r *Runner) NotebooksDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: notebook id is required", shared.ErrMissingArgument)
	}

	if err := r.load(ctx); err != nil {
		return err
	}

	name := id
	if nb, ok := r.store.Get(id); ok {
		name = nb.Name
	}

	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete %q? This cannot be undone. [y/N] ", name)) {
		return r.writePlain("Cancelled\n")
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notebook: %w", err)
	}
	return r.writePlain("✓ Deleted %s\n", name)
}

// NotebooksOpen opens a notebook page in the web UI.
func (r *Runner) NotebooksOpen(ctx context.Context, cmd *cli.Command) error {
	return r.openNotebook(cmd.StringArg("id"))
}

// Dashboard prints the stats line and the recent notebooks table.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	if err := r.load(ctx); err != nil {
		return err
	}

	if r.session.State() == session.Authenticated {
		r.writePlain("Welcome back, %s\n\n", r.session.User())
	}

	notebooks := r.store.Notebooks()
	return r.writePlain("%s", formatter.Dashboard(store.ComputeStats(notebooks), store.Recent(notebooks, r.recentLimit()), r.now()))
}

// filterArchived applies the --archived and --all flags; active notebooks are the default.
func filterArchived(cmd *cli.Command, notebooks []models.Notebook) []models.Notebook {
	switch {
	case cmd.Bool("all"):
		return notebooks
	case cmd.Bool("archived"):
		return store.Archived(notebooks)
	default:
		return store.Active(notebooks)
	}
}

// cached reads the notebook snapshot kept by the store.
func (r *Runner) cached(ctx context.Context) ([]models.Notebook, error) {
	if r.noPersist {
		return nil, fmt.Errorf("%w: --cached needs the local database", shared.ErrInvalidFlag)
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	if r.cache == nil {
		r.cache = repositories.NewNotebookRepository(db)
	}

	at, ok, err := r.cache.CachedAt(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.logger.Warn("no cached notebooks yet, run 'nbx notebooks list' once online")
	} else {
		r.logger.Info("reading cached notebooks", "cached_at", formatter.Relative(models.NewTimestamp(at), r.now()))
	}
	return r.cache.List(ctx)
}

func (r *Runner) openNotebook(id string) error {
	url, err := shared.NotebookURL(r.config.Web.URL, id)
	if err != nil {
		return err
	}

	r.logger.Info("opening notebook", "url", url)
	if err := r.openBrowser(url); err != nil {
		return err
	}
	return r.writePlain("Opened %s\n", url)
}

func (r *Runner) recentLimit() int {
	if r.config.Dashboard.RecentLimit > 0 {
		return r.config.Dashboard.RecentLimit
	}
	return store.RecentLimit
}

// confirm prints prompt and reads a yes/no answer from the runner's input.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s", prompt)
	answer, _ := bufio.NewReader(r.input).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
