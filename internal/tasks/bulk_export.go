package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

const (
	defaultWorkers = 4
	maxWorkers     = 8
	manifestName   = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk notebook exports.
type BulkExportOpts struct {
	Format     formatter.Format // json, yaml, csv or markdown (default: json)
	OutputDir  string           // Base output directory (default: notebooks_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, max: 8)
	Now        func() time.Time // Clock for the manifest timestamp and default directory
}

// NotebookExportResult is the outcome of writing a single notebook.
type NotebookExportResult struct {
	NotebookID   string
	NotebookName string
	File         string
	Success      bool
	Error        error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalNotebooks    int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []NotebookExportResult // In input order
}

type exportJob struct {
	index    int
	notebook models.Notebook
	file     string
}

type manifestEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`
}

type manifest struct {
	ExportedAt string          `json:"exportedAt"`
	Format     string          `json:"format"`
	Total      int             `json:"total"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
	Notebooks  []manifestEntry `json:"notebooks"`
}

// BulkExport writes each notebook to its own file under opts.OutputDir and records the run in a manifest.
//
// Per-notebook write failures are reported in the result rather than returned. The returned error is
// reserved for setup failures, cancellation and manifest write failures; the partial result is returned
// alongside the latter two.
func BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	notebooks []models.Notebook,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.Format == formatter.FormatTable {
		return nil, fmt.Errorf("%w: table output cannot be exported per notebook", shared.ErrInvalidFlag)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("notebooks_export_%d", opts.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalNotebooks:  len(notebooks),
		OutputDirectory: opts.OutputDir,
		Results:         make([]NotebookExportResult, len(notebooks)),
	}

	jobs := make(chan exportJob, len(notebooks))
	results := make(chan exportJob, len(notebooks))
	outcomes := make([]NotebookExportResult, len(notebooks))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, outcomes, opts)
	}

	files := fileNames(notebooks, opts.Format)
	go func() {
		defer close(jobs)
		for i, nb := range notebooks {
			select {
			case <-ctx.Done():
				return
			case jobs <- exportJob{index: i, notebook: nb, file: files[i]}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for job := range results {
		completed++
		res := outcomes[job.index]
		result.Results[job.index] = res
		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(notebooks), res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(notebooks), res))
		}
	}

	if err := ctx.Err(); err != nil {
		result.Results = trimUnvisited(result.Results)
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(manifestPath, result, opts); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes notebooks from jobs until the channel closes or ctx is cancelled.
//
// Each worker owns the outcome slot of the job it took, so outcomes needs no lock.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- exportJob,
	outcomes []NotebookExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcomes[job.index] = exportSingleNotebook(job.notebook, job.file, opts)
		results <- job
	}
}

// exportSingleNotebook renders one notebook in the requested format and writes it to disk.
func exportSingleNotebook(nb models.Notebook, file string, opts BulkExportOpts) NotebookExportResult {
	result := NotebookExportResult{NotebookID: nb.ID, NotebookName: nb.Name}

	data, err := render(nb, opts.Format)
	if err != nil {
		result.Error = err
		return result
	}

	path := filepath.Join(opts.OutputDir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}

	result.File = path
	result.Success = true
	return result
}

func render(nb models.Notebook, f formatter.Format) ([]byte, error) {
	switch f {
	case formatter.FormatJSON:
		return formatter.ToJSON(nb)
	case formatter.FormatYAML:
		return formatter.ToYAML(nb)
	case formatter.FormatCSV:
		return formatter.ToCSV([]models.Notebook{nb})
	case formatter.FormatMarkdown:
		return formatter.ToMarkdown([]models.Notebook{nb}, nb.Name)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// FileName maps a notebook ID to a file name that is safe on every platform, e.g. "notebook:abc" -> "notebook_abc.json".
func FileName(id string, f formatter.Format) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	if strings.Trim(safe, "._") == "" {
		safe = "notebook"
	}
	return safe + formatter.Extension(f)
}

// fileNames assigns every notebook a distinct file name in input order. Ids that sanitize to a name
// already taken, including the manifest's, get a numeric suffix: "notebook_abc-2.json".
// Names are compared case-insensitively for case-folding filesystems.
func fileNames(notebooks []models.Notebook, f formatter.Format) []string {
	taken := map[string]bool{manifestName: true}
	names := make([]string, len(notebooks))
	ext := formatter.Extension(f)
	for i, nb := range notebooks {
		name := FileName(nb.ID, f)
		base := strings.TrimSuffix(name, ext)
		for n := 2; taken[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d%s", base, n, ext)
		}
		taken[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func writeManifest(path string, result *BulkExportResult, opts BulkExportOpts) error {
	m := manifest{
		ExportedAt: opts.Now().UTC().Format(time.RFC3339),
		Format:     string(opts.Format),
		Total:      result.TotalNotebooks,
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Notebooks:  make([]manifestEntry, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		entry := manifestEntry{ID: res.NotebookID, Name: res.NotebookName}
		if res.Success {
			entry.File = filepath.Base(res.File)
		} else if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Notebooks = append(m.Notebooks, entry)
	}

	data, err := formatter.ToJSON(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// trimUnvisited drops slots for notebooks that were never written because the export was cancelled.
func trimUnvisited(results []NotebookExportResult) []NotebookExportResult {
	out := results[:0]
	for _, res := range results {
		if res.NotebookID != "" || res.Success || res.Error != nil {
			out = append(out, res)
		}
	}
	return out
}
