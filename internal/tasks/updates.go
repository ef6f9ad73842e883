package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ExportNotebook Phase = iota
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ExportNotebook:
		return "export_notebook"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress delivers update without blocking; updates are dropped when nobody is ready to read.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}

func exportCompletedUpdate(step, total int, res NotebookExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportNotebook,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.NotebookName),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res NotebookExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportNotebook,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.NotebookName, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s", path),
	}
}
