// Package tasks runs long notebook operations off the caller's goroutine with real-time progress reporting.
//
// # Bulk Export
//
// [BulkExport] writes one file per notebook into an output directory using a small worker pool,
// then writes an export_manifest.json that records which notebooks were written and which failed.
// A failure to write one notebook does not stop the others.
//
// # Progress Reporting
//
// Operations accept an optional send-only [ProgressUpdate] channel.
// Updates use select with default so a slow or absent reader never blocks the export.
// Callers that want every update should buffer the channel to at least the number of notebooks plus one.
package tasks
