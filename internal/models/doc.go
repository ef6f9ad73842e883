// Package models defines the notebook data model shared by the API client, the local cache and the UI.
//
// The remote API is the source of truth for every [Notebook]. Values in this package are plain data transfer
// objects decoded from, and encoded to, the API's camelCase JSON:
//   - [Notebook] : a notebook as returned by GET /api/notebooks
//   - [NotebookInput] : body of POST /api/notebooks
//   - [NotebookPatch] : partial body of PUT /api/notebooks/{id}
//   - [Stats] : dashboard counters derived from a collection
//
// [Timestamp] accepts the timestamp layouts the backend emits (RFC 3339 with or without a zone, and the
// space-separated SurrealDB format).
package models
