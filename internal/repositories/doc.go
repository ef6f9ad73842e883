// Package repositories implements SQLite persistence for client-local state.
//
// Key Implementations:
//   - [CredentialRepository] : key/value storage backing the session credential (the "app_password" key)
//   - [NotebookRepository] : snapshot of the last notebook collection reconciled with the API, kept in server order
//
// The remote API stays the source of truth. The notebook snapshot is only read for offline display
// (`nbx notebooks list --cached`) and is replaced wholesale on every successful reconciliation.
//
// Schema lives in internal/shared/sql and is applied by [shared.RunMigrations].
package repositories
