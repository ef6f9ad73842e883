// Package services implements the HTTP client for the Open Notebook REST API.
//
// # Transport
//
// [APIService] issues raw requests against the API base URL. Every request carries the credential supplied by its
// [CredentialSource] as an "Authorization: Bearer" header (via [oauth2.Token.SetAuthHeader]) when one is held.
// An optional [rate.Limiter] throttles requests client-side.
//
// # Notebooks
//
// [NotebookClient] implements [NotebookService] on top of [APIService]:
//   - GET /api/notebooks
//   - POST /api/notebooks
//   - PUT /api/notebooks/{id}
//   - DELETE /api/notebooks/{id}
//
// # Error Handling
//
// Non-2xx responses become [*APIError], carrying the status code and the FastAPI "detail" message. APIError matches:
//   - [shared.ErrAPIRequest] : always
//   - [shared.ErrNotAuthenticated] : 401 responses
//   - [shared.ErrNotebookNotFound] : 404 responses
//
// Transport failures wrap [shared.ErrServiceUnavailable]. Nothing is retried.
package services
