// Package server provides HTTP routing, middleware, and an in-memory implementation of the notebook API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/notebooks") internally,
// so one path can be served by different handlers per method.
//
// # Notebook API
//
// [NotebookAPI] serves the same REST contract as the real backend:
//
//	GET    /api/health
//	GET    /api/notebooks
//	POST   /api/notebooks
//	GET    /api/notebooks/{id}
//	PUT    /api/notebooks/{id}
//	DELETE /api/notebooks/{id}
//
// Errors use the backend's {"detail": "..."} body. When a password is configured, [BearerAuth] rejects
// requests without "Authorization: Bearer <password>" with a 401, which is what clients probe for.
//
// # Current Usage
//
// `nbx dev serve` runs the API on localhost for trying the CLI and TUI without a backend, and the client,
// store and command tests run against it through [httptest].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
