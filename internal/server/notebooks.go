package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

const (
	routeHealth         = "GET /api/health"
	routeListNotebooks  = "GET /api/notebooks"
	routeCreateNotebook = "POST /api/notebooks"
	routeGetNotebook    = "GET /api/notebooks/{id}"
	routeUpdateNotebook = "PUT /api/notebooks/{id}"
	routeDeleteNotebook = "DELETE /api/notebooks/{id}"

	notebookIDPrefix = "notebook:"
	maxBodyBytes     = 1 << 20
)

var _ Handler = (*NotebookAPI)(nil)

// NotebookAPI is an in-memory notebook collection served over the REST contract.
//
// New notebooks are listed first. Updates keep a notebook's position.
type NotebookAPI struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]models.Notebook
	now    func() time.Time
	nextID func() string
}

// NewNotebookAPI creates an API holding seed, in the given order.
func NewNotebookAPI(seed ...models.Notebook) *NotebookAPI {
	api := &NotebookAPI{
		byID:   make(map[string]models.Notebook, len(seed)),
		now:    time.Now,
		nextID: func() string { return notebookIDPrefix + shared.GenerateID() },
	}
	for _, nb := range seed {
		if _, dup := api.byID[nb.ID]; dup {
			continue
		}
		api.order = append(api.order, nb.ID)
		api.byID[nb.ID] = nb
	}
	return api
}

// NewRouter serves api behind [BearerAuth]. Middleware in mw, such as [Recover] and [Logging], runs before the auth check.
func NewRouter(api *NotebookAPI, password string, mw ...Middleware) *BasicRouter {
	router := NewBasicRouter()
	router.Use(mw...)
	router.Use(BearerAuth(password))
	router.Handler(api)
	return router
}

// Routes returns the method patterns served by the API.
func (a *NotebookAPI) Routes() []string {
	return []string{
		routeHealth,
		routeListNotebooks,
		routeCreateNotebook,
		routeGetNotebook,
		routeUpdateNotebook,
		routeDeleteNotebook,
	}
}

// ServeHTTP dispatches on the pattern matched by the router's mux.
func (a *NotebookAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case routeHealth:
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	case routeListNotebooks:
		a.list(w, r)
	case routeCreateNotebook:
		a.create(w, r)
	case routeGetNotebook:
		a.get(w, r)
	case routeUpdateNotebook:
		a.update(w, r)
	case routeDeleteNotebook:
		a.delete(w, r)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

// Len returns the number of notebooks held.
func (a *NotebookAPI) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

func (a *NotebookAPI) list(w http.ResponseWriter, r *http.Request) {
	var archived *bool
	if raw := r.URL.Query().Get("archived"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "archived must be a boolean")
			return
		}
		archived = &v
	}

	a.mu.RLock()
	notebooks := make([]models.Notebook, 0, len(a.order))
	for _, id := range a.order {
		nb := a.byID[id]
		if archived != nil && nb.Archived != *archived {
			continue
		}
		notebooks = append(notebooks, nb)
	}
	a.mu.RUnlock()

	writeJSON(w, http.StatusOK, notebooks)
}

func (a *NotebookAPI) create(w http.ResponseWriter, r *http.Request) {
	var in models.NotebookInput
	if detail, ok := decodeBody(r, &in); !ok {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}

	in = in.Normalize()
	if in.Name == "" {
		writeDetail(w, http.StatusBadRequest, "Notebook name is required")
		return
	}

	now := models.NewTimestamp(a.now().UTC())
	nb := models.Notebook{
		ID:          a.nextID(),
		Name:        in.Name,
		Description: in.Description,
		Created:     now,
		Updated:     now,
	}

	a.mu.Lock()
	a.order = append([]string{nb.ID}, a.order...)
	a.byID[nb.ID] = nb
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, nb)
}

func (a *NotebookAPI) get(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	nb, ok := a.byID[r.PathValue("id")]
	a.mu.RUnlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Notebook not found")
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (a *NotebookAPI) update(w http.ResponseWriter, r *http.Request) {
	var patch models.NotebookPatch
	if detail, ok := decodeBody(r, &patch); !ok {
		writeDetail(w, http.StatusBadRequest, detail)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeDetail(w, http.StatusBadRequest, "Notebook name cannot be empty")
		return
	}

	id := r.PathValue("id")

	a.mu.Lock()
	nb, ok := a.byID[id]
	if ok {
		if patch.Name != nil {
			nb.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			nb.Description = *patch.Description
		}
		if patch.Archived != nil {
			nb.Archived = *patch.Archived
		}
		nb.Updated = models.NewTimestamp(a.now().UTC())
		a.byID[id] = nb
	}
	a.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Notebook not found")
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (a *NotebookAPI) delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a.mu.Lock()
	_, ok := a.byID[id]
	if ok {
		delete(a.byID, id)
		for i, existing := range a.order {
			if existing == id {
				a.order = append(a.order[:i], a.order[i+1:]...)
				break
			}
		}
	}
	a.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Notebook not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notebook deleted successfully"})
}

// decodeBody decodes the JSON body into v, returning the error detail for the client on failure.
func decodeBody(r *http.Request, v any) (detail string, ok bool) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return "Request body is required", false
		}
		return "Invalid JSON body", false
	}
	return "", true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes the backend's error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
