package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

const notebooksPath string = "/api/notebooks"

var _ NotebookService = (*NotebookClient)(nil)

// NotebookClient implements [NotebookService] against the REST API.
type NotebookClient struct {
	api *APIService
}

// NewNotebookClient creates a notebook client sharing the transport and credentials of api.
func NewNotebookClient(api *APIService) *NotebookClient {
	return &NotebookClient{api: api}
}

// List retrieves all notebooks.
//
// Calls GET /api/notebooks.
func (c *NotebookClient) List(ctx context.Context) ([]models.Notebook, error) {
	var notebooks []models.Notebook
	if err := c.api.doJSON(ctx, http.MethodGet, notebooksPath, nil, &notebooks); err != nil {
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}
	if notebooks == nil {
		notebooks = []models.Notebook{}
	}
	return notebooks, nil
}

// Create creates a notebook.
//
// Calls POST /api/notebooks with {name, description}.
func (c *NotebookClient) Create(ctx context.Context, in models.NotebookInput) (*models.Notebook, error) {
	var nb models.Notebook
	if err := c.api.doJSON(ctx, http.MethodPost, notebooksPath, in, &nb); err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}
	if err := requireID(nb); err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}
	return &nb, nil
}

// Update applies a partial update.
//
// Calls PUT /api/notebooks/{id} with only the fields set in patch.
func (c *NotebookClient) Update(ctx context.Context, id string, patch models.NotebookPatch) (*models.Notebook, error) {
	path, err := notebookPath(id)
	if err != nil {
		return nil, err
	}

	var nb models.Notebook
	if err := c.api.doJSON(ctx, http.MethodPut, path, patch, &nb); err != nil {
		return nil, fmt.Errorf("failed to update notebook %s: %w", id, err)
	}
	if err := requireID(nb); err != nil {
		return nil, fmt.Errorf("failed to update notebook %s: %w", id, err)
	}
	return &nb, nil
}

// Delete removes a notebook.
//
// Calls DELETE /api/notebooks/{id}; the response body is ignored.
func (c *NotebookClient) Delete(ctx context.Context, id string) error {
	path, err := notebookPath(id)
	if err != nil {
		return err
	}

	if err := c.api.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete notebook %s: %w", id, err)
	}
	return nil
}

// requireID rejects 2xx bodies such as null or {} that decode to a notebook without an id.
func requireID(nb models.Notebook) error {
	if strings.TrimSpace(nb.ID) == "" {
		return fmt.Errorf("%w: failed to decode response: notebook has no id", shared.ErrAPIRequest)
	}
	return nil
}

func notebookPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: notebook id is required", shared.ErrMissingArgument)
	}
	return notebooksPath + "/" + url.PathEscape(id), nil
}
