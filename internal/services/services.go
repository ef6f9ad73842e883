// package services defines the HTTP client layer for the notebook API
package services

import (
	"context"

	"github.com/desertthunder/nbx/internal/models"
)

// NotebookService is the remote notebook collection: the source of truth the local store reconciles against.
type NotebookService interface {
	// List returns every notebook in server order.
	List(ctx context.Context) ([]models.Notebook, error)

	// Create creates a notebook and returns the server's representation, including its assigned id.
	Create(ctx context.Context, in models.NotebookInput) (*models.Notebook, error)

	// Update applies a partial update and returns the updated notebook.
	Update(ctx context.Context, id string, patch models.NotebookPatch) (*models.Notebook, error)

	// Delete removes a notebook.
	Delete(ctx context.Context, id string) error
}

// CredentialSource supplies the bearer credential attached to outgoing requests. An empty string means none.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to [CredentialSource].
type CredentialFunc func() string

func (f CredentialFunc) Credential() string { return f() }

// StaticCredential is a fixed credential.
type StaticCredential string

func (s StaticCredential) Credential() string { return string(s) }
