package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/nbx/internal/shared"
)

// APIError is a non-2xx response from the notebook API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("notebook API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("notebook API error: status %d", e.StatusCode)
}

// Unwrap exposes the sentinel errors the response maps to.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		errs = append(errs, shared.ErrNotAuthenticated)
	case http.StatusNotFound:
		errs = append(errs, shared.ErrNotebookNotFound)
	}
	return errs
}

// newAPIError builds an [APIError] from a raw response, extracting FastAPI's {"detail": ...} body.
//
// The detail may be a string or, for validation errors, a list of objects, which is kept as compact JSON.
func newAPIError(method, path string, resp *APIResponse) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil || len(body.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err == nil {
		apiErr.Detail = compact.String()
	}
	return apiErr
}
