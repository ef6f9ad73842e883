// API service for making raw HTTP requests to the notebook API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/nbx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL string = "http://127.0.0.1:5055"

// HealthPath is the probe endpoint used to detect whether a credential is required and valid.
const HealthPath string = "/api/health"

// APIService provides methods for making raw HTTP requests to the notebook API.
type APIService struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials CredentialSource
}

// Option configures an [APIService].
type Option func(*APIService)

// WithCredentials attaches the credential from src to every request.
func WithCredentials(src CredentialSource) Option {
	return func(a *APIService) { a.credentials = src }
}

// WithRateLimit throttles requests to rps per second with the given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *APIService) {
		if rps <= 0 {
			a.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewAPIService creates a new API service instance for the notebook API.
func NewAPIService(baseURL string, client *http.Client, opts ...Option) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the API base URL without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil, a.credential())
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data, a.credential())
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPut, path, data, a.credential())
}

// Delete performs a DELETE request and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodDelete, path, nil, a.credential())
}

// Health probes [HealthPath] with exactly the given credential, ignoring the configured [CredentialSource].
//
// An empty credential sends no Authorization header. Non-2xx responses are returned, not converted to errors.
func (a *APIService) Health(ctx context.Context, credential string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, HealthPath, nil, credential)
}

// doJSON sends in (when non-nil) as a JSON body and decodes a 2xx response into out (when non-nil).
func (a *APIService) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = data
	}

	resp, err := a.do(ctx, method, path, body, a.credential())
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(method, path, resp)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte, credential string) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		(&oauth2.Token{AccessToken: credential}).SetAuthHeader(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (a *APIService) credential() string {
	if a.credentials == nil {
		return ""
	}
	return a.credentials.Credential()
}
