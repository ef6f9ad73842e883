package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request, attaching the saved password when the API requires one.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := apiPath(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if err := r.connectRaw(ctx); err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := apiPath(cmd.StringArg("path"))
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	if err := r.connectRaw(ctx); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, true)
}

// APIDump fetches the health response and the full notebook collection in one document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.String("save")

	if err := r.connectRaw(ctx); err != nil {
		return err
	}

	r.logger.Info("dumping API state")

	type DumpData struct {
		API       string              `json:"api"`
		Session   string              `json:"session"`
		Health    any                 `json:"health,omitempty"`
		Notebooks any                 `json:"notebooks,omitempty"`
		Errors    []map[string]string `json:"errors,omitempty"`
	}

	dump := DumpData{API: r.api.BaseURL(), Session: r.session.State().String()}

	for _, endpoint := range []struct {
		path string
		dest *any
	}{
		{services.HealthPath, &dump.Health},
		{"/api/notebooks", &dump.Notebooks},
	} {
		resp, err := r.api.Get(ctx, endpoint.path)
		switch {
		case err != nil:
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint.path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", endpoint.path, "error", err)
		case !resp.OK():
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint.path, "error": fmt.Sprintf("status %d", resp.StatusCode)})
			r.logger.Warn("failed to fetch", "endpoint", endpoint.path, "status", resp.StatusCode)
		default:
			*endpoint.dest = resp.JSONData
		}
	}

	if save != "" {
		data, err := json.MarshalIndent(dump, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(save, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", save)
		}
	}

	return r.writeJSON(dump, pretty)
}

// connectRaw connects and resolves the session without requiring authentication, so raw calls can
// inspect 401 responses.
func (r *Runner) connectRaw(ctx context.Context) error {
	if err := r.connect(); err != nil {
		return err
	}
	if err := r.session.Start(ctx); err != nil {
		r.logger.Warn("session check failed", "error", err)
	}
	return nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return r.writePlain("\n")
}

// apiPath trims the user-supplied path and makes it absolute, so "api/notebooks" resolves under the base URL.
func apiPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
