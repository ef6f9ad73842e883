package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/server"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DevServe runs the in-memory notebook API until interrupted.
func (r *Runner) DevServe(ctx context.Context, cmd *cli.Command) error {
	addr := r.config.Dev.Addr
	if cmd.IsSet("addr") {
		addr = cmd.String("addr")
	}
	password := r.config.Dev.Password
	if cmd.IsSet("password") {
		password = cmd.String("password")
	}

	seed, err := readSeed(cmd.String("seed"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.WithLogger(r.logger, "component", "server")
	api := server.NewNotebookAPI(seed...)
	router := server.NewRouter(api, password, server.Recover(logger), server.Logging(logger))

	ready := make(chan string, 1)
	go func() {
		select {
		case bound := <-ready:
			auth := "no password"
			if password != "" {
				auth = "password required"
			}
			r.writePlain("Serving %d notebooks on http://%s (%s)\n", api.Len(), bound, auth)
		case <-ctx.Done():
		}
	}()

	return server.Serve(ctx, addr, router, logger, ready)
}

// readSeed loads notebooks from a JSON array file. An empty path yields no notebooks.
func readSeed(path string) ([]models.Notebook, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var notebooks []models.Notebook
	if err := json.Unmarshal(data, &notebooks); err != nil {
		return nil, fmt.Errorf("%w: seed file %s: %v", shared.ErrInvalidInput, path, err)
	}
	return notebooks, nil
}
