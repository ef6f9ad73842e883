package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/nbx/internal/session"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// AuthLogin validates a password against the health endpoint and saves it on success.
//
// Servers that need no password are reported and left alone.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	base := r.config.API.BaseURL
	if err := r.session.Start(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, base, err)
	}

	fromStdin := cmd.Bool("password-stdin")
	switch r.session.State() {
	case session.NotRequired:
		return r.writePlain("✓ %s does not require a password\n", base)
	case session.Authenticated:
		if !fromStdin {
			return r.writePlain("✓ Already logged in to %s\n", base)
		}
	}

	password, err := r.readPassword(fromStdin)
	if err != nil {
		return err
	}

	if err := r.session.Login(ctx, password); err != nil {
		r.writePlain("✗ %s\n", session.UserMessage(err))
		return err
	}

	r.logger.Info("authentication successful", "api", base)
	return r.writePlain("✓ Logged in to %s\n", base)
}

// AuthLogout forgets the saved password.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	if err := r.session.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear saved password: %w", err)
	}

	if r.config.Password != "" {
		r.logger.Warnf("%s is set and will be used again on the next run", shared.EnvPassword)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether the API requires a password and whether the saved one is accepted.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	base := r.config.API.BaseURL
	r.logger.Info("checking auth status", "api", base)

	err := r.session.Start(ctx)
	r.writePlain("API: %s\n", base)
	if err != nil {
		r.writePlain("Status: unreachable\n")
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	switch state := r.session.State(); state {
	case session.NotRequired:
		r.writePlain("Password: not required\n")
	case session.Authenticated:
		r.writePlain("Password: required\n")
		r.writePlain("Authentication: ✓ Logged in as %s\n", r.session.User())
	default:
		r.writePlain("Password: required\n")
		r.writePlain("Authentication: ✗ Not logged in (%s)\n", state)
	}
	return nil
}

// readPassword reads one line from the runner's input, or prompts on the terminal without echo.
func (r *Runner) readPassword(fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	f, ok := r.input.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", fmt.Errorf("%w: no terminal to prompt for the password, use --password-stdin", shared.ErrMissingArgument)
	}

	r.writePlain("Password: ")
	secret, err := term.ReadPassword(int(f.Fd()))
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
