package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/repositories"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/session"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, session and store are built on first use so commands such as setup never touch the API.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	openBrowser func(string) error
	now         func() time.Time
	noPersist   bool

	db      *sql.DB
	cache   *repositories.NotebookRepository
	api     *services.APIService
	session *session.Session
	store   *store.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	OpenBrowser func(string) error
	Now         func() time.Time
	// NoPersist keeps the credential in memory and disables the notebook cache.
	NoPersist bool
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		openBrowser: opts.OpenBrowser,
		now:         opts.Now,
		noPersist:   opts.NoPersist,
	}
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "nbx",
		Usage:   "Manage Open Notebook notebooks from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "no-persist",
				Usage: "Keep the password in memory only and skip the local cache",
			},
		},
		Before:   r.before,
		After:    r.after,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, notebooksCommand, dashboardCommand, apiCommand, tuiCommand, devCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads .env, the config file and NBX_* overrides, then applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadDotEnv(); err != nil {
		r.logger.Warn("ignoring .env", "error", err)
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.configPath = path
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	if err := r.config.ApplyEnv(os.LookupEnv); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	lvl, err := shared.ParseLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, lvl)

	if cmd.Bool("no-persist") {
		r.noPersist = true
	}
	return ctx, nil
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the configured database once.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// connect builds the API client, session and store.
//
// The credential is kept in the local database unless persistence is off or NBX_PASSWORD supplies it.
func (r *Runner) connect() error {
	if r.session != nil {
		return nil
	}

	var creds session.CredentialStore
	switch {
	case r.config.Password != "":
		creds = session.NewMemoryStore(r.config.Password)
	case r.noPersist:
		creds = session.NewMemoryStore("")
	}

	if !r.noPersist {
		db, err := r.database()
		if err != nil {
			return err
		}
		r.cache = repositories.NewNotebookRepository(db)
		if creds == nil {
			creds = session.NewKeyValueStore(repositories.NewCredentialRepository(db))
		}
	}

	client := r.httpClient
	if r.config.API.Timeout > 0 && client == http.DefaultClient {
		client = &http.Client{Timeout: r.config.API.Timeout}
	}

	limit := services.WithRateLimit(r.config.API.RateLimit, r.config.API.Burst)
	prober := services.NewAPIService(r.config.API.BaseURL, client, limit)
	r.session = session.NewSession(prober, creds, shared.WithLogger(r.logger, "component", "session"))
	r.api = services.NewAPIService(r.config.API.BaseURL, client, limit, services.WithCredentials(r.session))

	opts := []store.Option{store.WithLogger(shared.WithLogger(r.logger, "component", "store"))}
	if r.cache != nil {
		opts = append(opts, store.WithCache(r.cache))
	}
	r.store = store.NewStore(services.NewNotebookClient(r.api), r.session, opts...)
	return nil
}

// authenticate connects and resolves the session, failing when a password is required but missing.
func (r *Runner) authenticate(ctx context.Context) error {
	if err := r.connect(); err != nil {
		return err
	}

	if err := r.session.Start(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, r.config.API.BaseURL, err)
	}
	if !r.session.CanFetch() {
		return fmt.Errorf("%w: run 'nbx auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// load authenticates and reads the notebook collection into the store.
func (r *Runner) load(ctx context.Context) error {
	if err := r.authenticate(ctx); err != nil {
		return err
	}
	if err := r.store.List(ctx); err != nil {
		return fmt.Errorf("failed to load notebooks: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
