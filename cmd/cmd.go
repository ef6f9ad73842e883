// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the config file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the API password",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Validate and save the API password",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "password-stdin",
						Usage: "Read the password from standard input",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved password",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check whether the API requires a password and whether the saved one works",
				Action: r.AuthStatus,
			},
		},
	}
}

// notebooksCommand handles notebook operations
func notebooksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notebooks",
		Aliases: []string{"nb"},
		Usage:   "List and manage notebooks",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List notebooks",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.BoolFlag{
						Name:  "archived",
						Usage: "Only archived notebooks",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Active and archived notebooks",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read the last snapshot from the local database instead of the API",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of standard output",
					},
				},
				Action: r.NotebooksList,
			},
			{
				Name:  "export",
				Usage: "Write each notebook to its own file with a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to notebooks_export_{epoch})",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, yaml, csv, markdown)",
						Value:   "json",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "archived",
						Usage: "Only archived notebooks",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Active and archived notebooks",
					},
				},
				Action: r.NotebooksExport,
			},
			{
				Name:  "recent",
				Usage: "List the most recently updated active notebooks",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of notebooks (defaults to dashboard.recent_limit)",
					},
				},
				Action: r.NotebooksRecent,
			},
			{
				Name:  "create",
				Usage: "Create a notebook",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Notebook description",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the new notebook in the browser",
					},
				},
				Action: r.NotebooksCreate,
			},
			{
				Name:  "update",
				Usage: "Rename, describe, archive or restore a notebook",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "New name",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "New description",
					},
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Archive the notebook",
					},
					&cli.BoolFlag{
						Name:  "unarchive",
						Usage: "Restore an archived notebook",
					},
				},
				Action: r.NotebooksUpdate,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a notebook",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.NotebooksDelete,
			},
			{
				Name:  "open",
				Usage: "Open a notebook in the web UI",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.NotebooksOpen,
			},
		},
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (table, json, yaml, csv, markdown)",
		Value:   "table",
	}
}

// dashboardCommand prints the dashboard stats and recent notebooks.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"dash"},
		Usage:   "Show notebook stats and recent notebooks",
		Action:  r.Dashboard,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the notebook API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump the health response and the notebook collection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive notebook dashboard",
		Action:  r.TUI,
	}
}

// devCommand runs the reference API server.
func devCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Development helpers",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve an in-memory notebook API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (defaults to dev.addr)",
					},
					&cli.StringFlag{
						Name:  "password",
						Usage: "Require this password as a bearer token (defaults to dev.password)",
					},
					&cli.StringFlag{
						Name:  "seed",
						Usage: "JSON file with notebooks to start with",
					},
				},
				Action: r.DevServe,
			},
		},
	}
}
