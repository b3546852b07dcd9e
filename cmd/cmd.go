// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (text, markdown, csv)",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

// setupCommand handles setup operations for the catalog cache and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the catalog cache and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the musik account",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in with the configured credentials and show the session",
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account on the server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account name (defaults to credentials.username)",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password (defaults to credentials.password)",
					},
				},
				Action: r.AuthRegister,
			},
		},
	}
}

// libraryCommand browses the server catalog
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse albums and artists",
		Commands: []*cli.Command{
			{
				Name:   "albums",
				Usage:  "List every album",
				Flags:  formatFlags(),
				Action: r.LibraryAlbums,
			},
			{
				Name:      "album",
				Usage:     "Show one album and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: append(formatFlags(), &cli.BoolFlag{
					Name:  "cached",
					Usage: "Read the album from the catalog cache instead of the server",
				}),
				Action: r.LibraryAlbum,
			},
			{
				Name:   "artists",
				Usage:  "List every artist",
				Flags:  formatFlags(),
				Action: r.LibraryArtists,
			},
			{
				Name:      "artist",
				Usage:     "Show one artist and their albums",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     formatFlags(),
				Action:    r.LibraryArtist,
			},
		},
	}
}

// encodersCommand lists the formats the server can stream
func encodersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "encoders",
		Usage: "Show server encoders and the formats this client can play",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Encoders,
	}
}

// playCommand plays one track or a shuffled stream
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play a track by id, or random tracks when no id is given",
		Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "shuffle",
				Aliases: []string{"s"},
				Usage:   "Keep playing random tracks after each one finishes",
			},
			&cli.StringFlag{
				Name:  "mime",
				Usage: "Native MIME type of the track, when it is not in the catalog cache",
			},
		},
		Action: r.Play,
	}
}

// importCommand drives the server importer
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Submit paths to the server importer and monitor it",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Queue a server-side path and wait until the importer is idle",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "detach",
						Usage: "Return once the path is queued without polling",
					},
				},
				Action: r.ImportAdd,
			},
			{
				Name:   "status",
				Usage:  "Show one importer snapshot",
				Flags:  formatFlags(),
				Action: r.ImportStatus,
			},
			{
				Name:   "watch",
				Usage:  "Poll the importer until it has been idle for the grace window",
				Action: r.ImportWatch,
			},
			{
				Name:  "history",
				Usage: "List submissions made from this machine",
				Flags: append(formatFlags(), &cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"n"},
					Usage:   "Maximum number of records",
					Value:   20,
				}),
				Action: r.ImportHistory,
			},
		},
	}
}

// apiCommand handles raw API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw calls against the musik API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a server path and print the response",
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
					&cli.BoolFlag{
						Name:  "anonymous",
						Usage: "Send the request without logging in",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a server path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "anonymous",
						Usage: "Send the request without logging in",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.TUI,
	}
}
