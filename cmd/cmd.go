// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ytplaylists/internal/formatter"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func playlistIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    "Playlist ID",
		Required: true,
	}
}

func userFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Username that owns the playlists",
		Required: required,
	}
}

// setupCommand handles configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize storage and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "List migrations that have not been applied",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recently applied migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand runs the JSON API server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the playlist API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Expose Prometheus metrics at /metrics",
			},
		},
		Action: r.Serve,
	}
}

// userCommand manages accounts.
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "Username (at least 6 characters)", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password (at least 6 characters, letters and non-letters)", Required: true},
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					&cli.StringFlag{Name: "avatar", Usage: "Avatar image URL or bundled .svg name", Value: "avatar1.svg"},
				},
				Action: r.UserCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a user's profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     jsonFlags(),
				Action:    r.UserShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a user and their playlists",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Action:    r.UserDelete,
			},
		},
	}
}

// playlistCommand manages playlists and their songs.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a user's playlists",
				Flags:  append([]cli.Flag{userFlag(true)}, jsonFlags()...),
				Action: r.PlaylistList,
			},
			{
				Name:  "create",
				Usage: "Create an empty playlist",
				Flags: []cli.Flag{
					userFlag(true),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Playlist name", Required: true},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Flags: []cli.Flag{
					playlistIDFlag(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New playlist name", Required: true},
				},
				Action: r.PlaylistRename,
			},
			{
				Name:   "delete",
				Usage:  "Delete a playlist",
				Flags:  []cli.Flag{playlistIDFlag()},
				Action: r.PlaylistDelete,
			},
			{
				Name:   "show",
				Usage:  "Show a playlist with video details",
				Flags:  append([]cli.Flag{playlistIDFlag()}, jsonFlags()...),
				Action: r.PlaylistShow,
			},
			{
				Name:  "add",
				Usage: "Append a video to a playlist",
				Flags: []cli.Flag{
					playlistIDFlag(),
					&cli.StringFlag{Name: "video", Aliases: []string{"v"}, Usage: "YouTube video ID", Required: true},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove an entry from a playlist",
				Flags: []cli.Flag{
					playlistIDFlag(),
					&cli.StringFlag{Name: "entry", Aliases: []string{"e"}, Usage: "Entry ID", Required: true},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "rate",
				Usage: "Rate a playlist entry from 1 to 10",
				Flags: []cli.Flag{
					playlistIDFlag(),
					&cli.StringFlag{Name: "entry", Aliases: []string{"e"}, Usage: "Entry ID", Required: true},
					&cli.StringFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating (1-10)", Required: true},
				},
				Action: r.PlaylistRate,
			},
			{
				Name:  "export",
				Usage: "Export one playlist, or every playlist of a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Playlist ID to export"},
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist owned by --user"},
					userFlag(false),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json)",
						Value:   string(formatter.FormatJSON),
					},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file or directory"},
					&cli.BoolFlag{Name: "covers", Usage: "Download a cover image for Markdown exports"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent export workers for --all", Value: 5},
					&cli.Float64Flag{Name: "rate", Usage: "Playlists fetched per second for --all", Value: 5},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// searchCommand queries the video provider.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search YouTube for videos",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "max", Aliases: []string{"m"}, Usage: "Maximum number of results (defaults to config)"},
		}, jsonFlags()...),
		Action: r.Search,
	}
}

// cacheCommand handles opt-in video metadata caching.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the video metadata cache",
		Commands: []*cli.Command{
			{
				Name:   "warm",
				Usage:  "Fetch details for every video in a user's playlists",
				Flags:  []cli.Flag{userFlag(true)},
				Action: r.CacheWarm,
			},
		},
	}
}

// playCommand returns the top-level TUI command for browsing and playing playlists.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Flags: []cli.Flag{
			userFlag(true),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the player writes logs (defaults to config, then ./tmp/ytp-tui.log)",
			},
		},
		Action: r.Play,
	}
}
