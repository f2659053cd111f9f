// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize the database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// searchCommand searches the catalog and resolves each hit to a playable video.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "Search the iTunes catalog and match each song on YouTube",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "term",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "add-to",
				Usage: "Add the results to this playlist (created if missing)",
			},
			&cli.IntFlag{
				Name:  "pick",
				Usage: "Only keep the result at this position (1-based)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// chartCommand lists the top songs feed.
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Show the iTunes top songs chart",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "genre",
				Usage: "iTunes genre code",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of chart entries",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "add-to",
				Usage: "Add the chart songs to this playlist (created if missing)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Chart,
	}
}

// coverCommand looks up album artwork for a song.
func coverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cover",
		Usage: "Find 600x600 cover art for a song",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Stored song id; its cover is updated when found",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Song title",
			},
			&cli.StringFlag{
				Name:  "artist",
				Usage: "Song artist",
			},
			&cli.IntFlag{
				Name:  "duration",
				Usage: "Song length in seconds",
			},
		},
		Action: r.Cover,
	}
}

// playlistCommand groups playlist management.
func playlistCommand(r *Runner) *cli.Command {
	titleArg := func() cli.Argument { return &cli.StringArg{Name: "title"} }
	songArg := func() cli.Argument { return &cli.StringArg{Name: "song"} }

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage local playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists, library first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output playlist snapshots as JSON",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:      "show",
				Usage:     "Show the songs of a playlist",
				Arguments: []cli.Argument{titleArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort column: title, artist, album, duration, track, disc",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Sort direction: asc or desc",
						Value: "asc",
					},
					&cli.BoolFlag{
						Name:  "shuffle",
						Usage: "Show the shuffled order",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:      "create",
				Usage:     "Create an empty playlist",
				Arguments: []cli.Argument{titleArg()},
				Action:    r.PlaylistCreate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an editable playlist",
				Arguments: []cli.Argument{titleArg()},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "rename",
				Usage:     "Rename an editable playlist",
				Arguments: []cli.Argument{titleArg(), &cli.StringArg{Name: "new-title"}},
				Action:    r.PlaylistRename,
			},
			{
				Name:      "add",
				Usage:     "Add a stored song; chart songs are resolved to a video first",
				Arguments: []cli.Argument{titleArg(), songArg()},
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a song from a playlist",
				Arguments: []cli.Argument{titleArg(), songArg()},
				Action:    r.PlaylistRemove,
			},
			{
				Name:  "move",
				Usage: "Move the song at one position to another (1-based)",
				Arguments: []cli.Argument{
					titleArg(),
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Action: r.PlaylistMove,
			},
			{
				Name:  "sort",
				Usage: "Show a playlist sorted by a column",
				Arguments: []cli.Argument{
					titleArg(),
					&cli.StringArg{Name: "column"},
					&cli.StringArg{Name: "direction"},
				},
				Action: r.PlaylistSort,
			},
			{
				Name:      "next",
				Usage:     "Print the song after the given one, wrapping around",
				Arguments: []cli.Argument{titleArg(), songArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shuffle", Usage: "Step through the shuffled order"},
				},
				Action: r.PlaylistNext,
			},
			{
				Name:      "prev",
				Usage:     "Print the song before the given one, wrapping around",
				Arguments: []cli.Argument{titleArg(), songArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shuffle", Usage: "Step through the shuffled order"},
				},
				Action: r.PlaylistPrev,
			},
			{
				Name:      "export",
				Usage:     "Export one playlist, or all of them with --all",
				Arguments: []cli.Argument{titleArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: jukebox_export_{epoch})",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every playlist",
					},
					&cli.BoolFlag{
						Name:  "fill-covers",
						Usage: "Look up missing covers before writing",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 5,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// syncCommand follows playlist changes published by other instances.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Playlist synchronisation over Redis",
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "Apply playlist changes from other instances until interrupted",
				Action: r.SyncWatch,
			},
			{
				Name:   "push",
				Usage:  "Publish the local playlists once",
				Action: r.SyncPush,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve playlists, search and a catalog proxy over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.addr from config)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Append request logs to this file instead of stderr",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct catalog API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the catalog API, prints raw JSON",
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
		},
	}
}
