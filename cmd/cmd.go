// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles configuration and schema management.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recently applied migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
			{
				Name:  "status",
				Usage: "List migrations and when they were applied",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SetupStatus,
			},
		},
	}
}

// loadCommand imports catalog data from JSON files
func loadCommand(r *Runner) *cli.Command {
	fileFlag := func(usage string) cli.Flag {
		return &cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    usage,
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "load",
		Usage: "Load catalog data",
		Commands: []*cli.Command{
			{
				Name:   "ingredients",
				Usage:  "Load ingredients from a JSON array of {name, measurement_unit}",
				Flags:  []cli.Flag{configFlag(), fileFlag("Path to ingredients JSON")},
				Action: r.LoadIngredients,
			},
			{
				Name:   "tags",
				Usage:  "Load tags from a JSON array of {name, color, slug}",
				Flags:  []cli.Flag{configFlag(), fileFlag("Path to tags JSON")},
				Action: r.LoadTags,
			},
		},
	}
}

// cartCommand exports shopping lists
func cartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cart",
		Usage: "Shopping cart operations",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Export the shopping list of one user, or of every user with --all",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Email of the cart owner",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export the cart of every user with a non-empty shopping list",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: txt, csv or md",
						Value: "txt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: print to stdout)",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Output directory for --all (default: carts_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers for --all",
						Value: 4,
					},
				},
				Action: r.CartExport,
			},
		},
	}
}

// usersCommand manages accounts
func usersCommand(r *Runner) *cli.Command {
	emailFlag := &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Email of the user",
		Required: true,
	}

	return &cli.Command{
		Name:  "users",
		Usage: "User administration",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List registered users",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.UsersList,
			},
			{
				Name:  "staff",
				Usage: "Grant or revoke the staff flag that allows editing tags",
				Flags: []cli.Flag{
					configFlag(),
					emailFlag,
					&cli.BoolFlag{
						Name:  "revoke",
						Usage: "Remove the staff flag instead of granting it",
					},
				},
				Action: r.UsersStaff,
			},
		},
	}
}

// browseCommand launches the interactive recipe browser
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse recipes in the terminal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Browse as this user to enable the shopping list view",
			},
			&cli.StringSliceFlag{
				Name:    "tags",
				Aliases: []string{"t"},
				Usage:   "Only show recipes with any of these tag slugs",
			},
			&cli.StringFlag{
				Name:  "author",
				Usage: "Only show recipes by this username",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of recipes to load",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the browser is open",
				Value: "./tmp/foodgram-browse.log",
			},
		},
		Action: r.Browse,
	}
}
