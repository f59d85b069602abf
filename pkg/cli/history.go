package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect locally recorded runs",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
		},
	}
}

func historyListCommand() *cli.Command {
	var (
		cfg    config
		offset int64
		limit  int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "Offset for pagination",
			Value:       0,
			Destination: &offset,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of runs to list",
			Value:       20,
			Destination: &limit,
		},
		historyFlag(&cfg),
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List recorded runs, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			recs, err := repo.ListRuns(ctx, int(offset), int(limit))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, rec := range recs {
				status := "ok"
				if !rec.Success {
					status = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.ID, rec.CreatedAt.Local().Format(time.DateTime), status, rec.ProjectID, rec.Query)
			}
			return nil
		},
	}
}

func historyShowCommand() *cli.Command {
	var cfg config

	flags := append([]cli.Flag{historyFlag(&cfg)}, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Print the stored result document of one run",
		ArgsUsage: "<run-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			id := c.Args().First()
			if id == "" {
				return goerr.New("run id is required")
			}

			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			rec, err := repo.GetRun(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, string(rec.Result))
			return nil
		},
	}
}
