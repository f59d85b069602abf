package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func projectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "Manage knowledge service projects",
		Commands: []*cli.Command{
			projectsListCommand(),
			projectsCreateCommand(),
		},
	}
}

func projectsListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List projects",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			projects, err := knowledge.ListProjects(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Engine)
			}
			return nil
		},
	}
}

func projectsCreateCommand() *cli.Command {
	var (
		cfg         config
		name        string
		engine      string
		description string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Project name",
			Required:    true,
			Destination: &name,
		},
		&cli.StringFlag{
			Name:        "engine",
			Usage:       "Game engine the project uses",
			Destination: &engine,
		},
		&cli.StringFlag{
			Name:        "description",
			Usage:       "Project description",
			Destination: &description,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "create",
		Usage: "Create a project",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			id, err := knowledge.CreateProject(ctx, name, engine, description)
			if err != nil {
				return goerr.Wrap(err, "failed to create project")
			}
			fmt.Fprintln(c.Root().Writer, id)
			return nil
		},
	}
}
