package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/urfave/cli/v3"
)

func memoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "memories",
		Usage: "Browse and record memories",
		Commands: []*cli.Command{
			memoriesListCommand(),
			memoriesGetCommand(),
			memoriesCreateCommand(),
		},
	}
}

func memoriesListCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		category  string
		query     string
		tag       string
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project to list memories from",
			Sources:     cli.EnvVars("RECALL_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "category",
			Usage:       "Filter by category",
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Full-text filter",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "Filter by tag",
			Destination: &tag,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of memories to list",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			memories, err := knowledge.ListMemories(ctx, &adapter.ListMemoriesRequest{
				ProjectID: projectID,
				Category:  category,
				Query:     query,
				Tag:       tag,
				Limit:     int(limit),
			})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, m := range memories {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", m.ID, m.Category, m.Confidence, m.Title)
			}
			return nil
		},
	}
}

func memoriesGetCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "get",
		Usage:     "Show one memory",
		ArgsUsage: "<memory-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			id := c.Args().First()
			if id == "" {
				return goerr.New("memory id is required")
			}

			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}
			m, err := knowledge.GetMemory(ctx, id)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "ID:         %s\n", m.ID)
			fmt.Fprintf(w, "Project:    %s\n", m.ProjectID)
			fmt.Fprintf(w, "Category:   %s\n", m.Category)
			fmt.Fprintf(w, "Title:      %s\n", m.Title)
			fmt.Fprintf(w, "Confidence: %.2f\n", m.Confidence)
			if len(m.Tags) > 0 {
				fmt.Fprintf(w, "Tags:       %s\n", strings.Join(m.Tags, ", "))
			}
			fmt.Fprintf(w, "\n%s\n", m.Content)
			return nil
		},
	}
}

func memoriesCreateCommand() *cli.Command {
	var (
		cfg        config
		projectID  string
		category   string
		title      string
		content    string
		tags       []string
		confidence float64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project to record the memory in",
			Required:    true,
			Sources:     cli.EnvVars("RECALL_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "category",
			Usage:       "Memory category (bug, decision, lore, ...)",
			Required:    true,
			Destination: &category,
		},
		&cli.StringFlag{
			Name:        "title",
			Usage:       "Memory title",
			Required:    true,
			Destination: &title,
		},
		&cli.StringFlag{
			Name:        "content",
			Usage:       "Memory body",
			Required:    true,
			Destination: &content,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Tag (repeatable)",
			Destination: &tags,
		},
		&cli.FloatFlag{
			Name:        "confidence",
			Usage:       "Confidence in [0,1]",
			Value:       0.8,
			Destination: &confidence,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "create",
		Usage: "Record a memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.resolve(); err != nil {
				return err
			}
			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return err
			}

			id, err := knowledge.CreateMemory(ctx, &adapter.CreateMemoryRequest{
				ProjectID:  projectID,
				Category:   category,
				SourceType: "manual",
				Title:      title,
				Content:    content,
				Tags:       tags,
				Confidence: confidence,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create memory")
			}
			fmt.Fprintln(c.Root().Writer, id)
			return nil
		},
	}
}
