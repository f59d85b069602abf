package cli

import (
	"context"

	"github.com/pajamadot/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "recall",
		Usage: "Retrieval-grounded answer agent for the game-dev knowledge service",
		Commands: []*cli.Command{
			runCommand(),
			projectsCommand(),
			memoriesCommand(),
			assetsCommand(),
			historyCommand(),
			configPathCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
