package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/model"
	"github.com/pajamadot/recall/pkg/usecase/run"
	"github.com/pajamadot/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	var (
		cfg          config
		sessionID    string
		projectID    string
		query        string
		historyJSON  string
		dryRun       bool
		includeAsset bool
		memoryMode   string
		evidenceLim  int64
		maxTokens    int64
		progressPath string
		noHistory    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session-id",
			Usage:       "Session id recorded in the result (default: random)",
			Sources:     cli.EnvVars("RECALL_SESSION_ID"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"p"},
			Usage:       "Project to retrieve evidence from",
			Sources:     cli.EnvVars("RECALL_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Question to answer (alternatively the first argument)",
			Destination: &query,
		},
		&cli.StringFlag{
			Name:        "history",
			Usage:       "Prior turns as a JSON array of {role, content}",
			Destination: &historyJSON,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Retrieval only, skip synthesis",
			Sources:     cli.EnvVars("RECALL_DRY_RUN"),
			Destination: &dryRun,
		},
		&cli.BoolFlag{
			Name:        "include-assets",
			Usage:       "Include linked assets in the seed retrieval",
			Value:       true,
			Destination: &includeAsset,
		},
		&cli.StringFlag{
			Name:        "memory-mode",
			Usage:       "Memory retrieval profile (fast, balanced, deep)",
			Value:       model.MemoryModeBalanced,
			Sources:     cli.EnvVars("RECALL_MEMORY_MODE"),
			Destination: &memoryMode,
		},
		&cli.IntFlag{
			Name:        "evidence-limit",
			Usage:       "Maximum memories in the seed retrieval",
			Destination: &evidenceLim,
		},
		&cli.IntFlag{
			Name:        "max-tokens",
			Usage:       "Model token budget per round (clamped to 128-2048)",
			Destination: &maxTokens,
		},
		&cli.StringFlag{
			Name:        "progress",
			Usage:       "Progress event sink: '-' for stderr, or a file path (default: off)",
			Destination: &progressPath,
		},
		&cli.BoolFlag{
			Name:        "no-history",
			Usage:       "Do not record this run in the local history store",
			Destination: &noHistory,
		},
		historyFlag(&cfg),
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "run",
		Usage:     "Answer a question from the project's recorded knowledge",
		ArgsUsage: "[query]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if query == "" {
				query = c.Args().First()
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			// even setup failures must leave a result line on stdout, so
			// callers parsing the output never see an empty stream
			fail := func(err error) error {
				result := &model.RunResult{
					SessionID: sessionID,
					ProjectID: projectID,
					Query:     query,
					Provider:  model.ProviderInfo{Kind: cfg.providerKind},
					Notes:     []string{},
					Error:     err.Error(),
				}
				if line, mErr := json.Marshal(result); mErr == nil {
					fmt.Fprintln(c.Root().Writer, string(line))
				}
				return err
			}

			if err := cfg.resolve(); err != nil {
				return fail(err)
			}

			runCfg := &model.RunConfig{
				SessionID:      sessionID,
				ProjectID:      projectID,
				Query:          query,
				BaseURL:        cfg.baseURL,
				Token:          cfg.token,
				DryRun:         dryRun,
				IncludeAssets:  includeAsset,
				MemoryMode:     memoryMode,
				EvidenceLimit:  int(evidenceLim),
				MaxTokens:      int(maxTokens),
				ProviderKind:   cfg.providerKind,
				ProviderModel:  cfg.providerModel,
				ProviderAPIKey: cfg.providerAPIKey(),
			}
			if historyJSON != "" {
				if err := json.Unmarshal([]byte(historyJSON), &runCfg.History); err != nil {
					return fail(goerr.Wrap(err, "failed to parse --history"))
				}
			}

			knowledge, err := cfg.newKnowledge()
			if err != nil {
				return fail(err)
			}

			provider, err := cfg.newProvider(ctx)
			if err != nil {
				return fail(err)
			}

			progress, closer, err := openProgress(progressPath, sessionID)
			if err != nil {
				return fail(err)
			}
			if closer != nil {
				defer closer()
			}

			runner := run.New(run.NewInput{
				Knowledge: knowledge,
				Provider:  provider,
				Progress:  progress,
			})
			result := runner.Run(ctx, runCfg)

			if !noHistory {
				recordRun(ctx, &cfg, result)
			}

			// the single result line on stdout; everything else is stderr
			line, err := json.Marshal(result)
			if err != nil {
				return goerr.Wrap(err, "failed to serialize run result")
			}
			if _, err := fmt.Fprintln(c.Root().Writer, string(line)); err != nil {
				return goerr.Wrap(err, "failed to write run result")
			}

			if !result.Success {
				return goerr.New("run failed", goerr.V("error", result.Error))
			}
			return nil
		},
	}
}

func openProgress(path, sessionID string) (*run.Emitter, func(), error) {
	switch path {
	case "":
		return nil, nil, nil
	case "-":
		return run.NewEmitter(os.Stderr, sessionID), nil, nil
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open progress file", goerr.V("path", path))
		}
		return run.NewEmitter(f, sessionID), func() { _ = f.Close() }, nil
	}
}

// recordRun saves the result to the local history store. Best effort: the
// result line was already guaranteed, so a storage failure only warns.
func recordRun(ctx context.Context, cfg *config, result *model.RunResult) {
	repo, err := cfg.newRepository()
	if err != nil {
		logging.From(ctx).Warn("history store unavailable", "error", err)
		return
	}
	defer repo.Close()

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	rec := &model.RunRecord{
		ID:        uuid.NewString(),
		SessionID: result.SessionID,
		ProjectID: result.ProjectID,
		Query:     result.Query,
		Success:   result.Success,
		Answer:    result.Answer,
		Result:    raw,
		CreatedAt: time.Now(),
	}
	if err := repo.PutRun(ctx, rec); err != nil {
		logging.From(ctx).Warn("failed to record run history", "error", err)
	}
}
