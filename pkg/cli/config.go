package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pajamadot/recall/pkg/adapter"
	"github.com/pajamadot/recall/pkg/repository"
	"github.com/pajamadot/recall/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Knowledge service
	baseURL string
	token   string

	// Model provider
	providerKind    string
	providerModel   string
	anthropicAPIKey string
	geminiAPIKey    string

	logLevel    string
	historyPath string
}

// fileConfig is the YAML config file. Flags and env vars take precedence;
// the file only fills in what is still empty.
type fileConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Knowledge service base URL",
			Sources:     cli.EnvVars("RECALL_BASE_URL"),
			Destination: &cfg.baseURL,
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Knowledge service API token",
			Sources:     cli.EnvVars("RECALL_API_TOKEN"),
			Destination: &cfg.token,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECALL_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for model-provider configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Model provider (claude or gemini)",
			Value:       "claude",
			Sources:     cli.EnvVars("RECALL_PROVIDER"),
			Destination: &cfg.providerKind,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model version override",
			Sources:     cli.EnvVars("RECALL_MODEL"),
			Destination: &cfg.providerModel,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
	}
}

// configPath returns the YAML config file location.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve user config directory")
	}
	return filepath.Join(dir, "recall", "config.yml"), nil
}

// resolve sets up logging and fills empty knowledge-service settings from the
// config file, if one exists.
func (cfg *config) resolve() error {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))

	if cfg.baseURL != "" && cfg.token != "" {
		return nil
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	if cfg.baseURL == "" {
		cfg.baseURL = fc.BaseURL
	}
	if cfg.token == "" {
		cfg.token = fc.Token
	}
	return nil
}

// newKnowledge creates the knowledge service client
func (cfg *config) newKnowledge() (adapter.Knowledge, error) {
	if cfg.baseURL == "" {
		return nil, goerr.New("base-url is required (flag, RECALL_BASE_URL, or config file)")
	}
	return adapter.NewKnowledge(cfg.baseURL, cfg.token)
}

// providerAPIKey returns the credential for the selected provider kind.
func (cfg *config) providerAPIKey() string {
	if cfg.providerKind == "gemini" {
		return cfg.geminiAPIKey
	}
	return cfg.anthropicAPIKey
}

// newProvider creates the model provider, or nil when no credential is
// configured (the run then degrades to retrieval only).
func (cfg *config) newProvider(ctx context.Context) (adapter.Provider, error) {
	key := cfg.providerAPIKey()
	if key == "" {
		return nil, nil
	}

	switch cfg.providerKind {
	case "gemini":
		return adapter.NewGemini(ctx, key)
	case "claude", "":
		return adapter.NewClaude(key)
	default:
		return nil, goerr.New("unknown provider", goerr.V("provider", cfg.providerKind))
	}
}

// newRepository opens the local run-history store
func (cfg *config) newRepository() (repository.Repository, error) {
	path := cfg.historyPath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve user config directory")
		}
		path = filepath.Join(dir, "recall", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create history directory")
	}
	return repository.NewSQLite(path)
}

func historyFlag(cfg *config) cli.Flag {
	return &cli.StringFlag{
		Name:        "history-db",
		Usage:       "Path to the local run-history database",
		Sources:     cli.EnvVars("RECALL_HISTORY_DB"),
		Destination: &cfg.historyPath,
	}
}

func configPathCommand() *cli.Command {
	return &cli.Command{
		Name:  "config-path",
		Usage: "Print the config file location",
		Action: func(ctx context.Context, c *cli.Command) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			_, err = c.Root().Writer.Write([]byte(path + "\n"))
			return err
		},
	}
}
