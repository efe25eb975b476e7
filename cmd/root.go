// Package cmd implements the issuepilot CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"issuepilot/internal/agent"
	"issuepilot/internal/analyze"
	"issuepilot/internal/config"
	"issuepilot/internal/github"
	"issuepilot/internal/provider"
	"issuepilot/internal/pubsub"
	"issuepilot/internal/store"
	"issuepilot/internal/vector"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "issuepilot",
	Short: "AI-assisted triage for GitHub issues",
	Long: `Issuepilot receives GitHub issue webhooks, gathers repository context,
asks an LLM for classification, priority, and label recommendations, and
optionally applies them back to the issue.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", fmt.Sprintf("config file (default %s)", defaultConfigPath()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".issuepilot/config.yaml"
	}
	return home + "/.issuepilot/config.yaml"
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

// components holds initialized components for use by subcommands.
type components struct {
	Config    *config.Config
	Store     *store.DB
	Repo      *github.Service
	Analyzer  *analyze.Analyzer
	Embedder  provider.Embedder
	Vectors   vector.Store
	Processor *agent.Processor
	Broker    *pubsub.Broker[agent.Result]
	Logger    *slog.Logger
}

// Close releases resources held by the components.
func (c *components) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initComponents creates all components from config.
func initComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{
		Config: cfg,
		Logger: logger,
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	c.Store = db

	client, err := github.NewClient(cfg.GitHub)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	ghTimeout, err := cfg.Analysis.GitHubTimeout()
	if err != nil {
		return nil, fmt.Errorf("parsing github_timeout: %w", err)
	}
	c.Repo = github.NewService(client, cfg.GitHub.Owner, cfg.GitHub.Repo, ghTimeout, logger)

	if cfg.Providers.Embedding.Type != "" {
		emb, err := provider.NewEmbedder(
			cfg.Providers.Embedding.Type,
			cfg.Providers.Embedding.APIKey,
			cfg.Providers.Embedding.URL,
			cfg.Providers.Embedding.Model,
		)
		if err != nil {
			return nil, fmt.Errorf("creating embedding provider: %w", err)
		}
		c.Embedder = emb
		c.Vectors = vector.NewSQLiteStore(db, cfg.Providers.Embedding.Model)
	}

	if cfg.Providers.LLM.Type == "" {
		return nil, fmt.Errorf("providers.llm.type is required")
	}
	completer, err := provider.NewCompleter(
		cfg.Providers.LLM.Type,
		cfg.Providers.LLM.APIKey,
		cfg.Providers.LLM.URL,
		cfg.Providers.LLM.Model,
		provider.CompletionOptions{
			MaxTokens:   cfg.Analysis.MaxTokens,
			Temperature: cfg.Analysis.Temperature,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	llmTimeout, err := cfg.Analysis.RequestTimeout()
	if err != nil {
		return nil, fmt.Errorf("parsing request_timeout: %w", err)
	}
	c.Analyzer = analyze.NewAnalyzer(completer, cfg.Analysis.MaxTokens, llmTimeout)

	c.Broker = pubsub.NewBroker[agent.Result]()
	c.Processor = agent.New(agent.Deps{
		GitHub:         c.Repo,
		Analyzer:       c.Analyzer,
		Embedder:       c.Embedder,
		Vectors:        c.Vectors,
		Log:            c.Store,
		Broker:         c.Broker,
		Logger:         logger,
		AllowNewLabels: cfg.Analysis.AllowNewLabels,
		Workers:        cfg.Batch.Workers,
		TopK:           cfg.Vector.TopK,
	})

	return c, nil
}
