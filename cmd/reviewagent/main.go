package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ttbonn/reviewagent/internal/adapter/cli"
	githubadapter "github.com/ttbonn/reviewagent/internal/adapter/github"
	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
	jsonwriter "github.com/ttbonn/reviewagent/internal/adapter/output/json"
	"github.com/ttbonn/reviewagent/internal/adapter/output/markdown"
	"github.com/ttbonn/reviewagent/internal/adapter/store/sqlite"
	"github.com/ttbonn/reviewagent/internal/config"
	"github.com/ttbonn/reviewagent/internal/gitstats"
	"github.com/ttbonn/reviewagent/internal/server"
	"github.com/ttbonn/reviewagent/internal/usecase/agent"
	"github.com/ttbonn/reviewagent/internal/usecase/bootstrap"
	"github.com/ttbonn/reviewagent/internal/usecase/merge"
	"github.com/ttbonn/reviewagent/internal/usecase/post"
	reviewrun "github.com/ttbonn/reviewagent/internal/usecase/review"
)

func main() {
	if err := run(); err != nil {
		log.Println(httpx.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Local development keeps the token in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewagent",
		EnvPrefix:   "REVIEWAGENT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	logger := httpx.NewDefaultLogger(httpx.LogLevelInfo)

	client := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		client.SetBaseURL(cfg.GitHub.BaseURL)
	}
	client.SetTimeout(cfg.HTTPTimeout())
	client.SetRetryConfig(httpx.RetryConfig{
		MaxRetries:     cfg.HTTP.MaxRetries,
		InitialBackoff: parseDuration(cfg.HTTP.InitialBackoff, 2*time.Second),
		MaxBackoff:     parseDuration(cfg.HTTP.MaxBackoff, 32*time.Second),
		Multiplier:     cfg.HTTP.BackoffMultiplier,
	})
	client.SetLogger(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	ledger, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ledger.Close()

	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}
	markdownWriter := markdown.NewWriter(nowFunc)
	statsWriter := jsonwriter.NewWriter(nowFunc)

	poster := post.NewPoster(client, ledger, logger)

	orchestrator, err := reviewrun.NewOrchestrator(reviewrun.Deps{
		Client:   client,
		Poster:   poster,
		Renderer: markdownWriter,
		Logger:   logger,
		Workers:  cfg.Review.Workers,
	})
	if err != nil {
		return err
	}

	merger := merge.NewAgent(client, logger)
	scaffolder := bootstrap.NewScaffolder(client, logger)
	responder := agent.NewResponder(client, logger)

	webhookServer := server.New(server.Config{
		Address:   cfg.Server.Address,
		Port:      cfg.Server.Port,
		QueueSize: cfg.Server.QueueSize,
		Workers:   cfg.Server.Workers,
	}, orchestrator, responder, ledger, logger)

	root := cli.NewRootCommand(cli.Dependencies{
		Reviewer:   orchestrator,
		Merger:     merger,
		Scaffolder: scaffolder,
		Serve:      webhookServer.Start,
		AnalyzeRepo: func(repoDir string) (gitstats.Report, error) {
			return gitstats.NewAnalyzer(repoDir).Analyze()
		},
		ExportStats: func(outputDir, repository string, report gitstats.Report) (string, error) {
			return statsWriter.Write(outputDir, repository, report)
		},
		DefaultOutput:      cfg.Output.Directory,
		DefaultMergeMethod: cfg.Merge.Method,
		DeleteBranch:       cfg.Merge.DeleteBranch,
	})

	return root.ExecuteContext(ctx)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewagent"))
	}
	return paths
}
