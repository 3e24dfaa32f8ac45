package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arenahq/arena/pkg/api"
	"github.com/arenahq/arena/pkg/config"
	"github.com/arenahq/arena/pkg/corpus"
	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/hints"
	"github.com/arenahq/arena/pkg/judge"
	"github.com/arenahq/arena/pkg/llmproxy"
	"github.com/arenahq/arena/pkg/retrieval"
	"github.com/arenahq/arena/pkg/scoring"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the arena HTTP action server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, cmd)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().String("server.address", "", "HTTP listen address, e.g. :8080")
	cmd.Flags().String("database.path", "", "Path to the sqlite database file")

	return cmd
}

func serve(configPath string, cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cfg.Logging.Level))
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))

	ctx := context.Background()

	dbClient, err := database.NewClient(ctx, database.Config{Path: cfg.Database.Path})
	if err != nil {
		return err
	}
	defer dbClient.Close()
	store := database.NewStore(dbClient)

	problems, err := corpus.NewProblemLoader(cfg.DataSources.ProblemDictPath, cfg.DataSources.TestsDir)
	if err != nil {
		return err
	}
	textbook, err := corpus.LoadTextbook(cfg.DataSources.TextbookPath)
	if err != nil {
		return err
	}
	strategy, err := corpus.LoadStrategyDoc(cfg.DataSources.StrategyPath)
	if err != nil {
		return err
	}
	guide, err := corpus.LoadGuide(cfg.DataSources.GuidePath)
	if err != nil {
		return err
	}

	allIDs := problems.ProblemIDs(nil)
	problemsIndex, err := retrieval.ProblemsIndex(allIDs, problems.LoadProblem)
	if err != nil {
		return err
	}
	articlesIndex := retrieval.ArticlesIndex(textbook.Articles)

	engine := scoring.NewEngine(store)
	judgeClient := judge.NewClient(judge.Config{Endpoint: cfg.OnlineJudge.Endpoint, Timeout: cfg.OnlineJudge.Timeout})
	hintService := hints.NewService(engine, problems, textbook, strategy, guide, problemsIndex, articlesIndex)
	llmProxy := llmproxy.NewProxy(engine)

	server, err := api.NewServer(api.Deps{
		Store:           store,
		Engine:          engine,
		Judge:           judgeClient,
		Problems:        problems,
		Hints:           hintService,
		LLM:             llmProxy,
		TokenSecret:     cfg.Server.TokenSecret,
		RateLimitPerSec: cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	})
	if err != nil {
		return err
	}

	slog.Info("arena listening", "address", cfg.Server.Address)
	return server.Router().Run(cfg.Server.Address)
}
