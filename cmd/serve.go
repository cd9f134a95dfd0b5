package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhisek/studyplan/internal/api"
	"github.com/abhisek/studyplan/internal/config"
	"github.com/abhisek/studyplan/internal/content"
	"github.com/abhisek/studyplan/internal/llm"
	"github.com/abhisek/studyplan/internal/logger"
	"github.com/abhisek/studyplan/internal/planner"
	"github.com/abhisek/studyplan/internal/prompt"
	"github.com/abhisek/studyplan/internal/store"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides STUDYPLAN_ADDR)")
	serveCmd.Flags().Bool("mock", false, "Use the canned mock provider instead of a real LLM")
}

// runServe wires config, store, provider, composer and planner, then
// serves until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg := config.Load()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	llmCfg, err := providerConfig(cmd)
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}
	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), log)
	if err != nil {
		return fmt.Errorf("build LLM provider: %w", err)
	}

	composer := prompt.NewComposer(content.NewDirLoader(cfg.DataDir), log)
	if err := composer.Check(); err != nil {
		return fmt.Errorf("static content in %s: %w", cfg.DataDir, err)
	}

	svc := planner.NewService(st.Students(), st.Plans(), composer, provider, log)
	srv := api.NewServer(svc, log, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
	})

	log.Info("starting",
		"version", version,
		"db", dbPath,
		"data_dir", cfg.DataDir,
		"provider", provider.Name(),
		"model", provider.ModelID(),
	)
	return srv.Run(ctx, cfg.Addr, shutdownTimeout)
}

func providerConfig(cmd *cobra.Command) (llm.Config, error) {
	if mock, _ := cmd.Flags().GetBool("mock"); mock {
		cfg := llm.DefaultConfig()
		cfg.Provider = llm.ProviderMock
		return cfg, nil
	}
	return config.LLM()
}

