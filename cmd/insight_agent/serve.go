package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/insight-engine/internal/metrics"
	"github.com/jonathan/insight-engine/internal/server"
	"github.com/jonathan/insight-engine/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes persona classification, skill selection, the discovered-skill
gate, ranking, full runs and feedback. Runs and skill evaluation need an LLM API key; feedback
and hybrid priors need database_url.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to port from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Manager
	if cfg.MetricsEnabled {
		m = metrics.NewManager()
	}

	store := newSkillStore(cfg, m, logger)

	eng, err := openEngine(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	deps := server.Deps{
		Skills:  store,
		Metrics: m,
		Logger:  logger,
	}
	if eng.evaluator != nil {
		deps.Evaluator = eng.evaluator
	}
	if eng.db != nil {
		deps.Feedback = eng.db
		deps.Runs = eng.db
	}
	if eng.generator != nil {
		runner, err := newRunner(eng, store, m, cfg.RankLimit)
		if err != nil {
			return err
		}
		deps.Runner = runner
	}

	srv, err := server.New(server.Config{
		Port:                 cfg.Port,
		MaxSkills:            cfg.MaxSkills,
		PartnerSkillsEnabled: cfg.PartnerSkillsEnabled,
		ExplorationPct:       cfg.ExplorationPct,
		RankLimit:            cfg.RankLimit,
		RateLimit:            ratelimit.DefaultConfig(cfg.RateLimitEnabled, cfg.RateLimitPerMinute),
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if cfg.WatchSkillFeed {
		g.Go(func() error {
			if err := store.Watch(gctx, cfg.SkillFeedPath); err != nil {
				// The server keeps the last good catalog.
				logger.Error("skill feed watcher stopped", zap.Error(err))
			}
			return nil
		})
	}
	if cfg.SkillFeedRefresh > 0 {
		g.Go(func() error {
			store.Poll(gctx, cfg.SkillFeedRefresh)
			return nil
		})
	}
	return g.Wait()
}
