package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/observability"
	"github.com/jonathan/insight-engine/internal/pipeline"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/server"
	"github.com/jonathan/insight-engine/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full insight pipeline end-to-end",
	Long: `Orchestrates one run: persona -> skills -> discovered skills -> priors -> drafting -> ranking.

The input is a run request JSON (workspace_id, signals, program_type, proposals, context).
Runs and their artifacts are persisted when database_url is configured.`,
	RunE: runPipelineCmd,
}

var (
	runInput  string
	runOutput string
	runLimit  int
)

func init() {
	runCommand.Flags().StringVarP(&runInput, "in", "i", "", "Path to run request JSON (defaults to stdin)")
	runCommand.Flags().StringVarP(&runOutput, "out", "o", "", "Path to output run result JSON (defaults to stdout)")
	runCommand.Flags().IntVar(&runLimit, "limit", 0, "Maximum ranked cards to return (defaults to rank_limit; 0 returns every surviving card)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	var req server.RunRequest
	if err := readJSONInput(cmd, runInput, &req); err != nil {
		return err
	}
	if err := types.ValidateStruct(req); err != nil {
		return fmt.Errorf("invalid run request: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	eng, err := openEngine(ctx, cfg, true, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	limit := cfg.RankLimit
	if cmd.Flags().Changed("limit") {
		limit = runLimit
	}
	orch, err := newRunner(eng, newSkillStore(cfg, nil, logger), nil, limit)
	if err != nil {
		return err
	}

	input := req.ToInput()
	input.OnProgress = func(ev pipeline.ProgressEvent) {
		logger.Info("run progress",
			zap.String("step", ev.Step),
			zap.String("message", ev.Message),
			zap.Int("index", ev.Index),
			zap.Int("total", ev.Total))
	}

	result, err := orch.Run(ctx, input)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if verbose {
		printRun(cmd, result)
	}
	return writeJSONOutput(cmd, runOutput, result)
}

// printRun writes the stage summaries of a finished run to stderr.
func printRun(cmd *cobra.Command, result *pipeline.Result) {
	p := observability.NewPrinter(cmd.ErrOrStderr())
	p.PrintPersona(result.Persona)
	p.PrintSkills(result.Skills)
	p.PrintEvaluations(result.Evaluations)

	var opts []ranking.Option
	if cfg.HybridLearningEnabled && !result.Priors.Empty() {
		opts = append(opts, ranking.WithHybridLearning(result.Priors))
	}
	observability.PrintRankedCards(p, result.Cards, result.Stats, opts...)
}
