package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/insight-engine/internal/observability"
	"github.com/jonathan/insight-engine/internal/ranking"
	"github.com/jonathan/insight-engine/internal/types"
)

var rankCardsCmd = &cobra.Command{
	Use:   "rank-cards",
	Short: "Rank candidate insight cards",
	Long: `Deterministically ranks a RankRequest: cards are scored, de-duplicated by title, sorted and
an exploration slice is drawn with the request seed. Hybrid learning blends in the request priors.`,
	RunE: runRankCards,
}

var (
	rankInput  string
	rankOutput string
	rankLimit  int
)

// rankCardsResult is the rank-cards output document.
type rankCardsResult struct {
	Cards  []types.RankableCard[json.RawMessage] `json:"cards"`
	Scores []float64                             `json:"scores"`
	Stats  ranking.Stats                         `json:"stats"`
}

func init() {
	rankCardsCmd.Flags().StringVarP(&rankInput, "in", "i", "", "Path to RankRequest JSON (defaults to stdin)")
	rankCardsCmd.Flags().StringVarP(&rankOutput, "out", "o", "", "Path to output ranked cards JSON (defaults to stdout)")
	rankCardsCmd.Flags().IntVar(&rankLimit, "limit", 0, "Maximum cards to return (defaults to the request limit, then rank_limit; 0 returns every surviving card)")

	rootCmd.AddCommand(rankCardsCmd)
}

func runRankCards(cmd *cobra.Command, _ []string) error {
	var req types.RankRequest
	if err := readJSONInput(cmd, rankInput, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid rank request: %w", err)
	}

	cards := make([]types.RankableCard[json.RawMessage], len(req.Cards))
	for i, c := range req.Cards {
		cards[i] = ranking.NewCard(c.Card, c.Title, c.Kind, c.Meta)
	}

	pct := cfg.ExplorationPct
	if req.ExplorationPct != nil {
		pct = *req.ExplorationPct
	}
	opts := []ranking.Option{ranking.WithExplorationPct(pct)}
	if req.HybridLearning && req.Priors != nil {
		opts = append(opts, ranking.WithHybridLearning(*req.Priors))
	}

	limit := cfg.RankLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if cmd.Flags().Changed("limit") {
		limit = rankLimit
	}

	var stats ranking.Stats
	ranked, err := ranking.RankInsightCards(cards, req.Seed,
		append(opts, ranking.WithLimit(limit), ranking.WithStats(&stats))...)
	if err != nil {
		return fmt.Errorf("failed to rank cards: %w", err)
	}

	scores := make([]float64, len(ranked))
	for i, c := range ranked {
		scores[i] = ranking.ScoreCard(c.InsightMeta, opts...)
	}

	if verbose {
		observability.PrintRankedCards(observability.NewPrinter(cmd.ErrOrStderr()), ranked, stats, opts...)
	}
	return writeJSONOutput(cmd, rankOutput, rankCardsResult{Cards: ranked, Scores: scores, Stats: stats})
}
