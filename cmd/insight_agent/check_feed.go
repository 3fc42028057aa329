package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/skills"
)

var checkFeedCmd = &cobra.Command{
	Use:   "check-feed",
	Short: "Validate a distilled skill feed without loading it",
	Long: "Parses a distilled skill feed the same way the skill store does and reports " +
		"which entries would be accepted and why the others would be skipped.",
	RunE: runCheckFeed,
}

var (
	checkFeedInput  string
	checkFeedOutput string
	checkFeedStrict bool
)

type rejectedFeedEntry struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type checkFeedResult struct {
	Accepted []string            `json:"accepted"`
	Rejected []rejectedFeedEntry `json:"rejected"`
}

func init() {
	checkFeedCmd.Flags().StringVarP(&checkFeedInput, "feed", "f", "", "Path to the feed JSON (defaults to stdin)")
	checkFeedCmd.Flags().StringVarP(&checkFeedOutput, "out", "o", "", "Path to output report JSON (defaults to stdout)")
	checkFeedCmd.Flags().BoolVar(&checkFeedStrict, "strict", false, "Fail when any entry is rejected")

	rootCmd.AddCommand(checkFeedCmd)
}

func runCheckFeed(cmd *cobra.Command, _ []string) error {
	var (
		data []byte
		err  error
	)
	if checkFeedInput == "" || checkFeedInput == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(checkFeedInput)
	}
	if err != nil {
		return fmt.Errorf("failed to read skill feed: %w", err)
	}

	parsed, err := skills.ParseDistilledFeed(data)
	if err != nil {
		return err
	}

	result := checkFeedResult{
		Accepted: make([]string, 0, len(parsed.Skills)),
		Rejected: make([]rejectedFeedEntry, 0, len(parsed.Rejected)),
	}
	for _, s := range parsed.Skills {
		result.Accepted = append(result.Accepted, s.Ref)
	}
	for _, r := range parsed.Rejected {
		result.Rejected = append(result.Rejected, rejectedFeedEntry{Index: r.Index, Reason: r.Reason})
	}

	logger.Debug("checked skill feed",
		zap.Int("accepted", len(result.Accepted)),
		zap.Int("rejected", len(result.Rejected)))

	if err := writeJSONOutput(cmd, checkFeedOutput, result); err != nil {
		return err
	}
	if checkFeedStrict && len(result.Rejected) > 0 {
		return fmt.Errorf("%d feed entries rejected", len(result.Rejected))
	}
	return nil
}
