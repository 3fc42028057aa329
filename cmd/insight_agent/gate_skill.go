package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/skills"
	"github.com/jonathan/insight-engine/internal/types"
)

var gateSkillCmd = &cobra.Command{
	Use:   "gate-skill",
	Short: "Decide whether a discovered skill candidate may influence a run",
	Long:  "Reads a DiscoveredSkillCandidate JSON (an evaluator verdict) and writes the gate decision.",
	RunE:  runGateSkill,
}

var (
	gateCandidate string
	gateOutput    string
)

func init() {
	gateSkillCmd.Flags().StringVarP(&gateCandidate, "candidate", "c", "", "Path to DiscoveredSkillCandidate JSON (defaults to stdin)")
	gateSkillCmd.Flags().StringVarP(&gateOutput, "out", "o", "", "Path to output GateResponse JSON (defaults to stdout)")

	rootCmd.AddCommand(gateSkillCmd)
}

func runGateSkill(cmd *cobra.Command, _ []string) error {
	var candidate types.DiscoveredSkillCandidate
	if err := readJSONInput(cmd, gateCandidate, &candidate); err != nil {
		return err
	}

	admitted := skills.ShouldUseDiscoveredSkill(candidate)
	logger.Debug("gate decision",
		zap.String("skill_ref", candidate.SkillRef),
		zap.Bool("admitted", admitted))

	return writeJSONOutput(cmd, gateOutput, types.GateResponse{
		SkillRef: candidate.SkillRef,
		Admitted: admitted,
	})
}
