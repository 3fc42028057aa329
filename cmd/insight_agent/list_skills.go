package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/insight-engine/internal/observability"
	"github.com/jonathan/insight-engine/internal/skills"
	"github.com/jonathan/insight-engine/internal/types"
)

var listSkillsCmd = &cobra.Command{
	Use:   "list-skills",
	Short: "List the skills selected for a persona track",
	Long: `Loads the skill catalog (built-ins merged with the distilled feed) and prints the skills
a run for the given track would use, after the partner policy and the max-skills bound.`,
	RunE: runListSkills,
}

var (
	listSkillsTrack       string
	listSkillsProgramType string
	listSkillsMax         int
	listSkillsOutput      string
)

func init() {
	listSkillsCmd.Flags().StringVarP(&listSkillsTrack, "track", "t", "", "Persona track, e.g. SOLO_FOUNDER (required)")
	listSkillsCmd.Flags().StringVar(&listSkillsProgramType, "program-type", "", "Workspace program type (design_partner allows partner skills)")
	listSkillsCmd.Flags().IntVar(&listSkillsMax, "max", 0, "Maximum skills to return (defaults to max_skills from config)")
	listSkillsCmd.Flags().StringVarP(&listSkillsOutput, "out", "o", "", "Path to output SkillsResponse JSON (defaults to stdout)")

	if err := listSkillsCmd.MarkFlagRequired("track"); err != nil {
		panic(fmt.Sprintf("failed to mark track flag as required: %v", err))
	}

	rootCmd.AddCommand(listSkillsCmd)
}

func runListSkills(cmd *cobra.Command, _ []string) error {
	track := types.PersonaTrack(listSkillsTrack)
	if !track.Valid() {
		return fmt.Errorf("invalid persona track %q", listSkillsTrack)
	}

	maxSkills := cfg.MaxSkills
	if listSkillsMax > 0 {
		maxSkills = listSkillsMax
	}

	store := newSkillStore(cfg, nil, logger)
	selected := skills.SelectForRun(store.Catalog(), track, skills.SelectOptions{
		ProgramType:          listSkillsProgramType,
		PartnerSkillsEnabled: cfg.PartnerSkillsEnabled,
		MaxSkills:            maxSkills,
	})

	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintSkills(selected)
	}
	return writeJSONOutput(cmd, listSkillsOutput, types.SkillsResponse{
		Track:           track,
		PartnerIncluded: skills.AllowPartnerSkills(listSkillsProgramType, cfg.PartnerSkillsEnabled),
		Skills:          selected,
	})
}
