package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/observability"
	"github.com/jonathan/insight-engine/internal/persona"
	"github.com/jonathan/insight-engine/internal/types"
)

var classifyPersonaCmd = &cobra.Command{
	Use:   "classify-persona",
	Short: "Classify workspace signals into a persona track and submode",
	Long:  "Reads PersonaSignals JSON and writes the Persona (track, submode, recommended focus and why-this-today line).",
	RunE:  runClassifyPersona,
}

var (
	classifySignals string
	classifyOutput  string
)

func init() {
	classifyPersonaCmd.Flags().StringVarP(&classifySignals, "signals", "s", "", "Path to PersonaSignals JSON (defaults to stdin)")
	classifyPersonaCmd.Flags().StringVarP(&classifyOutput, "out", "o", "", "Path to output Persona JSON (defaults to stdout)")

	rootCmd.AddCommand(classifyPersonaCmd)
}

func runClassifyPersona(cmd *cobra.Command, _ []string) error {
	var signals types.PersonaSignals
	if err := readJSONInput(cmd, classifySignals, &signals); err != nil {
		return err
	}

	p := persona.Classify(signals)
	logger.Debug("persona classified",
		zap.String("track", string(p.Track)),
		zap.String("submode", string(p.Submode)))

	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintPersona(p)
	}
	return writeJSONOutput(cmd, classifyOutput, p)
}
