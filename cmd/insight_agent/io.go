package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/insight-engine/internal/config"
	"github.com/jonathan/insight-engine/internal/metrics"
	"github.com/jonathan/insight-engine/internal/skills"
)

// readJSONInput decodes the JSON document at path into v. An empty path or
// "-" reads stdin.
func readJSONInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	name := "stdin"
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input file %s: %w", path, err)
		}
		defer f.Close()
		r = f
		name = path
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", name, err)
	}
	return nil
}

// writeJSONOutput writes v as indented JSON to path, or to stdout when path
// is empty.
func writeJSONOutput(cmd *cobra.Command, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	// Ensure output directory exists
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// newSkillStore builds the skill store from cfg. The feed comes from
// skill_feed_path or skill_feed_url when set, otherwise from the inline feed
// env var. m may be nil.
func newSkillStore(cfg *config.Config, m *metrics.Manager, logger *zap.Logger) *skills.Store {
	var source skills.FeedSource = skills.EnvFeed(skills.FeedEnvVar)
	switch {
	case cfg.SkillFeedPath != "":
		source = skills.FileFeed(cfg.SkillFeedPath)
	case cfg.SkillFeedURL != "":
		source = skills.URLFeed{URL: cfg.SkillFeedURL}
	}

	var store *skills.Store
	store = skills.NewStore(source, logger, skills.WithReloadHook(func(ok bool) {
		m.RecordCatalogReload(ok)
		// nil during the initial load inside NewStore
		if store != nil {
			m.SetCatalogSize(store.Catalog().Len())
		}
	}))
	m.SetCatalogSize(store.Catalog().Len())
	return store
}
