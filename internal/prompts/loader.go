// Package prompts holds the embedded LLM prompt templates. Templates use
// {{.Key}} placeholders filled from a string map.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// File is the template file used by the engine.
const File = "insights.json"

// Template keys in File.
const (
	EvaluateDiscoveredSkill = "evaluate-discovered-skill"
	DraftInsightCards       = "draft-insight-cards"
)

var placeholder = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// loadAll parses every embedded file once.
var loadAll = sync.OnceValues(func() (map[string]map[string]string, error) {
	names, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}

	files := make(map[string]map[string]string, len(names))
	for _, entry := range names {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := promptFiles.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
		}
		files[entry.Name()] = templates
	}
	return files, nil
})

// Get retrieves a template by file name and key.
func Get(filename, key string) (string, error) {
	files, err := loadAll()
	if err != nil {
		return "", err
	}
	templates, ok := files[filename]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", filename)
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// MustGet is Get for templates that must exist; it panics otherwise.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Format replaces {{.Key}} placeholders with values from data. Placeholders
// without a value are left in place.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if v, ok := data[key]; ok {
			return v
		}
		return m
	})
}

// Placeholders returns the distinct placeholder keys of template, sorted.
func Placeholders(template string) []string {
	var keys []string
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		keys = append(keys, m[1])
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Render formats the template key of File and fails when data leaves any
// placeholder unfilled.
func Render(key string, data map[string]string) (string, error) {
	template, err := Get(File, key)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, k := range Placeholders(template) {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %q is missing values for %s", key, strings.Join(missing, ", "))
	}
	return Format(template, data), nil
}

// MustRender is Render for callers whose data always matches the template.
func MustRender(key string, data map[string]string) string {
	out, err := Render(key, data)
	if err != nil {
		panic(err)
	}
	return out
}

// List returns the template keys in a file, sorted.
func List(filename string) ([]string, error) {
	files, err := loadAll()
	if err != nil {
		return nil, err
	}
	templates, ok := files[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}

	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}
