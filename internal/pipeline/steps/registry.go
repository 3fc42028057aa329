// Package steps defines the stages of an insight run and the order they run in.
package steps

import (
	"fmt"
	"sort"

	dbpkg "github.com/jonathan/insight-engine/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Description  string
	Dependencies []string
}

// StepRegistry holds all step definitions, keyed by the artifact step name
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepPersona: {
		Name:        dbpkg.StepPersona,
		Description: "Classifying persona",
	},
	dbpkg.StepSkills: {
		Name:         dbpkg.StepSkills,
		Description:  "Selecting catalog skills",
		Dependencies: []string{dbpkg.StepPersona},
	},
	dbpkg.StepGate: {
		Name:         dbpkg.StepGate,
		Description:  "Evaluating discovered skills",
		Dependencies: []string{dbpkg.StepSkills},
	},
	dbpkg.StepDraft: {
		Name:         dbpkg.StepDraft,
		Description:  "Drafting insight cards",
		Dependencies: []string{dbpkg.StepGate},
	},
	dbpkg.StepPriorTable: {
		Name:         dbpkg.StepPriorTable,
		Description:  "Loading historical priors",
		Dependencies: []string{dbpkg.StepPersona},
	},
	dbpkg.StepRankStats: {
		Name:         dbpkg.StepRankStats,
		Description:  "Ranking cards",
		Dependencies: []string{dbpkg.StepDraft, dbpkg.StepPriorTable},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every dependency of stepName is in done
func ValidateDependencies(done map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !done[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// Order returns every step with dependencies before dependents. Steps that
// become ready together are ordered by name.
func Order() []string {
	done := make(map[string]bool, len(StepRegistry))
	order := make([]string, 0, len(StepRegistry))

	for len(order) < len(StepRegistry) {
		var ready []string
		for name := range StepRegistry {
			if done[name] {
				continue
			}
			if ValidateDependencies(done, name) == nil {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			// A cycle in the registry; refuse to loop forever.
			panic("steps: dependency cycle in StepRegistry")
		}
		sort.Strings(ready)
		for _, name := range ready {
			done[name] = true
			order = append(order, name)
		}
	}
	return order
}
