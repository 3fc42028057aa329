// Package skills maintains the catalog of advisory skills (framing strategies),
// the policy that bounds which skills a run may use, and the gate that decides
// whether a newly discovered skill may be used at all.
package skills

import (
	"slices"

	"github.com/jonathan/insight-engine/internal/types"
)

// Catalog is an immutable, ordered set of skills keyed by ref.
// Build a new Catalog to change it; never mutate one that has been shared.
type Catalog struct {
	skills []types.Skill
	byRef  map[string]int
}

// NewCatalog merges feed entries into the built-ins. A feed entry whose ref
// matches an existing entry replaces it in place; new refs are appended.
func NewCatalog(builtins []types.Skill, feed []types.Skill) *Catalog {
	c := &Catalog{
		skills: make([]types.Skill, 0, len(builtins)+len(feed)),
		byRef:  make(map[string]int, len(builtins)+len(feed)),
	}
	for _, s := range builtins {
		c.put(s)
	}
	for _, s := range feed {
		c.put(s)
	}
	return c
}

// DefaultCatalog returns a catalog made of the built-in skills only.
func DefaultCatalog() *Catalog {
	return NewCatalog(builtinSkills, nil)
}

func (c *Catalog) put(s types.Skill) {
	s = cloneSkill(s)
	if i, ok := c.byRef[s.Ref]; ok {
		c.skills[i] = s
		return
	}
	c.byRef[s.Ref] = len(c.skills)
	c.skills = append(c.skills, s)
}

// Len returns the number of skills in the catalog.
func (c *Catalog) Len() int {
	return len(c.skills)
}

// All returns every skill in catalog order.
func (c *Catalog) All() []types.Skill {
	out := make([]types.Skill, len(c.skills))
	for i, s := range c.skills {
		out[i] = cloneSkill(s)
	}
	return out
}

// Get looks up a skill by ref.
func (c *Catalog) Get(ref string) (types.Skill, bool) {
	i, ok := c.byRef[ref]
	if !ok {
		return types.Skill{}, false
	}
	return cloneSkill(c.skills[i]), true
}

// SkillsForPersona returns the skills tagged for track, in catalog order.
func (c *Catalog) SkillsForPersona(track types.PersonaTrack) []types.Skill {
	var out []types.Skill
	for _, s := range c.skills {
		if s.AppliesTo(track) {
			out = append(out, cloneSkill(s))
		}
	}
	return out
}

func cloneSkill(s types.Skill) types.Skill {
	s.Personas = slices.Clone(s.Personas)
	return s
}
