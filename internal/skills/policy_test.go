package skills

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/jonathan/insight-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPartnerSkills(t *testing.T) {
	tests := []struct {
		name        string
		programType string
		flag        bool
		want        bool
	}{
		{name: "partner cohort with flag", programType: "design_partner", flag: true, want: true},
		{name: "case and whitespace", programType: "  Design_Partner ", flag: true, want: true},
		{name: "flag alone", programType: "standard", flag: true, want: false},
		{name: "cohort without flag", programType: "design_partner", flag: false, want: false},
		{name: "empty program", programType: "", flag: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowPartnerSkills(tt.programType, tt.flag))
		})
	}
}

func TestApplySkillPolicy_FiltersThenTruncates(t *testing.T) {
	skills := []types.Skill{
		{Ref: "p1", Source: types.SkillSourcePartner},
		{Ref: "c1", Source: types.SkillSourceCurated},
		{Ref: "c2", Source: types.SkillSourceCurated},
		{Ref: "p2", Source: types.SkillSourcePartner},
		{Ref: "c3", Source: types.SkillSourceCurated},
		{Ref: "c4", Source: types.SkillSourceCurated},
	}

	assert.Equal(t, []string{"c1", "c2", "c3"}, refs(ApplySkillPolicy(skills, false, DefaultMaxSkills)))
	assert.Equal(t, []string{"p1", "c1", "c2"}, refs(ApplySkillPolicy(skills, true, DefaultMaxSkills)))
	assert.Equal(t, []string{"c1"}, refs(ApplySkillPolicy(skills, false, 0)))
	assert.Equal(t, []string{"c1"}, refs(ApplySkillPolicy(skills, false, -4)))
	assert.Len(t, ApplySkillPolicy(skills, true, 100), 6)
	assert.Empty(t, ApplySkillPolicy(nil, true, 3))
}

func TestApplySkillPolicy_NeverReturnsPartnerWhenExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := rng.Intn(12)
		skills := make([]types.Skill, n)
		for j := range skills {
			source := types.SkillSourceCurated
			if rng.Intn(2) == 0 {
				source = types.SkillSourcePartner
			}
			skills[j] = types.Skill{Ref: fmt.Sprintf("s%d", j), Source: source}
		}
		maxSkills := rng.Intn(8) - 2

		out := ApplySkillPolicy(skills, false, maxSkills)

		assert.LessOrEqual(t, len(out), max(maxSkills, 1))
		for _, s := range out {
			require.NotEqual(t, types.SkillSourcePartner, s.Source, "iteration %d", i)
		}
	}
}

func TestSelectForRun(t *testing.T) {
	catalog := DefaultCatalog()

	selected := SelectForRun(catalog, types.TrackSmallTeam, SelectOptions{})
	require.Len(t, selected, DefaultMaxSkills)
	for _, s := range selected {
		assert.Equal(t, types.SkillOriginCurated, s.Origin)
		assert.True(t, s.Skill.AppliesTo(types.TrackSmallTeam))
	}

	partner := SelectForRun(catalog, types.TrackSmallTeam, SelectOptions{
		ProgramType:          "design_partner",
		PartnerSkillsEnabled: true,
		MaxSkills:            10,
	})
	var origins []types.SkillOrigin
	for _, s := range partner {
		origins = append(origins, s.Origin)
	}
	assert.Contains(t, origins, types.SkillOriginPartner)
}
