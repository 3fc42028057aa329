package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildStructuredPrompt_Object(t *testing.T) {
	prompt := BuildStructuredPrompt("Judge the skill.", SkillVerdictSchema(), "persona: SOLO_FOUNDER")

	assert.True(t, strings.HasPrefix(prompt, "Judge the skill.\n\n"))
	assert.Contains(t, prompt, `"decision": "USE" | "SKIP" (required)`)
	assert.Contains(t, prompt, `"fit_reason": "string" // One sentence`)
	assert.Contains(t, prompt, "persona: SOLO_FOUNDER")
	assert.NotContains(t, prompt, `"cards": [`)
}

func TestBuildStructuredPrompt_Array(t *testing.T) {
	prompt := BuildStructuredPrompt("Draft cards.", InsightCardsSchema(), "")

	assert.Contains(t, prompt, "{\n  \"cards\": [\n    {\n")
	assert.Contains(t, prompt, `      "title": "string" (required)`)
	assert.Contains(t, prompt, "    }\n  ]\n}\n")
}

func TestBuildStructuredPrompt_LastFieldHasNoComma(t *testing.T) {
	schema := OutputSchema{Fields: []SchemaField{{Name: "a"}, {Name: "b", Type: "number"}}}
	prompt := BuildStructuredPrompt("x", schema, "")

	assert.Contains(t, prompt, "  \"a\": \"string\",\n")
	assert.Contains(t, prompt, "  \"b\": number\n}")
}
