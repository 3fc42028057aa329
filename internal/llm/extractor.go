// Package llm - extractor.go builds prompts that ask for a fixed JSON shape.
package llm

import (
	"fmt"
	"strings"
)

// OutputSchema describes the JSON object a prompt asks the model to return.
type OutputSchema struct {
	Name   string
	Fields []SchemaField
	// Array wraps the object in a top-level field of the given name holding a list.
	Array string
}

// SchemaField defines a single field in the expected output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "number", "[\"string\"]"
	Description string
	Required    bool
}

// BuildStructuredPrompt appends the output contract for schema to
// instructions, followed by the input context.
func BuildStructuredPrompt(instructions string, schema OutputSchema, context string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	indent := "  "
	if schema.Array != "" {
		sb.WriteString(fmt.Sprintf("{\n  \"%s\": [\n    {\n", schema.Array))
		indent = "      "
	} else {
		sb.WriteString("{\n")
	}
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "\"string\""
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("%s\"%s\": %s%s", indent, field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	if schema.Array != "" {
		sb.WriteString("    }\n  ]\n}\n\n")
	} else {
		sb.WriteString("}\n\n")
	}

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Return ONLY the JSON, no markdown, no explanation, no code blocks.\n")
	sb.WriteString("- Scores are numbers between 0 and 1.\n\n")

	sb.WriteString("Context:\n\"\"\"\n")
	sb.WriteString(context)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// SkillVerdictSchema is the evaluator's verdict on one proposed skill.
func SkillVerdictSchema() OutputSchema {
	return OutputSchema{
		Name: "SkillVerdict",
		Fields: []SchemaField{
			{Name: "decision", Type: "\"USE\" | \"SKIP\"", Required: true},
			{Name: "risk", Type: "\"low\" | \"medium\" | \"high\"", Description: "Chance the framing misleads or oversteps", Required: true},
			{Name: "expected_helpful_lift", Type: "number", Description: "Expected gain in helpful-rate", Required: true},
			{Name: "expected_action_lift", Type: "number", Description: "Expected gain in action completion"},
			{Name: "confidence", Type: "number", Required: true},
			{Name: "fit_reason", Description: "One sentence on why the skill fits this persona"},
		},
	}
}

// InsightCardsSchema is the drafting output: a list of candidate cards.
func InsightCardsSchema() OutputSchema {
	return OutputSchema{
		Name:  "InsightCards",
		Array: "cards",
		Fields: []SchemaField{
			{Name: "title", Description: "Short, specific headline", Required: true},
			{Name: "body", Description: "Two or three sentences with the suggested action", Required: true},
			{Name: "kind", Type: "\"action\" | \"risk\" | \"focus\" | \"reflection\""},
			{Name: "skill_ref", Description: "Ref of the skill used to frame the card"},
			{Name: "citations", Type: "[\"string\"]", Description: "Signals the card is based on"},
			{Name: "relevance_score", Type: "number"},
			{Name: "actionability_score", Type: "number"},
			{Name: "confidence_score", Type: "number"},
			{Name: "novelty_score", Type: "number"},
			{Name: "expected_helpful_lift", Type: "number"},
			{Name: "expected_action_lift", Type: "number"},
		},
	}
}
