// Package prompt assembles the instruction sent to the remote vision model,
// including the JSON response contract and optional local-model hints.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Evils19/BioMasa/pkg/types"
)

// PromptVersion tags the instruction contract. Bump when the response
// schema or rules change.
const PromptVersion = "v2"

// SystemPrompt frames the remote model's role for the chat request.
const SystemPrompt = `You are an expert in pasture biomass analysis. You estimate dry matter components from pasture photographs and always answer with a single JSON object.`

// biomassPrompt is the fixed analysis instruction. JSON field names match
// types.VisionResponse; deserialization is case-insensitive.
const biomassPrompt = `Analyze this pasture photograph and estimate its biomass components.

Return JSON only, exactly this shape:
{
  "Id": "string (optional, may be empty)",
  "Title": "short title for the analysis",
  "Description": "what the pasture looks like and how you estimated",
  "DryGreen": 0.0,
  "DryClover": 0.0,
  "DryDead": 0.0,
  "DryTotal": 0.0,
  "Gdm": 0.0,
  "Recommendations": "grazing and management recommendations",
  "Confidence": 0.0
}

RULES
- All biomass values are dry mass in grams and must be non-negative realistic numbers.
- DryTotal must equal DryGreen + DryClover + DryDead.
- Gdm (green dry matter) should be approximately 0.85 * DryGreen.
- Confidence is a number in [0,1].
- If the image is not a pasture, set every biomass value to 0 and explain why in Description.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Builder constructs analysis prompts. Deterministic: the same hint always
// produces the same text.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the analysis instruction. A successful local prediction is
// prepended as a contextual hint; the model is asked to refine the numbers,
// never to copy them.
func (b *Builder) Build(hint *types.LocalPrediction) string {
	if hint == nil || !hint.OK {
		return biomassPrompt
	}

	var sb strings.Builder
	sb.WriteString("A local regression model produced these preliminary estimates (grams):\n")
	fmt.Fprintf(&sb, "- green dry mass: %.1f\n", hint.Components.DryGreen)
	fmt.Fprintf(&sb, "- clover dry mass: %.1f\n", hint.Components.DryClover)
	fmt.Fprintf(&sb, "- dead dry mass: %.1f\n", hint.Components.DryDead)
	fmt.Fprintf(&sb, "- total dry mass: %.1f\n", hint.Components.DryTotal)
	fmt.Fprintf(&sb, "- green dry matter: %.1f\n", hint.Components.Gdm)
	fmt.Fprintf(&sb, "Local model confidence: %.2f\n", hint.Confidence)
	sb.WriteString("Use them as context and refine them based on what you actually see in the image.\n\n")
	sb.WriteString(biomassPrompt)
	return sb.String()
}
