// Package analyzer implements the optional LLM enrichment pass over a raw incident.
package analyzer

// Enrichment is the structured LLM analysis of one incident. Its fields
// augment the heuristic result; the engine treats it as advisory.
type Enrichment struct {
	Classification       string   `json:"classification"` // true-positive, false-positive, unknown
	Confidence           int      `json:"confidence"`     // 0..100
	Summary              string   `json:"summary"`
	AttackNarrative      string   `json:"attack_narrative,omitempty"`
	BehavioralIndicators []string `json:"behavioral_indicators"`
	NetworkIndicators    []string `json:"network_indicators"`
	MitreTechniques      []string `json:"mitre_techniques"`
	Recommendations      []string `json:"recommendations"`
}

// ValidClassifications are the accepted classification values.
var ValidClassifications = map[string]bool{
	"true-positive":  true,
	"false-positive": true,
	"unknown":        true,
}

// FailsafeConfidence is the fixed confidence of a failsafe result.
const FailsafeConfidence = 50

// Failsafe returns the complete, well-formed result used when the LLM path
// fails. Downstream consumers see classification "unknown" with confidence 50
// and route the incident to human review.
func Failsafe() Enrichment {
	return Enrichment{
		Classification:       "unknown",
		Confidence:           FailsafeConfidence,
		Summary:              "Automated analysis unavailable; heuristic signals only. Manual review recommended.",
		BehavioralIndicators: []string{},
		NetworkIndicators:    []string{},
		MitreTechniques:      []string{},
		Recommendations:      []string{"Review this incident manually; the analysis service did not respond."},
	}
}

// EnrichmentSchema is the JSON Schema for constrained LLM output
// (Anthropic tool_use input schema / Ollama format parameter).
var EnrichmentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"classification": map[string]interface{}{"type": "string", "enum": []string{"true-positive", "false-positive", "unknown"}},
		"confidence":     map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
		"summary":        map[string]interface{}{"type": "string"},
		"attack_narrative": map[string]interface{}{
			"type": "string",
		},
		"behavioral_indicators": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"network_indicators":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"mitre_techniques":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"recommendations":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	},
	"required": []interface{}{"classification", "confidence", "summary"},
}
