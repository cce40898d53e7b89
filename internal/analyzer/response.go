package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseEnrichment parses an Enrichment from raw LLM JSON output and
// normalizes its fields. Out-of-range values are clamped rather than
// rejected; only malformed JSON is an error.
func ParseEnrichment(rawOutput string) (Enrichment, error) {
	cleaned := cleanJSONResponse(rawOutput)

	var enrichment Enrichment
	if err := json.Unmarshal([]byte(cleaned), &enrichment); err != nil {
		return Enrichment{}, fmt.Errorf("parse enrichment: %w", err)
	}

	enrichment.Classification = strings.ToLower(strings.TrimSpace(enrichment.Classification))
	if !ValidClassifications[enrichment.Classification] {
		enrichment.Classification = "unknown"
	}

	if enrichment.Confidence < 0 {
		enrichment.Confidence = 0
	}
	if enrichment.Confidence > 100 {
		enrichment.Confidence = 100
	}

	if enrichment.Summary == "" {
		enrichment.Summary = "No summary provided."
	}

	enrichment.BehavioralIndicators = trimList(enrichment.BehavioralIndicators)
	enrichment.NetworkIndicators = trimList(enrichment.NetworkIndicators)
	enrichment.MitreTechniques = trimList(enrichment.MitreTechniques)
	enrichment.Recommendations = trimList(enrichment.Recommendations)

	return enrichment, nil
}

// trimList drops empty entries and ensures a non-nil slice for JSON output.
func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanJSONResponse strips markdown code fences and leading/trailing whitespace.
func cleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)

	// Remove ```json ... ``` wrapper
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}
