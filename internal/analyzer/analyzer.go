package analyzer

import (
	"context"
	"fmt"
	"os"
)

// Analyzer runs LLM enrichment for one incident at a time.
type Analyzer struct {
	provider Provider
	verbose  bool
}

// New creates an Analyzer backed by the given provider.
func New(provider Provider, verbose bool) *Analyzer {
	return &Analyzer{provider: provider, verbose: verbose}
}

// Analyze sends one incident to the LLM and parses the structured result.
// A transient failure is retried once; after that the error propagates so
// the caller can fall back to Failsafe().
func (a *Analyzer) Analyze(ctx context.Context, severity, source, logText string, heuristics []string) (Enrichment, error) {
	if setter, ok := a.provider.(FormatSetter); ok {
		setter.SetFormat(EnrichmentSchema)
	}

	prompt := BuildIncidentPrompt(severity, source, logText, heuristics)

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if ctx.Err() != nil {
			return Enrichment{}, ctx.Err()
		}

		raw, err := a.provider.Analyze(ctx, SystemPrompt, prompt)
		if err != nil {
			lastErr = err
			a.logf("analysis attempt %d failed: %v", attempt, err)
			continue
		}

		enrichment, err := ParseEnrichment(raw)
		if err != nil {
			lastErr = err
			a.logf("analysis attempt %d returned unparseable output: %v", attempt, err)
			continue
		}
		return enrichment, nil
	}

	return Enrichment{}, fmt.Errorf("llm analysis failed: %w", lastErr)
}

func (a *Analyzer) logf(format string, args ...interface{}) {
	if a.verbose {
		fmt.Fprintf(os.Stderr, "[analyzer] "+format+"\n", args...)
	}
}
