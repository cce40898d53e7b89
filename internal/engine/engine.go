// Package engine coordinates the extract → correlate → score → report pipeline.
package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vigilab/incident-triage/internal/analyzer"
	"github.com/vigilab/incident-triage/internal/classify"
	"github.com/vigilab/incident-triage/internal/config"
	"github.com/vigilab/incident-triage/internal/entity"
	"github.com/vigilab/incident-triage/internal/extract"
	"github.com/vigilab/incident-triage/internal/intel"
	"github.com/vigilab/incident-triage/internal/mitre"
	"github.com/vigilab/incident-triage/internal/model"
	"github.com/vigilab/incident-triage/internal/patterns"
	"github.com/vigilab/incident-triage/internal/report"
	"github.com/vigilab/incident-triage/internal/sigma"
	"github.com/vigilab/incident-triage/internal/similarity"
	"github.com/vigilab/incident-triage/internal/store"
)

// Engine runs the analysis pipeline for one incident at a time. Every
// stage degrades independently: a failed collaborator never aborts the
// run, it only narrows the evidence the verdict rests on.
type Engine struct {
	cfg     *config.Config
	verbose bool

	llm         analyzer.Provider // optional: injected for testing
	intelSource intel.Provider
	history     store.History
	sigmaEngine *sigma.Engine
}

// New creates an Engine from configuration, wiring the optional
// collaborators the config enables.
func New(cfg *config.Config, verbose bool) *Engine {
	e := &Engine{cfg: cfg, verbose: verbose}

	if cfg.Intel.Endpoint != "" {
		var provider intel.Provider = intel.NewHTTPProvider(cfg.Intel.Endpoint, cfg.Intel.APIKey, cfg.Intel.Timeout)
		cached, err := intel.NewCachedProvider(provider, cfg.Intel.CacheSize)
		if err == nil {
			provider = cached
		}
		e.intelSource = provider
	}

	if cfg.Analysis.SigmaRules {
		se, err := sigma.NewDefault()
		if err != nil {
			e.logf("sigma engine init: %v", err)
		} else {
			e.sigmaEngine = se
		}
	}

	return e
}

// SetProvider overrides the LLM provider (used in tests).
func (e *Engine) SetProvider(p analyzer.Provider) {
	e.llm = p
}

// SetIntelProvider overrides the threat intel provider (used in tests).
func (e *Engine) SetIntelProvider(p intel.Provider) {
	e.intelSource = p
}

// SetHistory attaches the incident history used for similarity matching.
func (e *Engine) SetHistory(h store.History) {
	e.history = h
}

// Analyze runs the full pipeline and always returns a complete report.
// threatReport is an optional inline intel report supplied by the caller;
// it takes priority over the configured feed.
func (e *Engine) Analyze(ctx context.Context, in model.Input, threatReport *model.ThreatReport) model.Report {
	started := time.Now()
	text := combinedText(in)

	// --- Stage 1: extraction and pattern matching ---
	stageStart := time.Now()
	ex := extract.Extract(text)
	matched := patterns.Match(text)
	mapping := mitre.Map(text)
	iocCount := len(ex.IPs) + len(ex.Domains) + len(ex.Hashes) + len(ex.CVEs) + len(ex.Processes)
	e.logf("extract: %d IOC values, %d patterns, %d tactics (%s)",
		iocCount, len(matched), len(mapping.Tactics), time.Since(stageStart).Round(time.Millisecond))

	// --- Stage 1.5: Sigma rules ---
	if e.sigmaEngine != nil {
		matches := e.sigmaEngine.MatchInput(ctx, in)
		for _, m := range matches {
			matched = append(matched, model.PatternMatch{
				Name:         m.RuleTitle,
				Significance: sigmaSignificance(m.Level),
				Description:  "Sigma rule match",
			})
		}
		if len(matches) > 0 {
			e.logf("sigma: %d rule match(es)", len(matches))
		}
	}

	// --- Stage 2: threat intel correlation ---
	stageStart = time.Now()
	intelReport := threatReport
	if intelReport == nil && e.intelSource != nil {
		values := append(append(append([]string{}, ex.IPs...), ex.Domains...), ex.Hashes...)
		if len(values) > 0 {
			fetched, err := e.intelSource.Fetch(ctx, values)
			if err != nil {
				e.logf("intel lookup failed, continuing without feed: %v", err)
			} else {
				intelReport = fetched
			}
		}
	}
	indicators := intel.Correlate(ex, intelReport)
	e.logf("intel: %d indicators (%s)", len(indicators), time.Since(stageStart).Round(time.Millisecond))

	// --- Stage 3: optional LLM enrichment ---
	var enrichment analyzer.Enrichment
	var degraded, enriched bool
	if e.llmEnabled() {
		stageStart = time.Now()
		result, err := e.enrich(ctx, in, matched, mapping)
		if err != nil {
			e.logf("enrichment failed, entering failsafe: %v", err)
			enrichment = analyzer.Failsafe()
			degraded = true
		} else {
			enrichment = result
			enriched = true
		}
		e.logf("enrichment: done (%s)", time.Since(stageStart).Round(time.Millisecond))
	}

	// --- Stage 4: classification ---
	inputs := classify.Inputs{
		Input:                   in,
		Extraction:              ex,
		Patterns:                matched,
		Mitre:                   mapping,
		Indicators:              indicators,
		Intel:                   intelReport,
		LLMBehavioralIndicators: len(enrichment.BehavioralIndicators),
		LLMNetworkIndicators:    len(enrichment.NetworkIndicators),
	}
	cls, scores := classify.Classify(inputs)

	if degraded {
		// The scorecard survives for the audit trail, but a failed
		// enrichment pass means the verdict needs human eyes.
		cls.Verdict = model.VerdictUnknown
		cls.Confidence = analyzer.FailsafeConfidence
	}

	// --- Stage 5: severity ---
	severity := in.DeclaredSeverity
	if severity == "" {
		severity = model.SeverityMedium
	}
	adjusted := severity
	var adjustment *model.SeverityAdjustment
	if e.cfg.Analysis.AdjustSeverity {
		adj := classify.AdjustSeverity(inputs, cls, scores)
		adjustment = &adj
		adjusted = adj.Adjusted
	}

	// --- Stage 6: entity graph and similarity ---
	graph := entity.Build(text, ex, indicators)

	var related []model.RelatedIncident
	if e.cfg.Analysis.Similarity && e.history != nil {
		history, err := e.history.ListRecent(ctx, store.DefaultCapacity)
		if err != nil {
			e.logf("history lookup failed, skipping similarity: %v", err)
		} else {
			related = similarity.FindRelated(in.LogText, history)
		}
	}

	// --- Stage 7: report assembly ---
	recommendations := report.Recommendations(cls, adjusted, matched, indicators, enrichment.Recommendations)
	triage := report.DecideUrgency(cls, adjusted)

	rep := model.Report{
		ID:               uuid.NewString(),
		Title:            title(in),
		Classification:   cls,
		Severity:         severity,
		AdjustedSeverity: adjusted,
		Adjustment:       adjustment,
		Patterns:         matched,
		Mitre:            mapping,
		Indicators:       indicators,
		Entities:         graph,
		Related:          related,
		Recommendations:  recommendations,
		Urgency:          triage.Urgency,
		Degraded:         degraded,
		GeneratedAt:      time.Now().UTC(),
	}
	if enriched {
		rep.Summary = enrichment.Summary
	}

	e.logf("analysis complete: %s/%d, urgency %s (%s)",
		cls.Verdict, cls.Confidence, triage.Urgency, time.Since(started).Round(time.Millisecond))
	return rep
}

// enrich runs the LLM pass, handing it a short summary of the
// deterministic findings.
func (e *Engine) enrich(ctx context.Context, in model.Input, matched []model.PatternMatch, mapping model.MitreMapping) (analyzer.Enrichment, error) {
	provider := e.llm
	if provider == nil {
		var err error
		provider, err = analyzer.NewProvider(
			e.cfg.LLM.Provider,
			e.cfg.LLM.APIKey,
			e.cfg.LLM.Model,
			e.cfg.LLM.Endpoint,
			e.cfg.LLM.Timeout,
		)
		if err != nil {
			return analyzer.Enrichment{}, fmt.Errorf("create provider: %w", err)
		}
	}

	var heuristics []string
	for _, p := range matched {
		heuristics = append(heuristics, fmt.Sprintf("%s pattern (%s significance)", p.Name, p.Significance))
	}
	for _, t := range mapping.Tactics {
		heuristics = append(heuristics, fmt.Sprintf("MITRE tactic %s %s", t.ID, t.Name))
	}

	a := analyzer.New(provider, e.verbose)
	return a.Analyze(ctx, string(in.DeclaredSeverity), in.SystemContext, in.LogText, heuristics)
}

func (e *Engine) llmEnabled() bool {
	return e.cfg.LLM.Enabled || e.llm != nil
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.verbose {
		fmt.Fprintf(os.Stderr, "[engine] "+format+"\n", args...)
	}
}

func combinedText(in model.Input) string {
	return strings.Join([]string{in.Title, in.LogText, in.SupplementaryLog}, "\n")
}

// title labels the report; untitled incidents get a stable placeholder.
func title(in model.Input) string {
	if in.Title != "" {
		return in.Title
	}
	return "Untitled security incident"
}

func sigmaSignificance(level string) model.Significance {
	switch strings.ToLower(level) {
	case "critical", "high":
		return model.SignificanceHigh
	case "medium":
		return model.SignificanceMedium
	default:
		return model.SignificanceLow
	}
}
