package classify

import (
	"sort"
	"strings"

	"github.com/vigilab/incident-triage/internal/anomaly"
	"github.com/vigilab/incident-triage/internal/extract"
	"github.com/vigilab/incident-triage/internal/model"
)

// Inputs carries everything the scoring engine reads. All fields are
// read-only; the engine never mutates them.
type Inputs struct {
	Input      model.Input
	Extraction extract.Extraction
	Patterns   []model.PatternMatch
	Mitre      model.MitreMapping
	Indicators []model.Indicator
	Intel      *model.ThreatReport // optional

	// Counts of behavioral/network indicators reported by the optional
	// LLM enrichment pass; zero when enrichment is disabled or failed.
	LLMBehavioralIndicators int
	LLMNetworkIndicators    int
}

// combinedText joins the analyzable text fields.
func (in Inputs) combinedText() string {
	parts := []string{in.Input.Title, in.Input.LogText, in.Input.SupplementaryLog}
	return strings.Join(parts, "\n")
}

// Scores bundles the per-dimension anomaly results so later passes (severity
// adjustment) reuse them instead of rescoring.
type Scores struct {
	Behavioral  anomaly.Score
	Temporal    anomaly.Score
	Network     anomaly.Score
	Statistical anomaly.Score
}

// Classify runs the full scoring pipeline and returns the verdict. It is
// total: malformed or empty input yields a low-confidence false positive.
func Classify(in Inputs) (model.Classification, Scores) {
	text := in.combinedText()
	lower := strings.ToLower(text)

	var card model.ScoreCard

	// Phrase catalogues.
	for _, rule := range CriticalPhrases {
		if strings.Contains(lower, rule.Phrase) {
			card.AddTrue(rule.Description, rule.Points)
		}
	}
	for _, rule := range SuspiciousPhrases {
		if strings.Contains(lower, rule.Phrase) {
			card.AddTrue(rule.Description, rule.Points)
		}
	}
	for _, rule := range LegitimatePhrases {
		if strings.Contains(lower, rule.Phrase) {
			card.AddFalse(rule.Description, rule.Points)
		}
	}

	// Anomaly dimensions.
	scores := Scores{
		Behavioral:  anomaly.Behavioral(text, in.LLMBehavioralIndicators),
		Temporal:    anomaly.Temporal(text),
		Network:     anomaly.Network(text, in.Extraction, in.LLMNetworkIndicators),
		Statistical: anomaly.Statistical(text),
	}
	addScore(&card, scores.Behavioral)
	addScore(&card, scores.Temporal)
	addScore(&card, scores.Network)
	if scores.Statistical.Points > statisticalGate {
		addScore(&card, scores.Statistical)
	}

	// Threat-intel correlation.
	scoreThreatIntel(&card, in.Intel)

	// System context and declared severity.
	scoreContext(&card, in.Input)

	verdict := model.VerdictFalsePositive
	if card.Differential() >= classificationThreshold {
		verdict = model.VerdictTruePositive
	}

	winning := card.FPFactors
	if verdict == model.VerdictTruePositive {
		winning = card.TPFactors
	}
	reasons := topReasons(winning, maxReasons)

	return model.Classification{
		Verdict:    verdict,
		Confidence: confidence(card.Differential(), len(winning)),
		Reasons:    reasons,
		Scores:     card,
	}, scores
}

func addScore(card *model.ScoreCard, s anomaly.Score) {
	for i, reason := range s.Reasons {
		// Points are attributed per-reason only for auditability; the
		// anomaly package already applied its per-factor caps.
		points := s.Points / len(s.Reasons)
		if i == 0 {
			points += s.Points % len(s.Reasons)
		}
		card.AddTrue(reason, points)
	}
}

func scoreThreatIntel(card *model.ScoreCard, report *model.ThreatReport) {
	if report == nil {
		return
	}

	for _, bucket := range riskScoreBuckets {
		if report.RiskScore >= bucket.min {
			card.AddTrue("External threat-intel risk score", bucket.points)
			break
		}
	}

	malicious := 0
	for _, ind := range report.Indicators {
		if ind.Malicious {
			malicious++
		}
	}
	points := malicious * maliciousIndicatorPoints
	if points > maliciousIndicatorCap {
		points = maliciousIndicatorCap
	}
	card.AddTrue("Indicators flagged malicious by threat intel", points)

	switch strings.ToLower(report.ThreatLevel) {
	case "critical":
		card.AddTrue("Threat-intel level: critical", threatLevelCriticalBonus)
	case "high":
		card.AddTrue("Threat-intel level: high", threatLevelHighBonus)
	}
}

func scoreContext(card *model.ScoreCard, input model.Input) {
	ctx := strings.ToLower(input.SystemContext)
	if ctx != "" {
		for _, rule := range benignContexts {
			if strings.Contains(ctx, rule.Phrase) {
				card.AddFalse(rule.Description, rule.Points)
				break
			}
		}
		for _, rule := range criticalContexts {
			if strings.Contains(ctx, rule.Phrase) {
				card.AddTrue(rule.Description, rule.Points)
				break
			}
		}
	}

	switch input.DeclaredSeverity {
	case model.SeverityCritical:
		card.AddTrue("Declared severity: critical", declaredCriticalPoints)
	case model.SeverityHigh:
		card.AddTrue("Declared severity: high", declaredHighPoints)
	}
}

// confidence maps the absolute differential to a banded confidence value,
// adds a small per-reason bonus capped at the band ceiling, and clamps to
// the global [55, 95] bounds.
func confidence(differential, reasonCount int) int {
	abs := differential
	if abs < 0 {
		abs = -abs
	}

	base, ceiling := confidenceFloor, 75
	for _, band := range confidenceBands {
		if abs > band.minDiff {
			base, ceiling = band.base, band.ceiling
			break
		}
	}

	conf := base + reasonCount*reasonBonusPoints
	if conf > ceiling {
		conf = ceiling
	}
	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	if conf > confidenceCeiling {
		conf = confidenceCeiling
	}
	return conf
}

// topReasons returns the descriptions of the highest-scoring factors,
// most significant first. Ties keep insertion order.
func topReasons(factors []model.Factor, limit int) []string {
	sorted := make([]model.Factor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	reasons := make([]string, 0, len(sorted))
	for _, f := range sorted {
		reasons = append(reasons, f.Description)
	}
	return reasons
}
