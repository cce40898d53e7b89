package classify

import (
	"github.com/vigilab/incident-triage/internal/model"
	"github.com/vigilab/incident-triage/internal/patterns"
)

// Sub-score caps for the severity adjustment pass. Each dimension is capped
// independently so no single signal can dominate the 0..100 total.
const (
	anomalyIndicatorCap = 20 // behavioral + network anomaly points
	patternSumCap       = 25 // pattern significance sum
	techniqueCap        = 25 // MITRE technique count
	confidenceCap       = 20 // true-positive confidence contribution
	iocCountCap         = 10 // extracted IOC count
	intelRiskCap        = 15 // threat-intel risk contribution

	pointsPerTechnique = 5
	pointsPerIOC       = 2
)

// Severity bucket thresholds over the 0..100 adjusted score.
const (
	severityCriticalMin = 75
	severityHighMin     = 55
	severityMediumMin   = 35
	severityLowMin      = 15
)

// AdjustSeverity re-derives incident severity from the classification
// signals. The declared severity is always preserved in the result.
func AdjustSeverity(in Inputs, cls model.Classification, scores Scores) model.SeverityAdjustment {
	total := 0

	total += capped(scores.Behavioral.Points+scores.Network.Points, anomalyIndicatorCap)

	patternSum := 0
	for _, p := range in.Patterns {
		patternSum += patterns.SignificanceWeight(p.Significance)
	}
	total += capped(patternSum, patternSumCap)

	total += capped(len(in.Mitre.Techniques)*pointsPerTechnique, techniqueCap)

	if cls.Verdict == model.VerdictTruePositive {
		total += capped(cls.Confidence/5, confidenceCap)
	}

	total += capped(len(in.Indicators)*pointsPerIOC, iocCountCap)

	if in.Intel != nil {
		total += capped(in.Intel.RiskScore*intelRiskCap/100, intelRiskCap)
	}

	adjusted := bucketSeverity(total)
	return model.SeverityAdjustment{
		Score:    total,
		Declared: in.Input.DeclaredSeverity,
		Adjusted: adjusted,
		Changed:  adjusted != in.Input.DeclaredSeverity,
	}
}

func bucketSeverity(score int) model.Severity {
	switch {
	case score >= severityCriticalMin:
		return model.SeverityCritical
	case score >= severityHighMin:
		return model.SeverityHigh
	case score >= severityMediumMin:
		return model.SeverityMedium
	case score >= severityLowMin:
		return model.SeverityLow
	default:
		return model.SeverityInformational
	}
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
