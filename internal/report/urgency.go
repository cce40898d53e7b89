// Package report derives analyst-facing guidance from a finished analysis
// and exports reports to disk.
package report

import (
	"github.com/vigilab/incident-triage/internal/model"
)

// Triage is the response-urgency decision shown at the top of a report.
type Triage struct {
	Urgency string `json:"urgency"` // immediate, urgent, investigate, monitor, none
	Banner  string `json:"banner"`  // red, yellow, green
	Reason  string `json:"reason"`
}

// DecideUrgency maps the classification and adjusted severity to a triage
// urgency. Failsafe results always route to investigation; a confident
// false-positive stands down.
func DecideUrgency(cls model.Classification, severity model.Severity) Triage {
	if cls.Verdict == model.VerdictUnknown {
		return Triage{
			Urgency: "investigate",
			Banner:  "yellow",
			Reason:  "Automated classification unavailable; manual review required",
		}
	}

	if cls.Verdict == model.VerdictTruePositive {
		switch severity {
		case model.SeverityCritical:
			return Triage{
				Urgency: "immediate",
				Banner:  "red",
				Reason:  "Critical-severity incident classified as a genuine attack",
			}
		case model.SeverityHigh:
			return Triage{
				Urgency: "urgent",
				Banner:  "red",
				Reason:  "High-severity incident classified as a genuine attack",
			}
		case model.SeverityMedium:
			return Triage{
				Urgency: "investigate",
				Banner:  "yellow",
				Reason:  "Incident classified as a genuine attack; moderate impact expected",
			}
		default:
			return Triage{
				Urgency: "monitor",
				Banner:  "yellow",
				Reason:  "Low-impact activity classified as genuine; monitoring recommended",
			}
		}
	}

	// False positive: low confidence still warrants a second look.
	if cls.Confidence < 70 {
		return Triage{
			Urgency: "monitor",
			Banner:  "yellow",
			Reason:  "Classified as a false positive with limited confidence",
		}
	}
	return Triage{
		Urgency: "none",
		Banner:  "green",
		Reason:  "Benign activity misflagged by detection tooling",
	}
}
