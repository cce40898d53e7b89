package report

import (
	"strings"

	"github.com/vigilab/incident-triage/internal/model"
)

// maxRecommendations caps the list so the report stays actionable.
const maxRecommendations = 8

// patternActions map fired pattern names to the defensive step they call for.
var patternActions = []struct {
	pattern string
	action  string
}{
	{"Credential Dumping", "Reset credentials for all accounts active on the affected host and audit domain admin group membership"},
	{"Shadow Copy Deletion", "Verify backup integrity immediately; shadow copy deletion frequently precedes ransomware encryption"},
	{"Obfuscated Scripting", "Decode the captured script payload and submit it for sandbox detonation"},
	{"Lateral Movement", "Review authentication logs on adjacent hosts for the same account and source address"},
	{"Persistence Mechanism", "Enumerate autoruns, scheduled tasks, and services created in the incident window"},
	{"Reconnaissance", "Check for follow-on activity; enumeration usually precedes privilege escalation"},
	{"Suspicious Network Activity", "Capture and review outbound traffic from the affected host"},
	{"Account Manipulation", "Audit recently created or modified accounts and revert unauthorized changes"},
	{"Failed Authentication Burst", "Confirm account lockout policy engaged and review the source of failed attempts"},
	{"Privilege Activity", "Verify the integrity of privileged groups and high-value service accounts"},
}

// Recommendations derives defensive next steps from the analysis outcome.
// The list is ordered most urgent first and never empty.
func Recommendations(cls model.Classification, severity model.Severity, patterns []model.PatternMatch, indicators []model.Indicator, llmRecs []string) []string {
	var recs []string
	seen := make(map[string]bool)
	add := func(rec string) {
		if rec == "" || seen[strings.ToLower(rec)] {
			return
		}
		seen[strings.ToLower(rec)] = true
		recs = append(recs, rec)
	}

	switch cls.Verdict {
	case model.VerdictTruePositive:
		if severity == model.SeverityCritical || severity == model.SeverityHigh {
			add("Isolate the affected host from the network pending investigation")
		}
		for _, ind := range indicators {
			if ind.Reputation == model.ReputationMalicious {
				add("Block known-malicious indicator " + ind.Value + " at the perimeter")
			}
		}
		for _, action := range patternActions {
			for _, p := range patterns {
				if p.Name == action.pattern {
					add(action.action)
				}
			}
		}
		add("Preserve volatile evidence (memory, active connections) before remediation")
	case model.VerdictFalsePositive:
		add("Document the benign explanation and close the alert as a false positive")
		add("Tune the originating detection rule to reduce recurring noise")
	default:
		add("Escalate to a human analyst; automated classification was inconclusive")
		add("Preserve the original log excerpt and any related telemetry for review")
	}

	for _, rec := range llmRecs {
		add(rec)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
