// Package model defines the data types shared across the triage pipeline.
package model

import "time"

// Severity is the coarse impact rating of an incident.
type Severity string

const (
	SeverityCritical      Severity = "critical"
	SeverityHigh          Severity = "high"
	SeverityMedium        Severity = "medium"
	SeverityLow           Severity = "low"
	SeverityInformational Severity = "informational"
)

// ParseSeverity normalizes a severity string. An empty string stays empty
// so downstream defaulting can apply; unknown values map to informational.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInformational:
		return Severity(s)
	case "":
		return ""
	default:
		return SeverityInformational
	}
}

// Rank returns a numeric ordering for severities (critical highest).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Input is the immutable raw incident submitted for analysis.
type Input struct {
	Title            string   `json:"title"`
	LogText          string   `json:"log_text"`
	SystemContext    string   `json:"system_context,omitempty"`
	SupplementaryLog string   `json:"supplementary_log,omitempty"`
	DeclaredSeverity Severity `json:"declared_severity"`
}

// ThreatIndicator is a single reputation record from an external intel feed.
type ThreatIndicator struct {
	Type         string `json:"type"` // ip, domain, hash
	Value        string `json:"value"`
	Malicious    bool   `json:"malicious"`
	ThreatScore  int    `json:"threat_score"`
	Country      string `json:"country,omitempty"`
	Organization string `json:"organization,omitempty"`
	ASN          string `json:"asn,omitempty"`
	PulseCount   int    `json:"pulse_count,omitempty"`
}

// ThreatReport is the optional external threat-intelligence input.
type ThreatReport struct {
	RiskScore   int               `json:"risk_score"` // 0..100
	ThreatLevel string            `json:"threat_level"`
	Indicators  []ThreatIndicator `json:"indicators"`
}

// FindIndicator returns the intel record matching the given value, if any.
func (r *ThreatReport) FindIndicator(value string) *ThreatIndicator {
	if r == nil {
		return nil
	}
	for i := range r.Indicators {
		if r.Indicators[i].Value == value {
			return &r.Indicators[i]
		}
	}
	return nil
}

// Significance is the weight tier of a matched log pattern.
type Significance string

const (
	SignificanceHigh   Significance = "High"
	SignificanceMedium Significance = "Medium"
	SignificanceLow    Significance = "Low"
)

// PatternMatch is one fired rule from the pattern catalogue.
type PatternMatch struct {
	Name         string       `json:"name"`
	Significance Significance `json:"significance"`
	Description  string       `json:"description"`
}

// IndicatorType classifies an extracted IOC.
type IndicatorType string

const (
	IndicatorIP      IndicatorType = "IP"
	IndicatorDomain  IndicatorType = "Domain"
	IndicatorHash    IndicatorType = "Hash"
	IndicatorCVE     IndicatorType = "CVE"
	IndicatorProcess IndicatorType = "Process"
	IndicatorURL     IndicatorType = "URL"
)

// Reputation is the assessed standing of an indicator.
type Reputation string

const (
	ReputationClean      Reputation = "Clean"
	ReputationSuspicious Reputation = "Suspicious"
	ReputationMalicious  Reputation = "Malicious"
	ReputationUnknown    Reputation = "Unknown"
)

// Indicator is an extracted and enriched Indicator of Compromise.
type Indicator struct {
	Type       IndicatorType `json:"type"`
	Value      string        `json:"value"`
	Reputation Reputation    `json:"reputation"`
	Confidence string        `json:"confidence"` // high, medium, low
	Geo        string        `json:"geo,omitempty"`
	Note       string        `json:"note,omitempty"`
}

// Tactic is a MITRE ATT&CK tactic reference.
type Tactic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Technique is a MITRE ATT&CK technique reference, optionally scoped to a tactic.
type Technique struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tactic string `json:"tactic,omitempty"`
}

// MitreMapping is the ordered set of inferred tactics and techniques.
type MitreMapping struct {
	Tactics    []Tactic    `json:"tactics"`
	Techniques []Technique `json:"techniques"`
}

// HasTechnique reports whether the mapping contains the given technique ID.
func (m MitreMapping) HasTechnique(id string) bool {
	for _, t := range m.Techniques {
		if t.ID == id {
			return true
		}
	}
	return false
}

// NodeType classifies an entity graph node.
type NodeType string

const (
	NodeIP      NodeType = "IP"
	NodeUser    NodeType = "User"
	NodeProcess NodeType = "Process"
	NodeFile    NodeType = "File"
	NodeDomain  NodeType = "Domain"
	NodeHash    NodeType = "Hash"
)

// Node is a typed entity extracted from the incident.
type Node struct {
	Type  NodeType `json:"type"`
	Value string   `json:"value"`
	Risk  string   `json:"risk"` // high, medium, low
}

// Edge is a directed relationship between two entities.
type Edge struct {
	Source      string `json:"source"`
	Action      string `json:"action"`
	Target      string `json:"target"`
	Description string `json:"description,omitempty"`
}

// EntityGraph is the derived entity relationship graph.
type EntityGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Factor is one named contribution to a score total.
type Factor struct {
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// ScoreCard accumulates the true-positive and false-positive score totals.
// Both totals only grow; negative contributions are rejected.
type ScoreCard struct {
	TruePositive  int      `json:"true_positive"`
	FalsePositive int      `json:"false_positive"`
	TPFactors     []Factor `json:"tp_factors"`
	FPFactors     []Factor `json:"fp_factors"`
}

// AddTrue records a contribution to the true-positive total.
func (s *ScoreCard) AddTrue(description string, points int) {
	if points <= 0 {
		return
	}
	s.TruePositive += points
	s.TPFactors = append(s.TPFactors, Factor{Description: description, Points: points})
}

// AddFalse records a contribution to the false-positive total.
func (s *ScoreCard) AddFalse(description string, points int) {
	if points <= 0 {
		return
	}
	s.FalsePositive += points
	s.FPFactors = append(s.FPFactors, Factor{Description: description, Points: points})
}

// Differential returns true-positive minus false-positive.
func (s *ScoreCard) Differential() int {
	return s.TruePositive - s.FalsePositive
}

// Verdict is the final classification of an incident.
type Verdict string

const (
	VerdictTruePositive  Verdict = "true-positive"
	VerdictFalsePositive Verdict = "false-positive"
	// VerdictUnknown marks a failsafe result that needs human review.
	VerdictUnknown Verdict = "unknown"
)

// Classification is the engine's verdict with confidence and audit trail.
type Classification struct {
	Verdict    Verdict   `json:"verdict"`
	Confidence int       `json:"confidence"` // 55..95, or exactly 50 on the failsafe path
	Reasons    []string  `json:"reasons"`
	Scores     ScoreCard `json:"scores"`
}

// SeverityAdjustment records the optional severity re-derivation pass.
type SeverityAdjustment struct {
	Score    int      `json:"score"` // 0..100
	Declared Severity `json:"declared"`
	Adjusted Severity `json:"adjusted"`
	Changed  bool     `json:"changed"`
}

// RelatedIncident is a prior incident matched by the similarity finder.
type RelatedIncident struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Similarity       float64  `json:"similarity"`
	SharedCategories []string `json:"shared_categories"`
}

// HistoricalIncident is a prior incident as read from storage.
type HistoricalIncident struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	LogText   string    `json:"log_text"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the complete output of one analysis invocation.
type Report struct {
	ID               string              `json:"id,omitempty"`
	Title            string              `json:"title"`
	Classification   Classification      `json:"classification"`
	Severity         Severity            `json:"severity"`
	AdjustedSeverity Severity            `json:"adjusted_severity"`
	Adjustment       *SeverityAdjustment `json:"severity_adjustment,omitempty"`
	Patterns         []PatternMatch      `json:"pattern_matches"`
	Mitre            MitreMapping        `json:"mitre_mapping"`
	Indicators       []Indicator         `json:"iocs"`
	Entities         EntityGraph         `json:"entity_graph"`
	Related          []RelatedIncident   `json:"related_incidents,omitempty"`
	Recommendations  []string            `json:"recommendations"`
	Urgency          string              `json:"urgency"`
	Summary          string              `json:"summary,omitempty"` // from LLM enrichment when enabled
	Degraded         bool                `json:"degraded"`
	GeneratedAt      time.Time           `json:"generated_at"`
}
