package sigma

// Match records a Sigma rule hit against an incident event.
type Match struct {
	RuleTitle string                 `json:"rule_title"`
	RuleID    string                 `json:"rule_id,omitempty"`
	Level     string                 `json:"level"` // informational | low | medium | high | critical
	Event     map[string]interface{} `json:"event"` // matched event for evidence
}
