// Package anomaly scores behavioral, temporal, network and statistical
// irregularities in raw log text. Each analyzer is independent: it reads the
// same text and returns a capped additive score with its reasons.
package anomaly

// Score is one analyzer's contribution to the classification.
type Score struct {
	Points  int
	Reasons []string
}

func (s *Score) add(points, limit int, reason string) {
	if points <= 0 {
		return
	}
	if points > limit {
		points = limit
	}
	s.Points += points
	s.Reasons = append(s.Reasons, reason)
}
