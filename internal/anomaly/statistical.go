package anomaly

import (
	"regexp"
	"strings"
)

const (
	specialDensityPoints = 6
	repetitionPoints     = 5
	payloadSizePoints    = 4
	hexDensityPoints     = 6

	specialDensityThreshold = 0.15 // special chars per byte
	repetitionThreshold     = 0.4  // unique/total word ratio below this is repetitive
	payloadSizeThreshold    = 5000 // bytes
	hexRunThreshold         = 3    // distinct long hex runs
	minWordsForRepetition   = 20
)

var hexRun = regexp.MustCompile(`(?:0x)?[0-9a-fA-F]{16,}`)

// Statistical measures content-shape anomalies: special character density,
// word repetition, payload size and hex-string density. The caller gates the
// combined score (only significant totals feed the classification).
func Statistical(text string) Score {
	var s Score
	if text == "" {
		return s
	}

	special := 0
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '\n', r == '\t', r == '\r', r == '.', r == ',', r == ':':
		default:
			special++
		}
	}
	if float64(special)/float64(len(text)) > specialDensityThreshold {
		s.add(specialDensityPoints, specialDensityPoints, "High special-character density")
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) >= minWordsForRepetition {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[w] = true
		}
		if float64(len(unique))/float64(len(words)) < repetitionThreshold {
			s.add(repetitionPoints, repetitionPoints, "Repetitive content pattern")
		}
	}

	if len(text) > payloadSizeThreshold {
		s.add(payloadSizePoints, payloadSizePoints, "Unusually large log payload")
	}

	if len(hexRun.FindAllString(text, -1)) >= hexRunThreshold {
		s.add(hexDensityPoints, hexDensityPoints, "High density of long hex strings")
	}

	return s
}
