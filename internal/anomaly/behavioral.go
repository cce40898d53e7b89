package anomaly

import (
	"fmt"
	"regexp"
	"strings"
)

// Per-factor caps for the behavioral analyzer.
const (
	chainCapPoints     = 16
	frequencyCapPoints = 15
	base64CapPoints    = 15
	llmCapPoints       = 12

	chainPointsEach  = 8
	base64PointsEach = 5
	llmPointsEach    = 4
)

// processChainPairs are parent→child spawn combinations that rarely occur in
// legitimate activity (office/browser processes launching shells).
var processChainPairs = [][2]string{
	{"winword", "cmd"},
	{"winword", "powershell"},
	{"excel", "cmd"},
	{"excel", "powershell"},
	{"outlook", "powershell"},
	{"chrome", "cmd"},
	{"services.exe", "powershell"},
	{"w3wp", "cmd"},
	{"java", "powershell"},
}

var executionKeywords = []string{"cmd.exe", "powershell", "cmd /c", "wscript", "cscript", "rundll32", "bash -c"}

// base64Run matches base64-like payload blobs long enough to suggest encoding.
var base64Run = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)

// Behavioral scores process-chain anomalies, command-execution frequency,
// base64 payload density, and externally-detected behavioral indicators
// (e.g. from the LLM enrichment pass). llmIndicators may be 0.
func Behavioral(text string, llmIndicators int) Score {
	lower := strings.ToLower(text)
	var s Score

	chains := 0
	for _, pair := range processChainPairs {
		if strings.Contains(lower, pair[0]) && strings.Contains(lower, pair[1]) {
			chains++
		}
	}
	s.add(chains*chainPointsEach, chainCapPoints,
		fmt.Sprintf("Anomalous process chain combinations (%d)", chains))

	execs := 0
	for _, kw := range executionKeywords {
		execs += strings.Count(lower, kw)
	}
	switch {
	case execs > 10:
		s.add(frequencyCapPoints, frequencyCapPoints,
			fmt.Sprintf("Very high command execution frequency (%d invocations)", execs))
	case execs > 5:
		s.add(10, frequencyCapPoints,
			fmt.Sprintf("Elevated command execution frequency (%d invocations)", execs))
	}

	blobs := len(base64Run.FindAllString(text, -1))
	s.add(blobs*base64PointsEach, base64CapPoints,
		fmt.Sprintf("Base64-like payload blobs in log (%d)", blobs))

	s.add(llmIndicators*llmPointsEach, llmCapPoints,
		fmt.Sprintf("Behavioral indicators reported by enrichment (%d)", llmIndicators))

	return s
}
