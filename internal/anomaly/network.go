package anomaly

import (
	"fmt"
	"strings"

	"github.com/vigilab/incident-triage/internal/extract"
)

const (
	portCapPoints       = 15
	externalCapPoints   = 12
	llmNetworkCapPoints = 9

	portPointsEach       = 5
	externalPointsEach   = 4
	llmNetworkPointsEach = 3
)

// suspiciousPorts are ports commonly associated with C2 channels, remote
// shells or tooling defaults rather than routine services.
var suspiciousPorts = []string{
	"4444", "1337", "31337", "8081", "9001", "6666", "5555",
	"8443", "4443", "2222", "3389", "5900",
}

// Network scores suspicious port references, external (non-private) IP
// volume, and externally-detected network indicators. The extraction is
// passed in so IP classification agrees with the extractor.
func Network(text string, ex extract.Extraction, llmIndicators int) Score {
	lower := strings.ToLower(text)
	var s Score

	ports := 0
	for _, port := range suspiciousPorts {
		if strings.Contains(lower, ":"+port) || strings.Contains(lower, "port "+port) {
			ports++
		}
	}
	s.add(ports*portPointsEach, portCapPoints,
		fmt.Sprintf("Suspicious port references (%d)", ports))

	external := 0
	for _, ip := range ex.IPs {
		if !extract.IsPrivateIP(ip) {
			external++
		}
	}
	s.add(external*externalPointsEach, externalCapPoints,
		fmt.Sprintf("External IP addresses referenced (%d)", external))

	s.add(llmIndicators*llmNetworkPointsEach, llmNetworkCapPoints,
		fmt.Sprintf("Network indicators reported by enrichment (%d)", llmIndicators))

	return s
}
