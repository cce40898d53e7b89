package intel

import (
	"fmt"
	"net"
	"strings"

	"github.com/vigilab/incident-triage/internal/extract"
	"github.com/vigilab/incident-triage/internal/model"
)

// knownToolNames flags process indicators whose names match attacker tooling.
var knownToolNames = []string{
	"mimikatz", "procdump", "psexec", "meterpreter", "cobalt",
	"bloodhound", "sharphound", "rubeus", "secretsdump", "lazagne",
	"nmap", "masscan",
}

// Correlate enriches the extracted indicator candidates into model.Indicator
// records. Threat-intel data from the report always wins over the heuristic
// estimate; when the report is nil or has no matching record the estimate is
// deterministic, keyed only by the indicator value.
func Correlate(ex extract.Extraction, report *model.ThreatReport) []model.Indicator {
	var out []model.Indicator

	for _, ip := range ex.IPs {
		out = append(out, correlateIP(ip, report))
	}
	for _, domain := range ex.Domains {
		out = append(out, correlateValue(model.IndicatorDomain, domain, report))
	}
	for _, hash := range ex.Hashes {
		ind := correlateValue(model.IndicatorHash, hash, report)
		if ind.Note == "" {
			ind.Note = extract.HashType(hash) + " file hash"
		}
		out = append(out, ind)
	}
	for _, cve := range ex.CVEs {
		out = append(out, model.Indicator{
			Type:       model.IndicatorCVE,
			Value:      cve,
			Reputation: model.ReputationSuspicious,
			Confidence: "medium",
			Note:       "Referenced vulnerability identifier",
		})
	}
	for _, proc := range ex.Processes {
		out = append(out, correlateProcess(proc))
	}

	return out
}

func correlateIP(ip string, report *model.ThreatReport) model.Indicator {
	if rec := report.FindIndicator(ip); rec != nil {
		return fromIntelRecord(model.IndicatorIP, ip, rec)
	}

	if extract.IsPrivateIP(ip) {
		return model.Indicator{
			Type:       model.IndicatorIP,
			Value:      ip,
			Reputation: model.ReputationClean,
			Confidence: "medium",
			Geo:        "Internal Network",
			Note:       "Private address range",
		}
	}

	return model.Indicator{
		Type:       model.IndicatorIP,
		Value:      ip,
		Reputation: model.ReputationUnknown,
		Confidence: "low",
		Geo:        EstimateGeo(ip),
		Note:       "No threat intelligence available; heuristic estimate",
	}
}

func correlateValue(typ model.IndicatorType, value string, report *model.ThreatReport) model.Indicator {
	if rec := report.FindIndicator(value); rec != nil {
		return fromIntelRecord(typ, value, rec)
	}
	return model.Indicator{
		Type:       typ,
		Value:      value,
		Reputation: model.ReputationUnknown,
		Confidence: "low",
	}
}

func correlateProcess(name string) model.Indicator {
	lower := strings.ToLower(name)
	for _, tool := range knownToolNames {
		if strings.Contains(lower, tool) {
			return model.Indicator{
				Type:       model.IndicatorProcess,
				Value:      name,
				Reputation: model.ReputationMalicious,
				Confidence: "high",
				Note:       "Known attack tool name",
			}
		}
	}
	return model.Indicator{
		Type:       model.IndicatorProcess,
		Value:      name,
		Reputation: model.ReputationUnknown,
		Confidence: "low",
	}
}

// fromIntelRecord derives reputation from a matched intel record. Geo and
// organization fields are copied verbatim.
func fromIntelRecord(typ model.IndicatorType, value string, rec *model.ThreatIndicator) model.Indicator {
	reputation := model.ReputationClean
	switch {
	case rec.Malicious:
		reputation = model.ReputationMalicious
	case rec.ThreatScore > 50:
		reputation = model.ReputationSuspicious
	}

	ind := model.Indicator{
		Type:       typ,
		Value:      value,
		Reputation: reputation,
		Confidence: "high",
		Geo:        rec.Country,
	}
	if rec.Organization != "" {
		ind.Note = rec.Organization
	}
	if rec.PulseCount > 0 {
		ind.Note = strings.TrimSpace(ind.Note + fmt.Sprintf(" (%d intel pulses)", rec.PulseCount))
	}
	return ind
}

// geoBuckets map first-octet ranges to coarse region labels. The estimate is
// intentionally deterministic so repeated analyses of the same input agree.
var geoBuckets = []struct {
	upper int // inclusive first-octet upper bound
	label string
}{
	{63, "North America (estimated)"},
	{127, "Europe (estimated)"},
	{191, "Asia Pacific (estimated)"},
	{223, "South America (estimated)"},
	{255, "Unknown Region"},
}

// EstimateGeo returns a deterministic region label for an external IP,
// keyed only by its first octet.
func EstimateGeo(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "Unknown Region"
	}
	v4 := parsed.To4()
	if v4 == nil {
		return "Unknown Region"
	}
	first := int(v4[0])
	for _, b := range geoBuckets {
		if first <= b.upper {
			return b.label
		}
	}
	return "Unknown Region"
}
