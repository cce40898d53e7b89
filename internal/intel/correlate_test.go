package intel

import (
	"testing"

	"github.com/vigilab/incident-triage/internal/extract"
	"github.com/vigilab/incident-triage/internal/model"
)

func TestCorrelateIntelTakesPriority(t *testing.T) {
	report := &model.ThreatReport{
		RiskScore:   90,
		ThreatLevel: "critical",
		Indicators: []model.ThreatIndicator{
			{Type: "ip", Value: "185.220.101.42", Malicious: true, ThreatScore: 95, Country: "DE", Organization: "Tor Exit"},
		},
	}
	ex := extract.Extraction{IPs: []string{"185.220.101.42"}}

	got := Correlate(ex, report)
	if len(got) != 1 {
		t.Fatalf("got %d indicators, want 1", len(got))
	}
	ind := got[0]
	if ind.Reputation != model.ReputationMalicious {
		t.Errorf("reputation = %s, want Malicious", ind.Reputation)
	}
	if ind.Geo != "DE" {
		t.Errorf("geo = %q, want DE copied verbatim", ind.Geo)
	}
	if ind.Confidence != "high" {
		t.Errorf("confidence = %q, want high", ind.Confidence)
	}
}

func TestCorrelateThreatScoreBands(t *testing.T) {
	tests := []struct {
		name      string
		malicious bool
		score     int
		want      model.Reputation
	}{
		{"malicious flag wins", true, 10, model.ReputationMalicious},
		{"score above 50", false, 60, model.ReputationSuspicious},
		{"score at 50", false, 50, model.ReputationClean},
		{"low score", false, 5, model.ReputationClean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &model.ThreatReport{Indicators: []model.ThreatIndicator{
				{Type: "domain", Value: "example.org", Malicious: tt.malicious, ThreatScore: tt.score},
			}}
			got := Correlate(extract.Extraction{Domains: []string{"example.org"}}, report)
			if got[0].Reputation != tt.want {
				t.Errorf("reputation = %s, want %s", got[0].Reputation, tt.want)
			}
		})
	}
}

func TestCorrelatePrivateIPHeuristic(t *testing.T) {
	got := Correlate(extract.Extraction{IPs: []string{"192.168.1.10"}}, nil)
	if got[0].Geo != "Internal Network" {
		t.Errorf("geo = %q, want Internal Network", got[0].Geo)
	}
	if got[0].Reputation != model.ReputationClean {
		t.Errorf("reputation = %s, want Clean", got[0].Reputation)
	}
}

func TestEstimateGeoDeterministic(t *testing.T) {
	first := EstimateGeo("185.220.101.42")
	for i := 0; i < 10; i++ {
		if EstimateGeo("185.220.101.42") != first {
			t.Fatal("EstimateGeo is not deterministic")
		}
	}
	if first != "Asia Pacific (estimated)" {
		t.Errorf("EstimateGeo(185.x) = %q", first)
	}
	if EstimateGeo("8.8.8.8") != "North America (estimated)" {
		t.Errorf("EstimateGeo(8.8.8.8) = %q", EstimateGeo("8.8.8.8"))
	}
}

func TestCorrelateKnownToolProcess(t *testing.T) {
	got := Correlate(extract.Extraction{Processes: []string{"mimikatz.exe"}}, nil)
	if got[0].Reputation != model.ReputationMalicious {
		t.Errorf("reputation = %s, want Malicious for known tool", got[0].Reputation)
	}
}

func TestCorrelateEmptyExtraction(t *testing.T) {
	if got := Correlate(extract.Extraction{}, nil); len(got) != 0 {
		t.Errorf("empty extraction produced %d indicators", len(got))
	}
}
