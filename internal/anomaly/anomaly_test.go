package anomaly

import (
	"strings"
	"testing"

	"github.com/vigilab/incident-triage/internal/extract"
)

func TestBehavioralProcessChain(t *testing.T) {
	s := Behavioral("WINWORD.EXE spawned cmd.exe with /c whoami", 0)
	if s.Points == 0 {
		t.Error("office-to-shell chain scored zero")
	}
}

func TestBehavioralExecutionFrequency(t *testing.T) {
	text := strings.Repeat("powershell -c foo; ", 12)
	s := Behavioral(text, 0)

	found := false
	for _, r := range s.Reasons {
		if strings.Contains(r, "command execution frequency") {
			found = true
		}
	}
	if !found {
		t.Errorf("frequency factor missing, reasons = %v", s.Reasons)
	}
}

func TestBehavioralBase64Cap(t *testing.T) {
	blob := strings.Repeat("QUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVpBQkNERUZHSElKS0xNTk9QUVJT=\n", 10)
	s := Behavioral(blob, 0)
	if s.Points > base64CapPoints {
		t.Errorf("base64 factor exceeded its cap: %d", s.Points)
	}
}

func TestBehavioralLLMIndicatorsCapped(t *testing.T) {
	s := Behavioral("", 100)
	if s.Points != llmCapPoints {
		t.Errorf("llm factor = %d, want capped at %d", s.Points, llmCapPoints)
	}
}

func TestTemporalNightBeatsEvening(t *testing.T) {
	night := Temporal("logon at 03:12:44")
	if night.Points != deadOfNightPoints {
		t.Errorf("night score = %d, want %d", night.Points, deadOfNightPoints)
	}

	evening := Temporal("logon at 23:15")
	if evening.Points != lateEveningPoints {
		t.Errorf("evening score = %d, want %d", evening.Points, lateEveningPoints)
	}

	// Both bands present: night wins, no double count.
	both := Temporal("events at 23:15 and 03:12")
	if both.Points != deadOfNightPoints {
		t.Errorf("mixed bands score = %d, want %d", both.Points, deadOfNightPoints)
	}
}

func TestTemporalDenseCluster(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString("event at 14:3")
		sb.WriteByte(byte('0' + i%10))
		sb.WriteString("\n")
	}
	s := Temporal(sb.String())
	if s.Points != denseClusterPoints {
		t.Errorf("cluster score = %d, want %d (business hours, cluster only)", s.Points, denseClusterPoints)
	}
}

func TestTemporalNoTimestamps(t *testing.T) {
	if s := Temporal("no clock references here"); s.Points != 0 {
		t.Errorf("score = %d, want 0", s.Points)
	}
}

func TestNetworkSuspiciousPortsAndExternalIPs(t *testing.T) {
	text := "connection to 185.220.101.42:4444 and 10.0.0.5:443"
	ex := extract.Extract(text)
	s := Network(text, ex, 0)

	// one suspicious port (4444) + one external IP
	want := portPointsEach + externalPointsEach
	if s.Points != want {
		t.Errorf("score = %d, want %d; reasons = %v", s.Points, want, s.Reasons)
	}
}

func TestNetworkCaps(t *testing.T) {
	text := ":4444 :1337 :31337 :9001 :6666 :5555"
	s := Network(text, extract.Extraction{}, 0)
	if s.Points != portCapPoints {
		t.Errorf("port factor = %d, want capped at %d", s.Points, portCapPoints)
	}
}

func TestStatisticalQuietText(t *testing.T) {
	if s := Statistical("Windows Update service started successfully."); s.Points != 0 {
		t.Errorf("benign text scored %d: %v", s.Points, s.Reasons)
	}
}

func TestStatisticalSpecialDensity(t *testing.T) {
	s := Statistical("$$$@@@!!!###%%%^^^&&&***((()))___+++===")
	if s.Points < specialDensityPoints {
		t.Errorf("score = %d, want >= %d", s.Points, specialDensityPoints)
	}
}

func TestStatisticalHexDensity(t *testing.T) {
	s := Statistical("0xdeadbeefdeadbeef11 0xcafebabecafebabe22 0xfeedfacefeedface33")
	found := false
	for _, r := range s.Reasons {
		if strings.Contains(r, "hex") {
			found = true
		}
	}
	if !found {
		t.Errorf("hex factor missing: %v", s.Reasons)
	}
}

func TestStatisticalEmptyInput(t *testing.T) {
	if s := Statistical(""); s.Points != 0 {
		t.Errorf("empty input scored %d", s.Points)
	}
}
