package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseEnrichment(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantCls string
		wantErr bool
	}{
		{
			name:    "plain json",
			raw:     `{"classification":"true-positive","confidence":90,"summary":"credential dumping"}`,
			wantCls: "true-positive",
		},
		{
			name:    "fenced json",
			raw:     "```json\n{\"classification\":\"false-positive\",\"confidence\":70,\"summary\":\"maintenance\"}\n```",
			wantCls: "false-positive",
		},
		{
			name:    "invalid classification normalized",
			raw:     `{"classification":"malicious","confidence":80,"summary":"x"}`,
			wantCls: "unknown",
		},
		{
			name:    "uppercase classification normalized",
			raw:     `{"classification":"True-Positive","confidence":80,"summary":"x"}`,
			wantCls: "true-positive",
		},
		{
			name:    "malformed json",
			raw:     `{"classification": "true-positive", "confidence":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnrichment(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Classification != tt.wantCls {
				t.Errorf("classification = %s, want %s", got.Classification, tt.wantCls)
			}
		})
	}
}

func TestParseEnrichmentClampsConfidence(t *testing.T) {
	got, err := ParseEnrichment(`{"classification":"unknown","confidence":150,"summary":"x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", got.Confidence)
	}

	got, err = ParseEnrichment(`{"classification":"unknown","confidence":-5,"summary":"x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", got.Confidence)
	}
}

func TestFailsafeIsCompleteAndNeutral(t *testing.T) {
	fs := Failsafe()
	if fs.Classification != "unknown" {
		t.Errorf("classification = %s, want unknown", fs.Classification)
	}
	if fs.Confidence != FailsafeConfidence {
		t.Errorf("confidence = %d, want %d", fs.Confidence, FailsafeConfidence)
	}
	if fs.Summary == "" {
		t.Error("failsafe summary is empty")
	}
	if fs.BehavioralIndicators == nil || fs.NetworkIndicators == nil ||
		fs.MitreTechniques == nil || fs.Recommendations == nil {
		t.Error("failsafe slices must be non-nil for JSON output")
	}
	if len(fs.Recommendations) == 0 {
		t.Error("failsafe should direct the incident to manual review")
	}
}

func TestBuildIncidentPrompt(t *testing.T) {
	prompt := BuildIncidentPrompt("high", "edr", "powershell -enc ABC", []string{"Obfuscated Scripting pattern"})

	for _, want := range []string{"high", "edr", "powershell -enc ABC", "Obfuscated Scripting pattern"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	prompt = BuildIncidentPrompt("", "", "log text", nil)
	if !strings.Contains(prompt, "unspecified") {
		t.Error("empty severity should render as unspecified")
	}
	if !strings.Contains(prompt, "none") {
		t.Error("empty heuristics should render as none")
	}
}

func TestAnalyzeAgainstMockProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"content":"{\"classification\":\"true-positive\",\"confidence\":88,\"summary\":\"mimikatz observed\",\"behavioral_indicators\":[\"mimikatz.exe executed\"],\"network_indicators\":[],\"mitre_techniques\":[\"T1003\"],\"recommendations\":[\"Isolate host\"]}"}}`))
	}))
	defer server.Close()

	provider, err := NewProvider("ollama", "", "test-model", server.URL, 0)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	a := New(provider, false)
	got, err := a.Analyze(context.Background(), "high", "edr", "mimikatz.exe executed on host", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Classification != "true-positive" || got.Confidence != 88 {
		t.Errorf("got %s/%d, want true-positive/88", got.Classification, got.Confidence)
	}
	if len(got.BehavioralIndicators) != 1 {
		t.Errorf("behavioral indicators = %v", got.BehavioralIndicators)
	}
}

func TestAnalyzeRetriesOnce(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"content":"{\"classification\":\"false-positive\",\"confidence\":72,\"summary\":\"routine patching\"}"}}`))
	}))
	defer server.Close()

	provider, err := NewProvider("ollama", "", "test-model", server.URL, 0)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	a := New(provider, false)
	got, err := a.Analyze(context.Background(), "low", "siem", "windows update installed", nil)
	if err != nil {
		t.Fatalf("Analyze after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if got.Classification != "false-positive" {
		t.Errorf("classification = %s, want false-positive", got.Classification)
	}
}

func TestAnalyzeFailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewProvider("ollama", "", "test-model", server.URL, 0)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	a := New(provider, false)
	if _, err := a.Analyze(context.Background(), "low", "siem", "log", nil); err == nil {
		t.Fatal("expected error from persistently failing provider")
	}
}

func TestNewProviderRejectsUnknown(t *testing.T) {
	if _, err := NewProvider("bedrock", "", "m", "", 0); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
