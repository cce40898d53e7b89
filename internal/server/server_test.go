package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vigilab/incident-triage/internal/config"
	"github.com/vigilab/incident-triage/internal/model"
	"github.com/vigilab/incident-triage/internal/store"
)

// stubEngine returns a fixed verdict and records the inputs it saw.
type stubEngine struct {
	inputs []model.Input
}

func (s *stubEngine) Analyze(ctx context.Context, in model.Input, threatReport *model.ThreatReport) model.Report {
	s.inputs = append(s.inputs, in)
	return model.Report{
		ID:    "rep-" + in.Title,
		Title: in.Title,
		Classification: model.Classification{
			Verdict:    model.VerdictTruePositive,
			Confidence: 85,
		},
		AdjustedSeverity: model.SeverityHigh,
		Urgency:          "urgent",
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig, history store.History) (*Server, *stubEngine) {
	t.Helper()
	eng := &stubEngine{}
	srv, err := New(cfg, eng, history, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, eng
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestWebhookRequiresAPIKey(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{APIKey: "secret"}, nil)

	body := `{"source":"edr","entries":[{"message":"something happened"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status with key = %d, want 200", rec.Code)
	}
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	srv, eng := newTestServer(t, config.ServerConfig{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing entries", `{"source":"edr"}`},
		{"empty entries", `{"source":"edr","entries":[]}`},
		{"entry without message", `{"source":"edr","entries":[{"title":"x"}]}`},
		{"bad severity", `{"source":"edr","entries":[{"message":"x","severity":"catastrophic"}]}`},
		{"not json", `this is not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(eng.inputs) != 0 {
		t.Errorf("invalid payloads reached the engine: %+v", eng.inputs)
	}
}

func TestWebhookAnalyzesEachEntry(t *testing.T) {
	history := store.NewMemoryStore(10)
	srv, eng := newTestServer(t, config.ServerConfig{}, history)

	body := `{"source":"siem","entries":[
		{"title":"a","message":"failed login burst from 10.0.0.5","severity":"low"},
		{"title":"b","message":"mimikatz execution detected","severity":"critical","context":"edr"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Source  string        `json:"source"`
		Results []entryResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Verdict != "true-positive" || resp.Results[0].Urgency != "urgent" {
		t.Errorf("result[0] = %+v", resp.Results[0])
	}

	if len(eng.inputs) != 2 {
		t.Fatalf("engine saw %d inputs", len(eng.inputs))
	}
	if eng.inputs[0].SystemContext != "siem" {
		t.Errorf("entry without context should inherit batch source, got %q", eng.inputs[0].SystemContext)
	}
	if eng.inputs[1].SystemContext != "edr" {
		t.Errorf("entry context should win over source, got %q", eng.inputs[1].SystemContext)
	}
	if eng.inputs[1].DeclaredSeverity != model.SeverityCritical {
		t.Errorf("severity = %s", eng.inputs[1].DeclaredSeverity)
	}

	saved, err := history.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(saved) != 2 {
		t.Errorf("history has %d entries, want 2", len(saved))
	}
}

func TestGetReport(t *testing.T) {
	history := store.NewMemoryStore(10)
	srv, _ := newTestServer(t, config.ServerConfig{}, history)

	body := `{"source":"siem","entries":[{"title":"a","message":"suspicious activity"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/reports/rep-a", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var rep model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.ID != "rep-a" {
		t.Errorf("ID = %s", rep.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/reports/nope", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing report status = %d, want 404", rec.Code)
	}
}

func TestRelayRetriesWithBackoff(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	relay := NewRelay(upstream.URL, func(string, ...interface{}) {})
	relay.backoff = time.Millisecond

	err := relay.Deliver(context.Background(), model.Report{ID: "r1"})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestRelayGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	relay := NewRelay(upstream.URL, func(string, ...interface{}) {})
	relay.backoff = time.Millisecond

	err := relay.Deliver(context.Background(), model.Report{ID: "r1"})
	if err == nil {
		t.Fatal("expected delivery failure")
	}
	if got := atomic.LoadInt32(&calls); got != callbackAttempts {
		t.Errorf("calls = %d, want %d", got, callbackAttempts)
	}
}
