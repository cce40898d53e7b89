// Package server exposes the webhook ingestion API for SIEM integrations.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"

	"github.com/vigilab/incident-triage/internal/config"
	"github.com/vigilab/incident-triage/internal/model"
	"github.com/vigilab/incident-triage/internal/store"
)

// maxBodyBytes bounds webhook payloads.
const maxBodyBytes = 1 << 20

// Analyzer runs one incident through the pipeline. Satisfied by
// engine.Engine.
type Analyzer interface {
	Analyze(ctx context.Context, in model.Input, threatReport *model.ThreatReport) model.Report
}

// Server handles webhook ingestion: validate, analyze each entry
// independently, persist, and relay to the callback URL.
type Server struct {
	cfg     config.ServerConfig
	engine  Analyzer
	history store.History
	schema  *gojsonschema.Schema
	relay   *Relay
	verbose bool

	httpServer *http.Server
}

// New creates a Server.
func New(cfg config.ServerConfig, engine Analyzer, history store.History, verbose bool) (*Server, error) {
	schema, err := compileWebhookSchema()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		history: history,
		schema:  schema,
		verbose: verbose,
	}
	if cfg.CallbackURL != "" {
		s.relay = NewRelay(cfg.CallbackURL, s.logf)
	}
	return s, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/webhook", s.requireAPIKey(s.handleWebhook)).Methods(http.MethodPost)
	r.HandleFunc("/v1/reports/{id}", s.requireAPIKey(s.handleGetReport)).Methods(http.MethodGet)
	return r
}

// ListenAndServe starts the server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // analysis of a full batch can be slow with enrichment on
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logf("listening on %s", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// requireAPIKey rejects requests without the configured key. An empty
// configured key disables the check (local development).
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" && r.Header.Get("X-API-Key") != s.cfg.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// webhookPayload mirrors the JSON schema in schema.go.
type webhookPayload struct {
	Source  string `json:"source"`
	Entries []struct {
		Title    string `json:"title"`
		Message  string `json:"message"`
		Severity string `json:"severity"`
		Context  string `json:"context"`
	} `json:"entries"`
}

// entryResult is the per-entry summary returned to the webhook caller.
type entryResult struct {
	ReportID   string `json:"report_id"`
	Title      string `json:"title"`
	Verdict    string `json:"verdict"`
	Confidence int    `json:"confidence"`
	Severity   string `json:"severity"`
	Urgency    string `json:"urgency"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	if err := validatePayload(s.schema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "decode payload: "+err.Error())
		return
	}

	// Each entry is analyzed independently: one bad entry never blocks
	// its batch siblings.
	results := make([]entryResult, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		in := model.Input{
			Title:            entry.Title,
			LogText:          entry.Message,
			SystemContext:    firstNonEmpty(entry.Context, payload.Source),
			DeclaredSeverity: model.ParseSeverity(entry.Severity),
		}

		rep := s.engine.Analyze(r.Context(), in, nil)

		if s.history != nil {
			if err := s.history.SaveReport(r.Context(), rep, entry.Message); err != nil {
				s.logf("save report %s: %v", rep.ID, err)
			}
		}
		if s.relay != nil {
			go func(rep model.Report) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				if err := s.relay.Deliver(ctx, rep); err != nil {
					s.logf("%v", err)
				}
			}(rep)
		}

		results = append(results, entryResult{
			ReportID:   rep.ID,
			Title:      rep.Title,
			Verdict:    string(rep.Classification.Verdict),
			Confidence: rep.Classification.Confidence,
			Severity:   string(rep.AdjustedSeverity),
			Urgency:    rep.Urgency,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":  payload.Source,
		"results": results,
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	mem, ok := s.history.(*store.MemoryStore)
	if !ok {
		writeError(w, http.StatusNotImplemented, "report retrieval requires the in-memory store")
		return
	}
	rep, found := mem.GetReport(r.Context(), id)
	if !found {
		writeError(w, http.StatusNotFound, "report not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(os.Stderr, "[server] "+format+"\n", args...)
	}
}
