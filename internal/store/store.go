// Package store persists analysis reports and serves incident history.
package store

import (
	"context"

	"github.com/vigilab/incident-triage/internal/model"
)

// History stores finished reports and lists prior incidents for
// similarity matching.
type History interface {
	// SaveReport persists one report together with the log text it analyzed.
	SaveReport(ctx context.Context, report model.Report, logText string) error
	// ListRecent returns up to limit prior incidents, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.HistoricalIncident, error)
	// Close releases underlying resources.
	Close()
}
