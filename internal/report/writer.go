package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vigilab/incident-triage/internal/model"
)

// Writer saves finished reports to disk as indented JSON with a hash
// manifest for integrity verification.
type Writer struct {
	outputDir string
}

// FileHash records the SHA-256 hash of a saved report file.
type FileHash struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

// Manifest records report file hashes.
type Manifest struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Files       []FileHash `json:"files"`
}

// NewWriter creates a Writer for the given output directory.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// Save writes the report to report.json and records its hash in
// manifest.json. It returns the report file path.
func (w *Writer) Save(rep model.Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(w.outputDir, "report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	manifest := Manifest{
		GeneratedAt: time.Now().UTC(),
		Files: []FileHash{{
			File:   "report.json",
			SHA256: sha256Hex(data),
			Size:   len(data),
		}},
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.outputDir, "manifest.json"), manifestData, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}

// sha256Hex computes the SHA-256 hex digest of data.
func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// GenerateOutputDir creates a timestamped output directory path under baseDir.
func GenerateOutputDir(baseDir string) string {
	ts := time.Now().Format("2006-01-02T15-04-05")
	return filepath.Join(baseDir, ts)
}
