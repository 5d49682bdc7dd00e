package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thedittmer/podcast-skill/internal/models"
)

const (
	reportFile      = "latest.json"
	spreadsheetFile = "spreadsheet.json"
	lockFile        = "serve.lock"
)

type Storage struct {
	dataDir string
}

// NewStorage uses dataDir, creating it if needed.
func NewStorage(dataDir string) (*Storage, error) {
	if dataDir == "" {
		return nil, errors.New("storage requires a data directory")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}
	return &Storage{dataDir: dataDir}, nil
}

func (s *Storage) Dir() string {
	return s.dataDir
}

// LockPath is the file the HTTP host locks to stay single-instance.
func (s *Storage) LockPath() string {
	return filepath.Join(s.dataDir, lockFile)
}

// SaveReport stores the most recent latest-episodes report.
func (s *Storage) SaveReport(report models.LatestReport) error {
	if err := s.writeJSON(reportFile, report); err != nil {
		return fmt.Errorf("error saving report: %w", err)
	}
	return nil
}

// LoadReport returns the stored report. ok is false when none was saved yet.
func (s *Storage) LoadReport() (models.LatestReport, bool, error) {
	var report models.LatestReport
	ok, err := s.readJSON(reportFile, &report)
	if err != nil {
		return models.LatestReport{}, false, fmt.Errorf("error reading report: %w", err)
	}
	return report, ok, nil
}

func (s *Storage) SaveSpreadsheetID(id string) error {
	if err := s.writeJSON(spreadsheetFile, map[string]string{"id": id}); err != nil {
		return fmt.Errorf("error saving spreadsheet ID: %w", err)
	}
	return nil
}

// LoadSpreadsheetID returns the remembered spreadsheet, or "" if none.
func (s *Storage) LoadSpreadsheetID() (string, error) {
	var data map[string]string
	if _, err := s.readJSON(spreadsheetFile, &data); err != nil {
		return "", fmt.Errorf("error reading spreadsheet ID: %w", err)
	}
	return data["id"], nil
}

// writeJSON writes through a temporary file and renames it into place.
func (s *Storage) writeJSON(name string, v any) error {
	path := filepath.Join(s.dataDir, name)
	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Storage) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return true, nil
}
