package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/core-coin/gutta/internal/models"
)

// StatusFile is the wholesale-overwritten progress file the external
// dashboard polls during a long scraper pass.
type StatusFile struct {
	path string
}

func NewStatusFile(path string) *StatusFile {
	return &StatusFile{path: path}
}

func (s *StatusFile) Update(status string, collected, target int, message string) error {
	data, err := json.MarshalIndent(models.ScraperStatus{
		Status:           status,
		WalletsCollected: collected,
		Target:           target,
		Message:          message,
		LastUpdate:       time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scraper status: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scraper status: %w", err)
	}
	return nil
}
