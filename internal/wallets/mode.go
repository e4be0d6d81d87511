package wallets

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/core-coin/gutta/internal/models"
)

type modeFile struct {
	Mode models.WalletMode `json:"mode"`
}

// ReadMode returns the recipient-sourcing mode recorded on disk. A
// missing file defaults to generate mode; an unrecognized value is an
// error rather than a silent fallback.
func ReadMode(path string) (models.WalletMode, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.ModeGenerate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read mode file: %w", err)
	}

	var mf modeFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return "", fmt.Errorf("failed to parse mode file: %w", err)
	}

	switch mf.Mode {
	case models.ModeGenerate, models.ModeScraped:
		return mf.Mode, nil
	default:
		return "", fmt.Errorf("unknown wallet mode %q", mf.Mode)
	}
}

// WriteMode records the recipient-sourcing mode for the next run.
func WriteMode(path string, mode models.WalletMode) error {
	data, err := json.Marshal(modeFile{Mode: mode})
	if err != nil {
		return fmt.Errorf("failed to encode mode file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mode file: %w", err)
	}
	return nil
}
