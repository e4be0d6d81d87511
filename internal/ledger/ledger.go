// Package ledger keeps the append-only CSV record of every mint attempt.
// The file is the bot's audit trail and is consumed as-is by the external
// dashboard, so the column layout is load-bearing.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

var header = []string{
	"Timestamp", "Network", "Recipient_Address", "Private_Key",
	"Transaction_Hash", "Status", "Explorer_URL", "Gas_Used", "Owner_Address",
}

// CSV is a file-backed models.Ledger. One mutex covers both appends and
// snapshot reads so a reader never observes a half-written row.
type CSV struct {
	logger   *logger.Logger
	path     string
	networks map[string]models.Network

	mu sync.Mutex
}

// NewCSV creates a ledger writing to path. The networks are needed to
// derive explorer URLs for persisted rows.
func NewCSV(path string, log *logger.Logger, networks ...models.Network) *CSV {
	byName := make(map[string]models.Network, len(networks))
	for _, n := range networks {
		byName[n.Name] = n
	}
	return &CSV{logger: log, path: path, networks: byName}
}

// Init creates the file with its header row if it does not exist yet.
// Calling it on an existing ledger is a no-op.
func (l *CSV) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat ledger file: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger header: %w", err)
	}
	return nil
}

// Append durably records one attempt. Rows are never edited or removed.
func (l *CSV) Append(attempt *models.MintAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if attempt.Timestamp.IsZero() {
		attempt.Timestamp = time.Now()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(l.row(attempt)); err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger row: %w", err)
	}
	return nil
}

// Snapshot returns the full current file contents. It holds the append
// lock for the duration of the read.
func (l *CSV) Snapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	return data, nil
}

func (l *CSV) row(attempt *models.MintAttempt) []string {
	txHash := attempt.TxHash
	if txHash == "" {
		txHash = "N/A"
	}

	explorerURL := "N/A"
	if network, ok := l.networks[attempt.Network]; ok {
		explorerURL = network.ExplorerTxURL(attempt.TxHash)
	} else {
		l.logger.Warnf("ledger row for unknown network %q, no explorer URL", attempt.Network)
	}

	return []string{
		attempt.Timestamp.Format("2006-01-02 15:04:05"),
		attempt.Network,
		attempt.RecipientAddress,
		attempt.RecipientPrivateKey,
		txHash,
		string(attempt.Status),
		explorerURL,
		strconv.FormatUint(attempt.EnergyUsed, 10),
		attempt.OwnerAddress,
	}
}
