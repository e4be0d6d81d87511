package wallets

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

// Pool is the file-backed store of scraped candidate wallets. The scraper
// appends candidates; the scheduler pops them one at a time. Every
// mutation is persisted before it is acknowledged, so a crash never
// hands the same wallet to two runs.
type Pool struct {
	logger *logger.Logger
	path   string

	mu    sync.Mutex
	state models.PoolState
	// index of every master-set address for O(1) dedup checks
	known map[string]struct{}
}

// LoadPool reads the pool file at path. A missing file yields an empty
// pool. A corrupt file also yields an empty pool, with recovered=true so
// the caller can raise an alert instead of silently losing candidates.
func LoadPool(path string, log *logger.Logger) (pool *Pool, recovered bool, err error) {
	p := &Pool{
		logger: log,
		path:   path,
		known:  make(map[string]struct{}),
	}

	data, readErr := os.ReadFile(path)
	if os.IsNotExist(readErr) {
		return p, false, nil
	}
	if readErr != nil {
		return nil, false, fmt.Errorf("failed to read pool file: %w", readErr)
	}

	if jsonErr := json.Unmarshal(data, &p.state); jsonErr != nil {
		log.Errorf("pool file %s is corrupt, starting from an empty pool: %v", path, jsonErr)
		p.state = models.PoolState{}
		return p, true, nil
	}

	for _, addr := range p.state.MasterSet {
		p.known[addr] = struct{}{}
	}
	return p, false, nil
}

// NextRecipient pops the first unused candidate, marks it used and
// persists the pool before returning. Pool wallets are externally
// custodied, so the private key is always empty.
func (p *Pool) NextRecipient() (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, wallet := range p.state.Wallets {
		if wallet.Used {
			continue
		}
		wallet.Used = true
		if err := p.persistLocked(); err != nil {
			// Roll back so a retry can claim the same wallet.
			wallet.Used = false
			return "", "", err
		}
		return wallet.Address, "", nil
	}

	return "", "", models.ErrPoolExhausted
}

// Add appends candidates that are not already in the master set and
// persists the pool. It returns how many were actually admitted.
func (p *Pool) Add(candidates ...*models.CandidateWallet) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	admitted := 0
	for _, candidate := range candidates {
		if _, seen := p.known[candidate.Address]; seen {
			continue
		}
		p.known[candidate.Address] = struct{}{}
		p.state.MasterSet = append(p.state.MasterSet, candidate.Address)
		p.state.Wallets = append(p.state.Wallets, candidate)
		admitted++
	}

	if admitted == 0 {
		return 0, nil
	}
	if err := p.persistLocked(); err != nil {
		return 0, err
	}
	return admitted, nil
}

// Seen reports whether an address has ever been admitted, used or not.
func (p *Pool) Seen(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.known[address]
	return ok
}

// UnusedCount returns how many candidates remain poppable.
func (p *Pool) UnusedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for _, wallet := range p.state.Wallets {
		if !wallet.Used {
			count++
		}
	}
	return count
}

func (p *Pool) persistLocked() error {
	p.state.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(p.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pool state: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pool file: %w", err)
	}
	return nil
}
