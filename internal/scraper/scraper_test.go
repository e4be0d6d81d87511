package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/internal/wallets"
	"github.com/core-coin/gutta/pkg/logger"
)

type fakeSource struct {
	addresses []string
	err       error
}

func (f *fakeSource) FetchRawAddresses(ctx context.Context, limit int) ([]string, error) {
	return f.addresses, f.err
}

type fakeOracle struct {
	values map[string]float64
	errs   map[string]error
}

func (f *fakeOracle) Value(ctx context.Context, address string) (float64, error) {
	if err, ok := f.errs[address]; ok {
		return 0, err
	}
	return f.values[address], nil
}

type fakeCodeReader struct {
	contracts map[string]bool
}

func (f *fakeCodeReader) CodeAt(ctx context.Context, address string) ([]byte, error) {
	if f.contracts[address] {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

type recordingAlerts struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingAlerts) Notify(subject, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
}

func (r *recordingAlerts) has(subject string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type scraperHarness struct {
	scraper    *Scraper
	pool       *wallets.Pool
	alerts     *recordingAlerts
	statusPath string
}

func newScraperHarness(t *testing.T, opts Options, source AddressSource, oracle ValueOracle, chain CodeReader) *scraperHarness {
	t.Helper()
	log, err := logger.NewLogger(true)
	require.NoError(t, err)

	dir := t.TempDir()
	pool, recovered, err := wallets.LoadPool(filepath.Join(dir, "scraped_wallets.json"), log)
	require.NoError(t, err)
	require.False(t, recovered)

	statusPath := filepath.Join(dir, "scraper_status.json")
	alerts := &recordingAlerts{}
	s := NewScraper(log, opts, source, oracle, chain, pool, NewStatusFile(statusPath), alerts)
	return &scraperHarness{scraper: s, pool: pool, alerts: alerts, statusPath: statusPath}
}

func readStatus(t *testing.T, path string) models.ScraperStatus {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var status models.ScraperStatus
	require.NoError(t, json.Unmarshal(data, &status))
	return status
}

func TestPassAdmitsFundedEOAsOnly(t *testing.T) {
	source := &fakeSource{addresses: []string{"cb11", "cb22", "cb33", "cb44"}}
	oracle := &fakeOracle{values: map[string]float64{
		"cb11": 12.5,
		"cb22": 0.2, // below threshold
		"cb44": 3.0,
	}}
	chain := &fakeCodeReader{contracts: map[string]bool{"cb33": true}}

	h := newScraperHarness(t, Options{RawTarget: 100, PoolTarget: 10, USDThreshold: 1.0}, source, oracle, chain)

	require.NoError(t, h.scraper.Run(context.Background()))

	require.Equal(t, 2, h.pool.UnusedCount())
	require.True(t, h.pool.Seen("cb11"))
	require.False(t, h.pool.Seen("cb22"))
	require.False(t, h.pool.Seen("cb33"))
	require.True(t, h.pool.Seen("cb44"))

	status := readStatus(t, h.statusPath)
	require.Equal(t, models.ScraperStatusCompleted, status.Status)
	require.Equal(t, 2, status.WalletsCollected)
	require.True(t, h.alerts.has("Scraper Completed"))
}

func TestPassSkipsKnownAddresses(t *testing.T) {
	source := &fakeSource{addresses: []string{"cb11", "cb22"}}
	oracle := &fakeOracle{values: map[string]float64{"cb11": 5, "cb22": 5}}
	chain := &fakeCodeReader{}

	h := newScraperHarness(t, Options{RawTarget: 100, PoolTarget: 10, USDThreshold: 1.0}, source, oracle, chain)

	_, err := h.pool.Add(&models.CandidateWallet{Address: "cb11", USDValue: 5})
	require.NoError(t, err)

	require.NoError(t, h.scraper.Run(context.Background()))

	status := readStatus(t, h.statusPath)
	require.Equal(t, 1, status.WalletsCollected)
}

func TestPassAbortsOnEmptyHarvest(t *testing.T) {
	h := newScraperHarness(t,
		Options{RawTarget: 100, PoolTarget: 10, USDThreshold: 1.0},
		&fakeSource{addresses: nil}, &fakeOracle{}, &fakeCodeReader{})

	require.Error(t, h.scraper.Run(context.Background()))

	status := readStatus(t, h.statusPath)
	require.Equal(t, models.ScraperStatusStopped, status.Status)
	require.True(t, h.alerts.has("Scraper Aborted"))
}

func TestPassFailsWhenSourceErrors(t *testing.T) {
	h := newScraperHarness(t,
		Options{RawTarget: 100, PoolTarget: 10, USDThreshold: 1.0},
		&fakeSource{err: errors.New("explorer down")}, &fakeOracle{}, &fakeCodeReader{})

	require.Error(t, h.scraper.Run(context.Background()))
	require.True(t, h.alerts.has("Scraper Failed"))
}

func TestPerAddressErrorsRejectNotAbort(t *testing.T) {
	source := &fakeSource{addresses: []string{"cb11", "cb22"}}
	oracle := &fakeOracle{
		values: map[string]float64{"cb22": 9},
		errs:   map[string]error{"cb11": errors.New("oracle timeout")},
	}

	h := newScraperHarness(t, Options{RawTarget: 100, PoolTarget: 10, USDThreshold: 1.0}, source, oracle, &fakeCodeReader{})

	require.NoError(t, h.scraper.Run(context.Background()))
	require.False(t, h.pool.Seen("cb11"))
	require.True(t, h.pool.Seen("cb22"))
}

func TestPassStopsAtPoolTarget(t *testing.T) {
	addrs := make([]string, 10)
	values := map[string]float64{}
	for i := range addrs {
		addrs[i] = string(rune('a'+i)) + "b11"
		values[addrs[i]] = 50
	}
	h := newScraperHarness(t, Options{RawTarget: 100, PoolTarget: 3, USDThreshold: 1.0},
		&fakeSource{addresses: addrs}, &fakeOracle{values: values}, &fakeCodeReader{})

	require.NoError(t, h.scraper.Run(context.Background()))
	require.Equal(t, 3, h.pool.UnusedCount())
}
