package scheduler

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

func testTestnet() models.Network {
	return models.Network{
		Name:               models.NetworkTestnet,
		DisplayName:        "Devin Testnet",
		NetworkID:          big.NewInt(3),
		ExplorerTxTemplate: "https://devin.blockindex.net/tx/%s",
	}
}

type schedulerHarness struct {
	scheduler *Scheduler
	alerts    *fakeAlerts
	ledger    *fakeLedger
	archive   *fakeArchive
	mainnet   *fakeChainClient
	testnet   *fakeChainClient
}

func newHarness(t *testing.T, opts Options, wallets models.WalletSource, mainnet, testnet *fakeChainClient) *schedulerHarness {
	t.Helper()
	log, err := logger.NewLogger(true)
	require.NoError(t, err)

	alerts := &fakeAlerts{}
	ldg := &fakeLedger{}
	arc := &fakeArchive{}

	threshold, _ := new(big.Int).SetString("10000000000000000", 10)
	minter := NewMinter(log, alerts, threshold)

	clients := map[string]models.ChainClient{
		models.NetworkMainnet: mainnet,
		models.NetworkTestnet: testnet,
	}

	s := NewScheduler(log, opts, minter, clients, wallets, ldg, alerts, arc, &fakeRand{})
	return &schedulerHarness{scheduler: s, alerts: alerts, ledger: ldg, archive: arc, mainnet: mainnet, testnet: testnet}
}

func fastOptions() Options {
	return Options{
		WorkerCount:    2,
		QueueSize:      4,
		Cooldown:       20 * time.Millisecond,
		SleepPatterns:  []time.Duration{time.Millisecond},
		BackupEvery:    100,
		MinDailyTxns:   1000,
		MaxDailyTxns:   1000,
		CycleOptions:   []int{3},
		EmailRecipient: "ops@example.com",
		DrainTimeout:   5 * time.Second,
	}
}

func fundedClient(network models.Network) *fakeChainClient {
	return &fakeChainClient{
		network: network,
		owner:   "cb99owner",
		balance: big.NewInt(1e18),
	}
}

func runScheduler(t *testing.T, h *schedulerHarness, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- h.scheduler.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestEveryAttemptLandsInLedger(t *testing.T) {
	// Five pool wallets, then exhaustion triggers a graceful drain.
	wallets := &fakeWalletSource{limit: 5}
	h := newHarness(t, fastOptions(), wallets, fundedClient(testMainnet()), fundedClient(testTestnet()))

	done := runScheduler(t, h, context.Background())
	waitDone(t, done)

	rows := h.ledger.rows()
	require.Len(t, rows, 5)
	for _, row := range rows {
		require.Equal(t, models.StatusSuccess, row.Status)
		require.NotEmpty(t, row.RecipientPrivateKey)
	}

	require.Equal(t, 1, h.alerts.count("Bot Started"))
	require.Equal(t, 1, h.alerts.count("Wallet Pool Exhausted"))
	require.Equal(t, 1, h.alerts.count("Bot Stopped"))

	// The shutdown sequence archives and emails exactly once here.
	uploads, emails := h.archive.counts()
	require.Equal(t, 1, uploads)
	require.Equal(t, 1, emails)
}

func TestCycleSelectionAcrossNetworks(t *testing.T) {
	// Cycle length 3: of the first four mints, three go to testnet and
	// the fourth to mainnet.
	wallets := &fakeWalletSource{limit: 4}
	h := newHarness(t, fastOptions(), wallets, fundedClient(testMainnet()), fundedClient(testTestnet()))

	done := runScheduler(t, h, context.Background())
	waitDone(t, done)

	testnetRows, mainnetRows := 0, 0
	for _, row := range h.ledger.rows() {
		switch row.Network {
		case models.NetworkTestnet:
			testnetRows++
		case models.NetworkMainnet:
			mainnetRows++
		}
	}
	require.Equal(t, 3, testnetRows)
	require.Equal(t, 1, mainnetRows)
}

func TestFundingExhaustionDrains(t *testing.T) {
	mainnet := fundedClient(testMainnet())
	mainnet.sendErr = errors.New("insufficient funds for energy * price + value")

	opts := fastOptions()
	opts.CycleOptions = []int{1} // reach mainnet on the second mint

	h := newHarness(t, opts, &fakeWalletSource{}, mainnet, fundedClient(testTestnet()))

	done := runScheduler(t, h, context.Background())
	waitDone(t, done)

	var noGasRows int
	for _, row := range h.ledger.rows() {
		if row.Status == models.StatusFailedNoGas {
			noGasRows++
		}
	}
	require.GreaterOrEqual(t, noGasRows, 1)
	require.GreaterOrEqual(t, h.alerts.count("INSUFFICIENT FUNDS"), 1)
	require.Equal(t, 1, h.alerts.count("Bot Stopped"))
}

func TestDayRolloverArchivesExactlyOnce(t *testing.T) {
	day1 := time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)

	var clockMu sync.Mutex
	now := day1
	opts := fastOptions()
	opts.Clock = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}

	h := newHarness(t, opts, &fakeWalletSource{}, fundedClient(testMainnet()), fundedClient(testTestnet()))

	ctx, cancel := context.WithCancel(context.Background())
	done := runScheduler(t, h, ctx)

	// Let a few mints happen on day one, then cross midnight.
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, h.alerts.count("Daily Report"))

	clockMu.Lock()
	now = day2
	clockMu.Unlock()

	require.Eventually(t, func() bool {
		return h.alerts.count("Daily Report") == 1
	}, 5*time.Second, 5*time.Millisecond)

	// The boundary fires once, not once per mint.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, h.alerts.count("Daily Report"))

	uploads, emails := h.archive.counts()
	require.GreaterOrEqual(t, uploads, 1)
	require.GreaterOrEqual(t, emails, 1)

	cancel()
	waitDone(t, done)
}

func TestStopLetsInFlightMintConfirm(t *testing.T) {
	wallets := &fakeWalletSource{limit: 1}
	mainnet := fundedClient(testMainnet())
	testnet := fundedClient(testTestnet())
	// The single mint lands on testnet and takes 300ms to confirm.
	testnet.receiptDelay = 300 * time.Millisecond

	h := newHarness(t, fastOptions(), wallets, mainnet, testnet)

	ctx, cancel := context.WithCancel(context.Background())
	done := runScheduler(t, h, ctx)

	// Stop mid-receipt-wait. The submitted transaction must be allowed
	// to confirm inside the drain window, not be aborted into a failure.
	time.Sleep(100 * time.Millisecond)
	cancel()
	waitDone(t, done)

	rows := h.ledger.rows()
	require.Len(t, rows, 1)
	require.Equal(t, models.StatusSuccess, rows[0].Status)
	require.Zero(t, h.alerts.count("Minting Error"))
}

func TestDrainTimeoutAbandonsWorkersWithoutPanic(t *testing.T) {
	// Three queued mints at one second each against a 100ms drain window:
	// the abandoned workers must fail fast and exit, never crash the run.
	wallets := &fakeWalletSource{limit: 3}
	mainnet := fundedClient(testMainnet())
	testnet := fundedClient(testTestnet())
	mainnet.receiptDelay = time.Second
	testnet.receiptDelay = time.Second

	opts := fastOptions()
	opts.DrainTimeout = 100 * time.Millisecond

	h := newHarness(t, opts, wallets, mainnet, testnet)

	done := runScheduler(t, h, context.Background())
	waitDone(t, done)

	// Every queued attempt is still accounted for in the ledger and the
	// shutdown sequence completes.
	require.Len(t, h.ledger.rows(), 3)
	require.Equal(t, 1, h.alerts.count("Bot Stopped"))
}

func TestQuotaMetCoolsDownInsteadOfMinting(t *testing.T) {
	opts := fastOptions()
	// Target zero: the quota is met before the first mint.
	opts.MinDailyTxns = 0
	opts.MaxDailyTxns = 0

	mainnet := fundedClient(testMainnet())
	testnet := fundedClient(testTestnet())
	h := newHarness(t, opts, &fakeWalletSource{}, mainnet, testnet)

	ctx, cancel := context.WithCancel(context.Background())
	done := runScheduler(t, h, ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()
	waitDone(t, done)

	require.Empty(t, h.ledger.rows())
	require.Zero(t, mainnet.sentCount())
	require.Zero(t, testnet.sentCount())
}
