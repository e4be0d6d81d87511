// Package scheduler is the bot's control loop: it owns the daily-quota
// state machine, picks networks, paces submissions and runs the worker
// pool that executes mints.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

// State is the scheduler's lifecycle phase, used for logging only; the
// transitions themselves are driven by channels and the quota state.
type State string

const (
	StateRunning  State = "RUNNING"
	StateCooldown State = "COOLDOWN"
	StateDraining State = "DRAINING"
	StateStopped  State = "STOPPED"
)

const (
	defaultDrainTimeout = 10 * time.Minute
	recipientRetryDelay = time.Minute
	archiveTimeout      = 2 * time.Minute
)

type Options struct {
	WorkerCount    int
	QueueSize      int
	Cooldown       time.Duration
	SleepPatterns  []time.Duration
	BackupEvery    int
	MinDailyTxns   int
	MaxDailyTxns   int
	CycleOptions   []int
	EmailRecipient string
	// DrainTimeout bounds the wait for in-flight mints at shutdown.
	DrainTimeout time.Duration
	// Clock is injectable for day-rollover tests; nil means time.Now.
	Clock func() time.Time
}

type mintJob struct {
	client     models.ChainClient
	recipient  string
	privateKey string
}

// Scheduler wires the minter, wallet source, ledger and sinks into the
// drip-minting loop. One Scheduler runs one session; it is not reusable
// after Run returns.
type Scheduler struct {
	logger  *logger.Logger
	opts    Options
	minter  *Minter
	clients map[string]models.ChainClient
	wallets models.WalletSource
	ledger  models.Ledger
	alerts  models.AlertSink
	archive models.ArchiveSink
	rng     models.RandomSource
	clock   func() time.Time

	quota *quotaState

	stateMu sync.Mutex
	state   State

	drainOnce sync.Once
	drainCh   chan struct{}

	// totalMinted is written by the aggregator goroutine only and read
	// by Run after the aggregator has exited.
	totalMinted int
}

func NewScheduler(
	log *logger.Logger,
	opts Options,
	minter *Minter,
	clients map[string]models.ChainClient,
	wallets models.WalletSource,
	ledger models.Ledger,
	alerts models.AlertSink,
	archive models.ArchiveSink,
	rng models.RandomSource,
) *Scheduler {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}

	return &Scheduler{
		logger:  log,
		opts:    opts,
		minter:  minter,
		clients: clients,
		wallets: wallets,
		ledger:  ledger,
		alerts:  alerts,
		archive: archive,
		clock:   clock,
		quota:   newQuotaState(rng, opts.MinDailyTxns, opts.MaxDailyTxns, opts.CycleOptions, clock()),
		rng:     rng,
		state:   StateRunning,
		drainCh: make(chan struct{}),
	}
}

// Run executes the minting loop until the context is cancelled or the
// payer's funding is exhausted. It drains in-flight work, archives the
// ledger and emits the shutdown report before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.ledger.Init(); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	s.sendStartupAlert(ctx)

	// Mints run under their own context, detached from the stop signal.
	// An already-submitted transaction cannot be safely aborted, so a
	// stop request lets in-flight work finish; the drain window bounds
	// it instead.
	mintCtx, cancelMints := context.WithCancel(context.Background())
	defer cancelMints()

	jobs := make(chan mintJob, s.opts.QueueSize)
	results := make(chan *models.MintAttempt, s.opts.QueueSize)

	var workers sync.WaitGroup
	for i := 0; i < s.opts.WorkerCount; i++ {
		workers.Add(1)
		go s.worker(mintCtx, jobs, results, &workers)
	}

	// Only the goroutine that joins the workers closes results, so an
	// abandoned worker can never send on a closed channel.
	workersDone := make(chan struct{})
	go func() {
		workers.Wait()
		close(results)
		close(workersDone)
	}()

	var aggregator sync.WaitGroup
	aggregator.Add(1)
	go s.aggregate(results, &aggregator)

	s.dispatch(ctx, jobs)

	s.setState(StateDraining)
	close(jobs)
	s.drainWorkers(workersDone, cancelMints)
	aggregator.Wait()

	s.finalize()
	s.setState(StateStopped)
	return nil
}

// dispatch is the decision loop: day rollover, quota gate, recipient
// sourcing, network selection and human-like pacing. It returns when the
// context is cancelled or a drain has been requested.
func (s *Scheduler) dispatch(ctx context.Context, jobs chan<- mintJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.drainCh:
			return
		default:
		}

		// The rollover check runs on every iteration so a quota cooldown
		// cannot delay the daily archive past the boundary.
		if rolled, newTarget := s.quota.rolloverIfNewDay(s.clock()); rolled {
			s.logger.Infof("new day, daily mainnet target: %d", newTarget)
			s.archiveAndReport()
			s.alerts.Notify("Daily Report",
				fmt.Sprintf("New day started. Target: %d mainnet mints", newTarget))
		}

		if s.quota.quotaReached() {
			count, target := s.quota.progress()
			s.setState(StateCooldown)
			s.logger.Infof("daily limit reached (%d/%d), cooling down for %s", count, target, s.opts.Cooldown)
			if !s.sleep(ctx, s.opts.Cooldown) {
				return
			}
			s.setState(StateRunning)
			continue
		}

		recipient, privateKey, err := s.wallets.NextRecipient()
		if err != nil {
			if errors.Is(err, models.ErrPoolExhausted) {
				s.logger.Error("wallet pool exhausted, draining")
				s.alerts.Notify("Wallet Pool Exhausted",
					"No unused scraped wallets remain. Run a scraper pass or switch to generate mode.")
				s.requestDrain()
				return
			}
			s.logger.Errorf("failed to obtain recipient: %v", err)
			if !s.sleep(ctx, recipientRetryDelay) {
				return
			}
			continue
		}

		networkName := s.quota.selectNetwork()
		client, ok := s.clients[networkName]
		if !ok {
			s.logger.Errorf("no client configured for network %q", networkName)
			continue
		}

		delay := s.rng.DurationChoice(s.opts.SleepPatterns)
		s.logger.Infof("next mint on %s in %s, recipient %s", networkName, delay, recipient)
		if !s.sleep(ctx, delay) {
			return
		}

		select {
		case jobs <- mintJob{client: client, recipient: recipient, privateKey: privateKey}:
		case <-ctx.Done():
			return
		case <-s.drainCh:
			return
		}
	}
}

// worker executes queued mints and appends each outcome to the ledger
// before reporting it to the aggregator.
func (s *Scheduler) worker(ctx context.Context, jobs <-chan mintJob, results chan<- *models.MintAttempt, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		attempt := s.minter.Mint(ctx, job.client, job.recipient)
		attempt.RecipientPrivateKey = job.privateKey

		if err := s.ledger.Append(attempt); err != nil {
			// The attempt already happened on-chain; losing the row is an
			// audit gap worth an alert, not a reason to stop the worker.
			s.logger.Errorf("failed to append ledger row: %v", err)
			s.alerts.Notify("Ledger Write Failed",
				fmt.Sprintf("Could not record %s attempt for %s: %v", attempt.Status, attempt.RecipientAddress, err))
		}

		results <- attempt
	}
}

// aggregate owns the success counters. Funding-exhaustion failures turn
// into a drain request; every BackupEvery-th confirmed mint triggers an
// off-host backup.
func (s *Scheduler) aggregate(results <-chan *models.MintAttempt, wg *sync.WaitGroup) {
	defer wg.Done()

	for attempt := range results {
		if attempt.Status == models.StatusSuccess {
			s.totalMinted++
			s.quota.recordSuccess(attempt.Network)
			count, target := s.quota.progress()
			s.logger.Infof("progress: total %d, today's mainnet %d/%d", s.totalMinted, count, target)

			if s.opts.BackupEvery > 0 && s.totalMinted%s.opts.BackupEvery == 0 {
				s.backup()
			}
		}

		if attempt.Status.IsFundingExhausted() {
			s.logger.Errorf("funding exhausted (%s), stopping bot", attempt.Status)
			s.requestDrain()
		}
	}
}

func (s *Scheduler) requestDrain() {
	s.drainOnce.Do(func() { close(s.drainCh) })
}

// sleep waits for d, interruptible by cancellation or a drain request.
// It returns false when the wait was cut short.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.drainCh:
		return false
	}
}

// drainWorkers waits for in-flight mints to finish, up to DrainTimeout.
// On timeout the mint context is cancelled so abandoned work fails fast
// and the workers still exit cleanly.
func (s *Scheduler) drainWorkers(workersDone <-chan struct{}, cancelMints context.CancelFunc) {
	select {
	case <-workersDone:
	case <-time.After(s.opts.DrainTimeout):
		s.logger.Errorf("workers did not drain within %s, abandoning in-flight mints", s.opts.DrainTimeout)
		cancelMints()
		<-workersDone
	}
}

func (s *Scheduler) setState(state State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != state {
		s.logger.Infof("scheduler state: %s -> %s", s.state, state)
		s.state = state
	}
}

func (s *Scheduler) sendStartupAlert(ctx context.Context) {
	var lines []string
	for _, name := range []string{models.NetworkMainnet, models.NetworkTestnet} {
		client, ok := s.clients[name]
		if !ok {
			continue
		}
		balance, err := client.GetBalance(ctx, client.OwnerAddress())
		if err != nil {
			s.logger.Errorf("failed to read %s balance at startup: %v", name, err)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s balance: %s ore", client.Network().DisplayName, balance))
	}

	owner := ""
	if client, ok := s.clients[models.NetworkMainnet]; ok {
		owner = client.OwnerAddress()
	}
	_, target := s.quota.progress()

	body := fmt.Sprintf("Drip minting bot has started.\n\nOwner: %s\nDaily mainnet target: %d\n", owner, target)
	for _, line := range lines {
		body += line + "\n"
	}
	s.alerts.Notify("Bot Started", body)
}

// backup uploads the current ledger snapshot. Best-effort.
func (s *Scheduler) backup() {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	snapshot, err := s.ledger.Snapshot()
	if err != nil {
		s.logger.Errorf("failed to snapshot ledger for backup: %v", err)
		return
	}
	if _, err := s.archive.Upload(ctx, snapshot); err != nil {
		s.logger.Errorf("failed to back up ledger: %v", err)
	}
}

// archiveAndReport uploads the snapshot and emails it. Best-effort.
func (s *Scheduler) archiveAndReport() {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	snapshot, err := s.ledger.Snapshot()
	if err != nil {
		s.logger.Errorf("failed to snapshot ledger: %v", err)
		return
	}
	if _, err := s.archive.Upload(ctx, snapshot); err != nil {
		s.logger.Errorf("failed to back up ledger: %v", err)
	}
	if s.opts.EmailRecipient != "" {
		if err := s.archive.EmailReport(ctx, snapshot, s.opts.EmailRecipient); err != nil {
			s.logger.Errorf("failed to email ledger report: %v", err)
			s.alerts.Notify("Email Failed", fmt.Sprintf("Could not send CSV report: %v", err))
		}
	}
}

// finalize runs the shutdown sequence: final archive, report email and
// the stop alert carrying session totals.
func (s *Scheduler) finalize() {
	s.logger.Info("shutdown sequence: final backup and report")
	s.archiveAndReport()

	count, _ := s.quota.progress()
	s.alerts.Notify("Bot Stopped", fmt.Sprintf(
		"Drip minting bot has stopped.\n\nTotal minted: %d\nToday's mainnet: %d\nStop time: %s\n",
		s.totalMinted, count, s.clock().Format("2006-01-02 15:04:05")))
	s.logger.Infof("bot stopped, total minted %d", s.totalMinted)
}
