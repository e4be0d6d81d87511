package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/internal/wallets"
	"github.com/core-coin/gutta/pkg/logger"
)

// checkpointEvery is how many accepted wallets pass between status-file
// checkpoints during a pass.
const checkpointEvery = 100

// AddressSource produces raw candidate addresses.
type AddressSource interface {
	FetchRawAddresses(ctx context.Context, limit int) ([]string, error)
}

// ValueOracle prices an address's holdings in USD.
type ValueOracle interface {
	Value(ctx context.Context, address string) (float64, error)
}

// CodeReader distinguishes EOAs from contracts.
type CodeReader interface {
	CodeAt(ctx context.Context, address string) ([]byte, error)
}

type Options struct {
	RawTarget    int
	PoolTarget   int
	USDThreshold float64
}

// Scraper runs one harvest pass: fetch raw addresses, drop known and
// invalid ones, keep funded EOAs, append them to the wallet pool.
type Scraper struct {
	logger *logger.Logger
	opts   Options
	source AddressSource
	oracle ValueOracle
	chain  CodeReader
	pool   *wallets.Pool
	status *StatusFile
	alerts models.AlertSink
}

func NewScraper(
	log *logger.Logger,
	opts Options,
	source AddressSource,
	oracle ValueOracle,
	chain CodeReader,
	pool *wallets.Pool,
	status *StatusFile,
	alerts models.AlertSink,
) *Scraper {
	return &Scraper{
		logger: log,
		opts:   opts,
		source: source,
		oracle: oracle,
		chain:  chain,
		pool:   pool,
		status: status,
		alerts: alerts,
	}
}

// Run executes one full pass. It returns an error only when the pass
// could not produce anything at all; partial passes complete normally.
func (s *Scraper) Run(ctx context.Context) error {
	s.updateStatus(models.ScraperStatusRunning, 0, "Scraper started")

	raw, err := s.source.FetchRawAddresses(ctx, s.opts.RawTarget)
	if err != nil {
		msg := fmt.Sprintf("Raw address fetch failed: %v", err)
		s.updateStatus(models.ScraperStatusStopped, 0, msg)
		s.alerts.Notify("Scraper Failed", msg)
		return fmt.Errorf("failed to fetch raw addresses: %w", err)
	}

	// An empty harvest means the explorer gave us nothing to filter;
	// aborting loudly beats completing a pass that admitted zero wallets.
	if len(raw) == 0 {
		msg := "Explorer returned no raw addresses, aborting pass"
		s.updateStatus(models.ScraperStatusStopped, 0, msg)
		s.alerts.Notify("Scraper Aborted", msg)
		return fmt.Errorf("no raw addresses collected")
	}

	fresh := lo.Filter(raw, func(addr string, _ int) bool {
		return !s.pool.Seen(addr)
	})
	s.logger.Infof("filtering %d raw addresses (%d new, %d already known)",
		len(raw), len(fresh), len(raw)-len(fresh))

	accepted := 0
	rejectedContract := 0
	rejectedLowValue := 0
	rejectedError := 0

	for _, addr := range fresh {
		if ctx.Err() != nil {
			s.updateStatus(models.ScraperStatusStopped, accepted, "Stopped before completion")
			return ctx.Err()
		}
		if accepted >= s.opts.PoolTarget {
			break
		}

		// Per-address failures reject the candidate and move on; one bad
		// address must not end the pass.
		code, err := s.chain.CodeAt(ctx, addr)
		if err != nil {
			s.logger.Warnf("code check failed for %s, rejecting: %v", addr, err)
			rejectedError++
			continue
		}
		if len(code) > 0 {
			rejectedContract++
			continue
		}

		usd, err := s.oracle.Value(ctx, addr)
		if err != nil {
			s.logger.Warnf("value lookup failed for %s, rejecting: %v", addr, err)
			rejectedError++
			continue
		}
		if usd < s.opts.USDThreshold {
			rejectedLowValue++
			continue
		}

		admitted, err := s.pool.Add(&models.CandidateWallet{
			Address:     addr,
			USDValue:    usd,
			ScrapedDate: time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to persist pool: %w", err)
		}
		if admitted == 0 {
			continue
		}

		accepted++
		s.logger.Infof("[%d/%d] accepted %s ($%.2f)", accepted, s.opts.PoolTarget, addr, usd)

		if accepted%checkpointEvery == 0 {
			s.updateStatus(models.ScraperStatusRunning, accepted,
				fmt.Sprintf("Collected %d wallets so far", accepted))
		}
	}

	summary := fmt.Sprintf(
		"Pass complete: %d accepted, %d contracts, %d below threshold, %d errors (from %d new candidates)",
		accepted, rejectedContract, rejectedLowValue, rejectedError, len(fresh))
	s.logger.Info(summary)

	s.updateStatus(models.ScraperStatusCompleted, accepted, summary)
	s.alerts.Notify("Scraper Completed", summary)
	return nil
}

func (s *Scraper) updateStatus(status string, collected int, message string) {
	if err := s.status.Update(status, collected, s.opts.PoolTarget, message); err != nil {
		s.logger.Errorf("failed to update scraper status: %v", err)
	}
}
