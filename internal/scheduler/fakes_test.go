package scheduler

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/core-coin/gutta/internal/models"
)

// fakeRand is a scripted models.RandomSource. IntRange returns queued
// values (falling back to min), choices return the first option.
type fakeRand struct {
	mu     sync.Mutex
	ranges []int
}

func (f *fakeRand) IntRange(min, max int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ranges) > 0 {
		v := f.ranges[0]
		f.ranges = f.ranges[1:]
		return v
	}
	return min
}

func (f *fakeRand) IntChoice(choices []int) int { return choices[0] }

func (f *fakeRand) DurationChoice(choices []time.Duration) time.Duration { return choices[0] }

type fakeAlerts struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (f *fakeAlerts) Notify(subject, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
}

func (f *fakeAlerts) count(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

func (f *fakeAlerts) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return ""
	}
	return f.bodies[len(f.bodies)-1]
}

type fakeLedger struct {
	mu       sync.Mutex
	inits    int
	attempts []*models.MintAttempt
}

func (f *fakeLedger) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	return nil
}

func (f *fakeLedger) Append(attempt *models.MintAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeLedger) Snapshot() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []byte(fmt.Sprintf("rows=%d", len(f.attempts))), nil
}

func (f *fakeLedger) rows() []*models.MintAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.MintAttempt, len(f.attempts))
	copy(out, f.attempts)
	return out
}

type fakeArchive struct {
	mu      sync.Mutex
	uploads int
	emails  int
}

func (f *fakeArchive) Upload(ctx context.Context, snapshot []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return "s3://test/backup.csv", nil
}

func (f *fakeArchive) EmailReport(ctx context.Context, snapshot []byte, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails++
	return nil
}

func (f *fakeArchive) counts() (uploads, emails int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads, f.emails
}

// fakeChainClient scripts every RPC the minter makes.
type fakeChainClient struct {
	network models.Network
	owner   string

	mu sync.Mutex

	balance    *big.Int
	balanceErr error

	nonceErr    error
	estimateErr error
	priceErr    error

	sendErr    error
	sendHashes []string
	sent       int

	receipt      *models.MintReceipt
	receiptErr   error
	receiptDelay time.Duration
}

func (f *fakeChainClient) Network() models.Network { return f.network }
func (f *fakeChainClient) OwnerAddress() string    { return f.owner }

func (f *fakeChainClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeChainClient) GetNonce(ctx context.Context, address string) (uint64, error) {
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return 7, nil
}

func (f *fakeChainClient) GetEnergyPrice(ctx context.Context) (*big.Int, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return big.NewInt(1000), nil
}

func (f *fakeChainClient) EstimateMint(ctx context.Context, recipient string) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 50000, nil
}

func (f *fakeChainClient) SendMint(ctx context.Context, nonce, energyLimit uint64, energyPrice *big.Int, recipient string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	if len(f.sendHashes) > 0 {
		hash := f.sendHashes[0]
		f.sendHashes = f.sendHashes[1:]
		return hash, nil
	}
	return fmt.Sprintf("0xhash%d", f.sent), nil
}

func (f *fakeChainClient) WaitForReceipt(ctx context.Context, txHash string) (*models.MintReceipt, error) {
	if f.receiptDelay > 0 {
		select {
		case <-time.After(f.receiptDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", txHash, ctx.Err())
		}
	}
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.receipt != nil {
		return f.receipt, nil
	}
	return &models.MintReceipt{Status: 1, EnergyUsed: 42000}, nil
}

func (f *fakeChainClient) CodeAt(ctx context.Context, address string) ([]byte, error) {
	return nil, nil
}

func (f *fakeChainClient) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

// fakeWalletSource hands out sequentially numbered recipients, optionally
// exhausting after a limit.
type fakeWalletSource struct {
	mu    sync.Mutex
	next  int
	limit int // 0 means unlimited
}

func (f *fakeWalletSource) NextRecipient() (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limit > 0 && f.next >= f.limit {
		return "", "", models.ErrPoolExhausted
	}
	f.next++
	return fmt.Sprintf("cb%040d", f.next), fmt.Sprintf("key%d", f.next), nil
}
