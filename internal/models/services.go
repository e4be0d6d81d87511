package models

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// ErrPoolExhausted is returned by a pool-backed wallet source when no
// unused candidate remains. Reportable, not fatal.
var ErrPoolExhausted = errors.New("wallet pool exhausted")

// ErrSecretUnavailable wraps any failure to retrieve the payer credential.
// Fatal at startup; the scheduler never enters its loop without a signer.
var ErrSecretUnavailable = errors.New("secret unavailable")

// ChainClient wraps one network's JSON-RPC connection together with the
// payer credential that signs every mint.
type ChainClient interface {
	// Network returns the network this client is bound to.
	Network() Network
	// OwnerAddress returns the payer account address.
	OwnerAddress() string
	// GetBalance returns the native-coin balance of an address in ore.
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	// GetNonce returns the payer's pending transaction count.
	GetNonce(ctx context.Context, address string) (uint64, error)
	// GetEnergyPrice returns the suggested energy price.
	GetEnergyPrice(ctx context.Context) (*big.Int, error)
	// EstimateMint estimates the energy cost of minting to recipient.
	EstimateMint(ctx context.Context, recipient string) (uint64, error)
	// SendMint builds, signs and submits the mint transaction and returns
	// its hash.
	SendMint(ctx context.Context, nonce, energyLimit uint64, energyPrice *big.Int, recipient string) (string, error)
	// WaitForReceipt blocks until the transaction is mined or the client's
	// configured timeout elapses.
	WaitForReceipt(ctx context.Context, txHash string) (*MintReceipt, error)
	// CodeAt returns the bytecode at an address; empty for EOAs.
	CodeAt(ctx context.Context, address string) ([]byte, error)
}

// SecretProvider retrieves the payer signing credential from a secret store.
type SecretProvider interface {
	Get(ctx context.Context, name string) (string, error)
}

// AlertSink delivers fire-and-forget operational notifications. Delivery
// failures are logged and swallowed, never propagated.
type AlertSink interface {
	Notify(subject, body string)
}

// ArchiveSink persists ledger snapshots off-host and distributes reports.
// Both operations are best-effort from the scheduler's point of view.
type ArchiveSink interface {
	// Upload stores a snapshot and returns its location.
	Upload(ctx context.Context, snapshot []byte) (string, error)
	// EmailReport mails a snapshot as a CSV attachment.
	EmailReport(ctx context.Context, snapshot []byte, recipient string) error
}

// Ledger is the append-only durable record of every mint attempt.
type Ledger interface {
	// Init creates the backing store with its header if absent; idempotent.
	Init() error
	// Append durably adds one attempt. Never edits or removes rows.
	Append(attempt *MintAttempt) error
	// Snapshot returns the full current contents, serialized. It acquires
	// the same lock as Append so it never observes a torn row.
	Snapshot() ([]byte, error)
}

// WalletSource produces mint recipients. The generator implementation
// returns a private key; the pool implementation returns an empty one.
type WalletSource interface {
	NextRecipient() (address, privateKey string, err error)
}

// RandomSource draws from a cryptographically strong generator. Sleep
// pacing, cycle lengths and daily quotas must be unpredictable, so a
// seeded statistical PRNG is never acceptable here.
type RandomSource interface {
	// IntRange returns a uniform value in [min, max], inclusive.
	IntRange(min, max int) int
	// IntChoice returns a uniformly chosen element.
	IntChoice(choices []int) int
	// DurationChoice returns a uniformly chosen element.
	DurationChoice(choices []time.Duration) time.Duration
}
