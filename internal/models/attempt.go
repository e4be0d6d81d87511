package models

import "time"

// MintStatus is the terminal outcome of a single mint attempt.
type MintStatus string

const (
	// StatusSuccess means the transaction was confirmed with receipt status 1.
	StatusSuccess MintStatus = "SUCCESS"
	// StatusFailed covers on-chain reverts, receipt timeouts and generic
	// submission errors.
	StatusFailed MintStatus = "FAILED"
	// StatusFailedLowGas means the payer balance was below the configured
	// threshold before submission; no transaction was sent.
	StatusFailedLowGas MintStatus = "FAILED_LOW_GAS"
	// StatusFailedNoGas means the node rejected the transaction with an
	// insufficient-funds error; the scheduler drains after this.
	StatusFailedNoGas MintStatus = "FAILED_NO_GAS"
)

// IsFailure reports whether the attempt did not mint.
func (s MintStatus) IsFailure() bool {
	return s != StatusSuccess
}

// IsFundingExhausted reports whether the attempt failed because the payer
// cannot cover energy costs. Both variants stop the scheduler.
func (s MintStatus) IsFundingExhausted() bool {
	return s == StatusFailedLowGas || s == StatusFailedNoGas
}

// MintAttempt is one row of the ledger. Rows are immutable once appended.
type MintAttempt struct {
	// Timestamp is set by the ledger at write time if zero.
	Timestamp time.Time
	// Network is NetworkTestnet or NetworkMainnet.
	Network string
	// RecipientAddress receives the minted token.
	RecipientAddress string
	// RecipientPrivateKey is recorded for generated recipients only; pool
	// wallets are externally custodied and leave it empty.
	RecipientPrivateKey string
	// TxHash is empty when submission never occurred.
	TxHash string
	Status MintStatus
	// EnergyUsed is the receipt's reported energy consumption, 0 when the
	// transaction never executed. Persisted under the Gas_Used column.
	EnergyUsed uint64
	// OwnerAddress is the payer account that signed the transaction.
	OwnerAddress string
}

// MintReceipt is the subset of a transaction receipt the scheduler needs.
type MintReceipt struct {
	// Status is 1 for success, 0 for an on-chain revert.
	Status uint64
	// EnergyUsed is the energy consumed by the execution.
	EnergyUsed uint64
}
