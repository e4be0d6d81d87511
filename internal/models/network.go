package models

import (
	"fmt"
	"math/big"
)

// Network names as they appear in the ledger and in operator-facing output.
const (
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
)

// Network describes one of the two chains the bot mints on. It is built
// once from configuration and threaded through every component; nothing
// else in the codebase switches on raw network strings.
type Network struct {
	// Name is either "testnet" or "mainnet".
	Name string
	// DisplayName is the capitalized form used in alerts and logs.
	DisplayName string
	// RPCURL is the JSON-RPC endpoint of the network.
	RPCURL string
	// ContractAddress is the token contract the mint call targets.
	ContractAddress string
	// NetworkID is the chain network ID used by the transaction signer.
	NetworkID *big.Int
	// ExplorerTxTemplate is a printf template producing a transaction URL.
	ExplorerTxTemplate string
}

// IsMainnet reports whether this is the production network.
func (n Network) IsMainnet() bool {
	return n.Name == NetworkMainnet
}

// ExplorerTxURL returns the block-explorer URL for a transaction hash,
// or "N/A" when no transaction was ever submitted.
func (n Network) ExplorerTxURL(txHash string) string {
	if txHash == "" {
		return "N/A"
	}
	return fmt.Sprintf(n.ExplorerTxTemplate, txHash)
}
