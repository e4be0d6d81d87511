package blockchain

// MintABI is the drip-token contract fragment the bot calls. The contract
// exposes a batch-style mint taking a token id, an amount and opaque data.
const MintABI = `[{"inputs":[{"internalType":"address","name":"account","type":"address"},{"internalType":"uint256","name":"id","type":"uint256"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

const (
	// TokenID is the single collection id every mint targets.
	TokenID = 1
	// TokenAmount is minted per transaction.
	TokenAmount = 1
	// EnergyMargin is added on top of the node's estimate so a mint does
	// not fail on an estimate that lands exactly at the limit.
	EnergyMargin = 10000
)
