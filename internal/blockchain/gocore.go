package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	core "github.com/core-coin/go-core/v2"
	"github.com/core-coin/go-core/v2/accounts/abi"
	"github.com/core-coin/go-core/v2/common"
	"github.com/core-coin/go-core/v2/core/types"
	"github.com/core-coin/go-core/v2/crypto"
	"github.com/core-coin/go-core/v2/xcbclient"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

const receiptPollInterval = 5 * time.Second

// Gocore is one network's JSON-RPC connection paired with the payer
// credential. It implements models.ChainClient.
type Gocore struct {
	logger  *logger.Logger
	network models.Network
	client  *xcbclient.Client

	mintABI        abi.ABI
	contract       common.Address
	receiptTimeout time.Duration

	// nil for a read-only client (the scraper needs CodeAt only).
	key   *crypto.PrivateKey
	owner common.Address
}

// NewGocore dials the network's RPC endpoint and prepares the mint call
// bindings. keyHex may be empty for a read-only client; such a client
// rejects signing operations.
func NewGocore(network models.Network, keyHex string, receiptTimeout time.Duration, log *logger.Logger) (*Gocore, error) {
	client, err := xcbclient.Dial(network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the core RPC server: %w", err)
	}

	contract, err := common.HexToAddress(network.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mint contract address: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(MintABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mint ABI: %w", err)
	}

	g := &Gocore{
		logger:         log,
		network:        network,
		client:         client,
		mintABI:        parsedABI,
		contract:       contract,
		receiptTimeout: receiptTimeout,
	}

	if keyHex != "" {
		key, err := crypto.UnmarshalPrivateKeyHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to parse payer private key: %w", err)
		}
		g.key = key
		g.owner = crypto.PubkeyToAddress(key.PublicKey())
	}

	return g, nil
}

func (g *Gocore) Network() models.Network {
	return g.network
}

func (g *Gocore) OwnerAddress() string {
	return g.owner.Hex()
}

func (g *Gocore) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// VerifyNetworkID confirms the node serves the configured network. A
// mismatch means signed transactions would be rejected or, worse, land
// on the wrong chain.
func (g *Gocore) VerifyNetworkID(ctx context.Context) error {
	id, err := g.client.NetworkID(ctx)
	if err != nil {
		return fmt.Errorf("failed to query network id: %w", err)
	}
	if id.Cmp(g.network.NetworkID) != 0 {
		return fmt.Errorf("network id mismatch: node reports %s, configured %s", id, g.network.NetworkID)
	}
	return nil
}

func (g *Gocore) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	addr, err := common.HexToAddress(address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address: %w", err)
	}
	balance, err := g.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (g *Gocore) GetNonce(ctx context.Context, address string) (uint64, error) {
	addr, err := common.HexToAddress(address)
	if err != nil {
		return 0, fmt.Errorf("failed to parse address: %w", err)
	}
	nonce, err := g.client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

func (g *Gocore) GetEnergyPrice(ctx context.Context) (*big.Int, error) {
	price, err := g.client.SuggestEnergyPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get energy price: %w", err)
	}
	return price, nil
}

func (g *Gocore) EstimateMint(ctx context.Context, recipient string) (uint64, error) {
	if g.key == nil {
		return 0, fmt.Errorf("client for %s is read-only", g.network.Name)
	}
	data, err := g.packMint(recipient)
	if err != nil {
		return 0, err
	}
	estimate, err := g.client.EstimateEnergy(ctx, core.CallMsg{
		From: g.owner,
		To:   &g.contract,
		Data: data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate energy: %w", err)
	}
	return estimate + EnergyMargin, nil
}

func (g *Gocore) SendMint(ctx context.Context, nonce, energyLimit uint64, energyPrice *big.Int, recipient string) (string, error) {
	if g.key == nil {
		return "", fmt.Errorf("client for %s is read-only", g.network.Name)
	}
	data, err := g.packMint(recipient)
	if err != nil {
		return "", err
	}

	tx := types.NewTransaction(nonce, g.contract, big.NewInt(0), energyLimit, energyPrice, data)
	signedTx, err := types.SignTx(tx, types.NewNucleusSigner(g.network.NetworkID), g.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := g.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// WaitForReceipt polls until the transaction is mined or the configured
// timeout elapses.
func (g *Gocore) WaitForReceipt(ctx context.Context, txHash string) (*models.MintReceipt, error) {
	hash := common.HexToHash(txHash)

	ctx, cancel := context.WithTimeout(ctx, g.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return &models.MintReceipt{
				Status:     receipt.Status,
				EnergyUsed: receipt.EnergyUsed,
			}, nil
		}
		if !errors.Is(err, core.NotFound) {
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined within %s: %w", txHash, g.receiptTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Gocore) CodeAt(ctx context.Context, address string) ([]byte, error) {
	addr, err := common.HexToAddress(address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address: %w", err)
	}
	code, err := g.client.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return code, nil
}

func (g *Gocore) packMint(recipient string) ([]byte, error) {
	account, err := common.HexToAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipient address: %w", err)
	}
	data, err := g.mintABI.Pack("mint", account, big.NewInt(TokenID), big.NewInt(TokenAmount), []byte{})
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint calldata: %w", err)
	}
	return data, nil
}
