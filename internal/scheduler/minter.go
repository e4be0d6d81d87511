package scheduler

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/core-coin/gutta/internal/models"
	"github.com/core-coin/gutta/pkg/logger"
)

// maxAlertErrorLen caps raw node errors quoted in alerts.
const maxAlertErrorLen = 200

// Minter executes a single mint attempt end to end: balance gate, energy
// estimation, submission and receipt confirmation. It always returns a
// MintAttempt; errors become failure statuses, never panics or nils.
type Minter struct {
	logger     *logger.Logger
	alerts     models.AlertSink
	minBalance *big.Int
}

func NewMinter(log *logger.Logger, alerts models.AlertSink, minBalance *big.Int) *Minter {
	return &Minter{logger: log, alerts: alerts, minBalance: minBalance}
}

// Mint attempts one mint on the client's network. Exactly one alert fires
// per failure; a confirmed mint is silent.
func (m *Minter) Mint(ctx context.Context, client models.ChainClient, recipient string) *models.MintAttempt {
	network := client.Network()
	owner := client.OwnerAddress()
	log := m.logger.Named(network.Name)

	attempt := &models.MintAttempt{
		Timestamp:        time.Now(),
		Network:          network.Name,
		RecipientAddress: recipient,
		OwnerAddress:     owner,
	}

	log.Infof("starting mint, recipient %s", recipient)

	balance, err := client.GetBalance(ctx, owner)
	if err != nil {
		return m.fail(attempt, log, err)
	}
	log.Infof("owner balance: %s ore", balance)

	if balance.Cmp(m.minBalance) < 0 {
		log.Warnf("owner balance below threshold, refusing to submit")
		m.alerts.Notify("LOW GAS ALERT",
			fmt.Sprintf("Low gas alert! Owner balance: %s ore on %s", balance, network.DisplayName))
		attempt.Status = models.StatusFailedLowGas
		return attempt
	}

	nonce, err := client.GetNonce(ctx, owner)
	if err != nil {
		return m.fail(attempt, log, err)
	}

	energyLimit, err := client.EstimateMint(ctx, recipient)
	if err != nil {
		return m.fail(attempt, log, err)
	}

	energyPrice, err := client.GetEnergyPrice(ctx)
	if err != nil {
		return m.fail(attempt, log, err)
	}

	txHash, err := client.SendMint(ctx, nonce, energyLimit, energyPrice, recipient)
	if err != nil {
		return m.fail(attempt, log, err)
	}
	attempt.TxHash = txHash
	log.Infof("transaction sent: %s", txHash)

	receipt, err := client.WaitForReceipt(ctx, txHash)
	if err != nil {
		return m.fail(attempt, log, err)
	}

	attempt.EnergyUsed = receipt.EnergyUsed
	if receipt.Status != 1 {
		log.Errorf("transaction reverted, receipt status 0: %s", txHash)
		m.alerts.Notify("Transaction Failed",
			fmt.Sprintf("Failed on %s\n%s", network.DisplayName, network.ExplorerTxURL(txHash)))
		attempt.Status = models.StatusFailed
		return attempt
	}

	log.Infof("transaction confirmed, energy used %d", receipt.EnergyUsed)
	attempt.Status = models.StatusSuccess
	return attempt
}

// fail classifies a submission error into a failure status and emits the
// corresponding alert. A node-side insufficient-funds rejection is the
// funding-exhaustion signal that makes the scheduler drain.
func (m *Minter) fail(attempt *models.MintAttempt, log *logger.Logger, err error) *models.MintAttempt {
	msg := err.Error()
	network := attempt.Network
	log.Errorf("minting error: %s", msg)

	if strings.Contains(strings.ToLower(msg), "insufficient funds") {
		m.alerts.Notify("INSUFFICIENT FUNDS",
			fmt.Sprintf("Bot stopped on %s: %s", network, msg))
		attempt.Status = models.StatusFailedNoGas
		return attempt
	}

	if len(msg) > maxAlertErrorLen {
		cut := maxAlertErrorLen
		// Back up to a rune boundary so the cut never splits a character.
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	m.alerts.Notify("Minting Error", fmt.Sprintf("Error on %s: %s", network, msg))
	attempt.Status = models.StatusFailed
	return attempt
}
