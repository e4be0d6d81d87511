// Package wallets provides the two recipient sources the scheduler can
// run against: fresh generated keypairs or pre-harvested pool wallets.
package wallets

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/core-coin/go-core/v2/crypto"
)

// Generator mints a brand-new keypair per recipient. The private key is
// returned so the ledger can record custody of the generated wallet.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// NextRecipient returns a freshly generated address and its private key
// in hex form.
func (g *Generator) NextRecipient() (string, string, error) {
	key, err := crypto.GenerateKey(crand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate recipient key: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey())
	return address.Hex(), hex.EncodeToString(key.PrivateKey()), nil
}
