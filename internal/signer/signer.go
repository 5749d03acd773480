// Package signer produces sr25519 signatures from substrate URI secrets
// ("//Alice", mnemonics, seed hex).
package signer

import (
	"fmt"
	"sync/atomic"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Keyring signs with a single sr25519 key pair.
type Keyring struct {
	pair    signature.KeyringPair
	account types.AccountID
}

// FromSecret derives a key pair from a secret URI for the given ss58
// network.
func FromSecret(secret string, network uint16) (*Keyring, error) {
	pair, err := signature.KeyringPairFromSecret(secret, network)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key pair: %w", err)
	}
	account, err := types.NewAccountID(pair.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid public key length %d", len(pair.PublicKey))
	}
	return &Keyring{pair: pair, account: *account}, nil
}

// Address returns the key's ss58 address.
func (k *Keyring) Address() string {
	return k.pair.Address
}

// AccountID returns the signing account's public key.
func (k *Keyring) AccountID() types.AccountID {
	return k.account
}

// Sign signs the payload with sr25519.
func (k *Keyring) Sign(payload []byte) (types.MultiSignature, error) {
	raw, err := signature.Sign(payload, k.pair.URI)
	if err != nil {
		return types.MultiSignature{}, fmt.Errorf("failed to sign payload: %w", err)
	}
	return types.MultiSignature{
		IsSr25519: true,
		AsSr25519: types.NewSignature(raw),
	}, nil
}

// CountingKeyring wraps a Keyring with a locally-managed nonce so repeated
// submissions in one session skip the per-transaction nonce lookup. The
// counter is only valid while no other party submits for the same account.
type CountingKeyring struct {
	*Keyring
	next atomic.Uint64
}

// NewCounting seeds a counting keyring with the account's current nonce.
func NewCounting(k *Keyring, nonce uint64) *CountingKeyring {
	c := &CountingKeyring{Keyring: k}
	c.next.Store(nonce)
	return c
}

// Nonce returns the next nonce and advances the counter.
func (c *CountingKeyring) Nonce() (uint64, bool) {
	return c.next.Add(1) - 1, true
}
