package extrinsic

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Call supplies the encoded call data a transaction wraps. Implementations
// are immutable; encoding the same call against the same metadata snapshot
// must always yield the same bytes.
type Call interface {
	// EncodeCallData returns the SCALE-encoded call data (pallet index,
	// call index, call arguments) for the given metadata snapshot.
	EncodeCallData(meta *Metadata) ([]byte, error)

	// ValidationDetails returns the statically-known shape of the call for
	// compatibility checking, or nil when no static hash applies (dynamic
	// calls).
	ValidationDetails() *ValidationDetails
}

// ValidationDetails identify a call and the compatibility hash its local
// description was generated against.
type ValidationDetails struct {
	Pallet string
	Call   string
	Hash   types.Hash
}

// Signer produces signatures over signer payloads and identifies the
// signing account.
type Signer interface {
	AccountID() types.AccountID
	Sign(payload []byte) (types.MultiSignature, error)
}

// NonceProvider is optionally implemented by signers that manage their own
// nonces. When a signer provides one, online construction uses it instead
// of asking the node.
type NonceProvider interface {
	Nonce() (uint64, bool)
}
