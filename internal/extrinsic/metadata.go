package extrinsic

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Metadata is an in-memory snapshot of everything about a chain that
// transaction construction needs: which transaction versions the chain
// accepts, how its pallets and calls are indexed, and the chain state bound
// into signed extensions (spec version, transaction version, genesis hash).
//
// Producing this snapshot from the chain's full SCALE-encoded metadata is a
// codegen concern and happens elsewhere; the engine only reads it.
type Metadata struct {
	// SpecVersion and TransactionVersion of the runtime, bound into the
	// signer payload.
	SpecVersion        uint32
	TransactionVersion uint32

	// GenesisHash of the chain, bound into the signer payload and used as
	// the mortality checkpoint for immortal transactions.
	GenesisHash types.Hash

	// ExtrinsicVersions lists the transaction format versions the chain
	// accepts, as published by its metadata.
	ExtrinsicVersions []uint8

	// TransactionExtensionVersion is the extension version byte encoded
	// into general (v5) transactions.
	TransactionExtensionVersion uint8

	// Pallets indexes the chain's pallets by name.
	Pallets map[string]PalletMetadata
}

// PalletMetadata describes one pallet's dispatch surface.
type PalletMetadata struct {
	Index uint8
	Calls map[string]CallMetadata
}

// CallMetadata describes one dispatchable call.
type CallMetadata struct {
	Index uint8
	// Hash is the call's compatibility hash, when the chain publishes one.
	Hash *types.Hash
}

// CallHash returns the compatibility hash the chain expects for the given
// call, or nil if the chain publishes none for it.
func (m *Metadata) CallHash(pallet, call string) (*types.Hash, error) {
	p, ok := m.Pallets[pallet]
	if !ok {
		return nil, &PalletNotFoundError{Pallet: pallet}
	}
	c, ok := p.Calls[call]
	if !ok {
		return nil, &CallNotFoundError{Pallet: pallet, Call: call}
	}
	return c.Hash, nil
}

// CallIndex returns the (pallet index, call index) pair that prefixes the
// encoded call data for the given call.
func (m *Metadata) CallIndex(pallet, call string) (uint8, uint8, error) {
	p, ok := m.Pallets[pallet]
	if !ok {
		return 0, 0, &PalletNotFoundError{Pallet: pallet}
	}
	c, ok := p.Calls[call]
	if !ok {
		return 0, 0, &CallNotFoundError{Pallet: pallet, Call: call}
	}
	return p.Index, c.Index, nil
}
