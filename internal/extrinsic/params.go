package extrinsic

import (
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Params configure the extensions attached to a transaction. The zero value
// is valid for offline construction: nonce 0, no tip, immortal.
//
// Nonce and mortality are left settable-by-the-engine so that online
// construction can fill them from chain state; values the caller sets
// explicitly are never overwritten.
type Params struct {
	// Nonce is the account nonce. Nil means "fill in for me": online
	// construction fetches it, offline construction defaults to 0.
	Nonce *uint64

	// Tip paid to the block author, on top of the inclusion fee.
	Tip uint64

	// MortalFor asks for a validity window of roughly this many blocks,
	// anchored at the latest finalized block by online construction. Zero
	// means immortal. Offline construction cannot anchor a window and
	// rejects a bare MortalFor; set Era and CheckpointHash instead.
	MortalFor uint64

	// Era and CheckpointHash explicitly pin the mortality window for
	// offline construction. Both must be set together for a mortal era.
	Era            *Era
	CheckpointHash *types.Hash
}

// WithNonce returns a copy of the params with an explicit nonce.
func (p Params) WithNonce(nonce uint64) Params {
	p.Nonce = &nonce
	return p
}

// injectNonce fills in the account nonce unless the caller set one.
func (p *Params) injectNonce(nonce uint64) {
	if p.Nonce == nil {
		p.Nonce = &nonce
	}
}

// injectBlock anchors the requested mortality window at the given block
// unless the caller pinned an era explicitly.
func (p *Params) injectBlock(number uint64, hash types.Hash) {
	if p.Era != nil || p.MortalFor == 0 {
		return
	}
	era := MortalEra(p.MortalFor, number)
	p.Era = &era
	p.CheckpointHash = &hash
}

// signedExtensions is the resolved, encodable form of Params plus the chain
// state bound into the signature. For legacy transactions the extension
// values are era, nonce and tip; general transactions additionally carry
// the signature itself as their first extension value.
type signedExtensions struct {
	era            Era
	checkpointHash types.Hash
	nonce          uint64
	tip            uint64

	specVersion        uint32
	transactionVersion uint32
	genesisHash        types.Hash

	// Injected for general transactions only; nil until signing.
	sig        *types.MultiSignature
	sigAccount types.AccountID
}

func newSignedExtensions(meta *Metadata, p Params) (*signedExtensions, error) {
	ext := &signedExtensions{
		tip:                p.Tip,
		specVersion:        meta.SpecVersion,
		transactionVersion: meta.TransactionVersion,
		genesisHash:        meta.GenesisHash,
		checkpointHash:     meta.GenesisHash,
	}
	if p.Nonce != nil {
		ext.nonce = *p.Nonce
	}
	switch {
	case p.Era != nil:
		if !p.Era.IsImmortal() && p.CheckpointHash == nil {
			return nil, ErrMortalityNeedsBlock
		}
		ext.era = *p.Era
		if p.CheckpointHash != nil {
			ext.checkpointHash = *p.CheckpointHash
		}
	case p.MortalFor != 0:
		// A window was requested but never anchored at a block.
		return nil, ErrMortalityNeedsBlock
	}
	return ext, nil
}

// injectSignature stores the account and signature that the general format
// encodes as its first transaction extension.
func (e *signedExtensions) injectSignature(account types.AccountID, sig types.MultiSignature) {
	e.sigAccount = account
	e.sig = &sig
}

// encodeValue writes the extension values in wire order. For the general
// format this starts with the signature extension: variant 0 carries the
// signature and signing account, variant 1 means no signature.
func (e *signedExtensions) encodeValue(enc *scale.Encoder, version Version) error {
	if version == VersionGeneral {
		if e.sig != nil {
			if err := enc.PushByte(0); err != nil {
				return err
			}
			if err := enc.Encode(*e.sig); err != nil {
				return err
			}
			if err := enc.Encode(e.sigAccount); err != nil {
				return err
			}
		} else {
			if err := enc.PushByte(1); err != nil {
				return err
			}
		}
	}
	return e.encodePayloadValue(enc)
}

// encodePayloadValue writes the extension values that are part of the
// signer payload: era, then compact nonce, then compact tip. The signature
// extension of general transactions is never part of the payload.
func (e *signedExtensions) encodePayloadValue(enc *scale.Encoder) error {
	if err := enc.Encode(e.era); err != nil {
		return err
	}
	if err := enc.EncodeUintCompact(*new(big.Int).SetUint64(e.nonce)); err != nil {
		return err
	}
	return enc.EncodeUintCompact(*new(big.Int).SetUint64(e.tip))
}

// encodeImplicit writes the data that is signed over but never transmitted:
// spec version, transaction version, genesis hash and the mortality
// checkpoint hash (the genesis hash for immortal transactions).
func (e *signedExtensions) encodeImplicit(enc *scale.Encoder) error {
	if err := enc.Encode(e.specVersion); err != nil {
		return err
	}
	if err := enc.Encode(e.transactionVersion); err != nil {
		return err
	}
	if err := enc.Encode(e.genesisHash); err != nil {
		return err
	}
	return enc.Encode(e.checkpointHash)
}
