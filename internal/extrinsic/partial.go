package extrinsic

import (
	"bytes"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"golang.org/x/crypto/blake2b"
)

// Format markers for the leading byte of an encoded transaction.
const (
	legacySignedMarker  = 0x80 | uint8(VersionLegacy)  // 0x84
	generalMarker       = 0x40 | uint8(VersionGeneral) // 0x45
	payloadHashOverByte = 256
)

// Validate checks a call's compatibility hash against the metadata
// snapshot. Success means the hash matches or no hash check applies, not
// that the call would dispatch successfully.
func (c *Client) Validate(call Call) error {
	details := call.ValidationDetails()
	if details == nil {
		return nil
	}
	expected, err := c.meta.CallHash(details.Pallet, details.Call)
	if err != nil {
		return err
	}
	if expected != nil && *expected != details.Hash {
		return ErrIncompatibleCall
	}
	return nil
}

// CallData returns the SCALE-encoded call data for a call, independent of
// any transaction wrapper.
func (c *Client) CallData(call Call) ([]byte, error) {
	return call.EncodeCallData(c.meta)
}

// CreateUnsigned builds an unsigned transaction at the version the chain
// metadata asks for. See CreateLegacyUnsigned and CreateGeneralBare for the
// explicit-version variants.
func (c *Client) CreateUnsigned(call Call) (*SubmittableTransaction, error) {
	version, err := VersionFromMetadata(c.meta)
	if err != nil {
		return nil, err
	}
	return c.createUnsignedAt(call, version)
}

// CreateLegacyUnsigned builds a legacy (v4) unsigned transaction.
func (c *Client) CreateLegacyUnsigned(call Call) (*SubmittableTransaction, error) {
	return c.createUnsignedAt(call, VersionLegacy)
}

// CreateGeneralBare builds a general (v5) bare transaction. Bare dispatch
// only works for calls whose origin defaults to none; chains reject bare
// transactions for anything else.
func (c *Client) CreateGeneralBare(call Call) (*SubmittableTransaction, error) {
	return c.createUnsignedAt(call, VersionGeneral)
}

func (c *Client) createUnsignedAt(call Call, version Version) (*SubmittableTransaction, error) {
	if err := c.Validate(call); err != nil {
		return nil, err
	}
	callData, err := call.EncodeCallData(c.meta)
	if err != nil {
		return nil, err
	}

	var inner bytes.Buffer
	enc := scale.NewEncoder(&inner)
	if err := enc.PushByte(uint8(version)); err != nil {
		return nil, err
	}
	if err := enc.Write(callData); err != nil {
		return nil, err
	}
	encoded, err := lengthPrefixed(inner.Bytes())
	if err != nil {
		return nil, err
	}
	return &SubmittableTransaction{client: c, encoded: encoded}, nil
}

// CreatePartialOffline builds a signable transaction from exactly the
// caller-supplied params, without touching the network. Nonce defaults to 0
// and mortality to immortal when unset, since no chain state is consulted.
// The version is picked from metadata; see CreateLegacyPartialOffline and
// CreateGeneralPartialOffline to force one.
func (c *Client) CreatePartialOffline(call Call, params Params) (*PartialTransaction, error) {
	version, err := VersionFromMetadata(c.meta)
	if err != nil {
		return nil, err
	}
	return c.createPartialOfflineAt(call, params, version)
}

// CreateLegacyPartialOffline is CreatePartialOffline pinned to the legacy
// (v4) format.
func (c *Client) CreateLegacyPartialOffline(call Call, params Params) (*PartialTransaction, error) {
	return c.createPartialOfflineAt(call, params, VersionLegacy)
}

// CreateGeneralPartialOffline is CreatePartialOffline pinned to the general
// (v5) format.
func (c *Client) CreateGeneralPartialOffline(call Call, params Params) (*PartialTransaction, error) {
	return c.createPartialOfflineAt(call, params, VersionGeneral)
}

func (c *Client) createPartialOfflineAt(call Call, params Params, version Version) (*PartialTransaction, error) {
	if err := c.Validate(call); err != nil {
		return nil, err
	}
	callData, err := call.EncodeCallData(c.meta)
	if err != nil {
		return nil, err
	}
	ext, err := newSignedExtensions(c.meta, params)
	if err != nil {
		return nil, err
	}

	p := &PartialTransaction{
		client:     c,
		version:    version,
		extVersion: c.meta.TransactionExtensionVersion,
		callData:   callData,
		extensions: ext,
	}
	// The signer payload is fixed here, once. Signing later reuses these
	// exact bytes.
	payload, err := p.buildSignerPayload()
	if err != nil {
		return nil, err
	}
	p.signerPayload = payload
	return p, nil
}

// PartialTransaction is a transaction draft awaiting a signature. The call
// data and signer payload are derived once at construction and never
// recomputed afterwards.
type PartialTransaction struct {
	client     *Client
	version    Version
	extVersion uint8
	callData   []byte
	extensions *signedExtensions

	signerPayload []byte
}

// Version returns the transaction format this draft will be assembled in.
func (p *PartialTransaction) Version() Version {
	return p.version
}

// CallData returns the encoded call data the draft wraps.
func (p *PartialTransaction) CallData() []byte {
	return p.callData
}

// SignerPayload returns the exact bytes that must be signed to produce a
// valid signature for this transaction.
func (p *PartialTransaction) SignerPayload() []byte {
	out := make([]byte, len(p.signerPayload))
	copy(out, p.signerPayload)
	return out
}

// buildSignerPayload assembles call data, extension values and implicit
// data. Legacy payloads are blake2b-256 hashed only when longer than 256
// bytes; general payloads always are.
func (p *PartialTransaction) buildSignerPayload() ([]byte, error) {
	var buf bytes.Buffer
	enc := scale.NewEncoder(&buf)
	if err := enc.Write(p.callData); err != nil {
		return nil, err
	}
	if err := p.extensions.encodePayloadValue(enc); err != nil {
		return nil, err
	}
	if err := p.extensions.encodeImplicit(enc); err != nil {
		return nil, err
	}
	payload := buf.Bytes()
	if p.version == VersionGeneral || len(payload) > payloadHashOverByte {
		h := blake2b.Sum256(payload)
		return h[:], nil
	}
	return payload, nil
}

// Sign asks the signer for an account and a signature over SignerPayload
// and assembles the final transaction.
func (p *PartialTransaction) Sign(signer Signer) (*SubmittableTransaction, error) {
	sig, err := signer.Sign(p.signerPayload)
	if err != nil {
		return nil, err
	}
	return p.SignWithAccountAndSignature(signer.AccountID(), sig)
}

// SignWithAccountAndSignature assembles the final transaction from an
// already-produced signature, for callers who signed SignerPayload out of
// band (hardware wallets, remote signers). No I/O is performed.
func (p *PartialTransaction) SignWithAccountAndSignature(account types.AccountID, sig types.MultiSignature) (*SubmittableTransaction, error) {
	var encoded []byte
	var err error
	switch p.version {
	case VersionLegacy:
		encoded, err = p.assembleLegacy(account, sig)
	case VersionGeneral:
		p.extensions.injectSignature(account, sig)
		encoded, err = p.assembleGeneral()
	default:
		err = ErrUnsupportedVersion
	}
	if err != nil {
		return nil, err
	}
	return &SubmittableTransaction{client: p.client, encoded: encoded}, nil
}

// assembleLegacy encodes marker, source address, signature, extension
// values and call data, length-prefixed.
func (p *PartialTransaction) assembleLegacy(account types.AccountID, sig types.MultiSignature) ([]byte, error) {
	var inner bytes.Buffer
	enc := scale.NewEncoder(&inner)
	if err := enc.PushByte(legacySignedMarker); err != nil {
		return nil, err
	}
	address := types.MultiAddress{IsID: true, AsID: account}
	if err := enc.Encode(address); err != nil {
		return nil, err
	}
	if err := enc.Encode(sig); err != nil {
		return nil, err
	}
	if err := p.extensions.encodeValue(enc, VersionLegacy); err != nil {
		return nil, err
	}
	if err := enc.Write(p.callData); err != nil {
		return nil, err
	}
	return lengthPrefixed(inner.Bytes())
}

// assembleGeneral encodes marker, extension version, extension values
// (starting with the injected signature extension) and call data,
// length-prefixed.
func (p *PartialTransaction) assembleGeneral() ([]byte, error) {
	var inner bytes.Buffer
	enc := scale.NewEncoder(&inner)
	if err := enc.PushByte(generalMarker); err != nil {
		return nil, err
	}
	if err := enc.PushByte(p.extVersion); err != nil {
		return nil, err
	}
	if err := p.extensions.encodeValue(enc, VersionGeneral); err != nil {
		return nil, err
	}
	if err := enc.Write(p.callData); err != nil {
		return nil, err
	}
	return lengthPrefixed(inner.Bytes())
}

// lengthPrefixed prepends the compact-encoded byte length, completing the
// outer transaction framing.
func lengthPrefixed(inner []byte) ([]byte, error) {
	var out bytes.Buffer
	enc := scale.NewEncoder(&out)
	if err := enc.EncodeUintCompact(*big.NewInt(int64(len(inner)))); err != nil {
		return nil, err
	}
	if err := enc.Write(inner); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
