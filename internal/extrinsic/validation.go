package extrinsic

import (
	"bytes"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// ValidationResult is the outcome of validating a transaction against the
// transaction queue runtime API. Exactly one of the three fields is set.
//
// The node reports a two-level tagged result (ok/error outside,
// invalid/unknown inside); it is flattened into one three-way union here
// because from the caller's perspective the call succeeded either way.
type ValidationResult struct {
	Valid   *TransactionValid
	Invalid *TransactionInvalid
	Unknown *TransactionUnknown
}

// IsValid reports whether the transaction was deemed valid.
func (r ValidationResult) IsValid() bool {
	return r.Valid != nil
}

func (r ValidationResult) String() string {
	switch {
	case r.Valid != nil:
		return fmt.Sprintf("valid (priority %d, longevity %d)", r.Valid.Priority, r.Valid.Longevity)
	case r.Invalid != nil:
		return fmt.Sprintf("invalid (%s)", r.Invalid)
	case r.Unknown != nil:
		return fmt.Sprintf("unknown (%s)", r.Unknown)
	}
	return "empty"
}

// TransactionValid carries the pool placement details of a valid
// transaction.
type TransactionValid struct {
	// Priority orders transactions whose dependencies are all satisfied.
	Priority uint64
	// Requires lists dependency tags that must be provided by earlier
	// transactions.
	Requires [][]byte
	// Provides lists the tags this transaction provides to later ones.
	Provides [][]byte
	// Longevity is the minimum number of blocks the validity holds for.
	Longevity uint64
	// Propagate reports whether the transaction may be gossiped to peers.
	Propagate bool
}

// InvalidReason enumerates why a transaction was deemed invalid.
type InvalidReason uint8

const (
	InvalidCall InvalidReason = iota
	InvalidPayment
	InvalidFuture
	InvalidStale
	InvalidBadProof
	InvalidAncientBirthBlock
	InvalidExhaustsResources
	InvalidCustom
	InvalidBadMandatory
	InvalidMandatoryValidation
	InvalidBadSigner
)

var invalidReasonNames = map[InvalidReason]string{
	InvalidCall:                "call not expected",
	InvalidPayment:             "unable to pay fees",
	InvalidFuture:              "not yet valid (nonce too high?)",
	InvalidStale:               "outdated (nonce too low?)",
	InvalidBadProof:            "bad signature or proof",
	InvalidAncientBirthBlock:   "birth block is ancient",
	InvalidExhaustsResources:   "would exhaust block resources",
	InvalidCustom:              "custom",
	InvalidBadMandatory:        "mandatory dispatch errored",
	InvalidMandatoryValidation: "mandatory dispatch in transaction",
	InvalidBadSigner:           "bad signer",
}

// TransactionInvalid reports why the transaction cannot be included.
type TransactionInvalid struct {
	Reason InvalidReason
	// Custom is the chain-specific code carried by InvalidCustom.
	Custom uint8
}

func (t TransactionInvalid) String() string {
	if t.Reason == InvalidCustom {
		return fmt.Sprintf("custom reason %d", t.Custom)
	}
	return invalidReasonNames[t.Reason]
}

// UnknownReason enumerates why validity could not be determined.
type UnknownReason uint8

const (
	UnknownCannotLookup UnknownReason = iota
	UnknownNoUnsignedValidator
	UnknownCustom
)

// TransactionUnknown reports that the runtime could not validate the
// transaction at all.
type TransactionUnknown struct {
	Reason UnknownReason
	// Custom is the chain-specific code carried by UnknownCustom.
	Custom uint8
}

func (t TransactionUnknown) String() string {
	switch t.Reason {
	case UnknownCannotLookup:
		return "required information could not be looked up"
	case UnknownNoUnsignedValidator:
		return "no validator for unsigned transaction"
	case UnknownCustom:
		return fmt.Sprintf("custom reason %d", t.Custom)
	}
	return "unknown"
}

// DecodeValidationResult parses the raw reply of the validation runtime
// call. The branch is chosen from the first one or two bytes only:
//
//	0    -> valid, remainder decodes as TransactionValid
//	1, 0 -> invalid, remainder decodes as TransactionInvalid
//	1, 1 -> unknown, remainder decodes as TransactionUnknown
//
// Anything else fails with UnexpectedValidationBytesError carrying the raw
// bytes. Once a branch is chosen, a failure decoding its remainder is a
// hard ValidationDecodeError; it does not fall back to "undecodable".
func DecodeValidationResult(res []byte) (ValidationResult, error) {
	switch {
	case len(res) >= 1 && res[0] == 0:
		valid, err := decodeValid(res[1:])
		if err != nil {
			return ValidationResult{}, &ValidationDecodeError{Err: err}
		}
		return ValidationResult{Valid: valid}, nil
	case len(res) >= 2 && res[0] == 1 && res[1] == 0:
		invalid, err := decodeInvalid(res[2:])
		if err != nil {
			return ValidationResult{}, &ValidationDecodeError{Err: err}
		}
		return ValidationResult{Invalid: invalid}, nil
	case len(res) >= 2 && res[0] == 1 && res[1] == 1:
		unknown, err := decodeUnknown(res[2:])
		if err != nil {
			return ValidationResult{}, &ValidationDecodeError{Err: err}
		}
		return ValidationResult{Unknown: unknown}, nil
	default:
		return ValidationResult{}, &UnexpectedValidationBytesError{Bytes: res}
	}
}

func decodeValid(data []byte) (*TransactionValid, error) {
	dec := scale.NewDecoder(bytes.NewReader(data))
	var v TransactionValid
	if err := dec.Decode(&v.Priority); err != nil {
		return nil, err
	}
	if err := dec.Decode(&v.Requires); err != nil {
		return nil, err
	}
	if err := dec.Decode(&v.Provides); err != nil {
		return nil, err
	}
	if err := dec.Decode(&v.Longevity); err != nil {
		return nil, err
	}
	if err := dec.Decode(&v.Propagate); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeInvalid(data []byte) (*TransactionInvalid, error) {
	dec := scale.NewDecoder(bytes.NewReader(data))
	tag, err := dec.ReadOneByte()
	if err != nil {
		return nil, err
	}
	reason := InvalidReason(tag)
	if reason > InvalidBadSigner {
		return nil, fmt.Errorf("unknown invalidity reason %d", tag)
	}
	out := &TransactionInvalid{Reason: reason}
	if reason == InvalidCustom {
		custom, err := dec.ReadOneByte()
		if err != nil {
			return nil, err
		}
		out.Custom = custom
	}
	return out, nil
}

func decodeUnknown(data []byte) (*TransactionUnknown, error) {
	dec := scale.NewDecoder(bytes.NewReader(data))
	tag, err := dec.ReadOneByte()
	if err != nil {
		return nil, err
	}
	reason := UnknownReason(tag)
	if reason > UnknownCustom {
		return nil, fmt.Errorf("unknown validity-unknown reason %d", tag)
	}
	out := &TransactionUnknown{Reason: reason}
	if reason == UnknownCustom {
		custom, err := dec.ReadOneByte()
		if err != nil {
			return nil, err
		}
		out.Custom = custom
	}
	return out, nil
}
