package extrinsic

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var (
	// ErrOffline is returned by online operations on a client that was
	// constructed without a backend.
	ErrOffline = errors.New("client has no backend; online operations are unavailable")

	// ErrUnsupportedVersion is returned when the chain metadata expects
	// transaction versions other than 4 or 5.
	ErrUnsupportedVersion = errors.New("chain expects transaction versions we do not support")

	// ErrIncompatibleCall is returned when a call's compatibility hash does
	// not match the hash the chain metadata expects for it.
	ErrIncompatibleCall = errors.New("call is not compatible with the current chain metadata")

	// ErrMortalityNeedsBlock is returned when a mortal window is requested
	// offline without an explicit era and checkpoint hash. Only online
	// enrichment can anchor a window at the current chain tip.
	ErrMortalityNeedsBlock = errors.New("mortal window requires a checkpoint block; use online construction or set Era and CheckpointHash explicitly")

	// ErrUnexpectedEndOfStatusStream is returned when the status stream
	// closes before reporting any status for a submitted transaction.
	ErrUnexpectedEndOfStatusStream = errors.New("transaction status stream ended before any status was received")
)

// PalletNotFoundError is returned when a call names a pallet the chain
// metadata does not contain.
type PalletNotFoundError struct {
	Pallet string
}

func (e *PalletNotFoundError) Error() string {
	return fmt.Sprintf("pallet %q not found in chain metadata", e.Pallet)
}

// CallNotFoundError is returned when a pallet exists but the named call
// does not.
type CallNotFoundError struct {
	Pallet string
	Call   string
}

func (e *CallNotFoundError) Error() string {
	return fmt.Sprintf("call %q not found in pallet %q", e.Call, e.Pallet)
}

// FinalizedBlockError wraps a failure to reach the latest finalized block
// (or its header) on the backend.
type FinalizedBlockError struct {
	Err error
}

func (e *FinalizedBlockError) Error() string {
	return fmt.Sprintf("cannot get latest finalized block: %v", e.Err)
}

func (e *FinalizedBlockError) Unwrap() error { return e.Err }

// BlockHeaderNotFoundError is returned when the backend has no header for a
// block hash it previously reported.
type BlockHeaderNotFoundError struct {
	BlockHash types.Hash
}

func (e *BlockHeaderNotFoundError) Error() string {
	return fmt.Sprintf("cannot find block header for block %s", e.BlockHash.Hex())
}

// AccountNonceError is returned when the nonce lookup for an account fails.
// It carries the block the lookup was made at and the account it was made
// for, alongside the underlying cause.
type AccountNonceError struct {
	BlockHash types.Hash
	AccountID types.AccountID
	Err       error
}

func (e *AccountNonceError) Error() string {
	return fmt.Sprintf("cannot get nonce for account %s at block %s: %v",
		e.AccountID.ToHexString(), e.BlockHash.Hex(), e.Err)
}

func (e *AccountNonceError) Unwrap() error { return e.Err }

// SubmitError wraps a backend failure while submitting a transaction.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("cannot submit transaction: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// TransactionError is returned when the node reports an internal error
// while handling a submitted transaction.
type TransactionError struct {
	Message string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("error handling transaction: %s", e.Message)
}

// TransactionInvalidError is returned when the node deems a submitted
// transaction invalid.
type TransactionInvalidError struct {
	Message string
}

func (e *TransactionInvalidError) Error() string {
	return fmt.Sprintf("transaction is not valid: %s", e.Message)
}

// TransactionDroppedError is returned when the node drops a submitted
// transaction from its pool.
type TransactionDroppedError struct {
	Message string
}

func (e *TransactionDroppedError) Error() string {
	return fmt.Sprintf("transaction was dropped: %s", e.Message)
}

// StatusStreamError is returned when the status stream itself fails while
// waiting for updates about a submitted transaction.
type StatusStreamError struct {
	Err error
}

func (e *StatusStreamError) Error() string {
	return fmt.Sprintf("transaction status stream failed: %v", e.Err)
}

func (e *StatusStreamError) Unwrap() error { return e.Err }

// ValidationInfoError wraps a failure to perform the validation runtime
// call. A transaction that was successfully reported invalid is not an
// error; see ValidationResult.
type ValidationInfoError struct {
	Err error
}

func (e *ValidationInfoError) Error() string {
	return fmt.Sprintf("cannot get validation info from runtime API: %v", e.Err)
}

func (e *ValidationInfoError) Unwrap() error { return e.Err }

// FeeInfoError wraps a failure to perform the fee estimation runtime call.
type FeeInfoError struct {
	Err error
}

func (e *FeeInfoError) Error() string {
	return fmt.Sprintf("cannot get fee info from runtime API: %v", e.Err)
}

func (e *FeeInfoError) Unwrap() error { return e.Err }

// ValidationDecodeError is returned when a validation reply matched a known
// tag but its remainder could not be decoded.
type ValidationDecodeError struct {
	Err error
}

func (e *ValidationDecodeError) Error() string {
	return fmt.Sprintf("cannot decode validation result: %v", e.Err)
}

func (e *ValidationDecodeError) Unwrap() error { return e.Err }

// UnexpectedValidationBytesError is returned when a validation reply does
// not start with any known tag. It carries the raw reply.
type UnexpectedValidationBytesError struct {
	Bytes []byte
}

func (e *UnexpectedValidationBytesError) Error() string {
	return fmt.Sprintf("validation result bytes could not be decoded (%d bytes)", len(e.Bytes))
}
