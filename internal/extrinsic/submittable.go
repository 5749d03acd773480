package extrinsic

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Runtime API entry points used below.
const (
	validateTransactionMethod = "TaggedTransactionQueue_validate_transaction"
	queryFeeInfoMethod        = "TransactionPaymentApi_query_info"
)

// transactionSourceExternal tags validation requests as coming from an
// external (untrusted) source.
const transactionSourceExternal = 2

// SubmittableTransaction holds the final encoded bytes of a transaction.
// The bytes are immutable; the hash is computed on demand from them.
type SubmittableTransaction struct {
	client  *Client
	encoded []byte
}

// SubmittableFromBytes wraps already-encoded transaction bytes, for
// transactions prepared elsewhere.
func SubmittableFromBytes(c *Client, tx []byte) *SubmittableTransaction {
	return &SubmittableTransaction{client: c, encoded: tx}
}

// Hash returns the transaction hash under the client's configured hasher.
// It is a pure function of the encoded bytes and safe to call repeatedly.
func (s *SubmittableTransaction) Hash() types.Hash {
	return s.client.hasher(s.encoded)
}

// Encoded returns the encoded transaction bytes. Callers must not modify
// the returned slice.
func (s *SubmittableTransaction) Encoded() []byte {
	return s.encoded
}

// IntoEncoded returns a copy of the encoded bytes that the caller owns.
func (s *SubmittableTransaction) IntoEncoded() []byte {
	out := make([]byte, len(s.encoded))
	copy(out, s.encoded)
	return out
}

// SubmitAndWatch submits the transaction and returns a Progress handle over
// its status stream. Only the initial submission suspends; consuming the
// stream is up to the caller.
func (s *SubmittableTransaction) SubmitAndWatch(ctx context.Context) (*Progress, error) {
	if s.client.backend == nil {
		return nil, ErrOffline
	}
	hash := s.Hash()
	stream, err := s.client.backend.SubmitTransaction(ctx, s.encoded)
	if err != nil {
		return nil, &SubmitError{Err: err}
	}
	return newProgress(stream, hash), nil
}

// Submit submits the transaction and interprets only the first status the
// node reports. Any progressing status yields the transaction hash;
// Error, Invalid and Dropped yield their respective errors carrying the
// node's message. Callers who need to track the transaction further should
// use SubmitAndWatch.
func (s *SubmittableTransaction) Submit(ctx context.Context) (types.Hash, error) {
	if s.client.backend == nil {
		return types.Hash{}, ErrOffline
	}
	hash := s.Hash()
	stream, err := s.client.backend.SubmitTransaction(ctx, s.encoded)
	if err != nil {
		return types.Hash{}, &SubmitError{Err: err}
	}
	defer stream.Unsubscribe()

	select {
	case status, ok := <-stream.Chan():
		if !ok {
			return types.Hash{}, ErrUnexpectedEndOfStatusStream
		}
		switch status.Kind {
		case StatusValidated, StatusBroadcasted, StatusInBestBlock,
			StatusNoLongerInBestBlock, StatusInFinalizedBlock:
			return hash, nil
		case StatusError:
			return types.Hash{}, &TransactionError{Message: status.Message}
		case StatusInvalid:
			return types.Hash{}, &TransactionInvalidError{Message: status.Message}
		case StatusDropped:
			return types.Hash{}, &TransactionDroppedError{Message: status.Message}
		}
		return types.Hash{}, &StatusStreamError{Err: fmt.Errorf("unknown transaction status %d", status.Kind)}
	case err, ok := <-stream.Err():
		if !ok || err == nil {
			return types.Hash{}, ErrUnexpectedEndOfStatusStream
		}
		return types.Hash{}, &StatusStreamError{Err: err}
	case <-ctx.Done():
		return types.Hash{}, ctx.Err()
	}
}

// Validate dry-runs the transaction against the transaction queue runtime
// API at the latest finalized block. A reply of "invalid" or "unknown" is a
// successful validation outcome, not an error.
func (s *SubmittableTransaction) Validate(ctx context.Context) (ValidationResult, error) {
	if s.client.backend == nil {
		return ValidationResult{}, ErrOffline
	}
	blockHash, err := s.client.backend.LatestFinalizedBlockRef(ctx)
	if err != nil {
		return ValidationResult{}, &FinalizedBlockError{Err: err}
	}
	return s.ValidateAt(ctx, blockHash)
}

// ValidateAt is Validate against an explicit block.
func (s *SubmittableTransaction) ValidateAt(ctx context.Context, blockHash types.Hash) (ValidationResult, error) {
	if s.client.backend == nil {
		return ValidationResult{}, ErrOffline
	}
	// Request frame: source tag, transaction bytes, block hash.
	var params bytes.Buffer
	enc := scale.NewEncoder(&params)
	if err := enc.PushByte(transactionSourceExternal); err != nil {
		return ValidationResult{}, err
	}
	if err := enc.Write(s.encoded); err != nil {
		return ValidationResult{}, err
	}
	if err := enc.Encode(blockHash); err != nil {
		return ValidationResult{}, err
	}

	res, err := s.client.backend.Call(ctx, validateTransactionMethod, params.Bytes(), blockHash)
	if err != nil {
		return ValidationResult{}, &ValidationInfoError{Err: err}
	}
	return DecodeValidationResult(res)
}

// PartialFeeEstimate returns what the transaction is expected to cost to
// execute, less any tip. The actual fee varies block to block with node
// traffic.
func (s *SubmittableTransaction) PartialFeeEstimate(ctx context.Context) (*big.Int, error) {
	if s.client.backend == nil {
		return nil, ErrOffline
	}
	// Request frame: transaction bytes followed by their length.
	var params bytes.Buffer
	enc := scale.NewEncoder(&params)
	if err := enc.Write(s.encoded); err != nil {
		return nil, err
	}
	if err := enc.Encode(uint32(len(s.encoded))); err != nil {
		return nil, err
	}

	blockHash, err := s.client.backend.LatestFinalizedBlockRef(ctx)
	if err != nil {
		return nil, &FinalizedBlockError{Err: err}
	}
	res, err := s.client.backend.Call(ctx, queryFeeInfoMethod, params.Bytes(), blockHash)
	if err != nil {
		return nil, &FeeInfoError{Err: err}
	}

	// Reply: (weight ref-time compact, weight proof-size compact, dispatch
	// class, partial fee). Only the fee is surfaced.
	dec := scale.NewDecoder(bytes.NewReader(res))
	if _, err := dec.DecodeUintCompact(); err != nil {
		return nil, &FeeInfoError{Err: err}
	}
	if _, err := dec.DecodeUintCompact(); err != nil {
		return nil, &FeeInfoError{Err: err}
	}
	var class uint8
	if err := dec.Decode(&class); err != nil {
		return nil, &FeeInfoError{Err: err}
	}
	var fee types.U128
	if err := dec.Decode(&fee); err != nil {
		return nil, &FeeInfoError{Err: err}
	}
	return fee.Int, nil
}
