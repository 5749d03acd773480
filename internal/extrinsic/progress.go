package extrinsic

import (
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Progress tracks one submitted transaction through its status stream.
// It is owned by a single caller and not safe for concurrent use.
type Progress struct {
	stream StatusStream
	hash   types.Hash
	done   bool
}

func newProgress(stream StatusStream, hash types.Hash) *Progress {
	return &Progress{stream: stream, hash: hash}
}

// Hash returns the submitted transaction's hash.
func (p *Progress) Hash() types.Hash {
	return p.hash
}

// Next returns the next status update. ok is false once the stream has
// terminated: after a terminal status has been delivered, or when the
// stream closed. A stream fault is reported as a StatusStreamError.
func (p *Progress) Next(ctx context.Context) (status TransactionStatus, ok bool, err error) {
	if p.done {
		return TransactionStatus{}, false, nil
	}
	select {
	case status, chanOK := <-p.stream.Chan():
		if !chanOK {
			p.done = true
			return TransactionStatus{}, false, nil
		}
		if status.IsTerminal() {
			p.done = true
			p.stream.Unsubscribe()
		}
		return status, true, nil
	case err, chanOK := <-p.stream.Err():
		p.done = true
		p.stream.Unsubscribe()
		if !chanOK || err == nil {
			return TransactionStatus{}, false, nil
		}
		return TransactionStatus{}, false, &StatusStreamError{Err: err}
	case <-ctx.Done():
		return TransactionStatus{}, false, ctx.Err()
	}
}

// WaitForInBestBlock consumes statuses until the transaction is in a best
// block and returns that status. Terminal failure statuses are mapped onto
// their errors; a stream that ends first yields
// ErrUnexpectedEndOfStatusStream.
func (p *Progress) WaitForInBestBlock(ctx context.Context) (TransactionStatus, error) {
	return p.waitFor(ctx, StatusInBestBlock)
}

// WaitForFinalized consumes statuses until the transaction is in a
// finalized block and returns that status.
func (p *Progress) WaitForFinalized(ctx context.Context) (TransactionStatus, error) {
	return p.waitFor(ctx, StatusInFinalizedBlock)
}

func (p *Progress) waitFor(ctx context.Context, want StatusKind) (TransactionStatus, error) {
	for {
		status, ok, err := p.Next(ctx)
		if err != nil {
			return TransactionStatus{}, err
		}
		if !ok {
			return TransactionStatus{}, ErrUnexpectedEndOfStatusStream
		}
		// InFinalizedBlock implies the transaction was in a best block.
		if status.Kind == want ||
			(want == StatusInBestBlock && status.Kind == StatusInFinalizedBlock) {
			return status, nil
		}
		switch status.Kind {
		case StatusError:
			return TransactionStatus{}, &TransactionError{Message: status.Message}
		case StatusInvalid:
			return TransactionStatus{}, &TransactionInvalidError{Message: status.Message}
		case StatusDropped:
			return TransactionStatus{}, &TransactionDroppedError{Message: status.Message}
		case StatusInFinalizedBlock:
			// Finalized while waiting for a different progressing state;
			// the stream is over without reaching it.
			return TransactionStatus{}, ErrUnexpectedEndOfStatusStream
		}
	}
}

// Unsubscribe releases the underlying stream early. Safe to call more than
// once.
func (p *Progress) Unsubscribe() {
	if !p.done {
		p.done = true
		p.stream.Unsubscribe()
	}
}
