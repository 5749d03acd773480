package extrinsic

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"golang.org/x/crypto/blake2b"
)

// mockStream feeds canned statuses through the StatusStream interface.
type mockStream struct {
	ch           chan TransactionStatus
	errCh        chan error
	unsubscribed bool
}

func newMockStream(statuses ...TransactionStatus) *mockStream {
	s := &mockStream{
		ch:    make(chan TransactionStatus, len(statuses)+1),
		errCh: make(chan error, 1),
	}
	for _, status := range statuses {
		s.ch <- status
	}
	return s
}

func (s *mockStream) Chan() <-chan TransactionStatus { return s.ch }
func (s *mockStream) Err() <-chan error              { return s.errCh }
func (s *mockStream) Unsubscribe()                   { s.unsubscribed = true }

// mockBackend implements Backend with overridable behavior per call.
type mockBackend struct {
	finalizedFn func(ctx context.Context) (types.Hash, error)
	headerFn    func(ctx context.Context, hash types.Hash) (*types.Header, error)
	callFn      func(ctx context.Context, method string, params []byte, at types.Hash) ([]byte, error)
	submitFn    func(ctx context.Context, tx []byte) (StatusStream, error)
}

func (b *mockBackend) LatestFinalizedBlockRef(ctx context.Context) (types.Hash, error) {
	if b.finalizedFn == nil {
		return types.NewHash(bytes.Repeat([]byte{0x77}, 32)), nil
	}
	return b.finalizedFn(ctx)
}

func (b *mockBackend) BlockHeader(ctx context.Context, hash types.Hash) (*types.Header, error) {
	if b.headerFn == nil {
		return &types.Header{Number: 100}, nil
	}
	return b.headerFn(ctx, hash)
}

func (b *mockBackend) Call(ctx context.Context, method string, params []byte, at types.Hash) ([]byte, error) {
	if b.callFn == nil {
		return nil, fmt.Errorf("unexpected runtime call %s", method)
	}
	return b.callFn(ctx, method, params, at)
}

func (b *mockBackend) SubmitTransaction(ctx context.Context, tx []byte) (StatusStream, error) {
	if b.submitFn == nil {
		return nil, errors.New("unexpected submission")
	}
	return b.submitFn(ctx, tx)
}

func testSubmittable(backend Backend) *SubmittableTransaction {
	c := New(backend, testMeta(4))
	return SubmittableFromBytes(c, []byte{0xde, 0xad, 0xbe, 0xef})
}

func TestSubmittable_Hash(t *testing.T) {
	tx := testSubmittable(&mockBackend{})
	want := blake2b.Sum256(tx.Encoded())
	if tx.Hash() != types.NewHash(want[:]) {
		t.Errorf("Hash() = %x, want %x", tx.Hash(), want)
	}
	if tx.Hash() != tx.Hash() {
		t.Error("Hash() is not stable")
	}
}

func TestSubmittable_IntoEncoded(t *testing.T) {
	tx := testSubmittable(&mockBackend{})
	owned := tx.IntoEncoded()
	owned[0] ^= 0xff
	if bytes.Equal(owned, tx.Encoded()) {
		t.Error("IntoEncoded() returned the internal slice")
	}
}

func TestSubmit_FirstStatus(t *testing.T) {
	blockHash := types.NewHash(bytes.Repeat([]byte{0x55}, 32))
	tests := []struct {
		name    string
		status  TransactionStatus
		wantErr func(error) bool
	}{
		{"validated", TransactionStatus{Kind: StatusValidated}, nil},
		{"broadcasted", TransactionStatus{Kind: StatusBroadcasted}, nil},
		{"in best block", TransactionStatus{Kind: StatusInBestBlock, BlockHash: blockHash}, nil},
		{"no longer in best block", TransactionStatus{Kind: StatusNoLongerInBestBlock}, nil},
		{"in finalized block", TransactionStatus{Kind: StatusInFinalizedBlock, BlockHash: blockHash}, nil},
		{
			"error",
			TransactionStatus{Kind: StatusError, Message: "boom"},
			func(err error) bool {
				var e *TransactionError
				return errors.As(err, &e) && e.Message == "boom"
			},
		},
		{
			"invalid",
			TransactionStatus{Kind: StatusInvalid, Message: "stale"},
			func(err error) bool {
				var e *TransactionInvalidError
				return errors.As(err, &e) && e.Message == "stale"
			},
		},
		{
			"dropped",
			TransactionStatus{Kind: StatusDropped, Message: "pool full"},
			func(err error) bool {
				var e *TransactionDroppedError
				return errors.As(err, &e) && e.Message == "pool full"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := newMockStream(tt.status)
			backend := &mockBackend{
				submitFn: func(_ context.Context, _ []byte) (StatusStream, error) {
					return stream, nil
				},
			}
			tx := testSubmittable(backend)

			hash, err := tx.Submit(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Submit() failed: %v", err)
				}
				if hash != tx.Hash() {
					t.Errorf("Submit() = %x, want %x", hash, tx.Hash())
				}
			} else if !tt.wantErr(err) {
				t.Errorf("Submit() error = %v", err)
			}
			if !stream.unsubscribed {
				t.Error("Submit() left the stream subscribed")
			}
		})
	}
}

func TestSubmit_StreamEndsBeforeStatus(t *testing.T) {
	stream := newMockStream()
	close(stream.ch)
	backend := &mockBackend{
		submitFn: func(_ context.Context, _ []byte) (StatusStream, error) {
			return stream, nil
		},
	}

	_, err := testSubmittable(backend).Submit(context.Background())
	if !errors.Is(err, ErrUnexpectedEndOfStatusStream) {
		t.Errorf("Submit() error = %v, want ErrUnexpectedEndOfStatusStream", err)
	}
}

func TestSubmit_StreamFault(t *testing.T) {
	stream := newMockStream()
	streamErr := errors.New("connection lost")
	stream.errCh <- streamErr
	backend := &mockBackend{
		submitFn: func(_ context.Context, _ []byte) (StatusStream, error) {
			return stream, nil
		},
	}

	_, err := testSubmittable(backend).Submit(context.Background())
	var wrapped *StatusStreamError
	if !errors.As(err, &wrapped) || !errors.Is(err, streamErr) {
		t.Errorf("Submit() error = %v, want StatusStreamError wrapping %v", err, streamErr)
	}
}

func TestSubmit_BackendFailure(t *testing.T) {
	cause := errors.New("node unreachable")
	backend := &mockBackend{
		submitFn: func(_ context.Context, _ []byte) (StatusStream, error) {
			return nil, cause
		},
	}

	_, err := testSubmittable(backend).Submit(context.Background())
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) || !errors.Is(err, cause) {
		t.Errorf("Submit() error = %v, want SubmitError wrapping %v", err, cause)
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	stream := newMockStream() // never delivers
	backend := &mockBackend{
		submitFn: func(_ context.Context, _ []byte) (StatusStream, error) {
			return stream, nil
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := testSubmittable(backend).Submit(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() error = %v, want deadline exceeded", err)
	}
}

func TestOfflineClient_RejectsOnlineOperations(t *testing.T) {
	c := NewOffline(testMeta(4))
	tx := SubmittableFromBytes(c, []byte{0x01})
	ctx := context.Background()

	if _, err := tx.Submit(ctx); !errors.Is(err, ErrOffline) {
		t.Errorf("Submit() = %v, want ErrOffline", err)
	}
	if _, err := tx.SubmitAndWatch(ctx); !errors.Is(err, ErrOffline) {
		t.Errorf("SubmitAndWatch() = %v, want ErrOffline", err)
	}
	if _, err := tx.Validate(ctx); !errors.Is(err, ErrOffline) {
		t.Errorf("Validate() = %v, want ErrOffline", err)
	}
	if _, err := tx.PartialFeeEstimate(ctx); !errors.Is(err, ErrOffline) {
		t.Errorf("PartialFeeEstimate() = %v, want ErrOffline", err)
	}
	if _, err := c.AccountNonce(ctx, types.AccountID{}); !errors.Is(err, ErrOffline) {
		t.Errorf("AccountNonce() = %v, want ErrOffline", err)
	}
}

func TestValidateAt_RequestFrame(t *testing.T) {
	blockHash := types.NewHash(bytes.Repeat([]byte{0x66}, 32))
	var gotMethod string
	var gotParams []byte
	var gotAt types.Hash
	backend := &mockBackend{
		callFn: func(_ context.Context, method string, params []byte, at types.Hash) ([]byte, error) {
			gotMethod, gotParams, gotAt = method, params, at
			return validReply(1, nil, nil, 1, true), nil
		},
	}
	tx := testSubmittable(backend)

	res, err := tx.ValidateAt(context.Background(), blockHash)
	if err != nil {
		t.Fatalf("ValidateAt() failed: %v", err)
	}
	if !res.IsValid() {
		t.Errorf("ValidateAt() = %s, want valid", res)
	}
	if gotMethod != "TaggedTransactionQueue_validate_transaction" {
		t.Errorf("method = %q", gotMethod)
	}
	if gotAt != blockHash {
		t.Errorf("at = %x, want %x", gotAt, blockHash)
	}

	// Frame: external source tag, raw transaction bytes, block hash.
	var wantParams []byte
	wantParams = append(wantParams, 0x02)
	wantParams = append(wantParams, tx.Encoded()...)
	wantParams = append(wantParams, blockHash[:]...)
	if !bytes.Equal(gotParams, wantParams) {
		t.Errorf("params = %x, want %x", gotParams, wantParams)
	}
}

func TestValidate_UsesLatestFinalizedBlock(t *testing.T) {
	finalized := types.NewHash(bytes.Repeat([]byte{0x99}, 32))
	var gotAt types.Hash
	backend := &mockBackend{
		finalizedFn: func(_ context.Context) (types.Hash, error) {
			return finalized, nil
		},
		callFn: func(_ context.Context, _ string, _ []byte, at types.Hash) ([]byte, error) {
			gotAt = at
			return []byte{1, 0, 3}, nil
		},
	}
	tx := testSubmittable(backend)

	res, err := tx.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if res.Invalid == nil || res.Invalid.Reason != InvalidStale {
		t.Errorf("Validate() = %s, want invalid/stale", res)
	}
	if gotAt != finalized {
		t.Errorf("validation ran at %x, want the finalized block %x", gotAt, finalized)
	}
}

func TestValidate_RuntimeCallFailure(t *testing.T) {
	cause := errors.New("state pruned")
	backend := &mockBackend{
		callFn: func(_ context.Context, _ string, _ []byte, _ types.Hash) ([]byte, error) {
			return nil, cause
		},
	}

	_, err := testSubmittable(backend).Validate(context.Background())
	var infoErr *ValidationInfoError
	if !errors.As(err, &infoErr) || !errors.Is(err, cause) {
		t.Errorf("Validate() error = %v, want ValidationInfoError wrapping %v", err, cause)
	}
}

func TestPartialFeeEstimate(t *testing.T) {
	var gotMethod string
	var gotParams []byte
	wantFee := big.NewInt(156_000_000)
	backend := &mockBackend{
		callFn: func(_ context.Context, method string, params []byte, _ types.Hash) ([]byte, error) {
			gotMethod, gotParams = method, params
			// Reply: two compact weight components, dispatch class, u128 fee.
			var reply []byte
			reply = append(reply, 0x04) // weight ref time, compact 1
			reply = append(reply, 0x08) // weight proof size, compact 2
			reply = append(reply, 0x00) // class: normal
			fee := make([]byte, 16)
			binary.LittleEndian.PutUint64(fee, wantFee.Uint64())
			reply = append(reply, fee...)
			return reply, nil
		},
	}
	tx := testSubmittable(backend)

	fee, err := tx.PartialFeeEstimate(context.Background())
	if err != nil {
		t.Fatalf("PartialFeeEstimate() failed: %v", err)
	}
	if fee.Cmp(wantFee) != 0 {
		t.Errorf("PartialFeeEstimate() = %s, want %s", fee, wantFee)
	}
	if gotMethod != "TransactionPaymentApi_query_info" {
		t.Errorf("method = %q", gotMethod)
	}

	// Frame: raw transaction bytes followed by their length as u32.
	var wantParams []byte
	wantParams = append(wantParams, tx.Encoded()...)
	wantParams = binary.LittleEndian.AppendUint32(wantParams, uint32(len(tx.Encoded())))
	if !bytes.Equal(gotParams, wantParams) {
		t.Errorf("params = %x, want %x", gotParams, wantParams)
	}
}

func TestPartialFeeEstimate_RuntimeCallFailure(t *testing.T) {
	cause := errors.New("state pruned")
	backend := &mockBackend{
		callFn: func(_ context.Context, _ string, _ []byte, _ types.Hash) ([]byte, error) {
			return nil, cause
		},
	}

	_, err := testSubmittable(backend).PartialFeeEstimate(context.Background())
	var feeErr *FeeInfoError
	if !errors.As(err, &feeErr) || !errors.Is(err, cause) {
		t.Errorf("PartialFeeEstimate() error = %v, want FeeInfoError wrapping %v", err, cause)
	}
}
