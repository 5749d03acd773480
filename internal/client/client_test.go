package client

import (
	"bytes"
	"context"
	"testing"

	gsrpcclient "github.com/centrifuge/go-substrate-rpc-client/v4/client"
	gethrpc "github.com/centrifuge/go-substrate-rpc-client/v4/gethrpc"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/rs/zerolog"

	"github.com/0xmhha/subtx/internal/extrinsic"
)

var (
	_ extrinsic.Backend      = (*Client)(nil)
	_ extrinsic.StatusStream = (*statusSubscription)(nil)
	_ gsrpcclient.Client     = (*fakeRPC)(nil)
)

// fakeRPC records the last call and delegates the result to a handler.
type fakeRPC struct {
	lastCtx    context.Context
	lastMethod string
	lastArgs   []interface{}
	handler    func(result interface{}) error

	subNamespace string
	subSuffixes  [3]string
	subChannel   interface{}
	subArgs      []interface{}

	closed bool
}

func (f *fakeRPC) Call(result interface{}, method string, args ...interface{}) error {
	return f.CallContext(context.Background(), result, method, args...)
}

func (f *fakeRPC) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	f.lastCtx = ctx
	f.lastMethod = method
	f.lastArgs = args
	if f.handler != nil {
		return f.handler(result)
	}
	return nil
}

func (f *fakeRPC) Subscribe(
	_ context.Context,
	namespace, subscribeMethodSuffix, unsubscribeMethodSuffix, notificationMethodSuffix string,
	channel interface{},
	args ...interface{},
) (*gethrpc.ClientSubscription, error) {
	f.subNamespace = namespace
	f.subSuffixes = [3]string{subscribeMethodSuffix, unsubscribeMethodSuffix, notificationMethodSuffix}
	f.subChannel = channel
	f.subArgs = args
	return nil, nil
}

func (f *fakeRPC) URL() string { return "ws://fake" }

func (f *fakeRPC) Close() { f.closed = true }

func testClient(f *fakeRPC) *Client {
	return &Client{rpc: f, log: zerolog.Nop()}
}

func TestClient_LatestFinalizedBlockRef(t *testing.T) {
	want := types.NewHash(bytes.Repeat([]byte{0x42}, 32))
	f := &fakeRPC{handler: func(result interface{}) error {
		*(result.(*types.Hash)) = want
		return nil
	}}
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	got, err := testClient(f).LatestFinalizedBlockRef(ctx)
	if err != nil {
		t.Fatalf("LatestFinalizedBlockRef() failed: %v", err)
	}
	if got != want {
		t.Errorf("LatestFinalizedBlockRef() = %s, want %s", got.Hex(), want.Hex())
	}
	if f.lastMethod != "chain_getFinalizedHead" {
		t.Errorf("called %q, want chain_getFinalizedHead", f.lastMethod)
	}
	if f.lastCtx != ctx {
		t.Error("caller context was not passed through to the RPC layer")
	}
}

func TestClient_Call(t *testing.T) {
	at := types.NewHash(bytes.Repeat([]byte{0x07}, 32))
	f := &fakeRPC{handler: func(result interface{}) error {
		*(result.(*string)) = "0x0102"
		return nil
	}}

	got, err := testClient(f).Call(context.Background(), "Core_version", []byte{0x0a, 0xb1}, at)
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("Call() = %x, want 0102", got)
	}
	if f.lastMethod != "state_call" {
		t.Errorf("called %q, want state_call", f.lastMethod)
	}
	wantArgs := []interface{}{"Core_version", "0x0ab1", at.Hex()}
	if len(f.lastArgs) != len(wantArgs) {
		t.Fatalf("Call() passed %d args, want %d", len(f.lastArgs), len(wantArgs))
	}
	for i, want := range wantArgs {
		if f.lastArgs[i] != want {
			t.Errorf("arg %d = %v, want %v", i, f.lastArgs[i], want)
		}
	}
}

func TestClient_Call_BadReplyHex(t *testing.T) {
	f := &fakeRPC{handler: func(result interface{}) error {
		*(result.(*string)) = "not hex"
		return nil
	}}
	if _, err := testClient(f).Call(context.Background(), "m", nil, types.Hash{}); err == nil {
		t.Error("expected an error for an undecodable reply")
	}
}

func TestClient_BlockHeader(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		f := &fakeRPC{handler: func(result interface{}) error {
			*(result.(**types.Header)) = &types.Header{Number: 9}
			return nil
		}}
		header, err := testClient(f).BlockHeader(context.Background(), types.Hash{})
		if err != nil {
			t.Fatalf("BlockHeader() failed: %v", err)
		}
		if header == nil || header.Number != 9 {
			t.Errorf("BlockHeader() = %+v, want number 9", header)
		}
	})

	t.Run("null reply means no such block", func(t *testing.T) {
		f := &fakeRPC{}
		header, err := testClient(f).BlockHeader(context.Background(), types.Hash{})
		if err != nil {
			t.Fatalf("BlockHeader() failed: %v", err)
		}
		if header != nil {
			t.Errorf("BlockHeader() = %+v, want nil", header)
		}
	})
}

func TestClient_GenesisHash(t *testing.T) {
	f := &fakeRPC{}
	if _, err := testClient(f).GenesisHash(context.Background()); err != nil {
		t.Fatalf("GenesisHash() failed: %v", err)
	}
	if f.lastMethod != "chain_getBlockHash" {
		t.Errorf("called %q, want chain_getBlockHash", f.lastMethod)
	}
	if len(f.lastArgs) != 1 || f.lastArgs[0] != 0 {
		t.Errorf("args = %v, want [0]", f.lastArgs)
	}
}

func TestClient_SubmitTransaction(t *testing.T) {
	f := &fakeRPC{}
	stream, err := testClient(f).SubmitTransaction(context.Background(), []byte{0xde, 0xad})
	if err != nil {
		t.Fatalf("SubmitTransaction() failed: %v", err)
	}

	if f.subNamespace != "transactionWatch_v1" {
		t.Errorf("namespace = %q, want transactionWatch_v1", f.subNamespace)
	}
	want := [3]string{"submitAndWatch", "unwatch", "watchEvent"}
	if f.subSuffixes != want {
		t.Errorf("method suffixes = %v, want %v", f.subSuffixes, want)
	}
	if len(f.subArgs) != 1 || f.subArgs[0] != "0xdead" {
		t.Errorf("args = %v, want [0xdead]", f.subArgs)
	}

	// Notifications written to the subscribed channel surface on the stream.
	ch := f.subChannel.(chan extrinsic.TransactionStatus)
	go func() { ch <- extrinsic.TransactionStatus{Kind: extrinsic.StatusValidated} }()
	status := <-stream.Chan()
	if status.Kind != extrinsic.StatusValidated {
		t.Errorf("status = %v, want validated", status)
	}
}

func TestClient_Close(t *testing.T) {
	f := &fakeRPC{}
	testClient(f).Close()
	if !f.closed {
		t.Error("Close() did not close the underlying connection")
	}
}
