// Package client wraps a Substrate JSON-RPC connection behind the backend
// interface the transaction engine consumes.
package client

import (
	"context"
	"fmt"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4/client"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"github.com/0xmhha/subtx/internal/extrinsic"
)

// Client talks to one Substrate node. Safe for concurrent use.
type Client struct {
	rpc gsrpc.Client
	log zerolog.Logger
}

// Connect dials the node at url (ws://, wss:// or http://). Subscriptions
// require a websocket endpoint.
func Connect(url string, log zerolog.Logger) (*Client, error) {
	rpc, err := gsrpc.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	log.Debug().Str("url", url).Msg("connected to node")
	return &Client{rpc: rpc, log: log}, nil
}

// URL returns the endpoint the client is connected to.
func (c *Client) URL() string {
	return c.rpc.URL()
}

// LatestFinalizedBlockRef returns the hash of the latest finalized block.
func (c *Client) LatestFinalizedBlockRef(ctx context.Context) (types.Hash, error) {
	var hash types.Hash
	if err := c.rpc.CallContext(ctx, &hash, "chain_getFinalizedHead"); err != nil {
		return types.Hash{}, err
	}
	return hash, nil
}

// BlockHeader returns the header for a block hash, or (nil, nil) when the
// node has no block for it.
func (c *Client) BlockHeader(ctx context.Context, blockHash types.Hash) (*types.Header, error) {
	var header *types.Header
	if err := c.rpc.CallContext(ctx, &header, "chain_getHeader", blockHash.Hex()); err != nil {
		return nil, err
	}
	return header, nil
}

// Call performs a runtime API call via state_call at the given block and
// returns the raw SCALE-encoded reply.
func (c *Client) Call(ctx context.Context, method string, params []byte, at types.Hash) ([]byte, error) {
	var res string
	if err := c.rpc.CallContext(ctx, &res, "state_call", method, hexutil.Encode(params), at.Hex()); err != nil {
		return nil, err
	}
	out, err := codec.HexDecodeString(res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	c.log.Debug().Str("method", method).Int("reply_bytes", len(out)).Msg("runtime call")
	return out, nil
}

// SubmitTransaction submits encoded transaction bytes through the
// transactionWatch subscription API and returns the resulting status stream.
func (c *Client) SubmitTransaction(ctx context.Context, tx []byte) (extrinsic.StatusStream, error) {
	ch := make(chan extrinsic.TransactionStatus)
	sub, err := c.rpc.Subscribe(ctx, "transactionWatch_v1",
		"submitAndWatch", "unwatch", "watchEvent", ch, hexutil.Encode(tx))
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("tx_bytes", len(tx)).Msg("transaction submitted")
	return &statusSubscription{ch: ch, sub: sub}, nil
}

// RuntimeVersion is the slice of state_getRuntimeVersion the transaction
// engine needs.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// LatestRuntimeVersion returns the node's current runtime version.
func (c *Client) LatestRuntimeVersion(ctx context.Context) (RuntimeVersion, error) {
	var rv RuntimeVersion
	if err := c.rpc.CallContext(ctx, &rv, "state_getRuntimeVersion"); err != nil {
		return RuntimeVersion{}, err
	}
	return rv, nil
}

// GenesisHash returns the hash of block zero.
func (c *Client) GenesisHash(ctx context.Context) (types.Hash, error) {
	var hash types.Hash
	if err := c.rpc.CallContext(ctx, &hash, "chain_getBlockHash", 0); err != nil {
		return types.Hash{}, err
	}
	return hash, nil
}

// Close tears down the connection. In-flight subscriptions are cancelled.
func (c *Client) Close() {
	c.rpc.Close()
}
