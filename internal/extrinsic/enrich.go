package extrinsic

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"golang.org/x/sync/errgroup"
)

const accountNonceMethod = "AccountNonceApi_account_nonce"

// CreatePartial builds a signable transaction with nonce and mortality
// taken from live chain state: the latest finalized block is resolved
// first, then its header and the account's nonce at it are fetched
// concurrently. The fetched block anchors the mortality window and the
// nonce fills Params.Nonce; values the caller set explicitly win. The rest
// is delegated to CreatePartialOffline.
func (c *Client) CreatePartial(ctx context.Context, call Call, account types.AccountID, params Params) (*PartialTransaction, error) {
	if err := c.injectAccountNonceAndBlock(ctx, account, &params); err != nil {
		return nil, err
	}
	return c.CreatePartialOffline(call, params)
}

// CreateLegacyPartial is CreatePartial pinned to the legacy (v4) format.
func (c *Client) CreateLegacyPartial(ctx context.Context, call Call, account types.AccountID, params Params) (*PartialTransaction, error) {
	if err := c.injectAccountNonceAndBlock(ctx, account, &params); err != nil {
		return nil, err
	}
	return c.CreateLegacyPartialOffline(call, params)
}

// CreateGeneralPartial is CreatePartial pinned to the general (v5) format.
func (c *Client) CreateGeneralPartial(ctx context.Context, call Call, account types.AccountID, params Params) (*PartialTransaction, error) {
	if err := c.injectAccountNonceAndBlock(ctx, account, &params); err != nil {
		return nil, err
	}
	return c.CreateGeneralPartialOffline(call, params)
}

// CreateSigned builds and signs a transaction in one step. Signers that
// manage their own nonce (NonceProvider) skip the nonce lookup.
func (c *Client) CreateSigned(ctx context.Context, call Call, signer Signer, params Params) (*SubmittableTransaction, error) {
	if np, ok := signer.(NonceProvider); ok && params.Nonce == nil {
		if nonce, ok := np.Nonce(); ok {
			params.Nonce = &nonce
		}
	}
	partial, err := c.CreatePartial(ctx, call, signer.AccountID(), params)
	if err != nil {
		return nil, err
	}
	return partial.Sign(signer)
}

// SignAndSubmit builds, signs and submits a transaction, returning its
// hash once the node reports a first progressing status. See
// SubmittableTransaction.Submit for the status handling.
func (c *Client) SignAndSubmit(ctx context.Context, call Call, signer Signer, params Params) (types.Hash, error) {
	tx, err := c.CreateSigned(ctx, call, signer, params)
	if err != nil {
		return types.Hash{}, err
	}
	return tx.Submit(ctx)
}

// SignAndSubmitThenWatch builds, signs and submits a transaction and
// returns a Progress handle over its status stream.
func (c *Client) SignAndSubmitThenWatch(ctx context.Context, call Call, signer Signer, params Params) (*Progress, error) {
	tx, err := c.CreateSigned(ctx, call, signer, params)
	if err != nil {
		return nil, err
	}
	return tx.SubmitAndWatch(ctx)
}

// AccountNonce returns the account's next nonce as of the latest finalized
// block, for callers managing enrichment themselves.
func (c *Client) AccountNonce(ctx context.Context, account types.AccountID) (uint64, error) {
	if c.backend == nil {
		return 0, ErrOffline
	}
	blockHash, err := c.backend.LatestFinalizedBlockRef(ctx)
	if err != nil {
		return 0, &FinalizedBlockError{Err: err}
	}
	return c.accountNonceAt(ctx, account, blockHash)
}

// accountNonceAt asks the account-nonce runtime API for the nonce at a
// block. The reply is a bare unsigned integer whose width depends on the
// chain's nonce type.
func (c *Client) accountNonceAt(ctx context.Context, account types.AccountID, blockHash types.Hash) (uint64, error) {
	params, err := codec.Encode(account)
	if err != nil {
		return 0, &AccountNonceError{BlockHash: blockHash, AccountID: account, Err: err}
	}
	res, err := c.backend.Call(ctx, accountNonceMethod, params, blockHash)
	if err != nil {
		return 0, &AccountNonceError{BlockHash: blockHash, AccountID: account, Err: err}
	}
	switch len(res) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(res)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(res)), nil
	case 8:
		return binary.LittleEndian.Uint64(res), nil
	default:
		return 0, &AccountNonceError{
			BlockHash: blockHash,
			AccountID: account,
			Err:       fmt.Errorf("unexpected nonce reply length %d", len(res)),
		}
	}
}

// injectAccountNonceAndBlock resolves the latest finalized block, fetches
// its header and the account nonce concurrently, and injects both into the
// params. Both fetches must complete before construction proceeds; there is
// no ordering between them.
func (c *Client) injectAccountNonceAndBlock(ctx context.Context, account types.AccountID, params *Params) error {
	if c.backend == nil {
		return ErrOffline
	}
	blockHash, err := c.backend.LatestFinalizedBlockRef(ctx)
	if err != nil {
		return &FinalizedBlockError{Err: err}
	}

	var (
		header *types.Header
		nonce  uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := c.backend.BlockHeader(gctx, blockHash)
		if err != nil {
			return &FinalizedBlockError{Err: err}
		}
		header = h
		return nil
	})
	g.Go(func() error {
		n, err := c.accountNonceAt(gctx, account, blockHash)
		if err != nil {
			return err
		}
		nonce = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if header == nil {
		return &BlockHeaderNotFoundError{BlockHash: blockHash}
	}

	params.injectNonce(nonce)
	params.injectBlock(uint64(header.Number), blockHash)
	return nil
}
