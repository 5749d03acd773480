// Package calls provides ready-made call constructors for common runtime
// calls, plus a raw escape hatch for anything else.
package calls

import (
	"bytes"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/0xmhha/subtx/internal/extrinsic"
)

// Raw wraps pre-encoded call data. No compatibility checking is possible, so
// it carries no validation details; the chain is the only judge of the bytes.
type Raw []byte

// EncodeCallData returns the wrapped bytes unchanged.
func (r Raw) EncodeCallData(_ *extrinsic.Metadata) ([]byte, error) {
	return []byte(r), nil
}

// ValidationDetails returns nil; raw call data cannot be checked statically.
func (r Raw) ValidationDetails() *extrinsic.ValidationDetails {
	return nil
}

// TransferKeepAlive is the Balances.transfer_keep_alive call: a transfer
// that refuses to kill the sender's account by dropping it below the
// existential deposit.
type TransferKeepAlive struct {
	Dest   types.MultiAddress
	Amount *big.Int
}

// NewTransferKeepAlive builds a transfer to an account id.
func NewTransferKeepAlive(dest types.AccountID, amount *big.Int) TransferKeepAlive {
	return TransferKeepAlive{
		Dest:   types.MultiAddress{IsID: true, AsID: dest},
		Amount: amount,
	}
}

// EncodeCallData encodes pallet index, call index, destination address and
// compact amount.
func (t TransferKeepAlive) EncodeCallData(meta *extrinsic.Metadata) ([]byte, error) {
	palletIndex, callIndex, err := meta.CallIndex("Balances", "transfer_keep_alive")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := scale.NewEncoder(&buf)
	if err := enc.PushByte(palletIndex); err != nil {
		return nil, err
	}
	if err := enc.PushByte(callIndex); err != nil {
		return nil, err
	}
	if err := enc.Encode(t.Dest); err != nil {
		return nil, err
	}
	if err := enc.EncodeUintCompact(*new(big.Int).Set(t.Amount)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidationDetails returns nil: the call is located by name at encode time,
// so a missing pallet or call surfaces there instead of as a hash mismatch.
func (t TransferKeepAlive) ValidationDetails() *extrinsic.ValidationDetails {
	return nil
}

// Checked pins a call to a compatibility hash. Construction fails with
// ErrIncompatibleCall when the metadata snapshot records a different hash for
// the named call.
type Checked struct {
	Call    extrinsic.Call
	Details extrinsic.ValidationDetails
}

func (c Checked) EncodeCallData(meta *extrinsic.Metadata) ([]byte, error) {
	return c.Call.EncodeCallData(meta)
}

func (c Checked) ValidationDetails() *extrinsic.ValidationDetails {
	d := c.Details
	return &d
}
