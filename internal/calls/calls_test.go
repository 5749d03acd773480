package calls

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/0xmhha/subtx/internal/extrinsic"
)

func testMeta() *extrinsic.Metadata {
	return &extrinsic.Metadata{
		ExtrinsicVersions: []uint8{4},
		Pallets: map[string]extrinsic.PalletMetadata{
			"Balances": {
				Index: 6,
				Calls: map[string]extrinsic.CallMetadata{
					"transfer_keep_alive": {Index: 3},
				},
			},
		},
	}
}

func TestRaw(t *testing.T) {
	data := []byte{0x0a, 0x0b, 0x0c}
	call := Raw(data)

	got, err := call.EncodeCallData(testMeta())
	if err != nil {
		t.Fatalf("EncodeCallData() failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("EncodeCallData() = %x, want %x", got, data)
	}
	if call.ValidationDetails() != nil {
		t.Error("raw call data must not carry validation details")
	}
}

func TestTransferKeepAlive_EncodeCallData(t *testing.T) {
	dest := types.AccountID(([32]byte)(bytes.Repeat([]byte{0x02}, 32)))
	call := NewTransferKeepAlive(dest, big.NewInt(5))

	got, err := call.EncodeCallData(testMeta())
	if err != nil {
		t.Fatalf("EncodeCallData() failed: %v", err)
	}

	var want []byte
	want = append(want, 6, 3) // pallet and call index
	want = append(want, 0x00) // MultiAddress::Id
	want = append(want, dest[:]...)
	want = append(want, 0x14) // compact 5
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeCallData() = %x, want %x", got, want)
	}
}

func TestTransferKeepAlive_AmountNotMutated(t *testing.T) {
	dest := types.AccountID{}
	amount := big.NewInt(1000)
	call := NewTransferKeepAlive(dest, amount)

	if _, err := call.EncodeCallData(testMeta()); err != nil {
		t.Fatalf("EncodeCallData() failed: %v", err)
	}
	if amount.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("amount mutated to %s", amount)
	}
}

func TestTransferKeepAlive_UnknownPallet(t *testing.T) {
	meta := &extrinsic.Metadata{Pallets: map[string]extrinsic.PalletMetadata{}}
	call := NewTransferKeepAlive(types.AccountID{}, big.NewInt(1))

	_, err := call.EncodeCallData(meta)
	var palletErr *extrinsic.PalletNotFoundError
	if !errors.As(err, &palletErr) {
		t.Errorf("EncodeCallData() error = %v, want PalletNotFoundError", err)
	}
}

func TestChecked_CarriesDetails(t *testing.T) {
	hash := types.NewHash(bytes.Repeat([]byte{0x09}, 32))
	call := Checked{
		Call: Raw([]byte{0x01}),
		Details: extrinsic.ValidationDetails{
			Pallet: "Balances", Call: "transfer_keep_alive", Hash: hash,
		},
	}

	details := call.ValidationDetails()
	if details == nil || details.Hash != hash {
		t.Fatalf("ValidationDetails() = %+v", details)
	}
	got, err := call.EncodeCallData(testMeta())
	if err != nil || !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("EncodeCallData() = %x, %v", got, err)
	}
}
