package extrinsic

import (
	"bytes"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

func encodeEra(t *testing.T, e Era) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := scale.NewEncoder(&buf)
	if err := enc.Encode(e); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func decodeEra(t *testing.T, data []byte) (Era, error) {
	t.Helper()
	var e Era
	dec := scale.NewDecoder(bytes.NewReader(data))
	err := dec.Decode(&e)
	return e, err
}

func TestEra_EncodeImmortal(t *testing.T) {
	got := encodeEra(t, Immortal())
	if !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("immortal era encoded as %x, want 00", got)
	}
}

func TestEra_EncodeMortal(t *testing.T) {
	tests := []struct {
		name    string
		period  uint64
		current uint64
		want    []byte
	}{
		// encoded = (trailingZeros(period)-1) | (phase/quantize)<<4, u16 LE
		{"period 64 phase 42", 64, 42, []byte{0xa5, 0x02}},
		{"period 4 phase 3", 4, 3, []byte{0x31, 0x00}},
		{"period 64 phase 0", 64, 64, []byte{0x05, 0x00}},
		{"period 32768 quantized", 32768, 20000, []byte{0x4e, 0x9c}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			era := MortalEra(tt.period, tt.current)
			got := encodeEra(t, era)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("MortalEra(%d, %d) encoded as %x, want %x",
					tt.period, tt.current, got, tt.want)
			}
		})
	}
}

func TestEra_RoundTrip(t *testing.T) {
	eras := []Era{
		Immortal(),
		MortalEra(64, 42),
		MortalEra(4, 3),
		MortalEra(256, 1000),
		MortalEra(32768, 20000),
		MortalEra(1<<16, 123456),
	}

	for _, era := range eras {
		got, err := decodeEra(t, encodeEra(t, era))
		if err != nil {
			t.Errorf("round trip of %+v failed: %v", era, err)
			continue
		}
		if got != era {
			t.Errorf("round trip of %+v yielded %+v", era, got)
		}
	}
}

func TestMortalEra_PeriodRounding(t *testing.T) {
	tests := []struct {
		period uint64
		want   uint64
	}{
		{0, 4},            // degenerate window clamps to the minimum
		{1, 4},            // minimum period is 4
		{5, 8},            // rounds up to the next power of two
		{64, 64},          // powers of two stay put
		{100000, 1 << 16}, // capped at 2^16
	}

	for _, tt := range tests {
		if got := MortalEra(tt.period, 0).Period; got != tt.want {
			t.Errorf("MortalEra(%d, 0).Period = %d, want %d", tt.period, got, tt.want)
		}
	}
}

func TestMortalEra_PhaseQuantization(t *testing.T) {
	// Periods above 4096 quantize the phase by period/4096.
	era := MortalEra(32768, 20001)
	quantize := uint64(32768 >> 12)
	if era.Phase%quantize != 0 {
		t.Errorf("phase %d is not a multiple of the quantize factor %d", era.Phase, quantize)
	}
	if era.Phase > 20001%32768 {
		t.Errorf("quantized phase %d exceeds the raw phase", era.Phase)
	}
}

func TestEra_DecodeInvalid(t *testing.T) {
	// Phase 8 with period 4 is out of range.
	encoded := uint16(1) | uint16(8)<<4
	if _, err := decodeEra(t, []byte{byte(encoded), byte(encoded >> 8)}); err == nil {
		t.Error("expected an error for phase >= period")
	}
}

func TestEra_IsImmortal(t *testing.T) {
	if !Immortal().IsImmortal() {
		t.Error("Immortal().IsImmortal() = false")
	}
	if MortalEra(64, 0).IsImmortal() {
		t.Error("MortalEra(64, 0).IsImmortal() = true")
	}
}
