package extrinsic

import (
	"errors"
	"math/bits"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// Era describes the mortality of a transaction. The zero value is immortal.
//
// A mortal era is valid for Period blocks starting at Phase within each
// repetition of the period; the block hash implied by the phase is bound
// into the signer payload as the mortality checkpoint.
type Era struct {
	// Period is the number of blocks the transaction is valid for after
	// the checkpoint block. Zero means immortal.
	Period uint64
	// Phase is where in the period the transaction's lifetime begins.
	Phase uint64
}

// Immortal returns an era that never expires.
func Immortal() Era {
	return Era{}
}

// MortalEra returns an era valid for roughly period blocks (rounded up to a
// power of two between 4 and 65536) starting at the given current block.
// When the period exceeds 4096 blocks the phase is quantized, which is why
// the checkpoint should be a block at or shortly before current.
func MortalEra(period, current uint64) Era {
	p := nextPowerOfTwo(period)
	if p < 4 {
		p = 4
	}
	if p > 1<<16 {
		p = 1 << 16
	}
	phase := current % p
	quantizeFactor := p >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	return Era{
		Period: p,
		Phase:  phase / quantizeFactor * quantizeFactor,
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	shift := uint(64 - bits.LeadingZeros64(n))
	if shift >= 17 {
		return 1 << 16
	}
	return 1 << shift
}

// IsImmortal reports whether the era never expires.
func (e Era) IsImmortal() bool {
	return e.Period == 0
}

// Encode writes the era's wire representation: a single zero byte when
// immortal, otherwise two bytes packing log2(period) in the low nibble and
// the quantized phase above it.
func (e Era) Encode(encoder scale.Encoder) error {
	if e.IsImmortal() {
		return encoder.PushByte(0)
	}
	quantizeFactor := e.Period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	low := uint16(bits.TrailingZeros64(e.Period)) - 1
	if low < 1 {
		low = 1
	}
	if low > 15 {
		low = 15
	}
	encoded := low | uint16(e.Phase/quantizeFactor)<<4
	return encoder.Encode(encoded)
}

// Decode reads the wire representation produced by Encode.
func (e *Era) Decode(decoder scale.Decoder) error {
	first, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if first == 0 {
		*e = Era{}
		return nil
	}
	second, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	encoded := uint64(first) | uint64(second)<<8
	period := uint64(2) << (encoded % (1 << 4))
	quantizeFactor := period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	phase := (encoded >> 4) * quantizeFactor
	if period < 4 || phase >= period {
		return errors.New("invalid era period and phase")
	}
	*e = Era{Period: period, Phase: phase}
	return nil
}
