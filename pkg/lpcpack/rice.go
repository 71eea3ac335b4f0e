package lpcpack

import (
	"github.com/icza/bitio"
)

const (
	maxOrder = 4

	// A quotient this large is replaced by an escape: escapeQuotient one
	// bits followed by the raw 64-bit value.
	escapeQuotient = 32
	maxRiceParam   = 31

	orderBits = 3
	shiftBits = 5
	paramBits = 5
)

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// predict returns the fixed polynomial prediction of s[i] from the order
// samples before it.
func predict(s []int32, i, order int) int64 {
	switch order {
	case 1:
		return int64(s[i-1])
	case 2:
		return 2*int64(s[i-1]) - int64(s[i-2])
	case 3:
		return 3*int64(s[i-1]) - 3*int64(s[i-2]) + int64(s[i-3])
	case 4:
		return 4*int64(s[i-1]) - 6*int64(s[i-2]) + 4*int64(s[i-3]) - int64(s[i-4])
	default:
		return 0
	}
}

func riceCost(u uint64, k uint) uint64 {
	q := u >> k
	if q >= escapeQuotient {
		return escapeQuotient + 64
	}
	return q + 1 + uint64(k)
}

func writeRice(w *bitio.Writer, u uint64, k uint) error {
	q := u >> k
	if q >= escapeQuotient {
		if err := w.WriteBits(1<<escapeQuotient-1, escapeQuotient); err != nil {
			return err
		}
		return w.WriteBits(u, 64)
	}

	// q one bits, a zero bit, then the k low bits
	code := (uint64(1)<<(q+1) - 2) << k
	code |= u & (uint64(1)<<k - 1)
	return w.WriteBits(code, uint8(q+1+uint64(k)))
}

func readRice(r *bitio.Reader, k uint) (uint64, error) {
	var q uint64
	for q < escapeQuotient {
		bit, err := r.ReadBool()
		if err != nil {
			return 0, err
		}
		if !bit {
			break
		}
		q++
	}

	if q == escapeQuotient {
		return r.ReadBits(64)
	}
	if k == 0 {
		return q, nil
	}

	low, err := r.ReadBits(uint8(k))
	if err != nil {
		return 0, err
	}
	return q<<k | low, nil
}

// sampleRange returns the signed range of a bytesPerSample-wide sample
func sampleRange(bytesPerSample int) (lo, hi int64) {
	bits := uint(8 * bytesPerSample)
	return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
