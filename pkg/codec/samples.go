package codec

import (
	"encoding/binary"
	"fmt"
)

// BatchFrames is the number of frames moved per engine call. It bounds the
// wide working buffer to BatchFrames*channels int32 values per call.
const BatchFrames = 256

// widen copies narrow samples into the wide batch, sign-preserving, unscaled.
func widen(dst []int32, src []int16) {
	for i, v := range src {
		dst[i] = int32(v)
	}
}

// narrow copies wide samples into narrow output by truncation. Values are
// representable because the source was encoded from 16-bit samples.
func narrow(dst []int16, src []int32) {
	for i, v := range src {
		dst[i] = int16(v)
	}
}

// BytesToSamples converts little-endian 16-bit PCM to samples.
// Returns an error if the byte count is odd.
func BytesToSamples(buf []byte) ([]int16, error) {
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("odd PCM byte count: %d", len(buf))
	}

	samples := make([]int16, len(buf)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return samples, nil
}

// SamplesToBytes converts samples to little-endian 16-bit PCM
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, 2*len(samples))
	PutSamples(buf, samples)
	return buf
}

// PutSamples writes samples into buf as little-endian 16-bit PCM.
// buf must hold at least 2*len(samples) bytes.
func PutSamples(buf []byte, samples []int16) {
	for i, v := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
}
