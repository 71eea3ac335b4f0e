package lpcpack

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	magic      = "lpck"
	version    = 1
	headerSize = 40

	maxChannels    = 4096
	maxBlockFrames = 1 << 20
	maxPayload     = 1 << 28
	maxTotalFrames = 1 << 40

	unknownFrames = -1

	// Coded sizes per channel: the parameter header, then between one bit
	// and a full escape per sample.
	channelHeaderBits = orderBits + shiftBits + paramBits
	minSampleBits     = 1
	maxSampleBits     = escapeQuotient + 64
)

var (
	// ErrBadMagic indicates the data does not start with an lpcpack block
	ErrBadMagic = errors.New("lpcpack: not an lpcpack stream")

	// ErrCorrupt indicates a block header or payload that cannot be decoded
	ErrCorrupt = errors.New("lpcpack: corrupt stream")

	// ErrTruncated indicates the stream ended inside a block
	ErrTruncated = errors.New("lpcpack: truncated stream")
)

// blockHeader precedes every block.
//
// Binary format (little-endian, 40 bytes):
//   - Magic "lpck" (4 bytes)
//   - Version (1 byte)
//   - BytesPerSample (1 byte)
//   - Channels (2 bytes, uint16)
//   - Flags (4 bytes, uint32, types.ConfigFlag)
//   - SampleRate (4 bytes, uint32)
//   - TotalFrames (8 bytes, int64, -1 if unknown)
//   - BlockIndex (8 bytes, uint64)
//   - BlockFrames (4 bytes, uint32)
//   - PayloadLen (4 bytes, uint32)
type blockHeader struct {
	BytesPerSample uint8
	Channels       uint16
	Flags          uint32
	SampleRate     uint32
	TotalFrames    int64
	BlockIndex     uint64
	BlockFrames    uint32
	PayloadLen     uint32
}

func (h *blockHeader) marshal(buf []byte) {
	copy(buf[0:4], magic)
	buf[4] = version
	buf[5] = h.BytesPerSample
	binary.LittleEndian.PutUint16(buf[6:8], h.Channels)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.SampleRate)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.TotalFrames))
	binary.LittleEndian.PutUint64(buf[24:32], h.BlockIndex)
	binary.LittleEndian.PutUint32(buf[32:36], h.BlockFrames)
	binary.LittleEndian.PutUint32(buf[36:40], h.PayloadLen)
}

func (h *blockHeader) unmarshal(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, headerSize, len(data))
	}
	if string(data[0:4]) != magic {
		return fmt.Errorf("%w: magic %q", ErrBadMagic, data[0:4])
	}
	if data[4] != version {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}

	h.BytesPerSample = data[5]
	h.Channels = binary.LittleEndian.Uint16(data[6:8])
	h.Flags = binary.LittleEndian.Uint32(data[8:12])
	h.SampleRate = binary.LittleEndian.Uint32(data[12:16])
	h.TotalFrames = int64(binary.LittleEndian.Uint64(data[16:24]))
	h.BlockIndex = binary.LittleEndian.Uint64(data[24:32])
	h.BlockFrames = binary.LittleEndian.Uint32(data[32:36])
	h.PayloadLen = binary.LittleEndian.Uint32(data[36:40])

	switch {
	case h.BytesPerSample < 1 || h.BytesPerSample > 4:
		return fmt.Errorf("%w: bytes/sample = %d", ErrCorrupt, h.BytesPerSample)
	case h.Channels < 1 || h.Channels > maxChannels:
		return fmt.Errorf("%w: channels = %d", ErrCorrupt, h.Channels)
	case h.BlockFrames > maxBlockFrames:
		return fmt.Errorf("%w: block frames = %d", ErrCorrupt, h.BlockFrames)
	case h.PayloadLen > maxPayload:
		return fmt.Errorf("%w: payload length = %d", ErrCorrupt, h.PayloadLen)
	case h.BlockFrames == 0 && h.PayloadLen != 0:
		return fmt.Errorf("%w: payload without frames", ErrCorrupt)
	case h.TotalFrames < unknownFrames || h.TotalFrames > maxTotalFrames:
		return fmt.Errorf("%w: total frames = %d", ErrCorrupt, h.TotalFrames)
	}

	if h.BlockFrames > 0 {
		lo, hi := payloadBounds(int(h.Channels), int(h.BlockFrames))
		if int64(h.PayloadLen) < lo || int64(h.PayloadLen) > hi {
			return fmt.Errorf("%w: payload length = %d, range = %d-%d", ErrCorrupt, h.PayloadLen, lo, hi)
		}
	}

	return nil
}

// payloadBounds returns the smallest and largest payload in bytes that a
// block of the given shape can code to.
func payloadBounds(channels, frames int) (lo, hi int64) {
	c, f := int64(channels), int64(frames)
	lo = (c*(channelHeaderBits+f*minSampleBits) + 7) / 8
	hi = (c*(channelHeaderBits+f*maxSampleBits) + 7) / 8
	return lo, hi
}

// sameStream reports whether h can follow first in one stream
func (h *blockHeader) sameStream(first *blockHeader) bool {
	return h.BytesPerSample == first.BytesPerSample && h.Channels == first.Channels
}
