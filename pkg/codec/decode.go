package codec

import (
	"encoding/binary"
	"log/slog"

	"github.com/drgolem/wvmem/pkg/memstream"
	"github.com/drgolem/wvmem/pkg/types"
)

// Format describes an encoded stream as reported by the engine
type Format struct {
	Channels       int
	BytesPerSample int
	SampleRate     int
	Frames         int64 // -1 if the stream does not advertise it
}

// Decode decodes the 16-bit stream in src into dst as interleaved samples.
//
// At most len(dst)/channels frames are produced; anything past that in the
// source is never decoded. Returns the decoded frame count and the channel
// count. An empty stream decodes to zero frames without error.
//
// Errors are *Error values matching ErrOpen, ErrFormatMismatch or ErrUnpack.
func Decode(engine types.Engine, src []byte, dst []int16) (frames, channels int, err error) {
	return decode(engine, src, len(dst), func(off int, batch []int32) {
		narrow(dst[off:off+len(batch)], batch)
	})
}

// DecodeBytes is Decode with a byte destination: samples are written as
// little-endian 16-bit PCM and never past len(dst).
func DecodeBytes(engine types.Engine, src []byte, dst []byte) (frames, channels int, err error) {
	return decode(engine, src, len(dst)/2, func(off int, batch []int32) {
		out := dst[2*off : 2*(off+len(batch))]
		for i, v := range batch {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
		}
	})
}

// Probe opens src and reports its format without decoding any samples
func Probe(engine types.Engine, src []byte) (Format, error) {
	session, err := engine.OpenInput(memstream.NewReader(src), types.OpenStreaming)
	if err != nil {
		return Format{}, newError("probe", KindOpen, err, "cannot open source (%d bytes)", len(src))
	}
	defer session.Close()

	return Format{
		Channels:       session.NumChannels(),
		BytesPerSample: session.BytesPerSample(),
		SampleRate:     session.SampleRate(),
		Frames:         session.NumSamples(),
	}, nil
}

// decode runs the bounded unpack loop. capSamples is the destination size in
// narrow samples; emit stores one batch at sample offset off.
func decode(engine types.Engine, src []byte, capSamples int, emit func(off int, batch []int32)) (int, int, error) {
	const op = "decode"

	reader := memstream.NewReader(src)
	session, err := engine.OpenInput(reader, types.OpenStreaming)
	if err != nil {
		slog.Debug("Failed to open source", "source_bytes", len(src), "error", err)
		return 0, 0, newError(op, KindOpen, err, "cannot open source (%d bytes)", len(src))
	}
	defer session.Close()

	channels := session.NumChannels()
	bps := session.BytesPerSample()
	if bps != 2 {
		return 0, channels, newError(op, KindFormatMismatch, nil, "bytes/sample = %d", bps)
	}
	if channels < 1 {
		return 0, 0, newError(op, KindOpen, nil, "channels = %d", channels)
	}

	maxFrames := capSamples / channels
	batch := make([]int32, BatchFrames*channels)

	slog.Debug("Decoding",
		"source_bytes", len(src),
		"channels", channels,
		"max_frames", maxFrames)

	total := 0
	for total < maxFrames {
		toDecode := min(BatchFrames, maxFrames-total)

		n, err := session.UnpackSamples(batch, toDecode)
		if err != nil {
			return total, channels, newError(op, KindUnpack, err, "after %d frames", total)
		}
		if n == 0 {
			break
		}
		if n > toDecode {
			return total, channels, newError(op, KindUnpack, nil,
				"engine returned %d frames, requested %d", n, toDecode)
		}

		emit(total*channels, batch[:n*channels])
		total += n
	}

	slog.Debug("Decoding complete",
		"frames", total,
		"channels", channels,
		"bytes_read", reader.TotalRead())

	return total, channels, nil
}
