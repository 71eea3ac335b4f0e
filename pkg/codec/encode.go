package codec

import (
	"log/slog"

	"github.com/drgolem/wvmem/pkg/memstream"
	"github.com/drgolem/wvmem/pkg/types"
)

// Params selects how a stream is encoded
type Params struct {
	Level      int     // speed level, 1-4
	Bitrate    float64 // target bits per sample for hybrid mode; 0 means lossless
	SampleRate int     // written into the stream; 0 uses DefaultSampleRate
}

// DefaultParams returns lossless encoding at the default level
func DefaultParams() Params {
	return Params{
		Level:      LevelDefault,
		SampleRate: DefaultSampleRate,
	}
}

// Encode encodes interleaved 16-bit samples into dst and returns the number
// of bytes written.
//
// The frame count is len(src)/channels. Nothing is ever written past
// len(dst); if the encoded stream does not fit, the call fails with
// ErrCapacityOverflow and dst holds whatever blocks fit before that.
//
// Errors are *Error values matching ErrOpen, ErrConfiguration, ErrPack or
// ErrCapacityOverflow.
func Encode(engine types.Engine, src []int16, channels int, p Params, dst []byte) (int, error) {
	const op = "encode"

	if channels < 1 {
		return 0, newError(op, KindConfiguration, nil, "channels = %d", channels)
	}
	if len(src)%channels != 0 {
		return 0, newError(op, KindConfiguration, nil,
			"%d samples is not a whole number of %d-channel frames", len(src), channels)
	}
	frames := len(src) / channels

	writer := memstream.NewWriter(dst)
	session, err := engine.OpenOutput(writer)
	if err != nil {
		return 0, newError(op, KindOpen, err, "cannot create encoder context")
	}
	defer session.Close()

	cfg, err := BuildConfig(channels, int64(frames), p.Level, p.Bitrate)
	if err != nil {
		return 0, configError(op, err)
	}
	if p.SampleRate > 0 {
		cfg.SampleRate = p.SampleRate
	}

	if err := session.SetConfiguration(cfg, int64(frames)); err != nil {
		return 0, newError(op, KindConfiguration, err, "engine rejected configuration")
	}

	if err := session.PackInit(); err != nil {
		return 0, failure(op, writer, err, "initialization failed")
	}

	slog.Debug("Encoding",
		"frames", frames,
		"channels", channels,
		"level", p.Level,
		"bitrate", p.Bitrate,
		"block_samples", cfg.BlockSamples,
		"capacity", len(dst))

	batch := make([]int32, BatchFrames*channels)

	for remaining := frames; remaining > 0; {
		toEncode := min(BatchFrames, remaining)
		count := toEncode * channels

		widen(batch[:count], src[:count])
		src = src[count:]

		if err := session.PackSamples(batch[:count], toEncode); err != nil {
			return 0, failure(op, writer, err, "after %d frames", frames-remaining)
		}

		remaining -= toEncode
	}

	if err := session.FlushSamples(); err != nil {
		return 0, failure(op, writer, err, "flush failed")
	}

	if writer.Overflowed() {
		return 0, overflowError(op, writer)
	}

	slog.Debug("Encoding complete", "frames", frames, "bytes", writer.Len())

	return writer.Len(), nil
}

// EncodeBytes is Encode for little-endian 16-bit PCM input
func EncodeBytes(engine types.Engine, src []byte, channels int, p Params, dst []byte) (int, error) {
	samples, err := BytesToSamples(src)
	if err != nil {
		return 0, newError("encode", KindConfiguration, err, "")
	}
	return Encode(engine, samples, channels, p, dst)
}

// failure reports an engine error, preferring capacity overflow when the
// writer refused a block, since that is what made the engine fail.
func failure(op string, writer *memstream.Writer, err error, format string, args ...any) *Error {
	if writer.Overflowed() {
		return overflowError(op, writer)
	}
	return newError(op, KindPack, err, format, args...)
}

func overflowError(op string, writer *memstream.Writer) *Error {
	return newError(op, KindCapacityOverflow, memstream.ErrOverflow,
		"capacity = %d bytes, written = %d", writer.Cap(), writer.Len())
}
