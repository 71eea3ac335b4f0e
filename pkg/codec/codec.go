package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/drgolem/wvmem/pkg/types"
)

const (
	// CodecID identifies the codec in serialized configurations
	CodecID = "wavpack"

	// DefaultMaxChannels is the widest layout encoded as-is; wider input is
	// flattened to a single channel.
	DefaultMaxChannels = 1024

	maxEncodeAttempts   = 8
	minDecodeFrames     = 4096
	framesPerSourceByte = 8
)

// namedEngine is implemented by engines that can be selected by name.
// Streams from one engine cannot be read by another.
type namedEngine interface {
	Name() string
}

// EngineName returns the name engine reports, or "" if it has none
func EngineName(engine types.Engine) string {
	if n, ok := engine.(namedEngine); ok {
		return n.Name()
	}
	return ""
}

// Options configure a Codec
type Options struct {
	Level       int     // speed level, 1-4
	Bitrate     float64 // hybrid bits per sample; 0 means lossless
	SampleRate  int     // rate recorded in the stream
	MaxChannels int     // wider layouts are flattened to one channel
}

// DefaultOptions returns lossless, default-level options
func DefaultOptions() Options {
	return Options{
		Level:       LevelDefault,
		SampleRate:  48000,
		MaxChannels: DefaultMaxChannels,
	}
}

var compressionModes = map[string]int{
	"default":   LevelDefault,
	"f":         LevelFast,
	"fast":      LevelFast,
	"h":         LevelHigh,
	"high":      LevelHigh,
	"hh":        LevelVeryHigh,
	"very_high": LevelVeryHigh,
}

// ParseCompressionMode maps a mode name ("default", "f", "h", "hh" or the
// long forms "fast", "high", "very_high") to a speed level.
func ParseCompressionMode(mode string) (int, error) {
	level, ok := compressionModes[strings.ToLower(mode)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown compression mode %q", ErrConfiguration, mode)
	}
	return level, nil
}

// CompressionMode returns the short mode name for a speed level
func CompressionMode(level int) string {
	switch level {
	case LevelFast:
		return "f"
	case LevelHigh:
		return "h"
	case LevelVeryHigh:
		return "hh"
	default:
		return "default"
	}
}

// Codec encodes and decodes whole chunks of samples, sizing buffers itself.
// It is safe for concurrent use: every call allocates its own buffers and
// engine sessions.
type Codec struct {
	engine types.Engine
	opts   Options
}

// NewCodec creates a Codec over engine. Options are validated up front so
// that a bad level fails here rather than on the first chunk.
func NewCodec(engine types.Engine, opts Options) (*Codec, error) {
	if engine == nil {
		return nil, errors.New("nil engine")
	}
	if opts.MaxChannels < 1 {
		return nil, fmt.Errorf("%w: max channels = %d", ErrConfiguration, opts.MaxChannels)
	}
	if _, err := BuildConfig(1, 0, opts.Level, opts.Bitrate); err != nil {
		return nil, err
	}

	return &Codec{engine: engine, opts: opts}, nil
}

// Options returns the codec options
func (c *Codec) Options() Options {
	return c.opts
}

// Engine returns the engine the codec runs on
func (c *Codec) Engine() types.Engine {
	return c.engine
}

// EncodeSamples encodes interleaved samples. Layouts wider than MaxChannels
// are encoded as a single flattened channel.
//
// The destination starts at the raw PCM size plus headroom and is doubled
// each time the encoder reports ErrCapacityOverflow.
func (c *Codec) EncodeSamples(samples []int16, channels int) ([]byte, error) {
	if channels > c.opts.MaxChannels {
		slog.Debug("Flattening channels", "channels", channels, "max_channels", c.opts.MaxChannels)
		channels = 1
	}

	params := Params{
		Level:      c.opts.Level,
		Bitrate:    c.opts.Bitrate,
		SampleRate: c.opts.SampleRate,
	}

	capacity := 2*len(samples) + 1024 + 16*channels
	for attempt := 1; ; attempt++ {
		dst := make([]byte, capacity)

		n, err := Encode(c.engine, samples, channels, params, dst)
		if err == nil {
			return dst[:n], nil
		}
		if !errors.Is(err, ErrCapacityOverflow) || attempt == maxEncodeAttempts {
			return nil, err
		}

		slog.Debug("Destination too small, retrying", "capacity", capacity, "attempt", attempt)
		capacity *= 2
	}
}

// DecodeSamples decodes a whole stream and returns its interleaved samples
// and channel count.
func (c *Codec) DecodeSamples(src []byte) ([]int16, int, error) {
	format, err := Probe(c.engine, src)
	if err != nil {
		return nil, 0, err
	}

	// The advertised length is only a hint; the first buffer never exceeds
	// what the source could plausibly hold.
	advertised := format.Frames
	frames := max(minDecodeFrames, framesPerSourceByte*int64(len(src)))
	if advertised >= 0 {
		frames = min(frames, advertised)
	}
	channels := int64(max(format.Channels, 1))

	for {
		dst := make([]int16, frames*channels)

		n, got, err := Decode(c.engine, src, dst)
		if err != nil {
			return nil, got, err
		}
		if int64(n) < frames || (advertised >= 0 && int64(n) >= advertised) {
			return dst[:n*got], got, nil
		}

		frames *= 2
		if advertised >= 0 {
			frames = min(frames, advertised)
		}
	}
}

// Config returns the codec settings in serializable form
func (c *Codec) Config() map[string]any {
	var hybrid any
	if c.opts.Bitrate > 0 {
		hybrid = c.opts.Bitrate
	}

	return map[string]any{
		"id":               CodecID,
		"engine":           EngineName(c.engine),
		"compression_mode": CompressionMode(c.opts.Level),
		"hybrid_factor":    hybrid,
		"sample_rate":      c.opts.SampleRate,
		"max_channels":     c.opts.MaxChannels,
		"dtype":            "int16",
	}
}
