package codec

import (
	"fmt"

	"github.com/drgolem/wvmem/pkg/types"
)

const (
	// MaxBlockSamples is the ceiling on frames per engine block
	MaxBlockSamples = 120000

	// DefaultSampleRate is written into encoded streams when the caller does
	// not know the real rate. Nothing in encode or decode depends on it.
	DefaultSampleRate = 32000

	// Speed levels
	LevelFast     = 1
	LevelDefault  = 2
	LevelHigh     = 3
	LevelVeryHigh = 4
)

// BuildConfig maps a speed level and an optional target bitrate onto the
// engine configuration for a 16-bit stream of the given shape.
//
// Level 1 is fast, 2 default, 3 high, 4 very high; any other level is a
// configuration error. A positive bitrate (bits per sample) selects hybrid
// lossy mode and replaces the quality flags; zero or negative means lossless.
func BuildConfig(channels int, frames int64, level int, bitrate float64) (types.EncodeConfig, error) {
	if channels < 1 {
		return types.EncodeConfig{}, fmt.Errorf("%w: channels = %d", ErrConfiguration, channels)
	}

	cfg := types.EncodeConfig{
		NumChannels:    channels,
		BytesPerSample: 2,
		BitsPerSample:  16,
		SampleRate:     DefaultSampleRate,
		BlockSamples:   blockSamples(frames),
		Flags:          types.ConfigPairUndefChans,
	}

	switch level {
	case LevelFast:
		cfg.Flags |= types.ConfigFast
	case LevelDefault:
	case LevelHigh:
		cfg.Flags |= types.ConfigHigh
	case LevelVeryHigh:
		cfg.Flags |= types.ConfigHigh | types.ConfigVeryHigh
	default:
		return types.EncodeConfig{}, fmt.Errorf("%w: level = %d, range = %d-%d",
			ErrConfiguration, level, LevelFast, LevelVeryHigh)
	}

	// Hybrid replaces the level flags; pair-safety stays set in every mode.
	if bitrate > 0 {
		cfg.Flags = types.ConfigPairUndefChans | types.ConfigHybrid
		cfg.Bitrate = float32(bitrate)
	}

	return cfg, nil
}

// blockSamples halves frames (rounding up) until it fits MaxBlockSamples.
func blockSamples(frames int64) int {
	n := frames
	for n > MaxBlockSamples {
		n = (n + 1) >> 1
	}
	if n < 1 {
		n = 1
	}
	return int(n)
}
