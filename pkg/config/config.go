// Package config loads codec settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drgolem/wvmem/pkg/codec"
)

const (
	EngineLpcpack = "lpcpack"
	EngineWavpack = "wavpack"
)

// Codec is the codec section of a configuration file.
//
//	engine: lpcpack
//	compression_mode: high
//	hybrid_bitrate: 0
//	sample_rate: 44100
//	max_channels: 1024
type Codec struct {
	Engine          string  `yaml:"engine"`
	CompressionMode string  `yaml:"compression_mode"` // default|fast|high|very_high, or f|h|hh
	HybridBitrate   float64 `yaml:"hybrid_bitrate"`   // bits per sample; 0 is lossless
	SampleRate      int     `yaml:"sample_rate"`
	MaxChannels     int     `yaml:"max_channels"`
}

// Default returns the lossless default-level configuration
func Default() *Codec {
	opts := codec.DefaultOptions()
	return &Codec{
		Engine:          EngineLpcpack,
		CompressionMode: codec.CompressionMode(opts.Level),
		SampleRate:      opts.SampleRate,
		MaxChannels:     opts.MaxChannels,
	}
}

// Parse decodes YAML on top of the defaults. Keys missing from data keep
// their default values.
func Parse(data []byte) (*Codec, error) {
	conf := Default()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Load reads and parses the configuration file at path
func Load(path string) (*Codec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	conf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Validate checks every field; the first problem found is returned
func (c *Codec) Validate() error {
	switch c.Engine {
	case EngineLpcpack, EngineWavpack:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}

	if _, err := codec.ParseCompressionMode(c.CompressionMode); err != nil {
		return err
	}
	if c.HybridBitrate < 0 {
		return fmt.Errorf("hybrid_bitrate must not be negative: %g", c.HybridBitrate)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive: %d", c.SampleRate)
	}
	if c.MaxChannels < 1 {
		return fmt.Errorf("max_channels must be at least 1: %d", c.MaxChannels)
	}

	return nil
}

// Options converts the configuration to codec options. The configuration
// must have passed Validate.
func (c *Codec) Options() (codec.Options, error) {
	level, err := codec.ParseCompressionMode(c.CompressionMode)
	if err != nil {
		return codec.Options{}, err
	}

	return codec.Options{
		Level:       level,
		Bitrate:     c.HybridBitrate,
		SampleRate:  c.SampleRate,
		MaxChannels: c.MaxChannels,
	}, nil
}

// Params returns the per-call encode parameters
func (c *Codec) Params() (codec.Params, error) {
	opts, err := c.Options()
	if err != nil {
		return codec.Params{}, err
	}

	return codec.Params{
		Level:      opts.Level,
		Bitrate:    opts.Bitrate,
		SampleRate: opts.SampleRate,
	}, nil
}

// Save writes the configuration as YAML
func (c *Codec) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
