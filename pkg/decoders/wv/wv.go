// Package wv reads compressed streams (.wv, .lpk) through a codec engine.
// The whole file is decoded in memory on Open; DecodeSamples then serves
// PCM from that buffer.
package wv

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/types"
)

// Decoder implements types.AudioDecoder over an in-memory decode.
type Decoder struct {
	engine   types.Engine
	samples  []int16
	pos      int // next sample (not frame) to serve
	rate     int
	channels int
}

// NewDecoder creates a decoder that uses engine
func NewDecoder(engine types.Engine) *Decoder {
	return &Decoder{engine: engine}
}

// Open reads fileName and decodes it fully
func (d *Decoder) Open(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return d.OpenBytes(data)
}

// OpenBytes decodes an encoded stream held in memory
func (d *Decoder) OpenBytes(data []byte) error {
	c, err := codec.NewCodec(d.engine, codec.DefaultOptions())
	if err != nil {
		return err
	}

	format, err := codec.Probe(d.engine, data)
	if err != nil {
		return fmt.Errorf("failed to probe stream: %w", err)
	}

	samples, channels, err := c.DecodeSamples(data)
	if err != nil {
		return fmt.Errorf("failed to decode stream: %w", err)
	}

	d.samples = samples
	d.pos = 0
	d.rate = format.SampleRate
	d.channels = channels

	return nil
}

// Close releases the decoded samples
func (d *Decoder) Close() error {
	d.samples = nil
	d.pos = 0
	return nil
}

// GetFormat returns the audio format (sample rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	if d.samples == nil {
		return 0, 0, 0
	}
	return d.rate, d.channels, 16
}

// Frames returns the total number of decoded frames
func (d *Decoder) Frames() int {
	if d.channels == 0 {
		return 0
	}
	return len(d.samples) / d.channels
}

// DecodeSamples copies up to samples frames into audio as little-endian
// 16-bit PCM. Returns io.EOF when nothing is left.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.samples == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	remaining := (len(d.samples) - d.pos) / d.channels
	if remaining == 0 {
		return 0, io.EOF
	}

	frames := min(samples, remaining, len(audio)/(2*d.channels))
	if frames <= 0 {
		return 0, nil
	}

	n := frames * d.channels
	for i, v := range d.samples[d.pos : d.pos+n] {
		binary.LittleEndian.PutUint16(audio[2*i:], uint16(v))
	}
	d.pos += n

	return frames, nil
}
