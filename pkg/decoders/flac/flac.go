package flac

import (
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"
)

// outputBits is the sample width requested from libFLAC; the encoder only
// takes 16-bit input, so wider files are reduced by the library.
const outputBits = 16

// Decoder reads FLAC files through go-flac, always producing 16-bit PCM.
// Implements types.AudioDecoder interface.
type Decoder struct {
	decoder  *goflac.FlacDecoder
	rate     int
	channels int
}

// NewDecoder creates a new FLAC decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens a FLAC file for decoding
func (d *Decoder) Open(fileName string) error {
	decoder, err := goflac.NewFlacFrameDecoder(outputBits)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Open(fileName); err != nil {
		decoder.Delete()
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	rate, channels, _ := decoder.GetFormat()
	if channels < 1 {
		decoder.Close()
		decoder.Delete()
		return fmt.Errorf("invalid channel count in %s: %d", fileName, channels)
	}

	d.decoder = decoder
	d.rate = rate
	d.channels = channels

	return nil
}

// Close closes the decoder and releases resources
func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

// GetFormat returns the output format (rate, channels, bits per sample).
// Bits per sample is always 16 once a file is open.
func (d *Decoder) GetFormat() (int, int, int) {
	if d.decoder == nil {
		return 0, 0, 0
	}
	return d.rate, d.channels, outputBits
}

// DecodeSamples decodes up to samples frames of interleaved 16-bit PCM,
// clamped to what audio can hold.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	samples = min(samples, len(audio)/(2*d.channels))
	if samples <= 0 {
		return 0, nil
	}
	return d.decoder.DecodeSamples(samples, audio)
}
