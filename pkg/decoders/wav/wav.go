package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"
)

// maxChannels is the widest layout go-wav can hold in a wav.Sample
const maxChannels = 2

// Decoder reads 16-bit PCM WAV files through go-wav.
// Implements types.AudioDecoder interface.
type Decoder struct {
	file     *os.File
	reader   *wav.Reader
	rate     int
	channels int
}

// NewDecoder creates a new WAV decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens a WAV file and checks that it holds 16-bit PCM
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open WAV file: %w", err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to read WAV format: %w", err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		file.Close()
		return fmt.Errorf("unsupported WAV format: %d (only PCM supported)", format.AudioFormat)
	}
	if format.BitsPerSample != 16 {
		file.Close()
		return fmt.Errorf("unsupported bits per sample: %d (only 16 supported)", format.BitsPerSample)
	}
	if format.NumChannels < 1 || format.NumChannels > maxChannels {
		file.Close()
		return fmt.Errorf("unsupported channel count: %d (1-%d supported)", format.NumChannels, maxChannels)
	}

	d.file = file
	d.reader = reader
	d.rate = int(format.SampleRate)
	d.channels = int(format.NumChannels)

	return nil
}

// Close closes the WAV file
func (d *Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.reader = nil
	return err
}

// GetFormat returns the audio format (sample rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	if d.reader == nil {
		return 0, 0, 0
	}
	return d.rate, d.channels, 16
}

// DecodeSamples decodes up to samples frames into audio as interleaved
// little-endian 16-bit PCM. The count is clamped to what audio can hold.
// Returns io.EOF once the data chunk is exhausted.
func (d *Decoder) DecodeSamples(samples int, audio []byte) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}

	frameBytes := 2 * d.channels
	samples = min(samples, len(audio)/frameBytes)
	if samples <= 0 {
		return 0, nil
	}

	frames, err := d.reader.ReadSamples(uint32(samples))
	for i, frame := range frames {
		out := audio[i*frameBytes:]
		for ch := 0; ch < d.channels; ch++ {
			binary.LittleEndian.PutUint16(out[2*ch:], uint16(int16(frame.Values[ch])))
		}
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			return len(frames), io.EOF
		}
		return len(frames), fmt.Errorf("failed to read WAV samples: %w", err)
	}
	return len(frames), nil
}
