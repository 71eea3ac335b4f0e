package decoders

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/drgolem/wvmem/pkg/decoders/flac"
	"github.com/drgolem/wvmem/pkg/decoders/wav"
	"github.com/drgolem/wvmem/pkg/decoders/wv"
	"github.com/drgolem/wvmem/pkg/types"
)

// NewDecoder creates and opens the appropriate decoder based on file extension.
// Supports .wav, .flac, .fla, and the compressed .wv and .lpk formats; the
// compressed formats are decoded with engine.
// Returns an opened decoder ready for use, or an error if the format is unsupported
// or the file cannot be opened.
func NewDecoder(fileName string, engine types.Engine) (types.AudioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var decoder types.AudioDecoder

	switch ext {
	case ".flac", ".fla":
		decoder = flac.NewDecoder()
	case ".wav":
		decoder = wav.NewDecoder()
	case ".wv", ".lpk":
		if engine == nil {
			return nil, fmt.Errorf("no engine for %s", ext)
		}
		decoder = wv.NewDecoder(engine)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .wav, .flac, .fla, .wv, .lpk)", ext)
	}

	if err := decoder.Open(fileName); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	return decoder, nil
}

// ReadAll reads all audio data from an open decoder into memory as
// interleaved little-endian 16-bit PCM. Returns the data and the frame count.
func ReadAll(decoder types.AudioDecoder) ([]byte, int, error) {
	const bufferSamples = 4096

	_, channels, bitsPerSample := decoder.GetFormat()
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
	if channels < 1 {
		return nil, 0, fmt.Errorf("invalid channel count: %d", channels)
	}

	frameBytes := 2 * channels
	buffer := make([]byte, bufferSamples*frameBytes)
	audioData := make([]byte, 0, len(buffer)*10)
	totalSamples := 0

	for {
		samplesRead, err := decoder.DecodeSamples(bufferSamples, buffer)
		if samplesRead > 0 {
			audioData = append(audioData, buffer[:samplesRead*frameBytes]...)
			totalSamples += samplesRead
		}

		if err != nil {
			if isEndOfStream(err) {
				break
			}
			return nil, 0, fmt.Errorf("decode error: %w", err)
		}

		if samplesRead == 0 {
			break
		}
	}

	return audioData, totalSamples, nil
}

// isEndOfStream reports the end markers decoders use. go-flac reports the
// end of a file with its own error text rather than io.EOF.
func isEndOfStream(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "EOF") || strings.Contains(msg, "done")
}
