package wav

import (
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"
)

// Write writes interleaved little-endian 16-bit PCM as a WAV stream
func Write(w io.Writer, pcm []byte, channels, sampleRate int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}

	numSamples := len(pcm) / (2 * channels)
	wavWriter := wav.NewWriter(w, uint32(numSamples), uint16(channels), uint32(sampleRate), 16)

	if _, err := wavWriter.Write(pcm[:numSamples*2*channels]); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	return nil
}

// WriteFile writes interleaved 16-bit PCM to a new WAV file
func WriteFile(fileName string, pcm []byte, channels, sampleRate int) error {
	fOut, err := os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(fOut, pcm, channels, sampleRate); err != nil {
		fOut.Close()
		return err
	}
	return fOut.Close()
}
