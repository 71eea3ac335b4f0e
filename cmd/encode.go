package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	soxr "github.com/zaf/resample"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/decoders"
	"github.com/drgolem/wvmem/pkg/types"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <input_file>",
	Short: "Compress WAV, FLAC or raw PCM",
	Long: `Encode 16-bit audio into a compressed stream. The input is decoded and
compressed entirely in memory.

Examples:
  # Encode a WAV file with the default settings
  wvmem encode input.wav --out output.lpk

  # Highest compression, resampled to 44.1kHz
  wvmem encode input.flac --mode hh --resample 44100 --out output.lpk

  # Hybrid lossy mode at 3 bits per sample
  wvmem encode input.wav --bitrate 3 --out output.lpk

  # Raw stereo PCM from stdin to stdout
  cat audio.pcm | wvmem encode - --raw --channels 2 --rate 48000 > audio.lpk

Compression Modes:
  f, fast        Fastest
  default        Balanced
  h, high        Better compression
  hh, very_high  Best compression, slowest`,
	Args: cobra.ExactArgs(1),
	Run:  runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().String("out", "-", "Output file path (- for stdout)")
	encodeCmd.Flags().String("mode", "", "Compression mode (default from config)")
	encodeCmd.Flags().Float64("bitrate", -1, "Hybrid bits per sample, 0 for lossless (default from config)")
	encodeCmd.Flags().Int("resample", 0, "Resample to this rate in Hz before encoding")
	encodeCmd.Flags().Bool("raw", false, "Input is raw little-endian 16-bit PCM")
	encodeCmd.Flags().Int("channels", 2, "Channel count for raw input")
	encodeCmd.Flags().Int("rate", 48000, "Sample rate for raw input")
}

// pcmInput is decoded input audio: interleaved little-endian 16-bit PCM
type pcmInput struct {
	data       []byte
	sampleRate int
	channels   int
}

func (in pcmInput) frames() int {
	return len(in.data) / (2 * in.channels)
}

func runEncode(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	conf, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	outFileName, _ := cmd.Flags().GetString("out")
	mode, _ := cmd.Flags().GetString("mode")
	bitrate, _ := cmd.Flags().GetFloat64("bitrate")
	newSampleRate, _ := cmd.Flags().GetInt("resample")
	raw, _ := cmd.Flags().GetBool("raw")
	rawChannels, _ := cmd.Flags().GetInt("channels")
	rawRate, _ := cmd.Flags().GetInt("rate")

	if mode != "" {
		conf.CompressionMode = mode
	}
	if bitrate >= 0 {
		conf.HybridBitrate = bitrate
	}
	if newSampleRate < 0 || newSampleRate > 384000 {
		slog.Error("Invalid sample rate", "rate", newSampleRate, "valid_range", "1-384000")
		os.Exit(1)
	}

	engine, err := newEngine(conf.Engine)
	if err != nil {
		slog.Error("Failed to create engine", "error", err)
		os.Exit(1)
	}

	var in pcmInput
	if raw {
		in, err = readRawInput(inFileName, rawChannels, rawRate)
	} else {
		in, err = readInput(inFileName, engine)
	}
	if err != nil {
		slog.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	slog.Info("Input decoded",
		"input_file", inFileName,
		"sample_rate", in.sampleRate,
		"channels", in.channels,
		"frames", in.frames())

	if newSampleRate > 0 && newSampleRate != in.sampleRate {
		slog.Info("Resampling audio", "from_rate", in.sampleRate, "to_rate", newSampleRate)
		resampled, err := resampleAudio(in.data, in.sampleRate, newSampleRate, in.channels)
		if err != nil {
			slog.Error("Failed to resample audio", "error", err)
			os.Exit(1)
		}
		in.data = resampled
		in.sampleRate = newSampleRate
	}

	conf.SampleRate = in.sampleRate
	if err := conf.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	c, err := newCodec(conf)
	if err != nil {
		slog.Error("Failed to create codec", "error", err)
		os.Exit(1)
	}

	samples, err := codec.BytesToSamples(in.data)
	if err != nil {
		slog.Error("Invalid PCM input", "error", err)
		os.Exit(1)
	}

	encoded, err := c.EncodeSamples(samples, in.channels)
	if err != nil {
		slog.Error("Failed to encode", "kind", codec.KindOf(err), "error", err)
		os.Exit(1)
	}

	if err := writeOutput(outFileName, encoded); err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}

	ratio := 0.0
	if len(encoded) > 0 {
		ratio = float64(len(in.data)) / float64(len(encoded))
	}
	slog.Info("Encoding complete",
		"engine", conf.Engine,
		"mode", conf.CompressionMode,
		"input_bytes", len(in.data),
		"output_bytes", len(encoded),
		"ratio", fmt.Sprintf("%.3f", ratio))
}

// readInput decodes a WAV, FLAC or compressed file into memory
func readInput(fileName string, engine types.Engine) (pcmInput, error) {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return pcmInput{}, fmt.Errorf("input file not found: %s", fileName)
	}

	decoder, err := decoders.NewDecoder(fileName, engine)
	if err != nil {
		return pcmInput{}, err
	}
	defer decoder.Close()

	rate, channels, _ := decoder.GetFormat()
	data, _, err := decoders.ReadAll(decoder)
	if err != nil {
		return pcmInput{}, err
	}

	return pcmInput{data: data, sampleRate: rate, channels: channels}, nil
}

// readRawInput reads raw PCM from a file, or stdin when fileName is "-"
func readRawInput(fileName string, channels, sampleRate int) (pcmInput, error) {
	if channels < 1 {
		return pcmInput{}, fmt.Errorf("invalid channel count: %d", channels)
	}
	if sampleRate <= 0 {
		return pcmInput{}, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	data, err := readSource(fileName)
	if err != nil {
		return pcmInput{}, err
	}

	frameBytes := 2 * channels
	if rem := len(data) % frameBytes; rem != 0 {
		slog.Warn("Dropping partial trailing frame", "bytes", rem)
		data = data[:len(data)-rem]
	}

	return pcmInput{data: data, sampleRate: sampleRate, channels: channels}, nil
}

// readSource reads a whole file, or stdin when fileName is "-"
func readSource(fileName string) ([]byte, error) {
	if fileName == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout when fileName is "-"
func writeOutput(fileName string, data []byte) error {
	if fileName == "-" || fileName == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// resampleAudio resamples 16-bit audio using SoXR (high-quality resampler)
func resampleAudio(audioData []byte, fromRate, toRate, channels int) ([]byte, error) {
	if fromRate == toRate {
		return audioData, nil
	}

	var bufResampled bytes.Buffer
	bufWriter := bufio.NewWriter(&bufResampled)

	resampler, err := soxr.New(
		bufWriter,
		float64(fromRate),
		float64(toRate),
		channels,
		soxr.I16,
		soxr.HighQ,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	if _, err := resampler.Write(audioData); err != nil {
		resampler.Close()
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	if err := resampler.Close(); err != nil {
		return nil, fmt.Errorf("failed to close resampler: %w", err)
	}

	if err := bufWriter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush buffer: %w", err)
	}

	// keep whole frames only
	out := bufResampled.Bytes()
	return out[:len(out)-len(out)%(2*channels)], nil
}
