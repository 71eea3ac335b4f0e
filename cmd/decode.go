package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/decoders/wav"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <input_file>",
	Short: "Decompress to raw PCM or WAV",
	Long: `Decode a compressed stream in memory. Output is raw little-endian 16-bit
PCM, or a WAV file when --out ends in .wav.

Examples:
  # Decode to a WAV file
  wvmem decode input.lpk --out output.wav

  # Decode to raw PCM on stdout
  wvmem decode input.lpk > output.pcm

  # Decode from stdin with libwavpack
  cat input.wv | wvmem decode - --engine wavpack --out output.wav`,
	Args: cobra.ExactArgs(1),
	Run:  runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().String("out", "-", "Output file path (- for raw PCM on stdout)")
}

func runDecode(cmd *cobra.Command, args []string) {
	inFileName := args[0]
	outFileName, _ := cmd.Flags().GetString("out")

	conf, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	c, err := newCodec(conf)
	if err != nil {
		slog.Error("Failed to create codec", "error", err)
		os.Exit(1)
	}

	src, err := readSource(inFileName)
	if err != nil {
		slog.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	pcm, channels, sampleRate, err := decodeStream(c, src)
	if err != nil {
		slog.Error("Failed to decode", "kind", codec.KindOf(err), "error", err)
		os.Exit(1)
	}

	if isWAVPath(outFileName) {
		err = wav.WriteFile(outFileName, pcm, channels, sampleRate)
	} else {
		err = writeOutput(outFileName, pcm)
	}
	if err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}

	slog.Info("Decoding complete",
		"input_bytes", len(src),
		"output_bytes", len(pcm),
		"channels", channels,
		"sample_rate", sampleRate,
		"frames", len(pcm)/(2*max(channels, 1)))
}

// decodeStream decodes src fully and returns little-endian PCM with the
// stream's channel count and sample rate
func decodeStream(c *codec.Codec, src []byte) ([]byte, int, int, error) {
	format, err := codec.Probe(c.Engine(), src)
	if err != nil {
		return nil, 0, 0, err
	}

	samples, channels, err := c.DecodeSamples(src)
	if err != nil {
		return nil, 0, 0, err
	}

	return codec.SamplesToBytes(samples), channels, format.SampleRate, nil
}

func isWAVPath(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".wav")
}
