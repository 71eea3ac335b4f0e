package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/drgolem/wvmem/pkg/codec"
)

var infoCmd = &cobra.Command{
	Use:   "info <input_file>",
	Short: "Show the format of a compressed stream",
	Long: `Open a compressed stream and print its format without decoding samples.

Examples:
  wvmem info input.lpk
  wvmem info --engine wavpack input.wv`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	inFileName := args[0]

	conf, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	engine, err := newEngine(conf.Engine)
	if err != nil {
		slog.Error("Failed to create engine", "error", err)
		os.Exit(1)
	}

	src, err := readSource(inFileName)
	if err != nil {
		slog.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	format, err := codec.Probe(engine, src)
	if err != nil {
		slog.Error("Failed to open stream", "kind", codec.KindOf(err), "error", err)
		os.Exit(1)
	}

	fmt.Printf("File:             %s\n", inFileName)
	fmt.Printf("Engine:           %s\n", conf.Engine)
	fmt.Print(describe(format, len(src)))
}

// describe formats a stream summary for info output
func describe(format codec.Format, size int) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Channels:         %d\n", format.Channels)
	fmt.Fprintf(&b, "Bytes per sample: %d\n", format.BytesPerSample)
	fmt.Fprintf(&b, "Sample rate:      %d Hz\n", format.SampleRate)
	if format.Frames >= 0 {
		fmt.Fprintf(&b, "Frames:           %d\n", format.Frames)
		if format.SampleRate > 0 {
			fmt.Fprintf(&b, "Duration:         %.3f s\n", float64(format.Frames)/float64(format.SampleRate))
		}
		if raw := format.Frames * int64(format.Channels*format.BytesPerSample); raw > 0 {
			fmt.Fprintf(&b, "Ratio:            %.3f\n", float64(raw)/float64(size))
		}
	} else {
		fmt.Fprintf(&b, "Frames:           unknown\n")
	}
	fmt.Fprintf(&b, "Stream size:      %d bytes\n", size)

	return b.String()
}
