package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/config"
)

var (
	verbose    bool
	engineName string
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wvmem",
	Short: "In-memory WavPack encoder and decoder",
	Long: `wvmem - encode and decode 16-bit PCM to and from WavPack-style compressed
streams entirely in memory.

Engines:
  - lpcpack: built-in pure Go engine (default)
  - wavpack: libwavpack, available when built with -tags wavpack

Commands:
  - encode: Compress WAV, FLAC or raw PCM
  - decode: Decompress to raw PCM or WAV
  - info:   Show the format of a compressed stream
  - play:   Decode in memory and play through PortAudio`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "", "Codec engine: lpcpack or wavpack (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Codec configuration file (YAML)")
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// loadConfig returns the configuration file if one was given, otherwise the
// defaults; --engine overrides the file.
func loadConfig() (*config.Codec, error) {
	conf := config.Default()
	if configPath != "" {
		var err error
		conf, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if engineName != "" {
		conf.Engine = engineName
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// newCodec builds the engine and codec described by conf
func newCodec(conf *config.Codec) (*codec.Codec, error) {
	engine, err := newEngine(conf.Engine)
	if err != nil {
		return nil, err
	}

	opts, err := conf.Options()
	if err != nil {
		return nil, err
	}

	c, err := codec.NewCodec(engine, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}
	return c, nil
}
