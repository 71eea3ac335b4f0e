package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"

	"github.com/drgolem/wvmem/pkg/audioplayer"
	"github.com/drgolem/wvmem/pkg/decoders"
)

var playCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Decode in memory and play through PortAudio",
	Long: `Decode an audio file fully into memory and play it.
Supports compressed streams (.lpk, .wv) as well as WAV and FLAC.

Examples:
  # Play a compressed stream
  wvmem play music.lpk

  # Play on a specific device with smaller buffers
  wvmem play --device 0 --frames 256 music.lpk`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntP("device", "d", 1, "Audio output device index")
	playCmd.Flags().IntP("frames", "f", 512, "Audio frames per buffer")
}

func runPlay(cmd *cobra.Command, args []string) {
	fileName := args[0]
	deviceIdx, _ := cmd.Flags().GetInt("device")
	frames, _ := cmd.Flags().GetInt("frames")

	if frames <= 0 {
		slog.Error("Invalid frames per buffer", "frames", frames)
		os.Exit(1)
	}

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("File not found", "path", fileName)
		os.Exit(1)
	}

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

	decoder, err := decoders.NewDecoder(fileName, engine)
	if err != nil {
		slog.Error("Failed to open file", "error", err)
		os.Exit(1)
	}
	rate, channels, _ := decoder.GetFormat()
	pcm, _, err := decoders.ReadAll(decoder)
	decoder.Close()
	if err != nil {
		slog.Error("Failed to decode audio", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		slog.Error("Hint: Make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized",
		"version", portaudio.GetVersion())
	slog.Info("Audio configuration",
		"device_index", deviceIdx,
		"frames_per_buffer", frames)

	player := audioplayer.NewPlayer(audioplayer.Config{
		FramesPerBuffer: frames,
		DeviceIndex:     deviceIdx,
	})
	if err := player.Load(filepath.Base(fileName), pcm, rate, channels); err != nil {
		slog.Error("Failed to load audio", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := player.Play(); err != nil {
		slog.Error("Failed to start playback", "error", err)
		os.Exit(1)
	}

	statusDone := make(chan struct{})
	go monitorPlayback(player, statusDone)

	done := make(chan struct{})
	go func() {
		player.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Playback completed successfully")
	case sig := <-sigChan:
		slog.Info("Signal received, stopping playback", "signal", sig)
	}

	close(statusDone)
	if err := player.Stop(); err != nil {
		slog.Error("Failed to stop player", "error", err)
	}

	slog.Info("Exiting")
}

// monitorPlayback logs playback status every 2 seconds
func monitorPlayback(player *audioplayer.Player, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := player.GetPlaybackStatus()
			slog.Info("Playback status",
				"file", status.Name,
				"format", fmt.Sprintf("%dHz:16bit:%dch", status.SampleRate, status.Channels),
				"played", formatDuration(status.AudioTime()),
				"elapsed", formatDuration(status.ElapsedTime))
		case <-done:
			return
		}
	}
}

// formatDuration formats d as hh:mm:ss.msec
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, (ms%3600000)/60000, (ms%60000)/1000, ms%1000)
}
