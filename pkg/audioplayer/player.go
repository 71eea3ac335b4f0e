package audioplayer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"
)

// Player plays interleaved 16-bit PCM held in memory through a blocking
// PortAudio stream. The whole stream is decoded before playback starts,
// so a single writer goroutine is enough.
type Player struct {
	pcm             []byte
	stream          *portaudio.PaStream
	sampleRate      int
	channels        int
	framesPerBuffer int
	deviceIndex     int
	name            string
	stopChan        chan struct{}
	wg              sync.WaitGroup
	mu              sync.Mutex
	stopped         bool
	framesPlayed    atomic.Uint64
	startTime       time.Time
}

// Config holds player configuration
type Config struct {
	FramesPerBuffer int // Portaudio buffer size in frames
	DeviceIndex     int // Audio output device index
}

// DefaultConfig returns default player configuration
func DefaultConfig() Config {
	return Config{
		FramesPerBuffer: 512,
		DeviceIndex:     1,
	}
}

// Status is a snapshot of playback progress
type Status struct {
	Name         string
	SampleRate   int
	Channels     int
	PlayedFrames uint64
	TotalFrames  uint64
	ElapsedTime  time.Duration
}

// AudioTime returns the playback position in audio time
func (s Status) AudioTime() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.PlayedFrames) * time.Second / time.Duration(s.SampleRate)
}

// NewPlayer creates a new audio player
func NewPlayer(config Config) *Player {
	return &Player{
		framesPerBuffer: config.FramesPerBuffer,
		deviceIndex:     config.DeviceIndex,
		stopChan:        make(chan struct{}),
	}
}

// Load sets the PCM to play. pcm must hold whole frames of little-endian
// 16-bit samples.
func (p *Player) Load(name string, pcm []byte, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if len(pcm)%(2*channels) != 0 {
		return fmt.Errorf("PCM length %d is not a whole number of frames", len(pcm))
	}

	p.pcm = pcm
	p.name = name
	p.sampleRate = sampleRate
	p.channels = channels

	slog.Info("Audio loaded",
		"name", name,
		"sample_rate", sampleRate,
		"channels", channels,
		"frames", p.totalFrames())

	return nil
}

func (p *Player) totalFrames() uint64 {
	if p.channels == 0 {
		return 0
	}
	return uint64(len(p.pcm) / (2 * p.channels))
}

// Play starts audio playback
func (p *Player) Play() error {
	if p.pcm == nil {
		return fmt.Errorf("nothing loaded")
	}
	if p.framesPerBuffer <= 0 {
		return fmt.Errorf("invalid frames per buffer: %d", p.framesPerBuffer)
	}

	if err := p.initStream(); err != nil {
		return fmt.Errorf("failed to initialize audio stream: %w", err)
	}

	if err := p.stream.StartStream(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.startTime = time.Now()
	p.framesPlayed.Store(0)

	p.wg.Add(1)
	go p.writer()

	slog.Info("Playback started")
	return nil
}

// Wait blocks until playback is complete
func (p *Player) Wait() {
	p.wg.Wait()
}

// Stop stops playback and closes the stream
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()

	if p.stream != nil {
		if err := p.stream.StopStream(); err != nil {
			slog.Warn("Failed to stop stream", "error", err)
		}
		if err := p.stream.Close(); err != nil {
			slog.Warn("Failed to close stream", "error", err)
		}
	}

	slog.Info("Playback stopped")
	return nil
}

func (p *Player) initStream() error {
	outParams := portaudio.PaStreamParameters{
		DeviceIndex:  p.deviceIndex,
		ChannelCount: p.channels,
		SampleFormat: portaudio.SampleFmtInt16,
	}

	stream, err := portaudio.NewStream(outParams, float64(p.sampleRate))
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	if err := stream.Open(p.framesPerBuffer); err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return nil
}

// writer feeds the stream one buffer at a time; Write blocks until
// PortAudio has room.
func (p *Player) writer() {
	defer p.wg.Done()

	bytesPerFrame := 2 * p.channels
	chunk := p.framesPerBuffer * bytesPerFrame

	for off := 0; off < len(p.pcm); off += chunk {
		select {
		case <-p.stopChan:
			slog.Debug("Writer stopped")
			return
		default:
		}

		end := min(off+chunk, len(p.pcm))
		frames := (end - off) / bytesPerFrame

		if err := p.stream.Write(frames, p.pcm[off:end]); err != nil {
			slog.Error("Failed to write to audio stream", "error", err)
			return
		}
		p.framesPlayed.Add(uint64(frames))
	}

	slog.Debug("Writer finished", "frames", p.framesPlayed.Load())
}

// GetPlaybackStatus returns current playback status
func (p *Player) GetPlaybackStatus() Status {
	return Status{
		Name:         p.name,
		SampleRate:   p.sampleRate,
		Channels:     p.channels,
		PlayedFrames: p.framesPlayed.Load(),
		TotalFrames:  p.totalFrames(),
		ElapsedTime:  time.Since(p.startTime),
	}
}
