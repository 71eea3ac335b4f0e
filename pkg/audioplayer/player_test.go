package audioplayer

import (
	"testing"
	"time"
)

func TestLoadValidates(t *testing.T) {
	tests := []struct {
		name     string
		pcm      []byte
		rate     int
		channels int
		ok       bool
	}{
		{"stereo", make([]byte, 400), 44100, 2, true},
		{"partial frame", make([]byte, 6), 44100, 2, false},
		{"no channels", make([]byte, 4), 44100, 0, false},
		{"no rate", make([]byte, 4), 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(DefaultConfig())
			err := p.Load("test", tt.pcm, tt.rate, tt.channels)
			if (err == nil) != tt.ok {
				t.Errorf("got error %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	p := NewPlayer(DefaultConfig())
	if err := p.Load("test", make([]byte, 4*1000), 1000, 2); err != nil {
		t.Fatal(err)
	}
	p.framesPlayed.Store(500)

	status := p.GetPlaybackStatus()
	if status.TotalFrames != 1000 {
		t.Errorf("total frames: got %d, want 1000", status.TotalFrames)
	}
	if got := status.AudioTime(); got != 500*time.Millisecond {
		t.Errorf("audio time: got %v, want 500ms", got)
	}
}

func TestPlayWithoutLoad(t *testing.T) {
	p := NewPlayer(DefaultConfig())
	if err := p.Play(); err == nil {
		t.Error("expected error when nothing is loaded")
	}
}

func TestPlayRejectsBufferSize(t *testing.T) {
	for _, frames := range []int{0, -256} {
		p := NewPlayer(Config{FramesPerBuffer: frames})
		if err := p.Load("test", make([]byte, 400), 44100, 2); err != nil {
			t.Fatal(err)
		}
		if err := p.Play(); err == nil {
			t.Errorf("frames per buffer %d: expected error", frames)
		}
	}
}

func TestStopIdempotent(t *testing.T) {
	p := NewPlayer(DefaultConfig())
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}
