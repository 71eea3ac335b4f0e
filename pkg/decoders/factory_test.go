package decoders

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/decoders/wav"
	"github.com/drgolem/wvmem/pkg/lpcpack"
)

func TestNewDecoderUnsupported(t *testing.T) {
	if _, err := NewDecoder("song.mp3", lpcpack.New()); err == nil {
		t.Error("expected error for .mp3")
	}
	if _, err := NewDecoder("song.wv", nil); err == nil {
		t.Error("expected error for .wv without engine")
	}
}

func TestReadAllWAV(t *testing.T) {
	pcm := make([]byte, 2*2*5000)
	for i := 0; i < len(pcm)/2; i++ {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(i%2000-1000)))
	}

	path := filepath.Join(t.TempDir(), "in.wav")
	if err := wav.WriteFile(path, pcm, 2, 48000); err != nil {
		t.Fatal(err)
	}

	decoder, err := NewDecoder(path, nil)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	defer decoder.Close()

	data, frames, err := ReadAll(decoder)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if frames != 5000 {
		t.Errorf("frames: got %d, want 5000", frames)
	}
	if string(data) != string(pcm) {
		t.Error("decoded PCM differs from input")
	}
}

func TestReadAllCompressed(t *testing.T) {
	engine := lpcpack.New()

	samples := make([]int16, 9000)
	for i := range samples {
		samples[i] = int16(i % 321)
	}
	c, err := codec.NewCodec(engine, codec.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	enc, err := c.EncodeSamples(samples, 1)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "in.lpk")
	if err := os.WriteFile(path, enc, 0o644); err != nil {
		t.Fatal(err)
	}

	decoder, err := NewDecoder(path, engine)
	if err != nil {
		t.Fatalf("NewDecoder failed: %v", err)
	}
	defer decoder.Close()

	data, frames, err := ReadAll(decoder)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if frames != len(samples) {
		t.Fatalf("frames: got %d, want %d", frames, len(samples))
	}
	for i, want := range samples {
		if got := int16(binary.LittleEndian.Uint16(data[2*i:])); got != want {
			t.Fatalf("sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestNewDecoderCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wv")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewDecoder(path, lpcpack.New())
	if !errors.Is(err, codec.ErrOpen) {
		t.Errorf("got %v, want ErrOpen", err)
	}
}
