package wv

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgolem/wvmem/pkg/codec"
	"github.com/drgolem/wvmem/pkg/lpcpack"
	"github.com/drgolem/wvmem/pkg/types"
)

func encodeFile(t *testing.T, samples []int16, channels, rate int) string {
	t.Helper()

	opts := codec.DefaultOptions()
	opts.SampleRate = rate
	c, err := codec.NewCodec(lpcpack.New(), opts)
	if err != nil {
		t.Fatal(err)
	}

	data, err := c.EncodeSamples(samples, channels)
	if err != nil {
		t.Fatalf("EncodeSamples failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.lpk")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecoder(t *testing.T) {
	var _ types.AudioDecoder = (*Decoder)(nil)

	samples := make([]int16, 2*700)
	for i := range samples {
		samples[i] = int16(i*11 - 5000)
	}
	path := encodeFile(t, samples, 2, 44100)

	d := NewDecoder(lpcpack.New())
	if err := d.Open(path); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer d.Close()

	rate, channels, bps := d.GetFormat()
	if rate != 44100 || channels != 2 || bps != 16 {
		t.Errorf("format: got %d/%d/%d, want 44100/2/16", rate, channels, bps)
	}
	if d.Frames() != 700 {
		t.Errorf("frames: got %d, want 700", d.Frames())
	}

	var got []int16
	buf := make([]byte, 4*256)
	for {
		n, err := d.DecodeSamples(256, buf)
		for i := 0; i < 2*n; i++ {
			got = append(got, int16(binary.LittleEndian.Uint16(buf[2*i:])))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("DecodeSamples failed: %v", err)
		}
	}

	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestOpenCorrupt(t *testing.T) {
	d := NewDecoder(lpcpack.New())
	err := d.OpenBytes([]byte("definitely not a compressed stream, just text"))
	if !errors.Is(err, codec.ErrOpen) {
		t.Errorf("got %v, want ErrOpen", err)
	}
}

func TestDecodeWithoutOpen(t *testing.T) {
	d := NewDecoder(lpcpack.New())
	if _, err := d.DecodeSamples(10, make([]byte, 40)); err == nil {
		t.Error("expected error before Open")
	}
}
