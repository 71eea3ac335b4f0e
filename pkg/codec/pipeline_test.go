package codec

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/drgolem/wvmem/pkg/lpcpack"
	"github.com/drgolem/wvmem/pkg/types"
)

const guard = 0x5A

func makeSignal(frames, channels int, seed uint64) []int16 {
	rng := rand.New(rand.NewPCG(seed, 42))
	out := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := 100*math.Sin(2*math.Pi*100*float64(i)/30000) + rng.NormFloat64()*10
			out[i*channels+ch] = int16(v)
		}
	}
	return out
}

func mustEncode(t *testing.T, samples []int16, channels int, p Params) []byte {
	t.Helper()

	dst := make([]byte, 4*len(samples)+4096)
	n, err := Encode(lpcpack.New(), samples, channels, p, dst)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return dst[:n]
}

func filled(n int) []byte {
	return bytes.Repeat([]byte{guard}, n)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	engine := lpcpack.New()

	for level := LevelFast; level <= LevelVeryHigh; level++ {
		for _, channels := range []int{1, 2, 6} {
			for _, frames := range []int{1, 255, 256, 257, 5000} {
				samples := makeSignal(frames, channels, uint64(level*frames))
				p := Params{Level: level}

				stream := mustEncode(t, samples, channels, p)

				dst := make([]int16, len(samples))
				gotFrames, gotChannels, err := Decode(engine, stream, dst)
				if err != nil {
					t.Fatalf("level %d, %dch, %d frames: Decode failed: %v", level, channels, frames, err)
				}
				if gotFrames != frames {
					t.Errorf("level %d, %dch: frames got %d, want %d", level, channels, gotFrames, frames)
				}
				if gotChannels != channels {
					t.Errorf("level %d, %dch: channels got %d, want %d", level, channels, gotChannels, channels)
				}
				for i := range samples {
					if dst[i] != samples[i] {
						t.Fatalf("level %d, %dch, %d frames: sample %d got %d, want %d",
							level, channels, frames, i, dst[i], samples[i])
					}
				}
			}
		}
	}
}

func TestEncodeDecodeBytes(t *testing.T) {
	samples := makeSignal(3000, 2, 1)
	pcm := SamplesToBytes(samples)

	dst := make([]byte, len(pcm)+4096)
	n, err := EncodeBytes(lpcpack.New(), pcm, 2, DefaultParams(), dst)
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}

	out := make([]byte, len(pcm))
	frames, channels, err := DecodeBytes(lpcpack.New(), dst[:n], out)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if frames != 3000 || channels != 2 {
		t.Errorf("DecodeBytes: got %d frames, %d channels; want 3000, 2", frames, channels)
	}
	if !bytes.Equal(out, pcm) {
		t.Error("decoded PCM differs from input")
	}
}

func TestDecodeCapacityClamp(t *testing.T) {
	const channels = 2
	samples := makeSignal(1000, channels, 2)
	stream := mustEncode(t, samples, channels, DefaultParams())

	for _, k := range []int{0, 1, 255, 256, 300, 999} {
		backing := make([]int16, 1000*channels)
		for i := range backing {
			backing[i] = guard
		}

		frames, _, err := Decode(lpcpack.New(), stream, backing[:k*channels])
		if err != nil {
			t.Fatalf("K=%d: Decode failed: %v", k, err)
		}
		if frames != k {
			t.Errorf("K=%d: frames got %d", k, frames)
		}
		for i := 0; i < k*channels; i++ {
			if backing[i] != samples[i] {
				t.Fatalf("K=%d: sample %d got %d, want %d", k, i, backing[i], samples[i])
			}
		}
		for i := k * channels; i < len(backing); i++ {
			if backing[i] != guard {
				t.Fatalf("K=%d: wrote past capacity at sample %d", k, i)
			}
		}
	}
}

func TestDecodeBytesCapacityClamp(t *testing.T) {
	samples := makeSignal(500, 2, 3)
	stream := mustEncode(t, samples, 2, DefaultParams())

	// room for 100 frames plus 3 stray bytes
	backing := filled(2000)
	capacity := 100*4 + 3

	frames, _, err := DecodeBytes(lpcpack.New(), stream, backing[:capacity])
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if frames != 100 {
		t.Errorf("frames: got %d, want 100", frames)
	}
	if !bytes.Equal(backing[:400], SamplesToBytes(samples[:200])) {
		t.Error("decoded prefix differs from input")
	}
	for i := 400; i < len(backing); i++ {
		if backing[i] != guard {
			t.Fatalf("wrote past decoded frames at byte %d", i)
		}
	}
}

func TestEncodeOverflow(t *testing.T) {
	samples := makeSignal(4000, 2, 4)
	trueSize := len(mustEncode(t, samples, 2, DefaultParams()))

	for _, capacity := range []int{0, 10, trueSize / 2, trueSize - 1} {
		backing := filled(trueSize + 256)

		n, err := Encode(lpcpack.New(), samples, 2, DefaultParams(), backing[:capacity])
		if !errors.Is(err, ErrCapacityOverflow) {
			t.Fatalf("capacity %d: got %v, want ErrCapacityOverflow", capacity, err)
		}
		if KindOf(err) != KindCapacityOverflow {
			t.Errorf("capacity %d: kind got %q", capacity, KindOf(err))
		}
		if n != 0 {
			t.Errorf("capacity %d: byte count got %d, want 0", capacity, n)
		}
		for i := capacity; i < len(backing); i++ {
			if backing[i] != guard {
				t.Fatalf("capacity %d: wrote past capacity at byte %d", capacity, i)
			}
		}
	}

	// exact fit succeeds
	dst := make([]byte, trueSize)
	if n, err := Encode(lpcpack.New(), samples, 2, DefaultParams(), dst); err != nil || n != trueSize {
		t.Errorf("exact capacity: got n=%d err=%v, want n=%d", n, err, trueSize)
	}
}

func TestEncodeInvalidLevel(t *testing.T) {
	samples := makeSignal(100, 1, 5)

	for _, level := range []int{-1, 0, 5, 42} {
		dst := filled(4096)

		_, err := Encode(lpcpack.New(), samples, 1, Params{Level: level}, dst)
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("level %d: got %v, want ErrConfiguration", level, err)
		}
		if !bytes.Equal(dst, filled(4096)) {
			t.Errorf("level %d: destination modified", level)
		}
	}
}

func TestEncodeInvalidLevelWithBitrate(t *testing.T) {
	_, err := Encode(lpcpack.New(), makeSignal(10, 1, 1), 1, Params{Level: 9, Bitrate: 3}, make([]byte, 1024))
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}

func TestEncodeBadShape(t *testing.T) {
	tests := []struct {
		name     string
		samples  int
		channels int
	}{
		{"zero channels", 10, 0},
		{"partial frame", 7, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(lpcpack.New(), make([]int16, tt.samples), tt.channels, DefaultParams(), make([]byte, 1024))
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("got %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	dst := make([]byte, 1024)
	n, err := Encode(lpcpack.New(), nil, 2, DefaultParams(), dst)
	if err != nil {
		t.Fatalf("Encode of zero frames failed: %v", err)
	}
	if n == 0 {
		t.Fatal("Encode of zero frames produced no output")
	}

	frames, channels, err := Decode(lpcpack.New(), dst[:n], make([]int16, 16))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frames != 0 {
		t.Errorf("frames: got %d, want 0", frames)
	}
	if channels != 2 {
		t.Errorf("channels: got %d, want 2", channels)
	}
}

func TestHybridRoundTrip(t *testing.T) {
	samples := makeSignal(8000, 2, 6)
	lossless := mustEncode(t, samples, 2, DefaultParams())
	lossy := mustEncode(t, samples, 2, Params{Level: LevelDefault, Bitrate: 2.5})

	if len(lossy) >= len(lossless) {
		t.Errorf("hybrid size %d not below lossless size %d", len(lossy), len(lossless))
	}

	dst := make([]int16, len(samples))
	frames, _, err := Decode(lpcpack.New(), lossy, dst)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frames != 8000 {
		t.Errorf("frames: got %d, want 8000", frames)
	}
}

func TestDecodeOpenFailure(t *testing.T) {
	_, _, err := Decode(lpcpack.New(), []byte("definitely not an encoded stream of any kind"), make([]int16, 64))
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("got %v, want ErrOpen", err)
	}
	if !errors.Is(err, lpcpack.ErrBadMagic) {
		t.Errorf("engine diagnostic lost: %v", err)
	}
}

func TestDecodeFormatMismatch(t *testing.T) {
	engine := &fakeEngine{channels: 2, bytesPerSample: 3, available: 100}
	dst := make([]int16, 200)
	for i := range dst {
		dst[i] = guard
	}

	frames, _, err := Decode(engine, []byte{1, 2, 3}, dst)
	if !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("got %v, want ErrFormatMismatch", err)
	}
	if frames != 0 {
		t.Errorf("frames: got %d, want 0", frames)
	}
	if len(engine.in.requests) != 0 {
		t.Errorf("UnpackSamples called %d times", len(engine.in.requests))
	}
	if engine.in.closed != 1 {
		t.Errorf("session closed %d times, want 1", engine.in.closed)
	}
	for i, v := range dst {
		if v != guard {
			t.Fatalf("destination modified at %d", i)
		}
	}
}

func TestDecodeBatchRequests(t *testing.T) {
	engine := &fakeEngine{channels: 3, bytesPerSample: 2, available: 1000}

	frames, channels, err := Decode(engine, nil, make([]int16, 600*3+2))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frames != 600 || channels != 3 {
		t.Errorf("got %d frames, %d channels; want 600, 3", frames, channels)
	}

	want := []int{256, 256, 88}
	if len(engine.in.requests) != len(want) {
		t.Fatalf("requests: got %v, want %v", engine.in.requests, want)
	}
	for i := range want {
		if engine.in.requests[i] != want[i] {
			t.Errorf("request %d: got %d, want %d", i, engine.in.requests[i], want[i])
		}
	}
}

func TestDecodeStopsAtEndOfSource(t *testing.T) {
	engine := &fakeEngine{channels: 1, bytesPerSample: 2, available: 300}

	frames, _, err := Decode(engine, nil, make([]int16, 10000))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if frames != 300 {
		t.Errorf("frames: got %d, want 300", frames)
	}
	// two reads return data, the third returns nothing and ends the loop
	if len(engine.in.requests) != 3 {
		t.Errorf("requests: got %v", engine.in.requests)
	}
}

func TestDecodeUnpackFailure(t *testing.T) {
	engine := &fakeEngine{channels: 1, bytesPerSample: 2, available: 300, unpackErr: errFake}

	_, _, err := Decode(engine, nil, make([]int16, 1000))
	if !errors.Is(err, ErrUnpack) || !errors.Is(err, errFake) {
		t.Errorf("got %v, want ErrUnpack wrapping engine error", err)
	}
	if engine.in.closed != 1 {
		t.Errorf("session closed %d times, want 1", engine.in.closed)
	}
}

func TestEncodeBatches(t *testing.T) {
	engine := &fakeEngine{}

	n, err := Encode(engine, make([]int16, 600*2), 2, Params{Level: LevelHigh}, make([]byte, 16))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if n != 0 {
		t.Errorf("bytes: got %d, want 0", n)
	}

	out := engine.out
	want := []int{256, 256, 88}
	if len(out.packs) != len(want) {
		t.Fatalf("packs: got %v, want %v", out.packs, want)
	}
	for i := range want {
		if out.packs[i] != want[i] {
			t.Errorf("pack %d: got %d, want %d", i, out.packs[i], want[i])
		}
	}
	if !out.flushed {
		t.Error("session not flushed")
	}
	if out.closed != 1 {
		t.Errorf("session closed %d times, want 1", out.closed)
	}
	if out.totalFrames != 600 {
		t.Errorf("total frames: got %d, want 600", out.totalFrames)
	}
	if out.cfg.BlockSamples != 600 || !out.cfg.Flags.Has(types.ConfigHigh|types.ConfigPairUndefChans) {
		t.Errorf("unexpected config: %+v", out.cfg)
	}
}

func TestEncodeEngineFailures(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
		want   error
		opened bool
	}{
		{"open", &fakeEngine{openErr: errFake}, ErrOpen, false},
		{"set configuration", &fakeEngine{setConfigErr: errFake}, ErrConfiguration, true},
		{"pack init", &fakeEngine{initErr: errFake}, ErrPack, true},
		{"pack", &fakeEngine{packErr: errFake, packFailAt: 2}, ErrPack, true},
		{"flush", &fakeEngine{flushErr: errFake}, ErrPack, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.engine, make([]int16, 1000), 1, DefaultParams(), make([]byte, 64))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if !errors.Is(err, errFake) {
				t.Errorf("engine error not wrapped: %v", err)
			}
			if tt.opened && tt.engine.out.closed != 1 {
				t.Errorf("session closed %d times, want 1", tt.engine.out.closed)
			}
		})
	}
}

func TestEncodePackFailureStopsLoop(t *testing.T) {
	engine := &fakeEngine{packErr: errFake, packFailAt: 2}

	_, err := Encode(engine, make([]int16, 5000), 1, DefaultParams(), make([]byte, 64))
	if !errors.Is(err, ErrPack) {
		t.Fatalf("got %v, want ErrPack", err)
	}
	if len(engine.out.packs) != 2 {
		t.Errorf("pack calls: got %d, want 2", len(engine.out.packs))
	}
	if engine.out.flushed {
		t.Error("session flushed after pack failure")
	}
}

func TestEncodeOverflowReportedOverPackFailure(t *testing.T) {
	// engine writes 40 bytes per pack and fails once the sink refuses it
	engine := &fakeEngine{blockPerPack: make([]byte, 40)}

	_, err := Encode(engine, make([]int16, 1000), 1, DefaultParams(), make([]byte, 100))
	if !errors.Is(err, ErrCapacityOverflow) {
		t.Fatalf("got %v, want ErrCapacityOverflow", err)
	}
	if errors.Is(err, ErrPack) {
		t.Error("overflow also reported as ErrPack")
	}
}

func TestErrorMessage(t *testing.T) {
	err := newError("decode", KindFormatMismatch, nil, "bytes/sample = %d", 3)
	want := "decode: wvmem: unsupported sample format (must be 16-bit): bytes/sample = 3"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
	if KindOf(errFake) != "" {
		t.Error("KindOf of foreign error should be empty")
	}
}

func TestEncodeConfigurationMessage(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want string
	}{
		{"level", Params{Level: 5}, "encode: wvmem: invalid configuration: level = 5, range = 1-4"},
		{"hybrid level", Params{Level: 0, Bitrate: 3}, "encode: wvmem: invalid configuration: level = 0, range = 1-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(lpcpack.New(), make([]int16, 10), 1, tt.p, make([]byte, 1024))
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("got %v, want ErrConfiguration", err)
			}
			if err.Error() != tt.want {
				t.Errorf("Error(): got %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func BenchmarkEncodeDecode(b *testing.B) {
	engine := lpcpack.New()
	samples := makeSignal(48000, 2, 1)
	enc := make([]byte, 4*len(samples))
	dec := make([]int16, len(samples))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n, err := Encode(engine, samples, 2, DefaultParams(), enc)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := Decode(engine, enc[:n], dec); err != nil {
			b.Fatal(err)
		}
	}
}
