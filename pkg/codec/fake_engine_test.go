package codec

import (
	"errors"

	"github.com/drgolem/wvmem/pkg/types"
)

var errFake = errors.New("fake engine failure")

// fakeEngine scripts engine behavior for pipeline error paths
type fakeEngine struct {
	openErr        error
	channels       int
	bytesPerSample int
	available      int   // frames the input session will produce
	advertised     int64 // reported by NumSamples when nonzero
	unpackErr      error

	setConfigErr error
	initErr      error
	packErr      error
	packFailAt   int // pack call index that fails, 0 = never
	flushErr     error
	blockPerPack []byte // written to the sink on every pack

	in  *fakeInput
	out *fakeOutput
}

func (e *fakeEngine) OpenInput(r types.StreamReader, flags types.OpenFlag) (types.InputSession, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.in = &fakeInput{engine: e, remaining: e.available}
	return e.in, nil
}

func (e *fakeEngine) OpenOutput(w types.BlockWriter) (types.OutputSession, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.out = &fakeOutput{engine: e, w: w}
	return e.out, nil
}

type fakeInput struct {
	engine    *fakeEngine
	remaining int
	requests  []int
	closed    int
}

func (s *fakeInput) NumChannels() int    { return s.engine.channels }
func (s *fakeInput) BytesPerSample() int { return s.engine.bytesPerSample }
func (s *fakeInput) SampleRate() int     { return DefaultSampleRate }

func (s *fakeInput) NumSamples() int64 {
	if s.engine.advertised != 0 {
		return s.engine.advertised
	}
	return int64(s.engine.available)
}

func (s *fakeInput) UnpackSamples(buf []int32, frames int) (int, error) {
	s.requests = append(s.requests, frames)
	if s.engine.unpackErr != nil {
		return 0, s.engine.unpackErr
	}

	n := min(frames, s.remaining)
	for i := 0; i < n*s.engine.channels; i++ {
		buf[i] = int32(i)
	}
	s.remaining -= n
	return n, nil
}

func (s *fakeInput) Close() error {
	s.closed++
	return nil
}

type fakeOutput struct {
	engine      *fakeEngine
	w           types.BlockWriter
	cfg         types.EncodeConfig
	totalFrames int64
	packs       []int
	flushed     bool
	closed      int
}

func (s *fakeOutput) SetConfiguration(cfg types.EncodeConfig, totalFrames int64) error {
	s.cfg = cfg
	s.totalFrames = totalFrames
	return s.engine.setConfigErr
}

func (s *fakeOutput) PackInit() error {
	return s.engine.initErr
}

func (s *fakeOutput) PackSamples(buf []int32, frames int) error {
	s.packs = append(s.packs, frames)
	if s.engine.packFailAt == len(s.packs) {
		return s.engine.packErr
	}
	if s.engine.blockPerPack != nil {
		return s.w.WriteBlock(s.engine.blockPerPack)
	}
	return nil
}

func (s *fakeOutput) FlushSamples() error {
	s.flushed = true
	return s.engine.flushErr
}

func (s *fakeOutput) Close() error {
	s.closed++
	return nil
}
