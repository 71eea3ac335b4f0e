//go:build wavpack

package wavpack

/*
#cgo pkg-config: wavpack
#include <stdlib.h>
#include <wavpack/wavpack.h>
#include "bridge.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/cgo"
	"unsafe"

	"github.com/drgolem/wvmem/pkg/types"
)

// errorBufSize is the size libwavpack expects for open error messages
const errorBufSize = 80

var errClosed = errors.New("wavpack: session closed")

// Engine opens libwavpack sessions. It holds no state.
type Engine struct{}

// New returns the libwavpack engine
func New() *Engine {
	return &Engine{}
}

// Name identifies the engine in serialized codec configurations
func (e *Engine) Name() string { return "wavpack" }

// Version returns the linked library version string
func Version() string {
	return C.GoString(C.WavpackGetLibraryVersionString())
}

// callbackID is the C-allocated context pointer handed to the library.
// The handle inside it keeps the Go value reachable.
type callbackID struct {
	ptr    unsafe.Pointer
	handle cgo.Handle
}

func newCallbackID(v any) (callbackID, error) {
	h := cgo.NewHandle(v)
	ptr := C.wvmem_new_id(C.uintptr_t(h))
	if ptr == nil {
		h.Delete()
		return callbackID{}, errors.New("wavpack: out of memory")
	}
	return callbackID{ptr: ptr, handle: h}, nil
}

func (id *callbackID) free() {
	if id.ptr == nil {
		return
	}
	C.free(id.ptr)
	id.handle.Delete()
	id.ptr = nil
}

func contextError(wpc *C.WavpackContext) string {
	if wpc == nil {
		return ""
	}
	return C.GoString(C.WavpackGetErrorMessage(wpc))
}

// OpenInput opens a decode session reading from r
func (e *Engine) OpenInput(r types.StreamReader, flags types.OpenFlag) (types.InputSession, error) {
	id, err := newCallbackID(r)
	if err != nil {
		return nil, err
	}

	var cflags C.int
	if flags&types.OpenStreaming != 0 {
		cflags |= C.OPEN_STREAMING
	}

	var errBuf [errorBufSize]C.char
	wpc := C.wvmem_open_input(id.ptr, &errBuf[0], cflags)
	if wpc == nil {
		id.free()
		return nil, fmt.Errorf("wavpack: %s", C.GoString(&errBuf[0]))
	}

	in := &input{wpc: wpc, id: id}
	slog.Debug("wavpack input opened",
		"channels", in.NumChannels(),
		"bytes_per_sample", in.BytesPerSample(),
		"sample_rate", in.SampleRate(),
		"frames", in.NumSamples())

	return in, nil
}

// OpenOutput opens an encode session delivering blocks to w
func (e *Engine) OpenOutput(w types.BlockWriter) (types.OutputSession, error) {
	sink := &blockSink{w: w}
	id, err := newCallbackID(sink)
	if err != nil {
		return nil, err
	}

	wpc := C.wvmem_open_output(id.ptr)
	if wpc == nil {
		id.free()
		return nil, errors.New("wavpack: cannot open output context")
	}

	return &output{wpc: wpc, id: id, sink: sink}, nil
}

type input struct {
	wpc *C.WavpackContext
	id  callbackID
}

func (s *input) NumChannels() int {
	return int(C.WavpackGetNumChannels(s.wpc))
}

func (s *input) BytesPerSample() int {
	return int(C.WavpackGetBytesPerSample(s.wpc))
}

func (s *input) SampleRate() int {
	return int(C.WavpackGetSampleRate(s.wpc))
}

func (s *input) NumSamples() int64 {
	return int64(C.WavpackGetNumSamples64(s.wpc))
}

// UnpackSamples returns the library's frame count. libwavpack reports
// corruption by returning fewer frames, so no error is ever produced here.
func (s *input) UnpackSamples(buf []int32, frames int) (int, error) {
	if s.wpc == nil {
		return 0, errClosed
	}
	if frames <= 0 {
		return 0, nil
	}
	if need := frames * s.NumChannels(); len(buf) < need {
		return 0, fmt.Errorf("wavpack: buffer holds %d samples, need %d", len(buf), need)
	}

	n := C.WavpackUnpackSamples(s.wpc, (*C.int32_t)(unsafe.Pointer(&buf[0])), C.uint32_t(frames))
	return int(n), nil
}

func (s *input) Close() error {
	if s.wpc == nil {
		return nil
	}
	C.WavpackCloseFile(s.wpc)
	s.wpc = nil
	s.id.free()
	return nil
}

type output struct {
	wpc      *C.WavpackContext
	id       callbackID
	sink     *blockSink
	channels int
}

// cFlags maps the config flags onto the library's constants one by one
func cFlags(f types.ConfigFlag) C.int {
	var flags C.int
	if f.Has(types.ConfigHybrid) {
		flags |= C.CONFIG_HYBRID_FLAG
	}
	if f.Has(types.ConfigFast) {
		flags |= C.CONFIG_FAST_FLAG
	}
	if f.Has(types.ConfigHigh) {
		flags |= C.CONFIG_HIGH_FLAG
	}
	if f.Has(types.ConfigVeryHigh) {
		flags |= C.CONFIG_VERY_HIGH_FLAG
	}
	if f.Has(types.ConfigPairUndefChans) {
		flags |= C.CONFIG_PAIR_UNDEF_CHANS
	}
	return flags
}

func (s *output) SetConfiguration(cfg types.EncodeConfig, totalFrames int64) error {
	if s.wpc == nil {
		return errClosed
	}

	var wc C.WavpackConfig
	wc.bytes_per_sample = C.int(cfg.BytesPerSample)
	wc.bits_per_sample = C.int(cfg.BitsPerSample)
	wc.num_channels = C.int(cfg.NumChannels)
	wc.sample_rate = C.int32_t(cfg.SampleRate)
	wc.block_samples = C.int32_t(cfg.BlockSamples)
	wc.flags = cFlags(cfg.Flags)
	wc.bitrate = C.float(cfg.Bitrate)

	if C.WavpackSetConfiguration64(s.wpc, &wc, C.int64_t(totalFrames), nil) == 0 {
		return fmt.Errorf("wavpack: %s", contextError(s.wpc))
	}
	s.channels = cfg.NumChannels
	return nil
}

func (s *output) PackInit() error {
	if s.wpc == nil {
		return errClosed
	}
	if C.WavpackPackInit(s.wpc) == 0 {
		return s.failure()
	}
	return nil
}

func (s *output) PackSamples(buf []int32, frames int) error {
	if s.wpc == nil {
		return errClosed
	}
	if frames <= 0 {
		return nil
	}
	if need := frames * s.channels; len(buf) < need {
		return fmt.Errorf("wavpack: buffer holds %d samples, need %d", len(buf), need)
	}

	if C.WavpackPackSamples(s.wpc, (*C.int32_t)(unsafe.Pointer(&buf[0])), C.uint32_t(frames)) == 0 {
		return s.failure()
	}
	return nil
}

func (s *output) FlushSamples() error {
	if s.wpc == nil {
		return errClosed
	}
	if C.WavpackFlushSamples(s.wpc) == 0 {
		return s.failure()
	}
	return nil
}

// failure prefers the block writer's own error over the library message
func (s *output) failure() error {
	if s.sink.err != nil {
		return fmt.Errorf("wavpack: block output: %w", s.sink.err)
	}
	return fmt.Errorf("wavpack: %s", contextError(s.wpc))
}

func (s *output) Close() error {
	if s.wpc == nil {
		return nil
	}
	C.WavpackCloseFile(s.wpc)
	s.wpc = nil
	s.id.free()
	return nil
}
