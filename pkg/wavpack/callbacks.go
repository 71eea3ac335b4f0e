//go:build wavpack

package wavpack

/*
#include <stdint.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/drgolem/wvmem/pkg/types"
)

// blockSink keeps the first error returned by the block writer so the
// session can report it instead of the library's generic failure.
type blockSink struct {
	w   types.BlockWriter
	err error
}

func streamOf(id C.uintptr_t) types.StreamReader {
	return cgo.Handle(id).Value().(types.StreamReader)
}

func bytesOf(data unsafe.Pointer, bcount C.int32_t) []byte {
	if data == nil || bcount <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), int(bcount))
}

//export goReadBytes
func goReadBytes(id C.uintptr_t, data unsafe.Pointer, bcount C.int32_t) C.int32_t {
	return C.int32_t(streamOf(id).ReadBytes(bytesOf(data, bcount)))
}

//export goWriteBytes
func goWriteBytes(id C.uintptr_t, data unsafe.Pointer, bcount C.int32_t) C.int32_t {
	return C.int32_t(streamOf(id).WriteBytes(bytesOf(data, bcount)))
}

//export goGetPos
func goGetPos(id C.uintptr_t) C.int64_t {
	return C.int64_t(streamOf(id).Position())
}

//export goSetPosAbs
func goSetPosAbs(id C.uintptr_t, pos C.int64_t) C.int {
	if err := streamOf(id).SeekAbsolute(int64(pos)); err != nil {
		return -1
	}
	return 0
}

//export goSetPosRel
func goSetPosRel(id C.uintptr_t, delta C.int64_t, mode C.int) C.int {
	if err := streamOf(id).SeekRelative(int64(delta), int(mode)); err != nil {
		return -1
	}
	return 0
}

//export goPushBackByte
func goPushBackByte(id C.uintptr_t, c C.int) C.int {
	return C.int(streamOf(id).PushBackByte(byte(c)))
}

//export goGetLength
func goGetLength(id C.uintptr_t) C.int64_t {
	return C.int64_t(streamOf(id).Length())
}

//export goCanSeek
func goCanSeek(id C.uintptr_t) C.int {
	if streamOf(id).CanSeek() {
		return 1
	}
	return 0
}

//export goCloseStream
func goCloseStream(id C.uintptr_t) C.int {
	if err := streamOf(id).Close(); err != nil {
		return -1
	}
	return 0
}

//export goWriteBlock
func goWriteBlock(id C.uintptr_t, data unsafe.Pointer, bcount C.int32_t) C.int {
	sink := cgo.Handle(id).Value().(*blockSink)
	if err := sink.w.WriteBlock(bytesOf(data, bcount)); err != nil {
		if sink.err == nil {
			sink.err = err
		}
		return 0
	}
	return 1
}
