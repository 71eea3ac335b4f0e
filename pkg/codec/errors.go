// errors.go defines the error kinds reported by the encode and decode pipelines.

package codec

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per Kind. Match with errors.Is.
var (
	// ErrOpen indicates the engine could not open a session: a malformed or
	// truncated source, or a sink it could not bind to.
	ErrOpen = errors.New("wvmem: open failed")

	// ErrFormatMismatch indicates the source is not 16-bit audio.
	ErrFormatMismatch = errors.New("wvmem: unsupported sample format (must be 16-bit)")

	// ErrConfiguration indicates an invalid level or channel count, or an
	// engine that rejected the built configuration.
	ErrConfiguration = errors.New("wvmem: invalid configuration")

	// ErrPack indicates the engine failed while packing samples.
	ErrPack = errors.New("wvmem: encoding failed")

	// ErrUnpack indicates the engine failed while unpacking samples.
	ErrUnpack = errors.New("wvmem: decoding failed")

	// ErrCapacityOverflow indicates the destination buffer was too small for the encoded stream.
	// Retrying with a larger destination is the caller's decision.
	ErrCapacityOverflow = errors.New("wvmem: destination capacity exceeded")
)

// Kind categorizes the error
type Kind string

const (
	KindOpen             Kind = "open"
	KindFormatMismatch   Kind = "format_mismatch"
	KindConfiguration    Kind = "configuration"
	KindPack             Kind = "pack"
	KindUnpack           Kind = "unpack"
	KindCapacityOverflow Kind = "capacity_overflow"
)

var kindSentinels = map[Kind]error{
	KindOpen:             ErrOpen,
	KindFormatMismatch:   ErrFormatMismatch,
	KindConfiguration:    ErrConfiguration,
	KindPack:             ErrPack,
	KindUnpack:           ErrUnpack,
	KindCapacityOverflow: ErrCapacityOverflow,
}

// Error is returned by Encode and Decode for every fatal condition
type Error struct {
	Kind   Kind
	Op     string // "encode" or "decode"
	Detail string
	Err    error // engine or stream error, may be nil
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, kindSentinels[e.Kind])
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying engine error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's Kind
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(op string, kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// configError reports a BuildConfig failure under op. The detail keeps the
// reason but not the ErrConfiguration text, which Error adds back.
func configError(op string, err error) *Error {
	detail := strings.TrimPrefix(err.Error(), ErrConfiguration.Error()+": ")
	return newError(op, KindConfiguration, nil, "%s", detail)
}

// KindOf returns the Kind of err, or "" if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
