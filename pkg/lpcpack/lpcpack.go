// Package lpcpack is a pure-Go codec engine for the in-memory pipelines in
// package codec.
//
// Streams are a sequence of self-describing blocks. Each channel of a block
// is coded with a fixed polynomial predictor (order 0-4) and Rice-coded
// residuals. In hybrid mode residuals are quantized by a per-block shift
// chosen to meet the target bits per sample; prediction runs on the
// reconstructed signal so encoder and decoder never drift.
//
// The engine reads its input strictly forward and never asks the stream to
// seek, so it works against non-seekable memory readers.
package lpcpack

import (
	"errors"

	"github.com/drgolem/wvmem/pkg/types"
)

// Engine implements types.Engine. It holds no state, so one Engine may
// serve any number of concurrent calls.
type Engine struct{}

// New creates an Engine
func New() *Engine {
	return &Engine{}
}

// Name identifies the engine in serialized codec configurations
func (e *Engine) Name() string { return "lpcpack" }

// OpenInput reads the first block header from r. The stream must start with
// a block; an empty or foreign stream fails here.
func (e *Engine) OpenInput(r types.StreamReader, flags types.OpenFlag) (types.InputSession, error) {
	if r == nil {
		return nil, errors.New("lpcpack: nil reader")
	}
	d, err := openDecoder(r)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// OpenOutput creates an encoder writing finished blocks to w
func (e *Engine) OpenOutput(w types.BlockWriter) (types.OutputSession, error) {
	if w == nil {
		return nil, errors.New("lpcpack: nil writer")
	}
	return &encoder{w: w}, nil
}
