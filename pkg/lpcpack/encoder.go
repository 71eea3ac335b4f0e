package lpcpack

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"

	"github.com/icza/bitio"

	"github.com/drgolem/wvmem/pkg/types"
)

// encoder is an output session. Samples are collected per channel until a
// block of cfg.BlockSamples frames is complete, then the block is coded and
// handed to the BlockWriter in one call.
type encoder struct {
	w           types.BlockWriter
	cfg         types.EncodeConfig
	totalFrames int64

	configured  bool
	initialized bool
	closed      bool

	pending    [][]int32 // per channel
	npending   int
	blockIndex uint64

	residuals []uint64
	rec       []int32
	payload   bytes.Buffer
	block     []byte
}

func (e *encoder) SetConfiguration(cfg types.EncodeConfig, totalFrames int64) error {
	if e.closed {
		return errors.New("lpcpack: session closed")
	}

	switch {
	case cfg.NumChannels < 1 || cfg.NumChannels > maxChannels:
		return fmt.Errorf("lpcpack: unsupported channel count %d", cfg.NumChannels)
	case cfg.BytesPerSample < 1 || cfg.BytesPerSample > 4:
		return fmt.Errorf("lpcpack: unsupported bytes/sample %d", cfg.BytesPerSample)
	case cfg.BitsPerSample < 1 || cfg.BitsPerSample > 8*cfg.BytesPerSample:
		return fmt.Errorf("lpcpack: bits/sample %d does not fit %d bytes", cfg.BitsPerSample, cfg.BytesPerSample)
	case cfg.BlockSamples < 1 || cfg.BlockSamples > maxBlockFrames:
		return fmt.Errorf("lpcpack: block samples %d out of range 1-%d", cfg.BlockSamples, maxBlockFrames)
	case cfg.SampleRate < 0:
		return fmt.Errorf("lpcpack: invalid sample rate %d", cfg.SampleRate)
	case cfg.Flags.Has(types.ConfigHybrid) && cfg.Bitrate <= 0:
		return fmt.Errorf("lpcpack: hybrid mode needs a positive bitrate, got %g", cfg.Bitrate)
	case totalFrames > maxTotalFrames:
		return fmt.Errorf("lpcpack: total frames %d exceeds %d", totalFrames, maxTotalFrames)
	}

	if totalFrames < 0 {
		totalFrames = unknownFrames
	}

	e.cfg = cfg
	e.totalFrames = totalFrames
	e.configured = true
	return nil
}

func (e *encoder) PackInit() error {
	if !e.configured {
		return errors.New("lpcpack: PackInit before SetConfiguration")
	}

	e.pending = make([][]int32, e.cfg.NumChannels)
	for ch := range e.pending {
		e.pending[ch] = make([]int32, e.cfg.BlockSamples)
	}
	e.residuals = make([]uint64, e.cfg.BlockSamples)
	e.rec = make([]int32, e.cfg.BlockSamples)
	e.initialized = true
	return nil
}

func (e *encoder) PackSamples(buf []int32, frames int) error {
	if !e.initialized || e.closed {
		return errors.New("lpcpack: PackSamples on uninitialized session")
	}

	channels := e.cfg.NumChannels
	if frames < 0 || len(buf) < frames*channels {
		return fmt.Errorf("lpcpack: %d frames do not fit a %d-sample buffer", frames, len(buf))
	}

	for i := 0; i < frames; i++ {
		frame := buf[i*channels : (i+1)*channels]
		for ch, v := range frame {
			e.pending[ch][e.npending] = v
		}
		e.npending++

		if e.npending == e.cfg.BlockSamples {
			if err := e.emitBlock(); err != nil {
				return err
			}
		}
	}

	return nil
}

// FlushSamples writes the partial block, or a header-only block if the
// stream has none yet so that an empty stream still carries its format.
func (e *encoder) FlushSamples() error {
	if !e.initialized || e.closed {
		return errors.New("lpcpack: FlushSamples on uninitialized session")
	}
	if e.npending > 0 || e.blockIndex == 0 {
		return e.emitBlock()
	}
	return nil
}

func (e *encoder) Close() error {
	e.closed = true
	e.pending = nil
	e.residuals = nil
	e.rec = nil
	e.block = nil
	return nil
}

func (e *encoder) emitBlock() error {
	frames := e.npending

	e.payload.Reset()
	if frames > 0 {
		bw := bitio.NewWriter(&e.payload)
		for ch := range e.pending {
			if err := e.encodeChannel(bw, e.pending[ch][:frames]); err != nil {
				return fmt.Errorf("lpcpack: block %d: %w", e.blockIndex, err)
			}
		}
		if err := bw.Close(); err != nil {
			return fmt.Errorf("lpcpack: block %d: %w", e.blockIndex, err)
		}
	}

	hdr := blockHeader{
		BytesPerSample: uint8(e.cfg.BytesPerSample),
		Channels:       uint16(e.cfg.NumChannels),
		Flags:          uint32(e.cfg.Flags),
		SampleRate:     uint32(e.cfg.SampleRate),
		TotalFrames:    e.totalFrames,
		BlockIndex:     e.blockIndex,
		BlockFrames:    uint32(frames),
		PayloadLen:     uint32(e.payload.Len()),
	}

	size := headerSize + e.payload.Len()
	if cap(e.block) < size {
		e.block = make([]byte, size)
	}
	e.block = e.block[:size]
	hdr.marshal(e.block)
	copy(e.block[headerSize:], e.payload.Bytes())

	if err := e.w.WriteBlock(e.block); err != nil {
		return fmt.Errorf("lpcpack: write block %d: %w", e.blockIndex, err)
	}

	e.blockIndex++
	e.npending = 0
	return nil
}

// encodeChannel picks predictor parameters for one channel of a block and
// writes them followed by the Rice-coded residuals.
func (e *encoder) encodeChannel(bw *bitio.Writer, x []int32) error {
	order, shift, k := e.chooseParams(x)
	u := e.quantize(x, order, shift)

	if err := bw.WriteBits(uint64(order), orderBits); err != nil {
		return err
	}
	if err := bw.WriteBits(uint64(shift), shiftBits); err != nil {
		return err
	}
	if err := bw.WriteBits(uint64(k), paramBits); err != nil {
		return err
	}

	for _, v := range u {
		if err := writeRice(bw, v, k); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) chooseParams(x []int32) (order int, shift uint, k uint) {
	flags := e.cfg.Flags

	if flags.Has(types.ConfigHybrid) {
		return e.chooseHybrid(x)
	}

	orders := []int{0, 1, 2}
	switch {
	case flags.Has(types.ConfigFast):
		orders = []int{1}
	case flags.Has(types.ConfigHigh | types.ConfigVeryHigh):
		orders = []int{0, 1, 2, 3, 4}
	case flags.Has(types.ConfigHigh):
		orders = []int{0, 1, 2, 3}
	}

	var best uint64
	for i, o := range orders {
		var sum uint64
		for _, v := range e.quantize(x, o, 0) {
			sum += v
		}
		if i == 0 || sum < best {
			best, order = sum, o
		}
	}

	u := e.quantize(x, order, 0)
	if flags.Has(types.ConfigHigh) {
		k, _ = bestParam(u)
	} else {
		k = estimateParam(u)
	}
	return order, 0, k
}

// chooseHybrid picks the smallest quantizer shift whose coded size meets the
// target bits per sample. Prediction is fixed at order 2.
func (e *encoder) chooseHybrid(x []int32) (order int, shift uint, k uint) {
	const hybridOrder = 2

	budget := uint64(float64(e.cfg.Bitrate) * float64(len(x)))
	maxShift := uint(8*e.cfg.BytesPerSample - 1)

	for shift = 0; shift <= maxShift; shift++ {
		u := e.quantize(x, hybridOrder, shift)
		k = estimateParam(u)

		var cost uint64
		for _, v := range u {
			cost += riceCost(v, k)
		}
		if cost <= budget {
			break
		}
	}

	return hybridOrder, min(shift, maxShift), k
}

// quantize returns the zigzag-coded residuals of x. With shift > 0 the
// residuals are quantized and prediction runs on the reconstructed signal,
// exactly as the decoder will see it.
func (e *encoder) quantize(x []int32, order int, shift uint) []uint64 {
	u := e.residuals[:len(x)]
	rec := e.rec[:len(x)]
	lo, hi := sampleRange(e.cfg.BytesPerSample)

	for i, v := range x {
		pred := predict(rec, i, min(order, i))
		r := int64(v) - pred

		if shift == 0 {
			rec[i] = v
			u[i] = zigzag(r)
			continue
		}

		half := int64(1) << (shift - 1)
		var q int64
		if r >= 0 {
			q = (r + half) >> shift
		} else {
			q = -((-r + half) >> shift)
		}

		rec[i] = int32(clamp(pred+q<<shift, lo, hi))
		u[i] = zigzag(q)
	}

	return u
}

// estimateParam derives the Rice parameter from the mean residual
func estimateParam(u []uint64) uint {
	if len(u) == 0 {
		return 0
	}

	var sum uint64
	for _, v := range u {
		sum += v
	}
	mean := sum / uint64(len(u))
	if mean == 0 {
		return 0
	}
	return min(uint(bits.Len64(mean)-1), maxRiceParam)
}

// bestParam searches every Rice parameter for the smallest coded size
func bestParam(u []uint64) (uint, uint64) {
	var best uint64
	var bestK uint
	for k := uint(0); k <= maxRiceParam; k++ {
		var cost uint64
		for _, v := range u {
			cost += riceCost(v, k)
		}
		if k == 0 || cost < best {
			best, bestK = cost, k
		}
	}
	return bestK, best
}
