package lpcpack

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/icza/bitio"

	"github.com/drgolem/wvmem/pkg/types"
)

const payloadChunk = 64 << 10

// decoder is an input session. It reads the stream strictly forward, one
// block at a time, and never seeks.
type decoder struct {
	r     types.StreamReader
	first blockHeader

	pending *blockHeader // header read but block not yet decoded
	samples [][]int32    // decoded block, per channel
	frames  int
	next    int
	done    bool
	closed  bool

	hdrBuf  []byte
	payload []byte
}

func openDecoder(r types.StreamReader) (*decoder, error) {
	d := &decoder{
		r:      r,
		hdrBuf: make([]byte, headerSize),
	}

	hdr, err := d.readHeader()
	if err != nil {
		return nil, err
	}
	if hdr == nil {
		return nil, fmt.Errorf("%w: empty stream", ErrTruncated)
	}

	d.first = *hdr
	d.pending = hdr
	return d, nil
}

func (d *decoder) NumChannels() int {
	return int(d.first.Channels)
}

func (d *decoder) BytesPerSample() int {
	return int(d.first.BytesPerSample)
}

func (d *decoder) SampleRate() int {
	return int(d.first.SampleRate)
}

func (d *decoder) NumSamples() int64 {
	if d.first.TotalFrames < 0 {
		return unknownFrames
	}
	return d.first.TotalFrames
}

func (d *decoder) UnpackSamples(buf []int32, frames int) (int, error) {
	if d.closed {
		return 0, errors.New("lpcpack: session closed")
	}

	channels := int(d.first.Channels)
	if frames < 0 || len(buf) < frames*channels {
		return 0, fmt.Errorf("lpcpack: %d frames do not fit a %d-sample buffer", frames, len(buf))
	}

	produced := 0
	for produced < frames {
		if d.next == d.frames {
			more, err := d.nextBlock()
			if err != nil {
				return produced, err
			}
			if !more {
				break
			}
			continue
		}

		n := min(frames-produced, d.frames-d.next)
		out := buf[produced*channels : (produced+n)*channels]
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				out[i*channels+ch] = d.samples[ch][d.next+i]
			}
		}

		d.next += n
		produced += n
	}

	return produced, nil
}

func (d *decoder) Close() error {
	d.closed = true
	d.samples = nil
	d.payload = nil
	return nil
}

// readHeader reads the next block header. It returns nil, nil at a clean
// end of stream. One byte is read ahead and pushed back so that an
// exhausted stream is told apart from a truncated header.
func (d *decoder) readHeader() (*blockHeader, error) {
	peek := d.hdrBuf[:1]
	if d.r.ReadBytes(peek) == 0 {
		return nil, nil
	}
	d.r.PushBackByte(peek[0])

	if err := readFull(d.r, d.hdrBuf); err != nil {
		return nil, fmt.Errorf("block header at offset %d: %w", d.r.Position(), err)
	}

	var hdr blockHeader
	if err := hdr.unmarshal(d.hdrBuf); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// nextBlock reads and decodes the next block. It reports false at end of stream.
func (d *decoder) nextBlock() (bool, error) {
	if d.done {
		return false, nil
	}

	hdr := d.pending
	d.pending = nil
	if hdr == nil {
		var err error
		if hdr, err = d.readHeader(); err != nil {
			return false, err
		}
		if hdr == nil {
			d.done = true
			return false, nil
		}
		if !hdr.sameStream(&d.first) {
			return false, fmt.Errorf("%w: block %d changes format", ErrCorrupt, hdr.BlockIndex)
		}
	}

	payload, err := d.readPayload(int(hdr.PayloadLen))
	if err != nil {
		return false, fmt.Errorf("block %d payload: %w", hdr.BlockIndex, err)
	}

	if err := d.decodeBlock(hdr, payload); err != nil {
		return false, fmt.Errorf("block %d: %w", hdr.BlockIndex, err)
	}
	return true, nil
}

func (d *decoder) decodeBlock(hdr *blockHeader, payload []byte) error {
	frames := int(hdr.BlockFrames)
	channels := int(hdr.Channels)

	if len(d.samples) != channels {
		d.samples = make([][]int32, channels)
	}

	br := bitio.NewReader(bytes.NewReader(payload))
	lo, hi := sampleRange(int(hdr.BytesPerSample))
	maxShift := uint64(8*hdr.BytesPerSample - 1)

	for ch := 0; ch < channels; ch++ {
		if cap(d.samples[ch]) < frames {
			d.samples[ch] = make([]int32, frames)
		}
		s := d.samples[ch][:frames]
		if frames == 0 {
			d.samples[ch] = s
			continue
		}

		order, err := br.ReadBits(orderBits)
		if err != nil {
			return corrupt(err)
		}
		shift, err := br.ReadBits(shiftBits)
		if err != nil {
			return corrupt(err)
		}
		k, err := br.ReadBits(paramBits)
		if err != nil {
			return corrupt(err)
		}
		if order > maxOrder || shift > maxShift {
			return fmt.Errorf("%w: channel %d order %d shift %d", ErrCorrupt, ch, order, shift)
		}

		for i := range s {
			u, err := readRice(br, uint(k))
			if err != nil {
				return corrupt(err)
			}

			v := predict(s, i, min(int(order), i)) + unzigzag(u)<<shift
			if shift > 0 {
				v = clamp(v, lo, hi)
			}
			s[i] = int32(v)
		}
		d.samples[ch] = s
	}

	d.frames = frames
	d.next = 0
	return nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorrupt, err)
}

// readPayload reads n payload bytes into the reused buffer. The buffer
// grows by at most payloadChunk per read, never past what the stream holds.
func (d *decoder) readPayload(n int) ([]byte, error) {
	buf := d.payload[:0]
	for len(buf) < n {
		step := min(n-len(buf), payloadChunk)
		buf = slices.Grow(buf, step)
		got := d.r.ReadBytes(buf[len(buf) : len(buf)+step])
		buf = buf[:len(buf)+got]
		if got == 0 {
			d.payload = buf
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, len(buf), n)
		}
	}
	d.payload = buf
	return buf, nil
}

// readFull reads exactly len(p) bytes from r
func readFull(r types.StreamReader, p []byte) error {
	total := 0
	for total < len(p) {
		n := r.ReadBytes(p[total:])
		if n == 0 {
			return fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, total, len(p))
		}
		total += n
	}
	return nil
}
