package memstream

// Writer presents a fixed-capacity caller buffer as a block sink for a codec
// engine (implements types.BlockWriter).
//
// Unlike an io.Writer it never performs partial writes: a block either fits
// entirely or the Writer enters the overflow state and refuses it, along
// with every block after it.
type Writer struct {
	buf      []byte
	used     int
	overflow bool
}

// NewWriter creates a Writer whose capacity is len(buf)
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBlock appends p after the bytes already written.
//
// Returns:
//   - ErrNoBuffer if the Writer has no backing buffer
//   - ErrOverflow if the Writer already overflowed, or if p does not fit
//     (the overflow state is set and nothing from p is copied)
func (w *Writer) WriteBlock(p []byte) error {
	if w.buf == nil {
		return ErrNoBuffer
	}
	if w.overflow {
		return ErrOverflow
	}

	if w.used+len(p) > len(w.buf) {
		w.overflow = true
		return ErrOverflow
	}

	copy(w.buf[w.used:], p)
	w.used += len(p)
	return nil
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return w.used
}

// Cap returns the destination capacity
func (w *Writer) Cap() int {
	return len(w.buf)
}

// Overflowed reports whether a block was ever refused for lack of space
func (w *Writer) Overflowed() bool {
	return w.overflow
}

// Bytes returns the written prefix of the destination buffer
func (w *Writer) Bytes() []byte {
	return w.buf[:w.used]
}
