package memstream

import (
	"errors"
)

var (
	// ErrNotSeekable is returned by every seek on a Reader. The medium is a
	// one-pass forward stream and advertises that through CanSeek.
	ErrNotSeekable = errors.New("memstream: stream is not seekable")

	// ErrOverflow indicates a block did not fit into the Writer's remaining capacity.
	// Once returned, the Writer refuses all further blocks.
	ErrOverflow = errors.New("memstream: destination capacity exceeded")

	// ErrNoBuffer indicates the Writer has no backing buffer
	ErrNoBuffer = errors.New("memstream: no destination buffer")
)

// Reader presents a caller-owned byte slice as a read-only stream for a
// codec engine (implements types.StreamReader).
//
// The slice is borrowed, never copied or modified. A Reader is meant for
// exactly one decode call.
type Reader struct {
	data      []byte
	pos       int
	ungetc    byte
	hasUngetc bool
	totalRead int64
}

// NewReader creates a Reader over data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBytes copies up to len(p) bytes into p.
//
// A pushed back byte is served first, then bytes from the current position.
// The returned count is short (possibly 0) only when the data is exhausted.
func (r *Reader) ReadBytes(p []byte) int {
	n := 0

	if r.hasUngetc && len(p) > 0 {
		p[0] = r.ungetc
		r.hasUngetc = false
		n++
	}

	avail := len(r.data) - r.pos
	toCopy := min(len(p)-n, avail)
	if toCopy > 0 {
		copy(p[n:n+toCopy], r.data[r.pos:r.pos+toCopy])
		r.pos += toCopy
		r.totalRead += int64(toCopy)
		n += toCopy
	}

	return n
}

// WriteBytes always returns 0; the stream is read-only
func (r *Reader) WriteBytes(p []byte) int {
	return 0
}

// Position returns the read offset from the start of the data.
// A pending pushed back byte does not move it.
func (r *Reader) Position() int64 {
	return int64(r.pos)
}

// SeekAbsolute always fails with ErrNotSeekable
func (r *Reader) SeekAbsolute(pos int64) error {
	return ErrNotSeekable
}

// SeekRelative always fails with ErrNotSeekable
func (r *Reader) SeekRelative(delta int64, whence int) error {
	return ErrNotSeekable
}

// PushBackByte stores c as the next byte to read, replacing any byte that
// was pushed back and not yet consumed. It returns c.
func (r *Reader) PushBackByte(c byte) int {
	r.ungetc = c
	r.hasUngetc = true
	return int(c)
}

// Length returns 0: the length is not advertised for a non-seekable stream
func (r *Reader) Length() int64 {
	return 0
}

// CanSeek returns false
func (r *Reader) CanSeek() bool {
	return false
}

// Close is a no-op. The underlying slice stays owned by the caller.
func (r *Reader) Close() error {
	return nil
}

// TotalRead returns the number of bytes consumed from the underlying data.
// Re-reads of a pushed back byte are not counted twice.
func (r *Reader) TotalRead() int64 {
	return r.totalRead
}
