package types

// AudioDecoder is the common interface for file decoders (WAV, FLAC, WavPack).
// The CLI uses it to pull 16-bit PCM out of whatever input it is given
// before handing the samples to the in-memory encoder.
type AudioDecoder interface {
	// Open opens an audio file for decoding
	Open(fileName string) error

	// Close closes the decoder and releases resources
	Close() error

	// GetFormat returns the audio format information
	// Returns: sample rate (Hz), channels (1=mono, 2=stereo), bits per sample (8/16/24/32)
	GetFormat() (rate, channels, bitsPerSample int)

	// DecodeSamples decodes audio samples into the provided buffer
	// Parameters:
	//   samples: number of samples to decode (not bytes!)
	//   audio: buffer to write decoded audio data
	// Returns: number of samples actually decoded, error if decoding failed
	// Note: Buffer must be large enough: samples * channels * (bitsPerSample/8) bytes
	DecodeSamples(samples int, audio []byte) (int, error)
}

// StreamReader is the read-side stream contract a codec engine drives while
// decoding. It mirrors a file handle but is free to refuse random access:
// an engine must consult CanSeek before calling either seek method.
type StreamReader interface {
	// ReadBytes copies up to len(p) bytes into p and returns how many were
	// delivered. A short count, including zero, means end of data.
	ReadBytes(p []byte) int

	// WriteBytes is part of the contract for read/write media; read-only
	// streams return 0.
	WriteBytes(p []byte) int

	// Position returns the current read offset from the start of the stream.
	Position() int64

	// SeekAbsolute moves to an absolute offset.
	SeekAbsolute(pos int64) error

	// SeekRelative moves relative to whence (io.SeekStart, io.SeekCurrent, io.SeekEnd).
	SeekRelative(delta int64, whence int) error

	// PushBackByte makes c the next byte returned by ReadBytes.
	// Only one byte of lookahead is ever held.
	PushBackByte(c byte) int

	// Length returns the total stream length, or 0 when unknown.
	Length() int64

	// CanSeek reports whether SeekAbsolute/SeekRelative can succeed.
	CanSeek() bool

	// Close releases the stream. It never frees memory owned by the caller.
	Close() error
}

// BlockWriter is the write-side contract. Engines call WriteBlock once per
// finished block; block boundaries are chosen by the engine.
type BlockWriter interface {
	WriteBlock(p []byte) error
}

// OpenFlag modifies how an input session is opened.
type OpenFlag uint32

const (
	// OpenStreaming tells the engine the input is a one-pass forward stream.
	OpenStreaming OpenFlag = 1 << iota
)

// ConfigFlag selects engine modes for an output session.
type ConfigFlag uint32

const (
	ConfigHybrid         ConfigFlag = 0x8        // lossy, rate-controlled mode
	ConfigFast           ConfigFlag = 0x200      // fastest, lowest compression
	ConfigHigh           ConfigFlag = 0x800      // high compression
	ConfigVeryHigh       ConfigFlag = 0x1000     // modifier for ConfigHigh
	ConfigPairUndefChans ConfigFlag = 0x20000000 // pair channels without a defined layout
)

// Has reports whether all bits in f2 are set.
func (f ConfigFlag) Has(f2 ConfigFlag) bool {
	return f&f2 == f2
}

// EncodeConfig is the configuration record applied to an output session.
type EncodeConfig struct {
	NumChannels    int
	BytesPerSample int
	BitsPerSample  int
	SampleRate     int
	BlockSamples   int        // frames per engine block
	Flags          ConfigFlag // mode selection
	Bitrate        float32    // target bits per sample, hybrid mode only
}

// Engine opens codec sessions against memory-backed streams.
// Each session is used by exactly one call and never shared.
type Engine interface {
	OpenInput(r StreamReader, flags OpenFlag) (InputSession, error)
	OpenOutput(w BlockWriter) (OutputSession, error)
}

// InputSession is one open decode context.
type InputSession interface {
	NumChannels() int
	BytesPerSample() int
	SampleRate() int

	// NumSamples returns the total frame count advertised by the stream,
	// or -1 if the stream does not know it.
	NumSamples() int64

	// UnpackSamples decodes up to frames frames into buf as interleaved wide
	// samples and returns the frame count produced. Zero means end of data.
	UnpackSamples(buf []int32, frames int) (int, error)

	Close() error
}

// OutputSession is one open encode context.
type OutputSession interface {
	SetConfiguration(cfg EncodeConfig, totalFrames int64) error
	PackInit() error

	// PackSamples consumes frames interleaved wide samples from buf.
	// Any count is accepted, including a final short batch.
	PackSamples(buf []int32, frames int) error

	// FlushSamples forces out any buffered final block.
	FlushSamples() error

	Close() error
}
