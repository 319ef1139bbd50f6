// Package pipeline holds the shared types, bounded queue, error taxonomy
// and top-level orchestration for the demux/decode/present core.
package pipeline

import "time"

// Rational is a (num, den) time base pair, used to convert between the
// container's native tick units and millisecond presentation times.
type Rational struct {
	Num int
	Den int
}

// Rescale converts pts (expressed in r) to the target time base, rounding
// toward zero. Implementers downstream must preserve round-toward-zero:
// it is load-bearing for perceived pacing (spec.md §9).
func (r Rational) Rescale(pts int64, target Rational) int64 {
	if r.Den == 0 || target.Num == 0 {
		return 0
	}
	// pts * r.Num/r.Den * target.Den/target.Num, truncated toward zero.
	num := pts * int64(r.Num) * int64(target.Den)
	den := int64(r.Den) * int64(target.Num)
	if den == 0 {
		return 0
	}
	return num / den // Go integer division on int64 already truncates toward zero.
}

// MillisecondBase is the (1, 1000) rational used for presentation timestamps.
var MillisecondBase = Rational{Num: 1, Den: 1000}

// PixelFormat is the decoder's output pixel format.
type PixelFormat int

const (
	// PixelFormatPlanar420 is planar 4:2:0 (3 planes: Y, U, V). Default.
	PixelFormatPlanar420 PixelFormat = iota
	// PixelFormatPacked422YUY2 is packed 4:2:2, YUYV byte order (1 plane).
	PixelFormatPacked422YUY2
	// PixelFormatPacked422UYVY is packed 4:2:2, UYVY byte order (1 plane).
	PixelFormatPacked422UYVY
	// PixelFormatRGB24 is packed RGB24 (1 plane), used as a display fallback.
	PixelFormatRGB24
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatPlanar420:
		return "yuv420p"
	case PixelFormatPacked422YUY2:
		return "yuy2"
	case PixelFormatPacked422UYVY:
		return "uyvy"
	case PixelFormatRGB24:
		return "rgb24"
	default:
		return "unknown"
	}
}

// Packet is an opaque codec-backend unit of undecoded data for one
// elementary-stream payload. A nil *Packet inside a PacketEnvelope
// represents the end-of-stream sentinel.
type Packet struct {
	// Opaque holds the codec backend's native packet handle/bytes.
	Opaque any
}

// PacketEnvelope is produced by the Demuxer and consumed by the Decoder.
// Packet == nil means this envelope is the EndOfStream sentinel.
type PacketEnvelope struct {
	Epoch  uint64
	Packet *Packet
}

// IsEOS reports whether this envelope is the end-of-stream sentinel.
func (e PacketEnvelope) IsEOS() bool { return e.Packet == nil }

// Frame is a decoded picture after colorspace/size conversion, in the
// configured output pixel format.
type Frame struct {
	Width, Height int
	Format        PixelFormat
	// Planes holds one []byte per plane (1 for packed formats, 3 for
	// planar 4:2:0). Strides holds the matching per-plane byte stride.
	Planes  [][]byte
	Strides []int
	// SourcePTS is the source stream timestamp carried through for
	// diagnostics; not used for pacing (frame_time_ms is authoritative).
	SourcePTS int64
}

// FrameEnvelope is produced by the Decoder and consumed by the Presenter.
// Frame == nil means this envelope is the EndOfStream sentinel.
type FrameEnvelope struct {
	Epoch         uint64
	FrameTimeMs   uint64
	DeltaPrevMs   uint64
	Frame         *Frame
}

// IsEOS reports whether this envelope is the end-of-stream sentinel.
func (e FrameEnvelope) IsEOS() bool { return e.Frame == nil }

// Config carries the controller-visible tunables from spec.md §6.
type Config struct {
	SeekStepMs         uint64
	PacketCap          int
	FrameCap           int
	OutputPixelFormat  PixelFormat
	WindowWidth        int
	WindowHeight       int
}

// DefaultConfig returns the recommended defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		SeekStepMs:        20000,
		PacketCap:         60,
		FrameCap:          3,
		OutputPixelFormat: PixelFormatPlanar420,
		WindowWidth:       1920,
		WindowHeight:      1080,
	}
}

// State is the controller-owned pipeline state from spec.md §3.
type State struct {
	Running             bool
	CurrentEpoch        uint64
	LastFrameTimeMs      uint64
	PresentationAnchor  time.Time
	Paused              bool
	Width, Height       uint32
	OutputPixelFormat   PixelFormat
}
