// Package codec defines the "codec backend" external collaborator from
// spec.md §6: container demuxing, packet reading, software decoding, and
// colorspace scaling, abstracted to the operations the Demuxer and
// Decoder drive independently.
//
// The real implementation (ffmpeg.go) is a cgo wrapper around the system
// FFmpeg libraries, generalizing the teacher's fused decode_frame() cgo
// call into the separate operations this interface names. A fake
// implementation (fake.go) backs unit tests.
package codec

import "videopipe/pkg/pipeline"

// ErrAgain is returned by ReceiveFrame when the decoder needs more input
// before it can produce a frame. It is a control signal, not a failure.
var ErrAgain = &sentinelError{"backend needs more input (EAGAIN)"}

// ErrEOF is returned by ReceiveFrame/ReadPacket when the backend has no
// further output. Also a control signal, not a failure.
var ErrEOF = &sentinelError{"backend end of stream"}

type sentinelError struct{ msg string }

func (e *sentinelError) Error() string { return e.msg }

// RawPacket is an opaque handle to one demuxed packet plus the stream
// index it belongs to, so the Demuxer can filter to the selected stream
// before wrapping it in a pipeline.PacketEnvelope.
type RawPacket struct {
	StreamIndex int
	Opaque      *pipeline.Packet
}

// Demuxer is the container-reading half of the codec backend. Owned
// exclusively by the Demuxer goroutine; not safe for concurrent use.
type Demuxer interface {
	// VideoStreamIndex returns the index of the selected "best video"
	// stream.
	VideoStreamIndex() int
	// StreamTimeBase returns the selected stream's native time base.
	StreamTimeBase() pipeline.Rational
	// Dimensions returns the selected stream's frame dimensions.
	Dimensions() (width, height int)
	// ReadPacket reads the next packet from the container, of any
	// stream. Returns ErrEOF when the container is exhausted.
	ReadPacket() (RawPacket, error)
	// Seek seeks to ts, expressed in the backend's internal reference
	// time base (e.g. AV_TIME_BASE); tolerates the nearest keyframe.
	Seek(ts int64) error
	// ReleasePacket releases a packet returned by ReadPacket that the
	// Demuxer itself decided not to forward (wrong stream index).
	ReleasePacket(p RawPacket)
	// Close releases the demux-side backend handle.
	Close() error
}

// Decoder is the decode+scale half of the codec backend. Owned
// exclusively by the Decoder goroutine; not safe for concurrent use.
type Decoder interface {
	// SendPacket submits packet to the decoder. The decoder takes
	// ownership of p and releases its native handle once submitted
	// (spec.md §3: "created by Demuxer, consumed by Decoder, destroyed
	// there"). May return ErrAgain if the decoder's internal buffer is
	// full (e.g. B-frame reordering); p is NOT consumed in that case and
	// the caller must retry it after a ReceiveFrame call drains output.
	SendPacket(p RawPacket) error
	// SendEOF signals end of packet input to the decoder.
	SendEOF() error
	// ReleasePacket releases a packet the Decoder pulled from the
	// PacketQueue but discarded without submitting it (stale epoch).
	ReleasePacket(p RawPacket)
	// ReceiveFrame attempts to pull one decoded+scaled frame. Returns
	// ErrAgain if more input is needed, ErrEOF if the decoder is fully
	// drained after SendEOF, or a decoded pipeline.Frame otherwise.
	ReceiveFrame() (*pipeline.Frame, int64, error)
	// Flush discards any buffered decoder output, used on seek.
	Flush()
	// Close releases the decode-side backend handle.
	Close() error
}

// OpenDemuxerFunc opens path and returns a Demuxer positioned at the start of
// the container, having already selected the best video stream.
// Returns pipeline.ErrSourceOpenFailure or pipeline.ErrNoVideoStream
// wrapped via pipeline.Fatal on failure.
type OpenDemuxerFunc func(path string) (Demuxer, error)

// OpenDecoderFunc opens a decode session for the stream parameters discovered
// by a Demuxer opened against the same path. Returns
// pipeline.ErrDecoderSetupFailure wrapped via pipeline.Fatal on failure.
type OpenDecoderFunc func(path string, videoStreamIndex int, outputFormat pipeline.PixelFormat) (Decoder, error)
