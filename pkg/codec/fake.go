package codec

import "videopipe/pkg/pipeline"

// FakePacket is a test-only opaque packet payload: a presentation
// timestamp in the stream's native time base.
type FakePacket struct {
	PTS int64
}

// FakeSource describes a synthetic video stream for tests: FrameCount
// frames, evenly spaced PtsPerFrame ticks apart, with PTS expressed in
// TimeBase (the unit StreamTimeBase reports).
type FakeSource struct {
	TimeBase    pipeline.Rational
	Width       int
	Height      int
	FrameCount  int
	PtsPerFrame int64
}

// FakeDemuxer is an in-memory Demuxer used by unit tests so the
// demux/decode/present pipeline can be exercised without a real FFmpeg
// or media file.
type FakeDemuxer struct {
	src      FakeSource
	nextIdx  int
	seekedTo *int64
}

// NewFakeDemuxer creates a FakeDemuxer over src.
func NewFakeDemuxer(src FakeSource) *FakeDemuxer {
	return &FakeDemuxer{src: src}
}

func (f *FakeDemuxer) VideoStreamIndex() int { return 0 }
func (f *FakeDemuxer) StreamTimeBase() pipeline.Rational { return f.src.TimeBase }
func (f *FakeDemuxer) Dimensions() (int, int) { return f.src.Width, f.src.Height }

func (f *FakeDemuxer) ReadPacket() (RawPacket, error) {
	if f.nextIdx >= f.src.FrameCount {
		return RawPacket{}, ErrEOF
	}
	pts := int64(f.nextIdx) * f.src.PtsPerFrame
	f.nextIdx++
	return RawPacket{
		StreamIndex: 0,
		Opaque:      &pipeline.Packet{Opaque: &FakePacket{PTS: pts}},
	}, nil
}

// fakeAVTimeBase mirrors demux.avTimeBase's microsecond units: Demuxer.Run
// rescales a Presenter-issued seek target from milliseconds to this
// before calling Seek, matching the real FFmpeg backend's contract.
var fakeAVTimeBase = pipeline.Rational{Num: 1, Den: 1000000}

func (f *FakeDemuxer) Seek(ts int64) error {
	f.seekedTo = &ts
	// ts arrives in AV_TIME_BASE (microsecond) units; convert back to
	// the stream's own PTS units before locating the nearest frame.
	streamPTS := fakeAVTimeBase.Rescale(ts, f.src.TimeBase)
	idx := int(streamPTS / f.src.PtsPerFrame)
	if idx < 0 {
		idx = 0
	}
	if idx > f.src.FrameCount {
		idx = f.src.FrameCount
	}
	f.nextIdx = idx
	return nil
}

func (f *FakeDemuxer) ReleasePacket(p RawPacket) {}

func (f *FakeDemuxer) Close() error { return nil }

// FakeDecoder pairs with FakeDemuxer: one input packet yields exactly
// one output frame, carrying the packet's PTS through unchanged.
type FakeDecoder struct {
	pending  []int64
	eofSent  bool
	flushed  bool
}

// NewFakeDecoder creates a FakeDecoder.
func NewFakeDecoder() *FakeDecoder { return &FakeDecoder{} }

func (f *FakeDecoder) SendPacket(p RawPacket) error {
	pkt := p.Opaque.Opaque.(*FakePacket)
	f.pending = append(f.pending, pkt.PTS)
	f.eofSent = false
	return nil
}

func (f *FakeDecoder) SendEOF() error {
	f.eofSent = true
	return nil
}

func (f *FakeDecoder) ReleasePacket(p RawPacket) {}

func (f *FakeDecoder) ReceiveFrame() (*pipeline.Frame, int64, error) {
	if len(f.pending) == 0 {
		if f.eofSent {
			return nil, 0, ErrEOF
		}
		return nil, 0, ErrAgain
	}
	pts := f.pending[0]
	f.pending = f.pending[1:]
	frame := &pipeline.Frame{
		Width:   16,
		Height:  16,
		Format:  pipeline.PixelFormatRGB24,
		Planes:  [][]byte{make([]byte, 16*16*3)},
		Strides: []int{16 * 3},
	}
	return frame, pts, nil
}

func (f *FakeDecoder) Flush() {
	f.pending = nil
	f.eofSent = false
	f.flushed = true
}

func (f *FakeDecoder) Close() error { return nil }
