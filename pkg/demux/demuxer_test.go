package demux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videopipe/pkg/codec"
	"videopipe/pkg/pipeline"
)

func newFakeSource() codec.FakeSource {
	return codec.FakeSource{
		TimeBase:    pipeline.Rational{Num: 1, Den: 1000},
		Width:       64,
		Height:      48,
		FrameCount:  5,
		PtsPerFrame: 40,
	}
}

func TestDemuxerTagsPacketsWithCurrentEpoch(t *testing.T) {
	backend := codec.NewFakeDemuxer(newFakeSource())
	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](8)
	d := New(backend, backend.VideoStreamIndex(), backend.StreamTimeBase(), packetQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 5; i++ {
		env := packetQueue.Take()
		require.False(t, env.IsEOS())
		assert.EqualValues(t, 0, env.Epoch)
	}
	eos := packetQueue.Take()
	assert.True(t, eos.IsEOS())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("demuxer did not exit after EOS")
	}
}

func TestDemuxerSeekClearsQueueAndBumpsEpoch(t *testing.T) {
	backend := codec.NewFakeDemuxer(newFakeSource())
	// Capacity 2 keeps the demuxer blocked on Put short of the source's 5
	// frames, so it is still running when the seek arrives.
	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](2)
	d := New(backend, backend.VideoStreamIndex(), backend.StreamTimeBase(), packetQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// Consume the first packet of epoch 0 so the pipeline is running.
	first := packetQueue.Take()
	assert.EqualValues(t, 0, first.Epoch)

	d.EpochCh <- 1
	d.SeekCh <- 80 // seek to 80ms, the 3rd frame's PTS (source's time base happens to be 1/1000 too)

	env := packetQueue.Take()
	for env.Epoch != 1 {
		env = packetQueue.Take()
	}
	require.False(t, env.IsEOS())
	assert.EqualValues(t, 1, env.Epoch)
}

// TestDemuxerSeekMillisecondsIndependentOfStreamTimeBase guards against
// treating SeekCh's value as stream-tb ticks: a seek to 1000ms must land
// within one frame of the 1-second mark regardless of whether the
// stream's own time base is 1/1000 or something else entirely, like the
// 1/90000 a real video stream typically reports.
func TestDemuxerSeekMillisecondsIndependentOfStreamTimeBase(t *testing.T) {
	src := codec.FakeSource{
		TimeBase:    pipeline.Rational{Num: 1, Den: 90000},
		Width:       64,
		Height:      48,
		FrameCount:  30,
		PtsPerFrame: 3750, // 90000/24fps
	}
	backend := codec.NewFakeDemuxer(src)
	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](8)
	d := New(backend, backend.VideoStreamIndex(), backend.StreamTimeBase(), packetQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	first := packetQueue.Take()
	assert.EqualValues(t, 0, first.Epoch)

	d.EpochCh <- 1
	d.SeekCh <- 1000 // seek to the 1-second mark

	env := packetQueue.Take()
	for env.Epoch != 1 {
		env = packetQueue.Take()
	}
	require.False(t, env.IsEOS())

	gotFrameTimeMs := src.TimeBase.Rescale(env.Packet.Opaque.(*codec.FakePacket).PTS, pipeline.MillisecondBase)
	assert.InDelta(t, 1000, gotFrameTimeMs, 42, "seek target must be interpreted as milliseconds, not stream-tb ticks")
}
