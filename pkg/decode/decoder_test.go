package decode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videopipe/pkg/codec"
	"videopipe/pkg/pipeline"
)

func TestDecoderFirstFrameOfEpochHasZeroDelta(t *testing.T) {
	streamTB := pipeline.Rational{Num: 1, Den: 1000} // ticks already in ms
	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](8)
	frameQueue := pipeline.NewQueue[pipeline.FrameEnvelope](8)
	backend := codec.NewFakeDecoder()
	d := New(backend, streamTB, packetQueue, frameQueue)

	packetQueue.Put(pkt(0, 0))
	packetQueue.Put(pkt(0, 40))
	packetQueue.Put(pkt(0, 80))
	packetQueue.Put(pipeline.PacketEnvelope{Epoch: 0, Packet: nil}) // EOS

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	f0 := frameQueue.Take()
	require.False(t, f0.IsEOS())
	assert.EqualValues(t, 0, f0.DeltaPrevMs)
	assert.EqualValues(t, 0, f0.FrameTimeMs)

	f1 := frameQueue.Take()
	assert.EqualValues(t, 40, f1.FrameTimeMs)
	assert.EqualValues(t, 40, f1.DeltaPrevMs)

	f2 := frameQueue.Take()
	assert.EqualValues(t, 80, f2.FrameTimeMs)
	assert.EqualValues(t, 40, f2.DeltaPrevMs)

	eos := frameQueue.Take()
	assert.True(t, eos.IsEOS())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("decoder did not exit after EOS")
	}
}

func TestDecoderDiscardsStaleEpochPackets(t *testing.T) {
	streamTB := pipeline.Rational{Num: 1, Den: 1000}
	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](8)
	frameQueue := pipeline.NewQueue[pipeline.FrameEnvelope](8)
	backend := codec.NewFakeDecoder()
	d := New(backend, streamTB, packetQueue, frameQueue)

	// Advance the epoch before any packet at the old epoch arrives.
	d.EpochCh <- 1

	// A stale-epoch packet must be discarded, never decoded into a frame.
	packetQueue.Put(pkt(0, 0))
	packetQueue.Put(pkt(1, 500))
	packetQueue.Put(pipeline.PacketEnvelope{Epoch: 1, Packet: nil})

	// Start the decoder only now, so its first epoch poll sees epoch 1
	// before it takes the stale packet.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	f := frameQueue.Take()
	require.False(t, f.IsEOS())
	assert.EqualValues(t, 1, f.Epoch)
	assert.EqualValues(t, 500, f.FrameTimeMs)
	assert.EqualValues(t, 0, f.DeltaPrevMs, "first frame after a new epoch must reset the delta anchor")
}

func pkt(epoch uint64, pts int64) pipeline.PacketEnvelope {
	return pipeline.PacketEnvelope{
		Epoch:  epoch,
		Packet: &pipeline.Packet{Opaque: &codec.FakePacket{PTS: pts}},
	}
}
