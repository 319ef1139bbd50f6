package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRescaleRoundsTowardZero(t *testing.T) {
	tb := Rational{Num: 1, Den: 3} // one tick = 1/3 second
	// 1 tick -> 333ms (1 * 1000 / 3 = 333.33, truncated).
	assert.EqualValues(t, 333, tb.Rescale(1, MillisecondBase))
	// Negative timestamps must also truncate toward zero, not floor.
	assert.EqualValues(t, -333, tb.Rescale(-1, MillisecondBase))
}

func TestRescaleIdentity(t *testing.T) {
	assert.EqualValues(t, 1000, MillisecondBase.Rescale(1000, MillisecondBase))
}

func TestRescaleZeroDenominatorIsSafe(t *testing.T) {
	tb := Rational{Num: 1, Den: 0}
	assert.EqualValues(t, 0, tb.Rescale(1234, MillisecondBase))
}

func TestPixelFormatString(t *testing.T) {
	assert.Equal(t, "yuv420p", PixelFormatPlanar420.String())
	assert.Equal(t, "yuy2", PixelFormatPacked422YUY2.String())
	assert.Equal(t, "uyvy", PixelFormatPacked422UYVY.String())
	assert.Equal(t, "rgb24", PixelFormatRGB24.String())
}

func TestPacketEnvelopeIsEOS(t *testing.T) {
	assert.True(t, PacketEnvelope{Packet: nil}.IsEOS())
	assert.False(t, PacketEnvelope{Packet: &Packet{}}.IsEOS())
}

func TestFrameEnvelopeIsEOS(t *testing.T) {
	assert.True(t, FrameEnvelope{Frame: nil}.IsEOS())
	assert.False(t, FrameEnvelope{Frame: &Frame{}}.IsEOS())
}
