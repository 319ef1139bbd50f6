// Package decode implements the Decoder component from spec.md §4.2:
// pulls packets, feeds them to the codec backend, receives decoded
// frames, scales to the output pixel format, tags with epoch and timing,
// and pushes to the frame queue.
//
// Grounded on original_source/src/file_decoder.rs's decoder thread
// closure (the receive_and_process_decoded_frame inner-closure
// structure, EAGAIN/EOF discrimination, round-toward-zero rescale, and
// frame_diff computation all follow it directly).
package decode

import (
	"context"

	"videopipe/pkg/codec"
	"videopipe/pkg/logging"
	"videopipe/pkg/pipeline"
)

// Decoder owns the codec backend's decode-side handle and drives the
// frame queue from the packet queue. Must run on its own goroutine.
type Decoder struct {
	backend     codec.Decoder
	streamTB    pipeline.Rational
	packetQueue *pipeline.Queue[pipeline.PacketEnvelope]
	frameQueue  *pipeline.Queue[pipeline.FrameEnvelope]

	// EpochCh carries a new epoch on seek.
	EpochCh chan uint64

	currentEpoch    uint64
	sentEOF         bool
	lastFrameTimeMs *uint64
	log             *logging.Logger

	// pending holds a packet SendPacket rejected with ErrAgain (the
	// codec's internal buffer is full from B-frame reordering, not a
	// failure): it must be resubmitted after draining a frame, not
	// dropped or treated as fatal.
	pending *codec.RawPacket
}

// New constructs a Decoder over backend, reading streamTB-based
// timestamps from packetQueue and writing to frameQueue.
func New(backend codec.Decoder, streamTB pipeline.Rational, packetQueue *pipeline.Queue[pipeline.PacketEnvelope], frameQueue *pipeline.Queue[pipeline.FrameEnvelope]) *Decoder {
	return &Decoder{
		backend:     backend,
		streamTB:    streamTB,
		packetQueue: packetQueue,
		frameQueue:  frameQueue,
		EpochCh:     make(chan uint64, 64),
		log:         logging.For("decode"),
	}
}

// Run drives the main decode loop until ctx is cancelled or EOS is
// observed. Returns a fatal error (wrapped with pipeline.StageDecoder) on
// backend failure, or nil otherwise.
func (d *Decoder) Run(ctx context.Context) error {
	for {
		// 1. Non-blocking poll of the epoch channel: a new epoch flushes
		// the backend's buffered output and clears the frame queue so no
		// stale-epoch frame reaches the Presenter.
		select {
		case d.currentEpoch = <-d.EpochCh:
			d.sentEOF = false
			if d.pending != nil {
				d.backend.ReleasePacket(*d.pending)
				d.pending = nil
			}
			d.backend.Flush()
			d.frameQueue.Clear()
			d.lastFrameTimeMs = nil
			d.log.Printf("epoch now %d", d.currentEpoch)
		default:
		}

		if ctx.Err() != nil {
			return nil
		}

		// 2. Feed one packet (or EOF) to the backend, unless already
		// drained this epoch. A packet left over from a prior EAGAIN is
		// retried before taking a new one off the queue.
		if d.pending == nil && !d.sentEOF {
			env := d.packetQueue.Take()
			if env.IsEOS() {
				d.sentEOF = true
				if err := d.backend.SendEOF(); err != nil {
					return err
				}
			} else if env.Epoch != d.currentEpoch {
				d.backend.ReleasePacket(codec.RawPacket{Opaque: env.Packet})
				continue
			} else {
				raw := codec.RawPacket{Opaque: env.Packet}
				d.pending = &raw
			}
		}

		if d.pending != nil {
			switch err := d.backend.SendPacket(*d.pending); {
			case err == codec.ErrAgain:
				// Buffer full from reordering: drain a frame below, then
				// retry the same packet next iteration.
			case err != nil:
				return err
			default:
				d.pending = nil
			}
		}

		// 3. Drain whatever the backend is willing to produce.
		done, err := d.drainOne(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// drainOne performs a single receive_frame step: on EAGAIN it returns
// (false, nil) so the caller goes back to feeding input; on backend EOF
// it enqueues the FrameQueue EOS sentinel and returns (true, nil); on a
// delivered frame it scales/tags/enqueues and returns (false, nil).
func (d *Decoder) drainOne(ctx context.Context) (bool, error) {
	frame, srcPTS, err := d.backend.ReceiveFrame()
	switch {
	case err == codec.ErrAgain:
		return false, nil
	case err == codec.ErrEOF:
		d.frameQueue.Put(pipeline.FrameEnvelope{Epoch: d.currentEpoch, Frame: nil})
		return true, nil
	case err != nil:
		return false, err
	}

	frameTimeMs := uint64(d.streamTB.Rescale(srcPTS, pipeline.MillisecondBase))

	var deltaPrevMs uint64
	if d.lastFrameTimeMs != nil && frameTimeMs >= *d.lastFrameTimeMs {
		deltaPrevMs = frameTimeMs - *d.lastFrameTimeMs
	}
	d.lastFrameTimeMs = &frameTimeMs

	d.frameQueue.Put(pipeline.FrameEnvelope{
		Epoch:       d.currentEpoch,
		FrameTimeMs: frameTimeMs,
		DeltaPrevMs: deltaPrevMs,
		Frame:       frame,
	})

	return ctx.Err() != nil, nil
}
