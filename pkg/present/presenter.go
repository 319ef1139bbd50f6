// Package present implements the Presenter component from spec.md §4.3:
// pulls frames, drops stale-epoch ones, paces output to wall-clock time,
// uploads to the display, and drives the input-event loop, issuing seek
// and pause commands that fan out to the Demuxer and Decoder.
//
// Grounded on original_source/src/main.rs's event loop for the overall
// shape (poll events, take from the video queue, empty-frame-means-EOS,
// create/lock/write/present a texture) and on
// original_source/src/file_decoder.rs's seek()/set_paused() for the
// command protocol this loop drives.
package present

import (
	"time"

	"videopipe/pkg/logging"
	"videopipe/pkg/pipeline"
)

// Commands is the set of outbound command channels the Presenter uses to
// fan out seek/epoch to the Demuxer and Decoder (spec.md §5): an epoch
// goes to the Decoder, then to the Demuxer, then the seek target goes to
// the Demuxer — in that order, matching "the Demuxer reads epoch before
// seek target".
type Commands struct {
	DemuxerSeek  chan<- int64
	DemuxerEpoch chan<- uint64
	DecoderEpoch chan<- uint64
}

// Presenter drives presentation pacing and the input-event loop. Must
// run on its own goroutine (typically the process's initial goroutine,
// since the display surface is usually main-thread-bound).
type Presenter struct {
	frameQueue *pipeline.Queue[pipeline.FrameEnvelope]
	display    Display
	input      InputSource
	cmds       Commands
	seekStepMs uint64

	videoW, videoH   int
	windowW, windowH int

	currentEpoch       uint64
	presentationAnchor time.Time
	lastFrameTimeMs    uint64
	paused             bool
	needUpdate         bool
	pendingFrame       *pipeline.FrameEnvelope

	log *logging.Logger
}

// New constructs a Presenter for a videoW x videoH stream.
func New(frameQueue *pipeline.Queue[pipeline.FrameEnvelope], display Display, input InputSource, cmds Commands, seekStepMs uint64, videoW, videoH int) *Presenter {
	return &Presenter{
		frameQueue: frameQueue,
		display:    display,
		input:      input,
		cmds:       cmds,
		seekStepMs: seekStepMs,
		videoW:     videoW,
		videoH:     videoH,
		windowW:    videoW,
		windowH:    videoH,
		log:        logging.For("present"),
	}
}

// Run drives the main presentation loop until a Quit event or an EOS
// sentinel is observed, or an unrecoverable display error occurs.
func (p *Presenter) Run() error {
	p.presentationAnchor = time.Now()

	for {
		// 1. Poll or wait for one input event depending on paused mode.
		var ev Event
		var ok bool
		if p.paused && !p.needUpdate {
			ev = p.input.Wait()
			ok = true
		} else {
			ev, ok = p.input.Poll()
		}

		// 2. Handle the event.
		if ok {
			if quit := p.handleEvent(ev); quit {
				return nil
			}
		}

		// 3. Stay paused unless a refresh was requested by a seek.
		if p.paused && !p.needUpdate {
			continue
		}

		// 4. Pull the next frame, unless one is already pending. Every
		// path below clears pendingFrame before the next iteration, so a
		// stale-epoch frame is dropped rather than held.
		if p.pendingFrame == nil {
			env := p.frameQueue.Take()
			if env.IsEOS() {
				return nil
			}
			p.pendingFrame = &env
		}
		frame := *p.pendingFrame

		// 5. Discard frames from an old epoch.
		if frame.Epoch != p.currentEpoch {
			p.pendingFrame = nil
			continue
		}

		// 6. Pace to the frame's scheduled wall-clock instant.
		p.presentationAnchor = p.presentationAnchor.Add(time.Duration(frame.DeltaPrevMs) * time.Millisecond)
		now := time.Now()
		if p.presentationAnchor.After(now) {
			time.Sleep(p.presentationAnchor.Sub(now))
		} else {
			// Late, or the first frame of an epoch: draw now and
			// re-anchor here, so later frames are not rushed to catch up.
			p.presentationAnchor = now
		}
		p.lastFrameTimeMs = frame.FrameTimeMs

		// 7. Upload and present.
		if err := p.display.Upload(frame.Frame); err != nil {
			return err
		}
		dst := Letterbox(p.videoW, p.videoH, p.windowW, p.windowH)
		if err := p.display.Present(dst); err != nil {
			return err
		}

		// 8. Clear per-iteration flags.
		p.needUpdate = false
		p.pendingFrame = nil
	}
}

// handleEvent processes one input event and reports whether the
// Presenter should quit.
func (p *Presenter) handleEvent(ev Event) (quit bool) {
	switch ev.Kind {
	case EventQuit:
		return true
	case EventKeyDown:
		switch ev.Key {
		case KeyEscape:
			return true
		case KeySpace:
			p.paused = !p.paused
			if !p.paused {
				p.presentationAnchor = time.Now()
			}
		case KeyLeft:
			p.seek(subClampUint64(p.lastFrameTimeMs, p.seekStepMs))
		case KeyRight:
			p.seek(p.lastFrameTimeMs + p.seekStepMs)
		}
	case EventWindowResized:
		p.windowW, p.windowH = ev.Width, ev.Height
	}
	return false
}

// seek issues a new epoch and a seek target, in the protocol order
// spec.md §5 mandates: epoch to Decoder, epoch to Demuxer, seek target
// to Demuxer.
func (p *Presenter) seek(targetMs uint64) {
	p.currentEpoch++
	p.cmds.DecoderEpoch <- p.currentEpoch
	p.cmds.DemuxerEpoch <- p.currentEpoch
	p.cmds.DemuxerSeek <- int64(targetMs)
	p.needUpdate = true
	p.log.Printf("seek requested: target=%dms epoch=%d", targetMs, p.currentEpoch)
}

func subClampUint64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
