// Command videopipe plays a local media file's video stream: demux,
// decode, and present on a resizable window, with seek/pause driven by
// the keyboard.
//
// Grounded on the teacher's main.go for the overall shape (lock the OS
// thread, configure logging, load .env, initialize SDL2 with a
// driver-appropriate hint, create a window and renderer, run a loop,
// clean up on exit) condensed to a normal desktop window instead of the
// kiosk's forced-fullscreen/ARM-memory-tuned variant, since those are
// specific to the teacher's appliance deployment, not to this player.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"videopipe/pkg/codec"
	"videopipe/pkg/config"
	"videopipe/pkg/decode"
	"videopipe/pkg/demux"
	"videopipe/pkg/display"
	"videopipe/pkg/input"
	"videopipe/pkg/logging"
	"videopipe/pkg/pipeline"
	"videopipe/pkg/present"
)

func main() {
	// CRITICAL: SDL2's window/event/render calls must run on the thread
	// that initialized video.
	runtime.LockOSThread()

	logging.Init()

	flags, cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if flags.Path == "" {
		fmt.Fprintln(os.Stderr, "usage: videopipe -i <path> [flags]")
		os.Exit(2)
	}

	if err := run(flags, cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(flags config.Flags, cfg pipeline.Config) error {
	demuxBackend, err := codec.OpenFFmpegDemuxer(flags.Path)
	if err != nil {
		return err
	}
	defer demuxBackend.Close()

	streamIndex := demuxBackend.VideoStreamIndex()
	streamTB := demuxBackend.StreamTimeBase()
	videoW, videoH := demuxBackend.Dimensions()

	decodeBackend, err := codec.OpenFFmpegDecoder(flags.Path, streamIndex, cfg.OutputPixelFormat)
	if err != nil {
		return err
	}
	defer decodeBackend.Close()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return pipeline.Fatal(pipeline.StagePresenter, pipeline.ErrDisplayFailure, err)
	}
	defer sdl.Quit()

	driverName, err := sdl.GetCurrentVideoDriver()
	if err == nil {
		log.Printf("video driver: %s", driverName)
	}
	sdl.SetHint(sdl.HINT_RENDER_BATCHING, "1")

	window, err := sdl.CreateWindow(flags.WindowTitle, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.WindowWidth), int32(cfg.WindowHeight), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return pipeline.Fatal(pipeline.StagePresenter, pipeline.ErrDisplayFailure, err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			return pipeline.Fatal(pipeline.StagePresenter, pipeline.ErrDisplayFailure, err)
		}
	}
	defer renderer.Destroy()

	disp := display.New(renderer)
	if err := disp.CreateTexture(cfg.OutputPixelFormat, videoW, videoH); err != nil {
		return pipeline.Fatal(pipeline.StagePresenter, pipeline.ErrDisplayFailure, err)
	}
	defer disp.Close()

	packetQueue := pipeline.NewQueue[pipeline.PacketEnvelope](cfg.PacketCap)
	frameQueue := pipeline.NewQueue[pipeline.FrameEnvelope](cfg.FrameCap)

	demuxer := demux.New(demuxBackend, streamIndex, streamTB, packetQueue)
	decoder := decode.New(decodeBackend, streamTB, packetQueue, frameQueue)

	ctrl := pipeline.NewController(context.Background())
	ctrl.Go(demuxer.Run)
	ctrl.Go(decoder.Run)

	cmds := present.Commands{
		DemuxerSeek:  demuxer.SeekCh,
		DemuxerEpoch: demuxer.EpochCh,
		DecoderEpoch: decoder.EpochCh,
	}
	presenter := present.New(frameQueue, disp, input.New(), cmds, cfg.SeekStepMs, videoW, videoH)

	presentErr := presenter.Run()
	ctrl.Stop(presentErr)

	// The Demuxer/Decoder may be parked on a full queue's Put (or an
	// empty queue's Take) when the Presenter exits on Quit/Escape —
	// neither wait observes ctx, so without this a worker never wakes
	// and ctrl.Wait below blocks forever (spec §3/§5's bounded-shutdown
	// requirement). Close unblocks both sides.
	packetQueue.Close()
	frameQueue.Close()

	workerErr := ctrl.Wait()
	if presentErr != nil {
		return presentErr
	}
	return workerErr
}
