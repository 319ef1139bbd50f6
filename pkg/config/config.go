// Package config loads the CLI's tunables from a .env file and
// command-line flags, flags taking precedence. Grounded on
// lanikai-alohartc's cmd/alohartcd/main.go flag package-alias idiom
// (flag "github.com/spf13/pflag") layered with godotenv.Load(), the
// combination the teacher's own main.go reaches for via os.Getenv-style
// environment configuration (VIDEO_DECODER, FORCE_SOFTWARE_DECODER)
// generalized into a proper flag set.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"videopipe/pkg/pipeline"
)

// Flags mirrors pipeline.Config plus the CLI-only fields (input path,
// window title). Load() populates this from .env then flags, in that
// precedence order (flags win).
type Flags struct {
	Path          string
	SeekStepMs    uint64
	PacketCap     int
	FrameCap      int
	PixelFormat   string
	WindowWidth   int
	WindowHeight  int
	WindowTitle   string
}

// Load reads .env (if present; missing is not an error) into the
// process environment, then parses command-line flags over those
// defaults, and returns both the raw Flags and the derived
// pipeline.Config.
func Load(args []string) (Flags, pipeline.Config, error) {
	_ = godotenv.Load() // optional: missing .env is not an error

	def := pipeline.DefaultConfig()

	fs := flag.NewFlagSet("videopipe", flag.ContinueOnError)
	path := fs.StringP("input", "i", envOr("VIDEOPIPE_INPUT", ""), "path to the media file to play")
	seekStep := fs.Uint64("seek-step-ms", envUintOr("VIDEOPIPE_SEEK_STEP_MS", def.SeekStepMs), "seek step in milliseconds")
	packetCap := fs.Int("packet-queue-cap", envIntOr("VIDEOPIPE_PACKET_QUEUE_CAP", def.PacketCap), "bounded packet queue capacity")
	frameCap := fs.Int("frame-queue-cap", envIntOr("VIDEOPIPE_FRAME_QUEUE_CAP", def.FrameCap), "bounded frame queue capacity")
	pixFmt := fs.String("pixel-format", envOr("VIDEOPIPE_PIXEL_FORMAT", def.OutputPixelFormat.String()), "output pixel format: yuv420p, yuy2, uyvy, rgb24")
	width := fs.Int("width", envIntOr("VIDEOPIPE_WIDTH", def.WindowWidth), "window width")
	height := fs.Int("height", envIntOr("VIDEOPIPE_HEIGHT", def.WindowHeight), "window height")
	title := fs.String("title", envOr("VIDEOPIPE_TITLE", "videopipe"), "window title")

	if err := fs.Parse(args); err != nil {
		return Flags{}, pipeline.Config{}, err
	}
	if fs.NArg() > 0 && *path == "" {
		*path = fs.Arg(0)
	}

	f := Flags{
		Path:         *path,
		SeekStepMs:   *seekStep,
		PacketCap:    *packetCap,
		FrameCap:     *frameCap,
		PixelFormat:  *pixFmt,
		WindowWidth:  *width,
		WindowHeight: *height,
		WindowTitle:  *title,
	}

	cfg := pipeline.Config{
		SeekStepMs:        f.SeekStepMs,
		PacketCap:         f.PacketCap,
		FrameCap:          f.FrameCap,
		OutputPixelFormat: parsePixelFormat(f.PixelFormat),
		WindowWidth:       f.WindowWidth,
		WindowHeight:      f.WindowHeight,
	}
	return f, cfg, nil
}

func parsePixelFormat(s string) pipeline.PixelFormat {
	switch s {
	case "yuy2":
		return pipeline.PixelFormatPacked422YUY2
	case "uyvy":
		return pipeline.PixelFormatPacked422UYVY
	case "rgb24":
		return pipeline.PixelFormatRGB24
	default:
		return pipeline.PixelFormatPlanar420
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envUintOr(key string, def uint64) uint64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
