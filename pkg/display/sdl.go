// Package display implements present.Display on top of go-sdl2, the
// teacher's own display backend (pkg/mpeg/player.go's SetRenderer/
// updateTexture/Draw trio), generalized from a single RGBA32 streaming
// texture to the full pixel-format table spec.md's Decoder output can
// produce: planar 4:2:0 (IYUV, 3 planes), packed 4:2:2 (YUY2/UYVY, 1
// plane) and packed RGB24 as a fallback.
package display

import (
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"videopipe/pkg/pipeline"
	"videopipe/pkg/present"
)

// SDLDisplay is a present.Display backed by an sdl.Renderer.
type SDLDisplay struct {
	renderer *sdl.Renderer
	texture  *sdl.Texture
	format   pipeline.PixelFormat
	width    int
	height   int
}

// New wraps renderer, which must already own a live window.
func New(renderer *sdl.Renderer) *SDLDisplay {
	return &SDLDisplay{renderer: renderer}
}

func sdlPixelFormat(f pipeline.PixelFormat) uint32 {
	switch f {
	case pipeline.PixelFormatPlanar420:
		return sdl.PIXELFORMAT_IYUV
	case pipeline.PixelFormatPacked422YUY2:
		return sdl.PIXELFORMAT_YUY2
	case pipeline.PixelFormatPacked422UYVY:
		return sdl.PIXELFORMAT_UYVY
	default:
		return sdl.PIXELFORMAT_RGB24
	}
}

// CreateTexture (re)creates the streaming texture. Safe to call again on
// a resolution or format change; the previous texture, if any, is
// destroyed first.
func (d *SDLDisplay) CreateTexture(format pipeline.PixelFormat, width, height int) error {
	if d.texture != nil {
		d.texture.Destroy()
		d.texture = nil
	}
	tex, err := d.renderer.CreateTexture(sdlPixelFormat(format), sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	if err != nil {
		return errors.Wrap(err, "create texture")
	}
	d.texture = tex
	d.format = format
	d.width = width
	d.height = height
	return nil
}

// Upload copies frame's pixel planes into the texture, dispatching to
// UpdateYUV for planar 4:2:0 and to Update (with the single plane's
// stride) for packed formats. Grounded on player.go's updateTexture,
// generalized beyond its single RGBA32 copy() path.
func (d *SDLDisplay) Upload(frame *pipeline.Frame) error {
	if d.texture == nil {
		return errors.New("texture not created")
	}
	switch frame.Format {
	case pipeline.PixelFormatPlanar420:
		if len(frame.Planes) != 3 {
			return errors.Errorf("planar420 frame has %d planes, want 3", len(frame.Planes))
		}
		err := d.texture.UpdateYUV(nil,
			frame.Planes[0], int32(frame.Strides[0]),
			frame.Planes[1], int32(frame.Strides[1]),
			frame.Planes[2], int32(frame.Strides[2]),
		)
		if err != nil {
			return errors.Wrap(err, "update yuv texture")
		}
	default:
		if len(frame.Planes) != 1 {
			return errors.Errorf("packed frame has %d planes, want 1", len(frame.Planes))
		}
		if err := d.texture.Update(nil, frame.Planes[0], frame.Strides[0]); err != nil {
			return errors.Wrap(err, "update texture")
		}
	}
	return nil
}

// Present copies the texture to dst within the current render target and
// flips the renderer. Grounded on player.go's Draw: renderer.Copy into a
// letterboxed dstRect, then present.
func (d *SDLDisplay) Present(dst present.Rect) error {
	if d.texture == nil {
		return nil
	}
	if err := d.renderer.Clear(); err != nil {
		return errors.Wrap(err, "clear renderer")
	}
	sdlRect := &sdl.Rect{X: dst.X, Y: dst.Y, W: dst.W, H: dst.H}
	if err := d.renderer.Copy(d.texture, nil, sdlRect); err != nil {
		return errors.Wrap(err, "copy texture")
	}
	d.renderer.Present()
	return nil
}

// Close destroys the texture. The renderer and window belong to the
// caller (cmd/videopipe/main.go) and are not closed here.
func (d *SDLDisplay) Close() error {
	if d.texture != nil {
		d.texture.Destroy()
		d.texture = nil
	}
	return nil
}
