package present

import "videopipe/pkg/pipeline"

// Key identifies one of the small set of keys the core dispatches on.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyLeft
	KeyRight
)

// EventKind is the kind of input event the core dispatches on, per
// spec.md §6's Input external collaborator.
type EventKind int

const (
	EventNone EventKind = iota
	EventQuit
	EventKeyDown
	EventWindowResized
)

// Event is one input event, decoded from the platform's native event
// representation (SDL2 in the real Input implementation).
type Event struct {
	Kind   EventKind
	Key    Key // valid when Kind == EventKeyDown
	Width  int // valid when Kind == EventWindowResized
	Height int
}

// InputSource is the "input" external collaborator from spec.md §6: poll
// one event (non-blocking) or wait one event (blocking).
type InputSource interface {
	// Poll returns the next pending event without blocking; ok is false
	// if no event is pending.
	Poll() (Event, bool)
	// Wait blocks until the next event is available.
	Wait() Event
}

// Display is the "display" external collaborator from spec.md §6:
// create a streaming texture, upload a frame (single- or multi-plane,
// with per-plane strides), and present.
type Display interface {
	// CreateTexture (re)creates the streaming texture for the given
	// output pixel format and frame dimensions.
	CreateTexture(format pipeline.PixelFormat, width, height int) error
	// Upload copies frame's pixel planes into the texture.
	Upload(frame *pipeline.Frame) error
	// Present copies the texture to the framebuffer within dst and
	// presents it.
	Present(dst Rect) error
	// Close releases the display's resources.
	Close() error
}
