// Package input implements present.InputSource on top of go-sdl2.
// Grounded on main.go's runGameLoop event-pump (sdl.PollEvent drained to
// nil each tick, switched on event type) and on pkg/input/tracker.go's
// edge-detected key handling, generalized from "only QuitEvent matters"
// to the small Escape/Space/Left/Right/resize vocabulary spec.md's
// Presenter dispatches on.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"videopipe/pkg/present"
)

// SDLInput is a present.InputSource backed by the SDL2 event queue.
type SDLInput struct{}

// New returns an SDLInput. SDL must already be initialized with
// sdl.INIT_VIDEO by the caller.
func New() *SDLInput { return &SDLInput{} }

// Poll returns the next pending SDL event translated to present.Event,
// or ok=false if the queue is currently empty. Events this package does
// not recognize are silently skipped, not surfaced as EventNone, so Poll
// never returns spuriously until one is found or the queue empties.
func (SDLInput) Poll() (present.Event, bool) {
	for {
		ev := sdl.PollEvent()
		if ev == nil {
			return present.Event{}, false
		}
		if translated, ok := translate(ev); ok {
			return translated, true
		}
	}
}

// Wait blocks until the next recognized SDL event arrives.
func (SDLInput) Wait() present.Event {
	for {
		ev := sdl.WaitEvent()
		if translated, ok := translate(ev); ok {
			return translated
		}
	}
}

func translate(ev sdl.Event) (present.Event, bool) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		return present.Event{Kind: present.EventQuit}, true
	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
			return present.Event{}, false
		}
		key, ok := translateKey(e.Keysym.Scancode)
		if !ok {
			return present.Event{}, false
		}
		return present.Event{Kind: present.EventKeyDown, Key: key}, true
	case *sdl.WindowEvent:
		if e.Event != sdl.WINDOWEVENT_RESIZED && e.Event != sdl.WINDOWEVENT_SIZE_CHANGED {
			return present.Event{}, false
		}
		return present.Event{Kind: present.EventWindowResized, Width: int(e.Data1), Height: int(e.Data2)}, true
	default:
		return present.Event{}, false
	}
}

func translateKey(sc sdl.Scancode) (present.Key, bool) {
	switch sc {
	case sdl.SCANCODE_ESCAPE:
		return present.KeyEscape, true
	case sdl.SCANCODE_SPACE:
		return present.KeySpace, true
	case sdl.SCANCODE_LEFT:
		return present.KeyLeft, true
	case sdl.SCANCODE_RIGHT:
		return present.KeyRight, true
	default:
		return present.KeyUnknown, false
	}
}
