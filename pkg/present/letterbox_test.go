package present

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterboxWiderWindowPillarboxes(t *testing.T) {
	r := Letterbox(640, 480, 1920, 480)
	assert.EqualValues(t, 480, r.H)
	assert.EqualValues(t, 640, r.W)
	assert.EqualValues(t, (1920-640)/2, r.X)
	assert.EqualValues(t, 0, r.Y)
}

func TestLetterboxTallerWindowLetterboxes(t *testing.T) {
	r := Letterbox(1920, 1080, 1920, 2160)
	assert.EqualValues(t, 1920, r.W)
	assert.EqualValues(t, 1080, r.H)
	assert.EqualValues(t, 0, r.X)
	assert.EqualValues(t, (2160-1080)/2, r.Y)
}

func TestLetterboxExactFit(t *testing.T) {
	r := Letterbox(1280, 720, 1280, 720)
	assert.EqualValues(t, Rect{X: 0, Y: 0, W: 1280, H: 720}, r)
}

func TestLetterboxZeroDimensionIsSafe(t *testing.T) {
	assert.Equal(t, Rect{}, Letterbox(0, 480, 1920, 1080))
	assert.Equal(t, Rect{}, Letterbox(640, 480, 0, 1080))
}
