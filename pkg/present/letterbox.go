package present

// Rect is a destination rectangle in window coordinates.
type Rect struct {
	X, Y, W, H int32
}

// Letterbox computes the centered, aspect-preserving rectangle that fits
// a videoW x videoH frame into a windowW x windowH window. Grounded on
// the teacher's pkg/mpeg/player.go Draw() scale/center math, lifted into
// a pure function.
func Letterbox(videoW, videoH, windowW, windowH int) Rect {
	if videoW <= 0 || videoH <= 0 || windowW <= 0 || windowH <= 0 {
		return Rect{}
	}
	scaleW := float64(windowW) / float64(videoW)
	scaleH := float64(windowH) / float64(videoH)
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}
	renderW := int32(float64(videoW) * scale)
	renderH := int32(float64(videoH) * scale)
	return Rect{
		X: (int32(windowW) - renderW) / 2,
		Y: (int32(windowH) - renderH) / 2,
		W: renderW,
		H: renderH,
	}
}
