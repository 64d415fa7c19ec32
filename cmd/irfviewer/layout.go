package main

// panelSize derives per-panel pixel dimensions from the available canvas
// width. Panels keep a 3:2 aspect and clamp to readable bounds so shrinking
// the window never produces unreadable thumbnails, and a huge monitor never
// produces absurdly stretched charts.
func panelSize(canvasWidth float32, cols int) (int, int) {
	if cols < 1 {
		cols = 1
	}
	w := (int(canvasWidth*0.95) - 12) / cols
	if w < 260 {
		w = 260
	}
	if w > 520 {
		w = 520
	}
	h := w * 2 / 3
	if h < 180 {
		h = 180
	}
	if h > 360 {
		h = 360
	}
	return w, h
}
