package main

import "testing"

func TestPanelSize_Clamps(t *testing.T) {
	cases := []struct {
		canvasW    float32
		cols       int
		wantW      int
		wantH      int
	}{
		{1100, 2, 516, 344},
		{300, 2, 260, 180},   // narrow window clamps to minimum
		{4000, 2, 520, 346},  // wide window clamps to maximum
		{1100, 0, 520, 346},  // zero columns treated as one
	}
	for _, c := range cases {
		w, h := panelSize(c.canvasW, c.cols)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("panelSize(%v, %d) = (%d, %d), want (%d, %d)", c.canvasW, c.cols, w, h, c.wantW, c.wantH)
		}
	}
}
