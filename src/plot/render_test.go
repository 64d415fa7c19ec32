package plot

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
)

func renderableFigure(t *testing.T) *Figure {
	t.Helper()
	sources := []Source{{
		Name:  "baseline",
		Table: irf.ResponseTable{"y": {0, 0.4, 0.2, 0.1}, "pi": {0.1, -0.1, 0}, "r": {1e-12, -1e-12}},
		Style: DefaultStyle(0),
	}}
	fig, err := Compose(sources, []string{"y", "pi", "r"}, "e", nil, Options{
		Columns:           2,
		ShowGrid:          true,
		ShowLegend:        true,
		Legend:            LegendFirstPanelOnly,
		ShowTitleOnScreen: true,
		PanelWidth:        300,
		PanelHeight:       200,
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return fig
}

func TestFigureImage_GridDimensions(t *testing.T) {
	fig := renderableFigure(t)
	if fig.Rows != 2 || fig.Cols != 2 || fig.InactiveCells() != 1 {
		t.Fatalf("unexpected grid %dx%d (%d inactive)", fig.Rows, fig.Cols, fig.InactiveCells())
	}

	img, err := fig.Image(true)
	if err != nil {
		t.Fatalf("Image(true): %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 2*300 || b.Dy() != titleBandHeight+2*200 {
		t.Fatalf("titled figure is %dx%d", b.Dx(), b.Dy())
	}

	img, err = fig.Image(false)
	if err != nil {
		t.Fatalf("Image(false): %v", err)
	}
	if img.Bounds().Dy() != 2*200 {
		t.Fatalf("untitled figure height %d", img.Bounds().Dy())
	}
}

func TestRenderPNG_ScreenAndExportTitlesIndependent(t *testing.T) {
	fig := renderableFigure(t)
	fig.ShowTitleOnScreen = true
	fig.ShowTitleOnExport = false

	var screen, export bytes.Buffer
	if err := fig.RenderPNG(&screen, false); err != nil {
		t.Fatalf("screen render: %v", err)
	}
	if err := fig.RenderPNG(&export, true); err != nil {
		t.Fatalf("export render: %v", err)
	}
	si, err := png.Decode(&screen)
	if err != nil {
		t.Fatalf("decode screen png: %v", err)
	}
	ei, err := png.Decode(&export)
	if err != nil {
		t.Fatalf("decode export png: %v", err)
	}
	if si.Bounds().Dy() != ei.Bounds().Dy()+titleBandHeight {
		t.Fatalf("expected export to drop the title band: screen %d, export %d", si.Bounds().Dy(), ei.Bounds().Dy())
	}
}

func TestRenderPanelSVG(t *testing.T) {
	fig := renderableFigure(t)
	var buf bytes.Buffer
	if err := fig.RenderPanelSVG(0, &buf); err != nil {
		t.Fatalf("RenderPanelSVG: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("output does not look like SVG: %.60s", buf.String())
	}
	if err := fig.RenderPanelSVG(9, &buf); err == nil {
		t.Fatalf("expected error for out-of-range panel")
	}
}

func TestFigureImage_NoPanels(t *testing.T) {
	f := &Figure{Rows: 0, Cols: 3}
	if _, err := f.Image(true); err == nil {
		t.Fatalf("expected error for empty figure")
	}
}
