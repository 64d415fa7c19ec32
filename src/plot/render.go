package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const titleBandHeight = 26

// panelChart assembles the go-chart chart for one panel. The second return
// is false when the panel has nothing drawable (it renders as a blank cell).
func (f *Figure) panelChart(idx int) (chart.Chart, bool) {
	p := f.Panels[idx]

	horizon := 0
	minY, maxY := 0.0, 0.0 // the zero baseline is always part of the range
	var series []chart.Series
	for _, s := range p.Series {
		if len(s.Values) == 0 {
			continue
		}
		if len(s.Values) > horizon {
			horizon = len(s.Values)
		}
		for _, v := range s.Values {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
		xs, ys := continuousXY(s.Values)
		col := colorFor(s.Style.Color)
		st := chart.Style{
			StrokeColor:     col,
			StrokeWidth:     2,
			StrokeDashArray: dashFor(s.Style.Dash),
		}
		if s.Style.Marker != "" && s.Style.Marker != "None" {
			st.DotWidth = 4
			st.DotColor = col
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Style.Label,
			XValues: xs,
			YValues: ys,
			Style:   st,
		})
	}
	if len(series) == 0 {
		return chart.Chart{}, false
	}

	// Dashed zero line, the reference every response is read against.
	baseline := make([]float64, horizon)
	xs, ys := continuousXY(baseline)
	series = append(series, chart.ContinuousSeries{
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("b0b0b0"),
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 4},
		},
	})

	// A flat panel (e.g. fully thresholded to zero) has no natural y-span;
	// give it one so the render cannot fail on a degenerate range.
	if maxY-minY < 1e-9 {
		minY, maxY = minY-1, maxY+1
	}
	xMax := float64(horizon - 1)
	if xMax <= 0 {
		xMax = 1
	}

	ch := chart.Chart{
		Title:      p.Title,
		Width:      f.PanelWidth,
		Height:     f.PanelHeight,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 12, Right: 10, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  f.XLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  f.YLabel,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}
	if f.ShowGrid {
		grid := chart.Style{StrokeColor: chart.ColorAlternateGray, StrokeWidth: 1}
		ch.XAxis.GridMajorStyle = grid
		ch.YAxis.GridMajorStyle = grid
	}
	if f.ShowLegend && (f.Legend == LegendAllPanels || idx == 0) {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch, true
}

// continuousXY pairs values with a 0-based time index. go-chart refuses
// single-point series, so a lone value is drawn as a flat two-point segment.
func continuousXY(values []float64) ([]float64, []float64) {
	if len(values) == 1 {
		return []float64{0, 1}, []float64{values[0], values[0]}
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs, values
}

// Image renders the stitched figure: panels drawn row-major into one RGBA
// image, trailing inactive cells left as plain background, optional title
// band on top.
func (f *Figure) Image(withTitle bool) (image.Image, error) {
	if len(f.Panels) == 0 {
		return nil, fmt.Errorf("figure has no panels")
	}
	withTitle = withTitle && f.Title != ""

	band := 0
	if withTitle {
		band = titleBandHeight
	}
	w := f.Cols * f.PanelWidth
	h := band + f.Rows*f.PanelHeight
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i := range f.Panels {
		ch, ok := f.panelChart(i)
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := ch.Render(chart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("render panel %q: %w", f.Panels[i].Variable, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return nil, fmt.Errorf("decode panel %q: %w", f.Panels[i].Variable, err)
		}
		x := (i % f.Cols) * f.PanelWidth
		y := band + (i/f.Cols)*f.PanelHeight
		r := image.Rect(x, y, x+f.PanelWidth, y+f.PanelHeight)
		draw.Draw(out, r, img, img.Bounds().Min, draw.Src)
	}

	if withTitle {
		drawCenteredText(out, f.Title, w/2, band-9)
	}
	return out, nil
}

// drawCenteredText paints a single line with the built-in 7x13 face,
// centered horizontally on cx with baseline at y.
func drawCenteredText(dst *image.RGBA, text string, cx, y int) {
	face := basicfont.Face7x13
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	tw := dr.MeasureString(text).Ceil()
	dr.Dot = fixed.P(cx-tw/2, y)
	dr.DrawString(text)
}

// RenderPNG writes the stitched figure as PNG. export selects which of the
// two independent title toggles applies, so a figure can keep its title on
// screen while the saved artifact omits it.
func (f *Figure) RenderPNG(w io.Writer, export bool) error {
	withTitle := f.ShowTitleOnScreen
	if export {
		withTitle = f.ShowTitleOnExport
	}
	img, err := f.Image(withTitle)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderPanelSVG writes one panel as standalone SVG. Vector output is only
// available per panel; the stitched grid is raster-only.
func (f *Figure) RenderPanelSVG(idx int, w io.Writer) error {
	if idx < 0 || idx >= len(f.Panels) {
		return fmt.Errorf("panel index %d out of range", idx)
	}
	ch, ok := f.panelChart(idx)
	if !ok {
		return fmt.Errorf("panel %q has no drawable series", f.Panels[idx].Variable)
	}
	return ch.Render(chart.SVG, w)
}
