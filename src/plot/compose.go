// Package plot turns extracted response tables into renderable figures: a
// grid of per-variable line charts for one shock, with thresholding, legend
// placement and name resolution applied at composition time. Composition is
// pure; rendering the same Figure twice produces equivalent output.
package plot

import (
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

// DefaultThreshold is the noise floor: a series whose maximum absolute value
// over the rendered horizon stays below it is drawn as exactly zero, so
// solver round-off never shows up as a response.
const DefaultThreshold = 1e-10

// LegendMode controls where legend keys appear. The caller selects it
// explicitly; it is never inferred from the data.
type LegendMode int

const (
	LegendAllPanels LegendMode = iota
	LegendFirstPanelOnly
)

// LineStyle is the per-source drawing style, kept as plain serializable
// values so figures survive a dump/load round trip. Color and dash names use
// the vocabulary of the plot options document.
type LineStyle struct {
	Color  string // named color, e.g. "blue"
	Dash   string // "-", "--", "-." or ":"
	Marker string // any non-empty value other than "None" draws dots
	Label  string // legend label; defaults to the source name
}

// Series is one line within a panel: one source's response of one variable.
type Series struct {
	Source string
	Values []float64
	Style  LineStyle
}

// Panel is one grid cell: every source's response of a single variable.
type Panel struct {
	Variable string
	Title    string
	Series   []Series
}

// Figure is the fully composed, render-ready figure. Grid cells beyond
// len(Panels) are inactive and drawn as blank background, never stale
// content.
type Figure struct {
	Title             string
	ShowTitleOnScreen bool
	ShowTitleOnExport bool

	Rows int
	Cols int

	Panels []Panel

	PanelWidth  int
	PanelHeight int

	XLabel     string
	YLabel     string
	ShowGrid   bool
	ShowLegend bool
	Legend     LegendMode
}

// Source is one loaded dataset contributing lines to every panel.
type Source struct {
	Name  string
	Table irf.ResponseTable
	Style LineStyle
}

// Options controls composition. Zero values fall back to sensible defaults
// (3 columns, full horizon, DefaultThreshold, 360x240 panels).
type Options struct {
	Columns   int
	Periods   int     // 0 means the full horizon
	Threshold float64 // 0 means DefaultThreshold

	XLabel   string
	YLabel   string
	ShowGrid bool

	ShowLegend bool
	Legend     LegendMode

	Title             string // overrides the resolved shock label
	ShowTitleOnScreen bool
	ShowTitleOnExport bool

	PanelWidth  int
	PanelHeight int
}

// Layout computes the subplot grid for seriesCount panels via ceiling
// division. requestedColumns below 1 is treated as 1. The second return is
// the column count actually used; trailing cells beyond seriesCount stay
// inactive.
func Layout(seriesCount, requestedColumns int) (rows, cols int) {
	cols = requestedColumns
	if cols < 1 {
		cols = 1
	}
	if seriesCount < 1 {
		return 0, cols
	}
	rows = (seriesCount + cols - 1) / cols
	return rows, cols
}

// InactiveCells returns how many trailing grid cells carry no panel.
func (f *Figure) InactiveCells() int {
	return f.Rows*f.Cols - len(f.Panels)
}

// applyThreshold clamps the series to the rendered horizon and zeroes it
// entirely when its peak magnitude is below eps. Always returns a copy; the
// extracted tables stay untouched.
func applyThreshold(values []float64, periods int, eps float64) []float64 {
	n := len(values)
	if periods > 0 && periods < n {
		n = periods
	}
	out := make([]float64, n)
	copy(out, values[:n])
	peak := 0.0
	for _, v := range out {
		if math.IsNaN(v) {
			continue
		}
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < eps {
		for i := range out {
			out[i] = 0
		}
	}
	return out
}

// Compose builds the figure for one shock. variables selects and orders the
// panels; nil means every variable any source has data for, sorted. When reg
// is non-nil panel titles use long display names and the figure title uses
// the shock's long name; otherwise raw short names are used throughout.
func Compose(sources []Source, variables []string, shock string, reg *model.Registry, opts Options) (*Figure, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Columns == 0 {
		opts.Columns = 3
	}
	if opts.PanelWidth == 0 {
		opts.PanelWidth = 360
	}
	if opts.PanelHeight == 0 {
		opts.PanelHeight = 240
	}

	if variables == nil {
		seen := map[string]bool{}
		for _, src := range sources {
			for v := range src.Table {
				seen[v] = true
			}
		}
		for v := range seen {
			variables = append(variables, v)
		}
		sort.Strings(variables)
	}

	rows, cols := Layout(len(variables), opts.Columns)
	fig := &Figure{
		Rows:              rows,
		Cols:              cols,
		PanelWidth:        opts.PanelWidth,
		PanelHeight:       opts.PanelHeight,
		XLabel:            opts.XLabel,
		YLabel:            opts.YLabel,
		ShowGrid:          opts.ShowGrid,
		ShowLegend:        opts.ShowLegend,
		Legend:            opts.Legend,
		ShowTitleOnScreen: opts.ShowTitleOnScreen,
		ShowTitleOnExport: opts.ShowTitleOnExport,
	}

	for _, v := range variables {
		title := v
		if reg != nil {
			long, err := reg.Convert(v, model.Endo, model.Long)
			if err != nil {
				return nil, err
			}
			title = long
		}
		panel := Panel{Variable: v, Title: title}
		for _, src := range sources {
			values, ok := src.Table[v]
			if !ok {
				continue
			}
			style := src.Style
			if style.Label == "" {
				style.Label = src.Name
			}
			panel.Series = append(panel.Series, Series{
				Source: src.Name,
				Values: applyThreshold(values, opts.Periods, opts.Threshold),
				Style:  style,
			})
		}
		fig.Panels = append(fig.Panels, panel)
	}

	fig.Title = opts.Title
	if fig.Title == "" {
		label := shock
		if reg != nil {
			long, err := reg.Convert(shock, model.Exo, model.Long)
			if err != nil {
				return nil, err
			}
			label = long
		}
		fig.Title = "Impulse Responses to " + label
	}
	return fig, nil
}

var namedColors = map[string]drawing.Color{
	"blue":   drawing.ColorFromHex("1f77b4"),
	"orange": drawing.ColorFromHex("ff7f0e"),
	"green":  drawing.ColorFromHex("2ca02c"),
	"red":    drawing.ColorFromHex("d62728"),
	"purple": drawing.ColorFromHex("9467bd"),
	"brown":  drawing.ColorFromHex("8c564b"),
	"pink":   drawing.ColorFromHex("e377c2"),
	"gray":   drawing.ColorFromHex("7f7f7f"),
	"olive":  drawing.ColorFromHex("bcbd22"),
	"cyan":   drawing.ColorFromHex("17becf"),
}

// ColorNames lists the supported line colors in cycling order.
var ColorNames = []string{
	"blue", "orange", "green", "red", "purple",
	"brown", "pink", "gray", "olive", "cyan",
}

// DefaultStyle returns the style for the i-th source when none was
// configured: colors cycle, solid line, no markers.
func DefaultStyle(i int) LineStyle {
	if i < 0 {
		i = 0
	}
	return LineStyle{Color: ColorNames[i%len(ColorNames)], Dash: "-"}
}

func colorFor(name string) drawing.Color {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return namedColors["blue"]
}

func dashFor(name string) []float64 {
	switch name {
	case "--":
		return []float64{8, 4}
	case "-.":
		return []float64{8, 4, 2, 4}
	case ":":
		return []float64{2, 3}
	default:
		return nil
	}
}
