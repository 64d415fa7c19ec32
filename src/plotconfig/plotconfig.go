// Package plotconfig is the flat, serializable plot options document: the
// selections and styling a user dials in, captured as an explicit value with
// import/export functions instead of ambient session state. The YAML schema
// is the UI layer's save format; the core packages never read it.
package plotconfig

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mitsuhir0/dynare-irf-plotter/src/plot"
)

// SourceStyle is the per-source line styling block.
type SourceStyle struct {
	Marker      string `yaml:"marker"`
	LineStyle   string `yaml:"linestyle"`
	Color       string `yaml:"color"`
	LegendLabel string `yaml:"legend_label"`
}

// Options is the full document. Geometry is in inches, matching the
// original save format; rendering converts to pixels.
type Options struct {
	SelectedVariables []string `yaml:"endo_names_long,omitempty"`
	SelectedShock     string   `yaml:"shock_name,omitempty"`

	Columns int    `yaml:"n_col"`
	XLabel  string `yaml:"plot_xlabel"`
	YLabel  string `yaml:"plot_ylabel"`
	Periods int    `yaml:"periods"`

	SourceStyles []SourceStyle `yaml:"file_plot_options,omitempty"`

	ShowLegend      bool `yaml:"show_legend"`
	LegendPanelMode int  `yaml:"legend_panel_mode"` // 0 = all panels, 1 = first panel only
	ShowGrid        bool `yaml:"show_grid"`

	FigWidth  int `yaml:"fig_width"`  // inches, 4..24; 0 derives from columns
	FigHeight int `yaml:"fig_height"` // inches, 3..20; 0 derives from rows
}

// Default returns the options a fresh session starts from.
func Default() Options {
	return Options{
		Columns:    2,
		XLabel:     "Time",
		YLabel:     "Response",
		ShowLegend: true,
	}
}

// Normalize coerces out-of-range values the way the UI would: unknown legend
// modes fall back to all-panels, geometry is clamped to the documented
// bounds, zero geometry stays zero (derived later).
func (o *Options) Normalize() {
	if o.LegendPanelMode != 0 && o.LegendPanelMode != 1 {
		o.LegendPanelMode = 0
	}
	o.Columns = clamp(o.Columns, 1, 5)
	if o.FigWidth != 0 {
		o.FigWidth = clamp(o.FigWidth, 4, 24)
	}
	if o.FigHeight != 0 {
		o.FigHeight = clamp(o.FigHeight, 3, 20)
	}
	if o.Periods < 0 {
		o.Periods = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Import reads and normalizes a YAML document.
func Import(r io.Reader) (Options, error) {
	o := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&o); err != nil {
		return Options{}, fmt.Errorf("parse plot options: %w", err)
	}
	o.Normalize()
	return o, nil
}

// Export writes the document as YAML.
func Export(w io.Writer, o Options) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("write plot options: %w", err)
	}
	return nil
}

// Style maps the i-th source's styling block into a drawing style, falling
// back to the default color cycle for unconfigured sources.
func (o Options) Style(i int) plot.LineStyle {
	if i < 0 || i >= len(o.SourceStyles) {
		return plot.DefaultStyle(i)
	}
	s := o.SourceStyles[i]
	ls := plot.LineStyle{
		Color:  s.Color,
		Dash:   s.LineStyle,
		Marker: s.Marker,
		Label:  s.LegendLabel,
	}
	if ls.Color == "" {
		ls.Color = plot.DefaultStyle(i).Color
	}
	if ls.Dash == "" {
		ls.Dash = "-"
	}
	return ls
}

// PlotOptions converts the document into composer options for a figure with
// nVars panels. Inch geometry maps to pixels at 100 px per inch, split
// across the grid; unset geometry uses the original 5x3 inches per panel.
func (o Options) PlotOptions(nVars int) plot.Options {
	rows, cols := plot.Layout(nVars, o.Columns)
	if rows < 1 {
		rows = 1
	}
	widthIn := o.FigWidth
	if widthIn == 0 {
		widthIn = 5 * cols
	}
	heightIn := o.FigHeight
	if heightIn == 0 {
		heightIn = 3 * rows
	}
	legend := plot.LegendAllPanels
	if o.LegendPanelMode == 1 {
		legend = plot.LegendFirstPanelOnly
	}
	return plot.Options{
		Columns:     o.Columns,
		Periods:     o.Periods,
		XLabel:      o.XLabel,
		YLabel:      o.YLabel,
		ShowGrid:    o.ShowGrid,
		ShowLegend:  o.ShowLegend,
		Legend:      legend,
		PanelWidth:  widthIn * 100 / cols,
		PanelHeight: heightIn * 100 / rows,
	}
}
