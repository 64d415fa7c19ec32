// irfviewer is a desktop viewer for Dynare impulse responses: open a result
// file, pick a shock and variables, and the figure re-renders on every
// change. Export writes the same figure honoring the export title toggle.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/png"
	"sort"
	"strconv"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/irflog"
	"github.com/mitsuhir0/dynare-irf-plotter/src/mat"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
	"github.com/mitsuhir0/dynare-irf-plotter/src/plot"
	"github.com/mitsuhir0/dynare-irf-plotter/src/plotconfig"
)

type uiState struct {
	app    fyne.App
	window fyne.Window

	fixTypo bool

	// loaded source; read-only once built, replaced wholesale on reload
	filePath string
	reg      *model.Registry
	col      irf.Collection

	// current selection
	shock        string // short code
	selectedVars []string // long display names, as shown in the check group

	cfg             plotconfig.Options
	showTitleExport bool

	// widgets
	fileLabel   *widget.Label
	shockSelect *widget.Select
	varChecks   *widget.CheckGroup
	figImage    *canvas.Image
	status      *widget.Label
}

func main() {
	var fileFlag string
	var fixTypo bool
	var logLevel string
	flag.StringVar(&fileFlag, "file", "", "Dynare result file (.mat) to open")
	flag.BoolVar(&fixTypo, "fix-sample-typo", false, "apply the sample.mat shock label correction")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	irflog.SetLevel(logLevel)

	a := app.NewWithID("com.mitsuhir0.irfviewer")
	w := a.NewWindow("IRF Viewer")
	w.Resize(fyne.NewSize(1200, 800))

	state := &uiState{
		app:             a,
		window:          w,
		fixTypo:         fixTypo,
		cfg:             plotconfig.Default(),
		showTitleExport: true,
	}
	buildUI(state)

	if fileFlag != "" {
		loadFile(state, fileFlag)
	}
	w.ShowAndRun()
}

func buildUI(state *uiState) {
	state.fileLabel = widget.NewLabel("no file loaded")
	state.status = widget.NewLabel("")
	state.figImage = &canvas.Image{FillMode: canvas.ImageFillContain}
	state.figImage.SetMinSize(fyne.NewSize(900, 500))

	openBtn := widget.NewButton("Open…", func() {
		fo := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			path := rc.URI().Path()
			rc.Close()
			loadFile(state, path)
		}, state.window)
		fo.Show()
	})

	state.shockSelect = widget.NewSelect(nil, func(label string) {
		if state.reg == nil {
			return
		}
		short, err := state.reg.Convert(label, model.Exo, model.Short)
		if err != nil {
			short = label // unlabeled shocks list their code directly
		}
		state.shock = short
		redraw(state)
	})
	state.shockSelect.PlaceHolder = "Shock"

	state.varChecks = widget.NewCheckGroup(nil, func(selected []string) {
		state.selectedVars = selected
		redraw(state)
	})

	colSelect := widget.NewSelect([]string{"1", "2", "3", "4", "5"}, func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			state.cfg.Columns = n
			redraw(state)
		}
	})
	colSelect.Selected = strconv.Itoa(state.cfg.Columns)

	gridChk := widget.NewCheck("Grid", func(v bool) {
		state.cfg.ShowGrid = v
		redraw(state)
	})
	legendChk := widget.NewCheck("Legend", func(v bool) {
		state.cfg.ShowLegend = v
		redraw(state)
	})
	legendChk.SetChecked(state.cfg.ShowLegend)

	legendMode := widget.NewSelect([]string{"All panels", "First panel only"}, func(v string) {
		if v == "First panel only" {
			state.cfg.LegendPanelMode = 1
		} else {
			state.cfg.LegendPanelMode = 0
		}
		redraw(state)
	})
	legendMode.Selected = "All panels"

	exportTitleChk := widget.NewCheck("Title on export", func(v bool) {
		state.showTitleExport = v
	})
	exportTitleChk.SetChecked(state.showTitleExport)

	exportBtn := widget.NewButton("Export PNG…", func() { exportFigurePNG(state) })
	saveOptsBtn := widget.NewButton("Save Options…", func() { saveOptions(state) })
	loadOptsBtn := widget.NewButton("Load Options…", func() { loadOptions(state) })

	topBar := container.NewHBox(
		openBtn, state.fileLabel,
		widget.NewSeparator(),
		widget.NewLabel("Columns:"), colSelect,
		gridChk, legendChk, legendMode,
	)
	bottomBar := container.NewHBox(exportTitleChk, exportBtn, saveOptsBtn, loadOptsBtn, state.status)

	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Shock"), state.shockSelect, widget.NewLabel("Variables")),
		nil, nil, nil,
		container.NewVScroll(state.varChecks),
	)
	center := container.NewVScroll(state.figImage)

	state.window.SetContent(container.NewBorder(topBar, bottomBar, left, nil, center))
}

func loadFile(state *uiState, path string) {
	doc, err := mat.LoadDocument(path)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	reg, err := model.NewRegistry(doc.Metadata)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if state.fixTypo {
		reg.Rename(model.Exo, "monetary policy shock", "cost push shock")
	}
	col, err := irf.Extract(doc.Fields, reg)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}

	state.filePath = path
	state.reg = reg
	state.col = col
	state.fileLabel.SetText(path)
	irflog.Infof("loaded %s: %d shocks", path, len(col))

	shockLabels := make([]string, 0, len(col))
	for _, s := range col.Shocks() {
		label, err := reg.Convert(s, model.Exo, model.Long)
		if err != nil {
			label = s
		}
		shockLabels = append(shockLabels, label)
	}
	state.shockSelect.Options = shockLabels

	varLabels := variableLabels(col, reg)
	state.varChecks.Options = varLabels

	if len(shockLabels) > 0 {
		state.shockSelect.SetSelected(shockLabels[0])
	}
	state.varChecks.SetSelected(varLabels) // everything selected by default
}

// variableLabels returns the sorted long names of every variable with data.
func variableLabels(col irf.Collection, reg *model.Registry) []string {
	seen := map[string]bool{}
	for _, table := range col {
		for v := range table {
			seen[v] = true
		}
	}
	labels := make([]string, 0, len(seen))
	for v := range seen {
		label, err := reg.Convert(v, model.Endo, model.Long)
		if err != nil {
			label = v
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// composeCurrent builds the figure for the current selection. Screen renders
// size panels from the window; exports use the configured geometry.
func composeCurrent(state *uiState, forScreen bool) (*plot.Figure, error) {
	if state.reg == nil || state.shock == "" {
		return nil, fmt.Errorf("no data loaded")
	}
	table, ok := state.col[state.shock]
	if !ok {
		return nil, fmt.Errorf("no IRF data for shock %q", state.shock)
	}

	variables := make([]string, 0, len(state.selectedVars))
	for _, label := range state.selectedVars {
		short, err := state.reg.Convert(label, model.Endo, model.Short)
		if err != nil {
			short = label
		}
		variables = append(variables, short)
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("no variables selected")
	}

	opts := state.cfg.PlotOptions(len(variables))
	opts.ShowTitleOnScreen = true
	opts.ShowTitleOnExport = state.showTitleExport
	if forScreen && state.window != nil && state.window.Canvas() != nil {
		_, cols := plot.Layout(len(variables), state.cfg.Columns)
		opts.PanelWidth, opts.PanelHeight = panelSize(state.window.Canvas().Size().Width, cols)
	}

	style := state.cfg.Style(0)
	style.Label = sourceLabel(state)
	sources := []plot.Source{{Name: sourceLabel(state), Table: table, Style: style}}
	return plot.Compose(sources, variables, state.shock, state.reg, opts)
}

func sourceLabel(state *uiState) string {
	if len(state.cfg.SourceStyles) > 0 && state.cfg.SourceStyles[0].LegendLabel != "" {
		return state.cfg.SourceStyles[0].LegendLabel
	}
	return state.filePath
}

// redraw recomputes the whole figure from current inputs; there is no
// incremental state to patch up.
func redraw(state *uiState) {
	fig, err := composeCurrent(state, true)
	if err != nil {
		state.status.SetText(err.Error())
		return
	}
	var buf bytes.Buffer
	if err := fig.RenderPNG(&buf, false); err != nil {
		state.status.SetText(fmt.Sprintf("render: %v", err))
		return
	}
	img, err := png.Decode(&buf)
	if err != nil {
		state.status.SetText(fmt.Sprintf("decode: %v", err))
		return
	}
	state.figImage.Image = img
	state.figImage.Refresh()
	state.status.SetText(fmt.Sprintf("%d panels, %d inactive cells", len(fig.Panels), fig.InactiveCells()))
}

func exportFigurePNG(state *uiState) {
	fig, err := composeCurrent(state, false)
	if err != nil {
		dialog.ShowInformation("Export", "Nothing to export yet.", state.window)
		return
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := fig.RenderPNG(wc, true); err != nil {
			irflog.Errorf("export failed: %v", err)
		}
	}, state.window)
	fs.SetFileName("irf.png")
	fs.Show()
}

func saveOptions(state *uiState) {
	cfg := state.cfg
	cfg.SelectedVariables = append([]string(nil), state.selectedVars...)
	if state.reg != nil && state.shock != "" {
		if label, err := state.reg.Convert(state.shock, model.Exo, model.Long); err == nil {
			cfg.SelectedShock = label
		}
	}
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := plotconfig.Export(wc, cfg); err != nil {
			irflog.Errorf("save options: %v", err)
		}
	}, state.window)
	fs.SetFileName("plot_options.yaml")
	fs.Show()
}

func loadOptions(state *uiState) {
	fo := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		cfg, err := plotconfig.Import(rc)
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		state.cfg = cfg
		if len(cfg.SelectedVariables) > 0 {
			state.varChecks.SetSelected(cfg.SelectedVariables)
		}
		if cfg.SelectedShock != "" {
			state.shockSelect.SetSelected(cfg.SelectedShock)
		}
		redraw(state)
	}, state.window)
	fo.Show()
}
