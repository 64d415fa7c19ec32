// irfplot extracts impulse response functions from Dynare result files and
// renders them as chart grids, from the command line.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/irflog"
	"github.com/mitsuhir0/dynare-irf-plotter/src/mat"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
	"github.com/mitsuhir0/dynare-irf-plotter/src/plot"
	"github.com/mitsuhir0/dynare-irf-plotter/src/plotconfig"
)

// The bundled sample.mat mislabels its cost push shock; Rename fixes it
// without touching the loader.
const (
	sampleTypoOld = "monetary policy shock"
	sampleTypoNew = "cost push shock"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "irfplot",
		Short:         "Extract and chart Dynare impulse response functions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			irflog.SetLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(newInfoCmd(), newPlotCmd())
	return root
}

func loadSource(path string, fixTypo bool) (*source, error) {
	doc, err := mat.LoadDocument(path)
	if err != nil {
		return nil, err
	}
	reg, err := model.NewRegistry(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if fixTypo {
		reg.Rename(model.Exo, sampleTypoOld, sampleTypoNew)
	}
	col, err := irf.Extract(doc.Fields, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	irflog.Debugf("%s: %d shocks with IRF data", path, len(col))
	return &source{name: sourceName(path), reg: reg, col: col}, nil
}

func newInfoCmd() *cobra.Command {
	var fixTypo bool
	cmd := &cobra.Command{
		Use:   "info <file.mat> [more.mat...]",
		Short: "List shocks and the variables that have IRF data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cols []irf.Collection
			for _, path := range args {
				src, err := loadSource(path, fixTypo)
				if err != nil {
					return err
				}
				cols = append(cols, src.col)

				fmt.Printf("%s:\n", src.name)
				avail := irf.AvailableVariables(src.col)
				for _, shock := range src.col.Shocks() {
					label, err := src.reg.Convert(shock, model.Exo, model.Long)
					if err != nil {
						label = shock
					}
					if label != shock {
						fmt.Printf("  %s (%s): %s\n", shock, label, strings.Join(avail[shock], " "))
					} else {
						fmt.Printf("  %s: %s\n", shock, strings.Join(avail[shock], " "))
					}
				}
			}
			if len(cols) > 1 {
				fmt.Printf("common shocks: %s\n", strings.Join(irf.CommonShocks(cols), " "))
				fmt.Printf("common variables: %s\n", strings.Join(irf.CommonVariables(cols), " "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fixTypo, "fix-sample-typo", false, "apply the sample.mat shock label correction")
	return cmd
}

func newPlotCmd() *cobra.Command {
	var (
		shockFlag  string
		varsFlag   []string
		configPath string
		outPath    string
		fixTypo    bool
		noTitle    bool
	)
	cmd := &cobra.Command{
		Use:   "plot <file.mat> [more.mat...]",
		Short: "Render one shock's impulse responses to a PNG or figure bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := plotconfig.Default()
			if configPath != "" {
				f, err := os.Open(configPath)
				if err != nil {
					return err
				}
				cfg, err = plotconfig.Import(f)
				f.Close()
				if err != nil {
					return err
				}
			}

			var sources []*source
			for _, path := range args {
				src, err := loadSource(path, fixTypo)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}
			reg := sources[0].reg

			shock := shockFlag
			if shock == "" {
				shock = cfg.SelectedShock
			}
			var err error
			if shock == "" {
				common := irf.CommonShocks(collections(sources))
				if len(common) == 0 {
					return irf.ErrNoData
				}
				shock = common[0]
				irflog.Infof("no shock selected, plotting %q", shock)
			} else if shock, err = resolveShock(shock, reg, sources[0].col); err != nil {
				return err
			}

			selected := varsFlag
			if len(selected) == 0 {
				selected = cfg.SelectedVariables
			}
			var variables []string
			if len(selected) > 0 {
				if variables, err = resolveVariables(selected, reg); err != nil {
					return err
				}
			}

			opts := cfg.PlotOptions(panelCount(variables, sources, shock))
			opts.ShowTitleOnScreen = true
			opts.ShowTitleOnExport = !noTitle

			plotSources := make([]plot.Source, 0, len(sources))
			for i, src := range sources {
				table, ok := src.col[shock]
				if !ok {
					irflog.Warnf("%s has no data for shock %q, skipped", src.name, shock)
					continue
				}
				style := cfg.Style(i)
				if style.Label == "" {
					style.Label = src.name
				}
				plotSources = append(plotSources, plot.Source{Name: src.name, Table: table, Style: style})
			}

			fig, err := plot.Compose(plotSources, variables, shock, reg, opts)
			if err != nil {
				return err
			}

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()
			if strings.HasSuffix(outPath, ".bundle") || strings.HasSuffix(outPath, ".gob") {
				data, err := plot.DumpFigure(fig)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			if err := fig.RenderPNG(out, true); err != nil {
				return err
			}
			irflog.Infof("wrote %s (%d panels, %d inactive cells)", outPath, len(fig.Panels), fig.InactiveCells())
			return nil
		},
	}
	cmd.Flags().StringVar(&shockFlag, "shock", "", "shock to plot (short code or long label)")
	cmd.Flags().StringSliceVar(&varsFlag, "vars", nil, "variables to plot (short codes or long labels; default all)")
	cmd.Flags().StringVar(&configPath, "config", "", "plot options YAML")
	cmd.Flags().StringVar(&outPath, "out", "irf.png", "output file (.png, or .bundle/.gob for a figure bundle)")
	cmd.Flags().BoolVar(&fixTypo, "fix-sample-typo", false, "apply the sample.mat shock label correction")
	cmd.Flags().BoolVar(&noTitle, "no-title", false, "omit the figure title from the exported artifact")
	return cmd
}

func collections(sources []*source) []irf.Collection {
	out := make([]irf.Collection, len(sources))
	for i, s := range sources {
		out[i] = s.col
	}
	return out
}

// panelCount sizes the grid before composition: explicit selection wins,
// otherwise every variable any source has under the shock.
func panelCount(variables []string, sources []*source, shock string) int {
	if len(variables) > 0 {
		return len(variables)
	}
	seen := map[string]bool{}
	for _, src := range sources {
		for v := range src.col[shock] {
			seen[v] = true
		}
	}
	return len(seen)
}
