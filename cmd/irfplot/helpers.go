package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

// source is one loaded result file, ready for composition.
type source struct {
	name string
	reg  *model.Registry
	col  irf.Collection
}

// sourceName derives the display name from the file path, extension dropped.
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveShock accepts either a short code or a long label and returns the
// short code, verifying the collection actually has data for it.
func resolveShock(name string, reg *model.Registry, col irf.Collection) (string, error) {
	short := name
	if _, ok := col[short]; !ok {
		converted, err := reg.Convert(name, model.Exo, model.Short)
		if err != nil {
			return "", err
		}
		short = converted
	}
	if _, ok := col[short]; !ok {
		return "", fmt.Errorf("no IRF data for shock %q", name)
	}
	return short, nil
}

// resolveVariables maps a mixed list of short codes and long labels to short
// codes, preserving order.
func resolveVariables(names []string, reg *model.Registry) ([]string, error) {
	endo := map[string]bool{}
	for _, n := range reg.EndoNames() {
		endo[n] = true
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if endo[n] {
			out = append(out, n)
			continue
		}
		short, err := reg.Convert(n, model.Endo, model.Short)
		if err != nil {
			return nil, err
		}
		out = append(out, short)
	}
	return out, nil
}
