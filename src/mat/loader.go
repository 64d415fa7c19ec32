package mat

import (
	"fmt"
	"strings"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/irflog"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

// Document is the loader's view of one Dynare result file: the model
// metadata record plus the eagerly materialized name->vector map the
// extractor consumes. Nothing downstream touches the container again.
type Document struct {
	Path     string
	Metadata model.Metadata
	Fields   irf.Fields
}

// LoadDocument opens, decodes and materializes path.
func LoadDocument(path string) (*Document, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	doc, err := NewDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// NewDocument extracts the M_ and oo_.irfs records from a decoded file.
func NewDocument(f *File) (*Document, error) {
	m, ok := f.Arrays["M_"]
	if !ok || m.Class != ClassStruct {
		return nil, fmt.Errorf("result file has no M_ record")
	}
	oo, ok := f.Arrays["oo_"]
	if !ok || oo.Class != ClassStruct {
		return nil, fmt.Errorf("result file has no oo_ record")
	}
	irfs := oo.Fields["irfs"]
	if irfs == nil || irfs.Class != ClassStruct {
		return nil, &model.MissingAttributeError{Attr: "irfs"}
	}

	doc := &Document{
		Metadata: model.Metadata{
			Endo:     nameList(m, "endo_names"),
			EndoLong: nameList(m, "endo_names_long"),
			Exo:      nameList(m, "exo_names"),
			ExoLong:  nameList(m, "exo_names_long"),
		},
		Fields: irf.Fields{},
	}
	skipped := 0
	for name, a := range irfs.Fields {
		if !a.IsNumeric() || len(a.Numeric) == 0 {
			// The results record routinely carries non-array diagnostics.
			skipped++
			continue
		}
		doc.Fields[name] = a.Numeric
	}
	irflog.Debugf("materialized %d IRF fields (%d non-numeric skipped)", len(doc.Fields), skipped)
	return doc, nil
}

// nameList pulls a name list stored either as a space-padded char matrix
// (older Dynare) or a cell array of char vectors (newer Dynare). Absent or
// unusable attributes yield nil; model.Metadata.Validate turns that into the
// caller-facing missing-attribute error.
func nameList(m *Array, attr string) []string {
	a := m.Fields[attr]
	if a == nil {
		return nil
	}
	switch a.Class {
	case ClassChar:
		rows := a.Rows()
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = strings.TrimSpace(r)
		}
		return out
	case ClassCell:
		out := make([]string, 0, len(a.Cells))
		for _, cell := range a.Cells {
			if cell.Class != ClassChar {
				return nil
			}
			out = append(out, strings.TrimSpace(cell.String()))
		}
		return out
	default:
		return nil
	}
}
