// Package irf recovers per-shock impulse response tables from the flat,
// separator-free field namespace Dynare writes into oo_.irfs. A field named
// "y_eps_u" is the response of variable "y" to shock "eps_u"; nothing in the
// container marks where the variable ends and the shock begins, so the split
// is reconstructed against the registry's known name lists.
package irf

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

// Fields is the materialized raw field collection: every numeric-array
// attribute of the results record, keyed by its flat name. The loader filters
// out non-array diagnostics before handing this over, so extraction never
// needs to introspect value kinds.
type Fields map[string][]float64

// ResponseTable maps endogenous short names to response series for one shock.
// Series conceptually share a time index 0..T-1 but lengths are not enforced
// to be equal; callers slicing by period must clamp per series.
type ResponseTable map[string][]float64

// Collection maps exogenous short names to their response tables. Built once
// per loaded source and treated as read-only afterwards.
type Collection map[string]ResponseTable

// ErrNoData is returned when extraction matches nothing at all. Individual
// unmatched fields are expected and skipped; a collection with no matches
// means the source is not usable.
var ErrNoData = errors.New("no IRF data matched any known variable/shock pair")

// AmbiguousFieldError reports a field name that parses as more than one valid
// (variable, shock) pair, e.g. "y_u" with shocks "u" and "eps_u" alongside
// variables "y" and "y_eps". Picking a winner silently would attribute the
// series to the wrong shock, so this is a hard failure.
type AmbiguousFieldError struct {
	Field  string
	Splits []string // "variable/shock" renderings of each candidate
}

func (e *AmbiguousFieldError) Error() string {
	return fmt.Sprintf("field %q is ambiguous: matches %s", e.Field, strings.Join(e.Splits, ", "))
}

type split struct {
	variable string
	shock    string
}

// splitField enumerates every (variable, shock) pair the field name can
// decompose into: the shock short name must be a "_"-separated suffix and the
// remaining prefix must be a known endogenous short name.
func splitField(name string, endo, exo map[string]bool) []split {
	var out []split
	for shock := range exo {
		suffix := "_" + shock
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		variable := name[:len(name)-len(suffix)]
		if endo[variable] {
			out = append(out, split{variable: variable, shock: shock})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].shock < out[j].shock })
	return out
}

// Extract groups the field collection into one ResponseTable per shock.
// Fields that decompose into no known pair are dropped without error; fields
// that decompose into several pairs abort with AmbiguousFieldError; an empty
// result aborts with ErrNoData.
func Extract(fields Fields, reg *model.Registry) (Collection, error) {
	endo := toSet(reg.EndoNames())
	exo := toSet(reg.ExoNames())

	// Stable iteration so a malformed source reports the same field every run.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := Collection{}
	for _, name := range names {
		splits := splitField(name, endo, exo)
		switch len(splits) {
		case 0:
			continue
		case 1:
			s := splits[0]
			table := out[s.shock]
			if table == nil {
				table = ResponseTable{}
				out[s.shock] = table
			}
			table[s.variable] = fields[name]
		default:
			rendered := make([]string, len(splits))
			for i, s := range splits {
				rendered[i] = s.variable + "/" + s.shock
			}
			return nil, &AmbiguousFieldError{Field: name, Splits: rendered}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Shocks returns the shock short names present in the collection, sorted.
func (c Collection) Shocks() []string {
	out := make([]string, 0, len(c))
	for shock := range c {
		out = append(out, shock)
	}
	sort.Strings(out)
	return out
}

// AvailableVariables returns, per shock, the sorted variable short names that
// have data. Used when intersecting variable sets across several sources.
func AvailableVariables(c Collection) map[string][]string {
	out := make(map[string][]string, len(c))
	for shock, table := range c {
		vars := make([]string, 0, len(table))
		for v := range table {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		out[shock] = vars
	}
	return out
}

// CommonShocks returns the sorted shock names present in every collection.
func CommonShocks(collections []Collection) []string {
	if len(collections) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, c := range collections {
		for shock := range c {
			counts[shock]++
		}
	}
	var out []string
	for shock, n := range counts {
		if n == len(collections) {
			out = append(out, shock)
		}
	}
	sort.Strings(out)
	return out
}

// CommonVariables returns the sorted variable names that have data in every
// collection, under any shock. This is the selectable set in multi-source
// comparison mode.
func CommonVariables(collections []Collection) []string {
	if len(collections) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, c := range collections {
		seen := map[string]bool{}
		for _, table := range c {
			for v := range table {
				seen[v] = true
			}
		}
		for v := range seen {
			counts[v]++
		}
	}
	var out []string
	for v, n := range counts {
		if n == len(collections) {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
