package irf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

func registryFor(t *testing.T, endo, exo []string) *model.Registry {
	t.Helper()
	r, err := model.NewRegistry(model.Metadata{
		Endo:     endo,
		EndoLong: append([]string(nil), endo...),
		Exo:      exo,
		ExoLong:  append([]string(nil), exo...),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestExtract_GroupsByShock(t *testing.T) {
	reg := registryFor(t, []string{"a", "b"}, []string{"e", "u"})
	v1 := []float64{1, 2}
	v2 := []float64{3, 4}
	v3 := []float64{5, 6}
	got, err := Extract(Fields{"a_e": v1, "b_e": v2, "a_u": v3}, reg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Collection{
		"e": ResponseTable{"a": v1, "b": v2},
		"u": ResponseTable{"a": v3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_UnrelatedFieldsDropped(t *testing.T) {
	reg := registryFor(t, []string{"a"}, []string{"e"})
	got, err := Extract(Fields{
		"a_e":        {1},
		"foo":        {9, 9},  // matches nothing
		"a_e_approx": {7},     // shock suffix absent
		"z_e":        {8},     // prefix is not a known variable
	}, reg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := Collection{"e": ResponseTable{"a": {1}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_EmptyResultIsNoData(t *testing.T) {
	reg := registryFor(t, []string{"a"}, []string{"e"})
	_, err := Extract(Fields{"foo": {1}, "bar": {2}}, reg)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestExtract_AmbiguousSplitFailsFast(t *testing.T) {
	// "y_eps_u" parses both as (y, eps_u) and as (y_eps, u).
	reg := registryFor(t, []string{"y", "y_eps"}, []string{"u", "eps_u"})
	_, err := Extract(Fields{"y_eps_u": {1, 2, 3}}, reg)
	var amb *AmbiguousFieldError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousFieldError, got %v", err)
	}
	if amb.Field != "y_eps_u" {
		t.Fatalf("unexpected field %q", amb.Field)
	}
	if len(amb.Splits) != 2 {
		t.Fatalf("expected 2 candidate splits, got %v", amb.Splits)
	}
}

func TestExtract_LongerShockCodeWinsWhenUnambiguous(t *testing.T) {
	// Only (y, eps_u) is valid: "y_eps" is not a variable here, so the
	// overlap between shock codes "u" and "eps_u" resolves cleanly.
	reg := registryFor(t, []string{"y"}, []string{"u", "eps_u"})
	got, err := Extract(Fields{"y_eps_u": {1}}, reg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := got["eps_u"]; !ok {
		t.Fatalf("series attributed to wrong shock: %v", got.Shocks())
	}
}

func TestAvailableVariables_Sorted(t *testing.T) {
	c := Collection{
		"e": ResponseTable{"b": {1}, "a": {2}},
		"u": ResponseTable{"c": {3}},
	}
	got := AvailableVariables(c)
	want := map[string][]string{"e": {"a", "b"}, "u": {"c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("availability mismatch (-want +got):\n%s", diff)
	}
}

func TestCommonShocksAndVariables(t *testing.T) {
	c1 := Collection{
		"e": ResponseTable{"a": {1}, "b": {2}},
		"u": ResponseTable{"a": {3}},
	}
	c2 := Collection{
		"u": ResponseTable{"a": {4}, "c": {5}},
	}
	if diff := cmp.Diff([]string{"u"}, CommonShocks([]Collection{c1, c2})); diff != "" {
		t.Fatalf("common shocks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, CommonVariables([]Collection{c1, c2})); diff != "" {
		t.Fatalf("common variables (-want +got):\n%s", diff)
	}
	if got := CommonShocks(nil); got != nil {
		t.Fatalf("expected nil for no collections, got %v", got)
	}
}
