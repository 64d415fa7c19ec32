package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mitsuhir0/dynare-irf-plotter/src/irf"
	"github.com/mitsuhir0/dynare-irf-plotter/src/model"
)

func testSource(t *testing.T) *source {
	t.Helper()
	reg, err := model.NewRegistry(model.Metadata{
		Endo:     []string{"y", "pi"},
		EndoLong: []string{"Output", "Inflation"},
		Exo:      []string{"eps_u"},
		ExoLong:  []string{"cost push shock"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &source{
		name: "sample",
		reg:  reg,
		col: irf.Collection{
			"eps_u": irf.ResponseTable{"y": {1, 2}, "pi": {3, 4}},
		},
	}
}

func TestSourceName(t *testing.T) {
	cases := []struct{ path, want string }{
		{"sample.mat", "sample"},
		{"/data/runs/baseline_v2.mat", "baseline_v2"},
		{"noext", "noext"},
	}
	for _, c := range cases {
		if got := sourceName(c.path); got != c.want {
			t.Fatalf("sourceName(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestResolveShock_ShortLongAndMissing(t *testing.T) {
	s := testSource(t)

	got, err := resolveShock("eps_u", s.reg, s.col)
	if err != nil || got != "eps_u" {
		t.Fatalf("short code: %q, %v", got, err)
	}
	got, err = resolveShock("cost push shock", s.reg, s.col)
	if err != nil || got != "eps_u" {
		t.Fatalf("long label: %q, %v", got, err)
	}
	if _, err := resolveShock("eps_z", s.reg, s.col); err == nil {
		t.Fatalf("expected error for unknown shock")
	}
}

func TestResolveVariables_MixedNames(t *testing.T) {
	s := testSource(t)
	got, err := resolveVariables([]string{"Output", "pi"}, s.reg)
	if err != nil {
		t.Fatalf("resolveVariables: %v", err)
	}
	if diff := cmp.Diff([]string{"y", "pi"}, got); diff != "" {
		t.Fatalf("resolution mismatch (-want +got):\n%s", diff)
	}
	if _, err := resolveVariables([]string{"GDP deflator"}, s.reg); err == nil {
		t.Fatalf("expected error for unknown variable")
	}
}

func TestPanelCount(t *testing.T) {
	s := testSource(t)
	if got := panelCount([]string{"y"}, []*source{s}, "eps_u"); got != 1 {
		t.Fatalf("explicit selection: %d", got)
	}
	if got := panelCount(nil, []*source{s}, "eps_u"); got != 2 {
		t.Fatalf("derived from data: %d", got)
	}
	if got := panelCount(nil, []*source{s}, "absent"); got != 0 {
		t.Fatalf("absent shock: %d", got)
	}
}
