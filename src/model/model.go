// Package model holds the Dynare model metadata (variable and shock name
// lists) and the registry that translates between short codes and long
// display labels.
package model

import "fmt"

// VarType selects between endogenous variables and exogenous shocks.
type VarType string

// Length selects between the compact code and the human-readable label.
type Length string

const (
	Endo VarType = "endo"
	Exo  VarType = "exo"

	Short Length = "short"
	Long  Length = "long"
)

// Metadata carries the four ordered name lists from the model record (M_).
// Each short/long pair is index-aligned: Endo[i] is the code for EndoLong[i].
type Metadata struct {
	Endo     []string
	EndoLong []string
	Exo      []string
	ExoLong  []string
}

// Validate checks that all four lists are present and index-aligned.
// A nil list yields a MissingAttributeError naming the source attribute.
func (m Metadata) Validate() error {
	for _, c := range []struct {
		attr string
		list []string
	}{
		{"endo_names", m.Endo},
		{"endo_names_long", m.EndoLong},
		{"exo_names", m.Exo},
		{"exo_names_long", m.ExoLong},
	} {
		if c.list == nil {
			return &MissingAttributeError{Attr: c.attr}
		}
	}
	if len(m.Endo) != len(m.EndoLong) {
		return fmt.Errorf("endo_names has %d entries but endo_names_long has %d", len(m.Endo), len(m.EndoLong))
	}
	if len(m.Exo) != len(m.ExoLong) {
		return fmt.Errorf("exo_names has %d entries but exo_names_long has %d", len(m.Exo), len(m.ExoLong))
	}
	return nil
}
