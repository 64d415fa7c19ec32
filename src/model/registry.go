package model

// Registry owns a validated Metadata and the derived lookup maps for
// short<->long translation. The maps are rebuilt after every Rename so the
// registry never serves stale indices.
type Registry struct {
	md Metadata

	endoByShort map[string]int
	endoByLong  map[string]int
	exoByShort  map[string]int
	exoByLong   map[string]int
}

// NewRegistry validates md and builds the lookup maps.
func NewRegistry(md Metadata) (*Registry, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{md: md}
	r.rebuild()
	return r, nil
}

func (r *Registry) rebuild() {
	r.endoByShort = indexOf(r.md.Endo)
	r.endoByLong = indexOf(r.md.EndoLong)
	r.exoByShort = indexOf(r.md.Exo)
	r.exoByLong = indexOf(r.md.ExoLong)
}

// indexOf maps each name to its first position. Long names are not required
// to be unique; the first occurrence wins on reverse lookup.
func indexOf(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := m[n]; !ok {
			m[n] = i
		}
	}
	return m
}

// EndoNames returns a copy of the endogenous short-name list in stored order.
func (r *Registry) EndoNames() []string { return append([]string(nil), r.md.Endo...) }

// ExoNames returns a copy of the exogenous short-name list in stored order.
func (r *Registry) ExoNames() []string { return append([]string(nil), r.md.Exo...) }

// Convert translates name to its counterpart of the requested length.
// Convert(x, vt, Long) expects a short name; Convert(x, vt, Short) expects a
// long name. For exogenous shocks whose recorded short and long names are
// identical (no descriptive label was authored), the input is returned
// unchanged so callers never surface a "long" name that is just the code.
func (r *Registry) Convert(name string, vt VarType, ln Length) (string, error) {
	switch vt {
	case Endo:
		switch ln {
		case Short:
			i, ok := r.endoByLong[name]
			if !ok {
				return "", &NameNotFoundError{Name: name, List: "endo_names_long"}
			}
			return r.md.Endo[i], nil
		case Long:
			i, ok := r.endoByShort[name]
			if !ok {
				return "", &NameNotFoundError{Name: name, List: "endo_names"}
			}
			return r.md.EndoLong[i], nil
		default:
			return "", &InvalidArgumentError{Param: "length", Value: string(ln)}
		}
	case Exo:
		switch ln {
		case Short:
			i, ok := r.exoByLong[name]
			if !ok {
				return "", &NameNotFoundError{Name: name, List: "exo_names_long"}
			}
			if r.md.Exo[i] == r.md.ExoLong[i] {
				return name, nil
			}
			return r.md.Exo[i], nil
		case Long:
			i, ok := r.exoByShort[name]
			if !ok {
				return "", &NameNotFoundError{Name: name, List: "exo_names"}
			}
			if r.md.Exo[i] == r.md.ExoLong[i] {
				return name, nil
			}
			return r.md.ExoLong[i], nil
		default:
			return "", &InvalidArgumentError{Param: "length", Value: string(ln)}
		}
	default:
		return "", &InvalidArgumentError{Param: "vartype", Value: string(vt)}
	}
}

// Rename replaces every occurrence of oldLong in the long-name list of the
// given category with newLong. Used to patch a known authoring typo in a
// reference dataset without touching the loader. Idempotent; a no-op when
// oldLong is not present.
func (r *Registry) Rename(vt VarType, oldLong, newLong string) {
	var list []string
	switch vt {
	case Endo:
		list = r.md.EndoLong
	case Exo:
		list = r.md.ExoLong
	default:
		return
	}
	changed := false
	for i, n := range list {
		if n == oldLong {
			list[i] = newLong
			changed = true
		}
	}
	if changed {
		r.rebuild()
	}
}
