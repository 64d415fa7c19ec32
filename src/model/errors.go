package model

import "fmt"

// MissingAttributeError reports a required name list absent from the source metadata.
type MissingAttributeError struct {
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute: %s", e.Attr)
}

// NameNotFoundError reports a lookup for a name outside the known short/long lists.
type NameNotFoundError struct {
	Name string
	List string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("name %q not found in %s", e.Name, e.List)
}

// InvalidArgumentError reports an enum parameter outside its allowed set.
type InvalidArgumentError struct {
	Param string
	Value string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Param, e.Value)
}
