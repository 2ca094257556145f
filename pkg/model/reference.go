// Copyright © 2020 Skyline Tools

package model

// Reference is one edge of the reference graph: a declaration found in a
// module's sources that it consumes another module at a given version.
//
// A reference may be unresolved: the declaration names something the registry
// does not know as a module (e.g. an external artifact with no module
// mapping). Unresolved references keep only their raw declaration text and
// are always skipped by traversal and reconciliation, never treated as
// errors.
type Reference struct {
	Module  string
	Version Version

	// Raw keeps the declaration as found in the sources, for diagnostics on
	// unresolved references.
	Raw string

	_ struct{}
}

// NewReference builds a resolved reference to a module version.
func NewReference(mv ModuleVersion) Reference {
	return Reference{Module: mv.Module, Version: mv.Version}
}

// NewUnresolvedReference builds a reference whose target is not a module
// known to the system.
func NewUnresolvedReference(raw string) Reference {
	return Reference{Raw: raw}
}

// IsResolved tells whether the reference points at a known module version.
func (r Reference) IsResolved() bool {
	return r.Module != "" && !r.Version.IsZero()
}

// ModuleVersion yields the module version this reference points at.
// Meaningless on unresolved references.
func (r Reference) ModuleVersion() ModuleVersion {
	return ModuleVersion{Module: r.Module, Version: r.Version}
}

// String renders the target module version, or the raw declaration for
// unresolved references.
func (r Reference) String() string {
	if !r.IsResolved() {
		return "?" + r.Raw
	}
	return r.ModuleVersion().String()
}
