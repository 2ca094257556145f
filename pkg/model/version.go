// Copyright © 2020 Skyline Tools

package model

import (
	"fmt"
	"strings"
)

// VersionKind distinguishes mutable lines of development from frozen revisions.
type VersionKind int

const (
	// Dynamic identifies a mutable line of development (branch-like).
	Dynamic VersionKind = iota

	// Static identifies an immutable point-in-time revision (tag-like).
	// Static names are never reassigned to different content.
	Static
)

const (
	dynamicPrefix = "branch"
	staticPrefix  = "tag"
	literalSep    = "/"
)

func (k VersionKind) String() string {
	switch k {
	case Dynamic:
		return dynamicPrefix
	case Static:
		return staticPrefix
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Version is a named revision of a module.
//
// Versions are immutable values compared with ==. The literal form is
// "branch/<name>" for dynamic versions and "tag/<name>" for static ones;
// names may themselves contain slashes.
//
// The zero Version is the nil version: it has no name and is invalid wherever
// an actual revision is expected.
type Version struct {
	Kind VersionKind
	Name string
}

// NewDynamic builds a dynamic (branch) version.
func NewDynamic(name string) Version {
	return Version{Kind: Dynamic, Name: name}
}

// NewStatic builds a static (tag) version.
func NewStatic(name string) Version {
	return Version{Kind: Static, Name: name}
}

// ParseVersion parses the literal form of a version.
func ParseVersion(literal string) (Version, error) {
	kind, name, found := strings.Cut(literal, literalSep)
	if !found || name == "" {
		return Version{}, fmt.Errorf("invalid version literal %q: want branch/<name> or tag/<name>", literal)
	}
	switch kind {
	case dynamicPrefix:
		return NewDynamic(name), nil
	case staticPrefix:
		return NewStatic(name), nil
	default:
		return Version{}, fmt.Errorf("invalid version kind %q in %q: want %q or %q", kind, literal, dynamicPrefix, staticPrefix)
	}
}

// MustParseVersion parses a version literal and panics on invalid input.
// Reserved for fixtures and tests.
func MustParseVersion(literal string) Version {
	v, err := ParseVersion(literal)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero tells whether this is the nil version.
func (v Version) IsZero() bool {
	return v.Name == ""
}

// IsDynamic tells whether the version is a mutable line of development.
func (v Version) IsDynamic() bool {
	return !v.IsZero() && v.Kind == Dynamic
}

// IsStatic tells whether the version is a frozen revision.
func (v Version) IsStatic() bool {
	return !v.IsZero() && v.Kind == Static
}

// String yields the literal form, or the empty string for the nil version.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return v.Kind.String() + literalSep + v.Name
}

// MarshalYAML serializes versions as their literal form.
func (v Version) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

// UnmarshalYAML deserializes versions from their literal form.
func (v *Version) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var literal string
	if err := unmarshal(&literal); err != nil {
		return err
	}
	if literal == "" {
		*v = Version{}
		return nil
	}
	parsed, err := ParseVersion(literal)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
