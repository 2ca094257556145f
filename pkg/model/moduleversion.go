// Copyright © 2020 Skyline Tools

package model

import (
	"fmt"
	"strings"
)

const moduleVersionSep = "@"

// ModuleVersion pins a module at one of its versions.
//
// It is an immutable value compared with ==: two ModuleVersions are the same
// exactly when both the module path and the version are equal.
type ModuleVersion struct {
	Module  string
	Version Version
}

// NewModuleVersion builds a ModuleVersion from a module path and a version.
func NewModuleVersion(module string, v Version) ModuleVersion {
	return ModuleVersion{Module: module, Version: v}
}

// ParseModuleVersion parses the "<module-path>@<version-literal>" form,
// e.g. "platform/app-alpha@branch/main".
func ParseModuleVersion(literal string) (ModuleVersion, error) {
	module, version, found := strings.Cut(literal, moduleVersionSep)
	if !found {
		return ModuleVersion{}, fmt.Errorf("invalid module version %q: want <module-path>@<version>", literal)
	}
	if err := ValidateModulePath(module); err != nil {
		return ModuleVersion{}, err
	}
	v, err := ParseVersion(version)
	if err != nil {
		return ModuleVersion{}, err
	}
	return ModuleVersion{Module: module, Version: v}, nil
}

// ValidateModulePath checks the path of a module: slash-separated, non-empty
// segments, without any version separator.
func ValidateModulePath(module string) error {
	if module == "" {
		return fmt.Errorf("empty module path")
	}
	if strings.Contains(module, moduleVersionSep) {
		return fmt.Errorf("invalid module path %q: %q is reserved", module, moduleVersionSep)
	}
	for _, segment := range strings.Split(module, "/") {
		if segment == "" {
			return fmt.Errorf("invalid module path %q: empty segment", module)
		}
	}
	return nil
}

// IsZero tells whether this value identifies no module at all.
func (m ModuleVersion) IsZero() bool {
	return m.Module == "" && m.Version.IsZero()
}

// String yields the "<module-path>@<version-literal>" form.
func (m ModuleVersion) String() string {
	return m.Module + moduleVersionSep + m.Version.String()
}

// MarshalYAML serializes module versions as their literal form.
func (m ModuleVersion) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML deserializes module versions from their literal form.
func (m *ModuleVersion) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var literal string
	if err := unmarshal(&literal); err != nil {
		return err
	}
	if literal == "" {
		*m = ModuleVersion{}
		return nil
	}
	parsed, err := ParseModuleVersion(literal)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
