// Package status exports errors produced by the registry package.
package status

import (
	"github.com/skylinetools/graft/pkg/errors"
)

var (
	// ErrModuleNotFound indicates a module path unknown to the registry
	ErrModuleNotFound = errors.New("module not found in registry")

	// ErrNotSupported indicates a capability a module does not expose
	ErrNotSupported = errors.New("capability not supported by module")
)
