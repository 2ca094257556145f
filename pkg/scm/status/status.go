// Package status exports errors produced by source-control backends.
package status

import (
	"github.com/skylinetools/graft/pkg/errors"
)

var (
	// ErrVersionNotFound indicates an operation against a version unknown to the backend
	ErrVersionNotFound = errors.New("version not found")

	// ErrVersionExists indicates an attempt to create a version that already exists
	ErrVersionExists = errors.New("version already exists")

	// ErrStaticImmutable indicates an attempt to commit on a static (frozen) version
	ErrStaticImmutable = errors.New("static versions are immutable")

	// ErrNotCheckedOut indicates a directory that does not hold a checkout
	ErrNotCheckedOut = errors.New("directory is not a checkout")

	// ErrOutOfSync indicates a working directory lagging behind its version line
	ErrOutOfSync = errors.New("working directory out of sync with its version")

	// ErrNoChanges indicates a commit request on a pristine working directory
	ErrNoChanges = errors.New("no changes to commit")
)
