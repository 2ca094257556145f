// Package status exports errors produced by the core package.
package status

import (
	"github.com/skylinetools/graft/pkg/errors"
)

var (
	// ErrUnknownRoot indicates a traversal root naming an unknown module or a nonexistent version
	ErrUnknownRoot = errors.New("unknown module or version for traversal root")

	// ErrCapabilityRequired indicates a module lacking a capability the engine cannot proceed without
	ErrCapabilityRequired = errors.New("required capability missing on module")

	// ErrUnsynchronized indicates a working directory with unsynchronized changes under a fail policy
	ErrUnsynchronized = errors.New("working directory has unsynchronized changes")

	// ErrUpdateConflicts indicates a refresh that could not be applied over local changes
	ErrUpdateConflicts = errors.New("update produced conflicts in working directory")

	// ErrAborted indicates a job-wide cooperative abort
	ErrAborted = errors.New("job aborted")

	// ErrPromotionDeclined indicates the operator refused to create a dynamic version for a promoted reference
	ErrPromotionDeclined = errors.New("promotion of static reference declined")
)
