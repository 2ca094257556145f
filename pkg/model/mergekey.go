// Copyright © 2020 Skyline Tools

package model

// MergeKey identifies one reconciliation request: merging a given source
// version into a given destination module version.
//
// Keys are recorded in a run-scoped set: once a key has been reconciled, any
// further request for the same key within the run is a no-op.
type MergeKey struct {
	Target ModuleVersion
	Source Version
}

// NewMergeKey builds the dedup token for a (destination, source) pair.
func NewMergeKey(target ModuleVersion, source Version) MergeKey {
	return MergeKey{Target: target, Source: source}
}

// String yields a canonical rendering, e.g.
// "platform/app@branch/main <- branch/release".
func (k MergeKey) String() string {
	return k.Target.String() + " <- " + k.Source.String()
}
