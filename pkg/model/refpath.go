// Copyright © 2020 Skyline Tools

package model

import "strings"

const breadcrumbSep = " > "

// ReferencePath is the route from a traversal root down to the current
// module, kept as a strict stack of references.
//
// Every traversal frame pushes exactly one reference on entry and pops
// exactly one on every exit path, including error returns: callers are
// expected to pair each successful Push with a deferred Pop.
//
// The path doubles as a matcher input and as a human-readable breadcrumb in
// diagnostics.
type ReferencePath struct {
	frames []Reference
}

// NewReferencePath builds an empty path.
func NewReferencePath() *ReferencePath {
	return &ReferencePath{}
}

// Push appends one reference frame to the path.
func (p *ReferencePath) Push(ref Reference) {
	p.frames = append(p.frames, ref)
}

// Pop removes the leaf frame. Popping an empty path panics: it reveals a
// broken push/pop pairing in the caller, not a runtime condition.
func (p *ReferencePath) Pop() {
	if len(p.frames) == 0 {
		panic("reference path: pop on empty path")
	}
	p.frames = p.frames[:len(p.frames)-1]
}

// Len yields the current depth of the path.
func (p *ReferencePath) Len() int {
	return len(p.frames)
}

// Leaf yields the current (deepest) reference. The boolean is false on an
// empty path.
func (p *ReferencePath) Leaf() (Reference, bool) {
	if len(p.frames) == 0 {
		return Reference{}, false
	}
	return p.frames[len(p.frames)-1], true
}

// At yields the i-th frame from the root.
func (p *ReferencePath) At(i int) Reference {
	return p.frames[i]
}

// Clone yields an independent copy of the path, e.g. to keep a snapshot in a
// report after the traversal has unwound.
func (p *ReferencePath) Clone() *ReferencePath {
	frames := make([]Reference, len(p.frames))
	copy(frames, p.frames)
	return &ReferencePath{frames: frames}
}

// String renders the breadcrumb, e.g. "a@branch/main > b@tag/v1.2.0".
func (p *ReferencePath) String() string {
	elems := make([]string, 0, len(p.frames))
	for _, ref := range p.frames {
		elems = append(elems, ref.String())
	}
	return strings.Join(elems, breadcrumbSep)
}
