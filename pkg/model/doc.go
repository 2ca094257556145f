// Package model describes the base objects manipulated by graft.
//
// The object model for graft is composed of:
//
//	Modules:
//	  A module is one independently versioned source tree, identified by a
//	  slash-separated path within the estate (e.g. "platform/app-alpha").
//
//	Versions:
//	  A version names one revision of a module. Dynamic versions (branches)
//	  are mutable lines of development; static versions (tags) are frozen.
//
//	References:
//	  A reference is a declaration, found in a module's sources, that it
//	  consumes another module at a given version. References form a directed
//	  graph over the estate, usually a DAG but not a tree.
//
//	Reference paths:
//	  The route from a traversal root down to the current module, kept as a
//	  strict stack and rendered as a breadcrumb in diagnostics.
//
//	Commits:
//	  The unit of change reported by a source-control backend. Commits carry
//	  an attribute map; two attribute keys mark mechanical version bumps that
//	  must never count as real divergence.
package model
