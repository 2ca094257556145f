// Package core implements the reference-graph engine of graft: lazy graph
// traversal with at-most-once visiting, merge reconciliation between two
// parallel instances of a module graph, and structural divergence
// verification.
//
// The traversal engine (Walker) discovers the graph by checking out module
// sources and reading their reference declarations, dispatching a Visitor at
// nodes matched by a PathMatcher. The merge job (MergeJob) is one such
// visitor; the divergence verifier (Verifier) is the sub-algorithm deciding
// whether two revisions of a module, including their referenced sub-graphs,
// hold content the other side lacks.
//
// One job invocation runs on a single logical thread: recursion, not
// parallel fan-out, drives exploration. Cooperative cancellation goes
// through an AbortFlag checked after every child step.
package core
