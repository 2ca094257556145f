// Copyright © 2020 Skyline Tools

package core

import (
	"fmt"
	"time"

	"github.com/skylinetools/graft/pkg/model"
)

// Outcome classifies what happened to one reconciled pair or reference.
type Outcome string

const (
	// OutcomeMerged means source changes were merged cleanly.
	OutcomeMerged Outcome = "merged"

	// OutcomeNoChanges means there was nothing to merge.
	OutcomeNoChanges Outcome = "no changes"

	// OutcomeConflicts means the merge left conflicts to resolve.
	OutcomeConflicts Outcome = "conflicts"

	// OutcomeSkipped means the pair had already been reconciled this run.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeReferenceUpdate means a destination reference was rewritten to
	// the source's version.
	OutcomeReferenceUpdate Outcome = "reference update"

	// OutcomePromotion means a static destination reference was promoted to
	// a dynamic version.
	OutcomePromotion Outcome = "promotion"

	// OutcomeReferenceConflict means both sides of a reference diverged.
	OutcomeReferenceConflict Outcome = "reference conflict"

	// OutcomeAbandoned means the branch could not be reconciled, e.g. the
	// reference has no counterpart in the source graph.
	OutcomeAbandoned Outcome = "abandoned"
)

// ReportEntry records one outcome with its full path context on both sides.
type ReportEntry struct {
	Destination     model.ModuleVersion
	Source          model.Version
	Outcome         Outcome
	Detail          string
	SourcePath      string
	DestinationPath string
	_               struct{}
}

// String renders the entry on one line.
func (e ReportEntry) String() string {
	s := fmt.Sprintf("%-18s %s <- %s", e.Outcome, e.Destination, e.Source)
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

// MergeReport accumulates the outcomes of one merge job run.
type MergeReport struct {
	Started     time.Time
	Finished    time.Time
	Entries     []ReportEntry
	Warnings    []string
	AbortReason string
	_           struct{}
}

func newMergeReport() *MergeReport {
	return &MergeReport{Started: time.Now()}
}

func (r *MergeReport) add(entry ReportEntry) {
	r.Entries = append(r.Entries, entry)
}

func (r *MergeReport) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Elapsed yields the wall time of the run.
func (r *MergeReport) Elapsed() time.Duration {
	finished := r.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	return finished.Sub(r.Started)
}

// Count yields the number of entries with the given outcome.
func (r *MergeReport) Count(outcome Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == outcome {
			n++
		}
	}
	return n
}

// HasConflicts tells whether any merge or reference conflict was recorded.
func (r *MergeReport) HasConflicts() bool {
	return r.Count(OutcomeConflicts) > 0 || r.Count(OutcomeReferenceConflict) > 0
}
