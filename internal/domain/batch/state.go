// Package batch provides the Batch entity: one traceable lot of an item
// with per-state quantities (Raw, WIP per process, Finished, Scrap).
package batch

import (
	"strings"
)

// State is a lifecycle state a batch quantity can sit in.
// WIP states are per-process: "WIP_Cutting", "WIP_Zinc", etc.
type State string

const (
	StateRaw        State = "Raw"
	StateFinished   State = "Finished"
	StateScrap      State = "Scrap"
	StateDispatched State = "Dispatched" // terminal, quantity leaves the batch
)

const wipPrefix = "WIP_"

// Process names a manufacturing step. The set is open: new processes are
// added without schema changes, so this is a string, not an enum.
type Process string

// KnownProcesses are the processes the consumption report buckets by.
// Movements for other processes are still counted as issued, just not
// bucketed.
var KnownProcesses = []Process{
	"cutting", "bending", "welding", "zinc",
	"painting", "assembly", "machining", "polishing",
}

// WIPState builds the WIP state for a process: "cutting" -> "WIP_Cutting".
func WIPState(p Process) State {
	name := string(p)
	if name == "" {
		return State(wipPrefix)
	}
	return State(wipPrefix + strings.ToUpper(name[:1]) + strings.ToLower(name[1:]))
}

// IsWIP reports whether the state is a per-process WIP state.
func (s State) IsWIP() bool {
	return strings.HasPrefix(string(s), wipPrefix)
}

// Process extracts the process name from a WIP state.
// Returns false for non-WIP states.
func (s State) Process() (Process, bool) {
	if !s.IsWIP() {
		return "", false
	}
	return Process(strings.ToLower(strings.TrimPrefix(string(s), wipPrefix))), true
}

// QualityStatus is the inspection status of a batch.
type QualityStatus string

const (
	QualityGood              QualityStatus = "good"
	QualityPendingInspection QualityStatus = "pending_inspection"
	QualityDefective         QualityStatus = "defective"
)

// SourceType records where a batch came from.
type SourceType string

const (
	SourcePurchase   SourceType = "purchase"
	SourceProduction SourceType = "production"
	SourceJobWork    SourceType = "jobwork"
)
