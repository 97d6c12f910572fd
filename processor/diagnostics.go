// ABOUTME: Recorded warnings and ownership-cycle detection
// ABOUTME: Malformed input never aborts processing; it surfaces here instead

package processor

import (
	"fmt"
	"sort"

	"github.com/prateek/memlens/graph"
)

// WarningKind classifies a recorded processing warning.
type WarningKind int

const (
	// WarningUnitsMismatch means children being aggregated disagreed on the
	// units of a shared entry name.
	WarningUnitsMismatch WarningKind = iota
	// WarningSizeInconsistency means a node's reported size was smaller
	// than what its children or owners account for.
	WarningSizeInconsistency
	// WarningOwnershipCycle means nodes were skipped by the fixed-point
	// traversal because their ownership edges form a cycle.
	WarningOwnershipCycle
)

// String returns a short label for the kind.
func (k WarningKind) String() string {
	switch k {
	case WarningUnitsMismatch:
		return "units_mismatch"
	case WarningSizeInconsistency:
		return "size_inconsistency"
	case WarningOwnershipCycle:
		return "ownership_cycle"
	}
	return "unknown"
}

// Warning is one non-fatal finding recorded while processing a dump.
type Warning struct {
	Kind     WarningKind
	NodePath string
	Detail   string
}

// String renders the warning for logs.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Kind, w.Detail, w.NodePath)
}

// Diagnostics collects warnings across passes. A nil *Diagnostics discards
// everything, so the pure pass entry points can run without one.
type Diagnostics struct {
	warnings []Warning
}

func (d *Diagnostics) add(kind WarningKind, nodePath, detail string) {
	if d == nil {
		return
	}
	d.warnings = append(d.warnings, Warning{Kind: kind, NodePath: nodePath, Detail: detail})
}

// Warnings returns everything recorded so far.
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	return d.warnings
}

// DetectOwnershipCycles returns the paths of nodes the dependency-ordered
// traversal can never yield because their ownership edges form a cycle. The
// attribution passes silently skip such nodes; callers that want to know get
// told here.
func DetectOwnershipCycles(globalGraph *graph.GlobalNodeGraph) []string {
	visited := make(map[*graph.Node]bool)
	for it := globalGraph.VisitInDepthFirstPreOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		visited[node] = true
	}

	var stalled []string
	var collect func(prefix string, node *graph.Node)
	collect = func(prefix string, node *graph.Node) {
		if !visited[node] {
			path := node.Path()
			if path == "" {
				path = "<root>"
			}
			stalled = append(stalled, prefix+path)
		}
		for _, name := range node.SortedChildNames() {
			collect(prefix, node.GetChild(name))
		}
	}

	for _, process := range globalGraph.ProcessGraphs() {
		collect(fmt.Sprintf("pid %d: ", process.Pid()), process.Root())
	}
	collect("shared: ", globalGraph.SharedMemoryGraph().Root())

	sort.Strings(stalled)
	return stalled
}
