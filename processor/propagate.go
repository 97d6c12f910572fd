// ABOUTME: Tracing-overhead attribution, numeric aggregation, and entry propagation to owners
// ABOUTME: Runs after weak pruning and before the size passes

package processor

import (
	"sort"

	"github.com/prateek/memlens/graph"
)

// trackedAllocators are the allocators whose tracing instrumentation cost is
// attributed back to them.
var trackedAllocators = []string{"malloc", "winheap"}

// AddOverheadsAndPropagateEntries attributes tracing overhead to the
// allocators that incurred it, aggregates numeric entries bottom-up within
// every tree, and copies entries from global nodes onto their owners.
func AddOverheadsAndPropagateEntries(globalGraph *graph.GlobalNodeGraph) {
	addOverheadsAndPropagateEntries(globalGraph, nil)
}

func addOverheadsAndPropagateEntries(globalGraph *graph.GlobalNodeGraph, diag *Diagnostics) {
	for _, process := range globalGraph.ProcessGraphs() {
		for _, allocator := range trackedAllocators {
			assignTracingOverhead(allocator, globalGraph, process)
		}
	}

	aggregateNumericsRecursively(globalGraph.SharedMemoryGraph().Root(), diag)
	for _, process := range globalGraph.ProcessGraphs() {
		aggregateNumericsRecursively(process.Root(), diag)
	}

	propagateNumericsAndDiagnosticsRecursively(globalGraph.SharedMemoryGraph().Root())
}

// assignTracingOverhead makes the tracing node own a synthetic
// <allocator>/allocated_objects/tracing_overhead child, attributing the cost
// of the instrumentation to the allocator it consumes.
func assignTracingOverhead(allocator string, globalGraph *graph.GlobalNodeGraph, process *graph.Process) {
	if process.FindNode(allocator) == nil {
		return
	}
	tracingNode := process.FindNode("tracing")
	if tracingNode == nil {
		return
	}
	// The tracing node can claim at most one allocator.
	if tracingNode.OwnsEdge() != nil {
		return
	}
	overheadNode := process.CreateNode(0, allocator+"/allocated_objects/tracing_overhead", false)
	globalGraph.AddNodeOwnershipEdge(tracingNode, overheadNode, 0)
}

// aggregateNumericsRecursively sums, for every numeric entry name present on
// at least one child (sizes excluded), the values across children and stores
// the total on the parent unless the parent already has that entry.
func aggregateNumericsRecursively(node *graph.Node, diag *Diagnostics) {
	names := make(map[string]bool)
	for _, childName := range node.SortedChildNames() {
		child := node.GetChild(childName)
		aggregateNumericsRecursively(child, diag)
		for name, entry := range child.Entries() {
			if entry.Type == graph.EntryUint64 &&
				name != graph.SizeEntryName && name != graph.EffectiveSizeEntryName {
				names[name] = true
			}
		}
	}

	sortedNames := make([]string, 0, len(names))
	for name := range names {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)

	for _, name := range sortedNames {
		units, total := aggregateNumericWithNameForNode(node, name, diag)
		node.AddEntry(name, units, total)
	}
}

// aggregateNumericWithNameForNode sums the named entry across the node's
// children. All children carrying the entry are expected to agree on units;
// a mismatch is recorded and the value summed anyway.
func aggregateNumericWithNameForNode(node *graph.Node, name string, diag *Diagnostics) (graph.ScalarUnits, uint64) {
	first := true
	units := graph.UnitsObjects
	var total uint64
	for _, childName := range node.SortedChildNames() {
		entry, ok := node.GetChild(childName).Entries()[name]
		if !ok || entry.Type != graph.EntryUint64 {
			continue
		}
		if first {
			units = entry.Units
			first = false
		} else if entry.Units != units {
			diag.add(WarningUnitsMismatch, node.Path(),
				"children disagree on units for entry "+name)
		}
		total += entry.ValueUint64
	}
	return units, total
}

// propagateNumericsAndDiagnosticsRecursively copies every entry of a node
// onto every node that owns it, so owners inherit the context of what they
// own. Existing entries on the owner win.
func propagateNumericsAndDiagnosticsRecursively(node *graph.Node) {
	names := make([]string, 0, len(node.Entries()))
	for name := range node.Entries() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := node.Entries()[name]
		for _, edge := range node.OwnedByEdges() {
			owner := edge.Source()
			switch entry.Type {
			case graph.EntryUint64:
				owner.AddEntry(name, entry.Units, entry.ValueUint64)
			case graph.EntryString:
				owner.AddStringEntry(name, entry.ValueString)
			}
		}
	}

	for _, childName := range node.SortedChildNames() {
		propagateNumericsAndDiagnosticsRecursively(node.GetChild(childName))
	}
}
