// ABOUTME: Pipeline orchestrator running the attribution stages in their required order
// ABOUTME: One entry point so callers cannot run a later stage before an earlier one

package processor

import (
	"log/slog"

	"github.com/prateek/memlens/graph"
	"github.com/prateek/memlens/rawdump"
)

// Pipeline runs the full attribution sequence over one raw dump map:
// build, weak-node pruning, overhead and entry propagation, size
// computation, and optionally shared-footprint attribution.
type Pipeline struct {
	// Logger receives recorded warnings at Warn level. Nil disables logging;
	// warnings are still returned on the Result.
	Logger *slog.Logger

	// SharedFootprint also computes the per-process shared memory
	// attribution.
	SharedFootprint bool
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Graph is the fully processed global graph, ready for serialization.
	Graph *graph.GlobalNodeGraph

	// SharedFootprint maps pid to attributed shared bytes. Nil unless
	// requested.
	SharedFootprint map[graph.ProcessID]uint64

	// Warnings are the non-fatal findings recorded across all stages.
	Warnings []Warning
}

// Run processes the raw input. It never fails: malformed input degrades into
// warnings, per the best-effort contract of dump analysis.
func (p *Pipeline) Run(input rawdump.Map) *Result {
	diag := &Diagnostics{}

	globalGraph := CreateMemoryGraph(input)
	RemoveWeakNodesFromGraph(globalGraph)
	addOverheadsAndPropagateEntries(globalGraph, diag)
	calculateSizesForGraph(globalGraph, diag)

	for _, path := range DetectOwnershipCycles(globalGraph) {
		diag.add(WarningOwnershipCycle, path, "node skipped by attribution; ownership edges form a cycle")
	}

	result := &Result{Graph: globalGraph, Warnings: diag.Warnings()}
	if p.SharedFootprint {
		result.SharedFootprint = ComputeSharedFootprintFromGraph(globalGraph)
	}

	if p.Logger != nil {
		for _, warning := range result.Warnings {
			p.Logger.Warn("memory graph processing warning",
				"kind", warning.Kind.String(),
				"node", warning.NodePath,
				"detail", warning.Detail)
		}
	}
	return result
}
