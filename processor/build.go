// ABOUTME: Builds the merged GlobalNodeGraph from raw per-process dumps
// ABOUTME: Two passes: collect nodes (merging the global namespace), then collect edges

package processor

import (
	"sort"
	"strings"

	"github.com/prateek/memlens/graph"
	"github.com/prateek/memlens/rawdump"
)

// globalPathPrefix marks nodes merged into the shared namespace across all
// processes.
const globalPathPrefix = "global/"

// CreateMemoryGraph merges the raw per-process dumps into one global graph.
// Nil process dumps are skipped. Nodes whose path starts with "global/" land
// in the shared-memory pseudo-process and are unified by id across
// processes; duplicate entries on a re-reported global node keep their first
// value. Edges whose endpoints cannot be resolved are dropped.
func CreateMemoryGraph(input rawdump.Map) *graph.GlobalNodeGraph {
	globalGraph := graph.NewGlobalNodeGraph()

	// Process ids in ascending order so first-wins merges are deterministic.
	pids := make([]graph.ProcessID, 0, len(input))
	for pid, dump := range input {
		if dump == nil {
			continue
		}
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	// First pass: collect all nodes.
	for _, pid := range pids {
		processGraph := globalGraph.CreateGraphForProcess(pid)
		collectAllocatorNodes(input[pid], globalGraph, processGraph)
	}

	// Second pass: add all the edges. Every node is in the id map by now.
	for _, pid := range pids {
		addEdges(input[pid], globalGraph)
	}

	return globalGraph
}

// collectAllocatorNodes adds every raw node of one process to the graph.
func collectAllocatorNodes(dump *rawdump.ProcessDump, globalGraph *graph.GlobalNodeGraph, processGraph *graph.Process) {
	paths := make([]string, 0, len(dump.Nodes))
	for path := range dump.Nodes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		rawNode := dump.Nodes[path]

		var node *graph.Node
		if strings.HasPrefix(path, globalPathPrefix) {
			// A global node may already exist, reported by another process.
			node = globalGraph.NodeByID(rawNode.ID)
			if node == nil {
				node = globalGraph.SharedMemoryGraph().CreateNode(rawNode.ID, path, rawNode.Weak())
			}
		} else {
			node = processGraph.CreateNode(rawNode.ID, path, rawNode.Weak())
		}

		for _, entry := range rawNode.Entries {
			switch entry.Type {
			case rawdump.EntryUint64:
				node.AddEntry(entry.Name, scalarUnits(entry.Units), entry.ValueUint64)
			case rawdump.EntryString:
				node.AddStringEntry(entry.Name, entry.ValueString)
			}
		}
	}
}

// addEdges resolves each raw edge against the graph-wide id map, dropping
// edges with a missing endpoint. Dumps are best effort; a dangling edge is
// expected, not an error.
func addEdges(dump *rawdump.ProcessDump, globalGraph *graph.GlobalNodeGraph) {
	sources := make([]graph.NodeID, 0, len(dump.Edges))
	for source := range dump.Edges {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, source := range sources {
		edge := dump.Edges[source]
		owner := globalGraph.NodeByID(edge.Source)
		owned := globalGraph.NodeByID(edge.Target)
		if owner == nil || owned == nil {
			continue
		}
		globalGraph.AddNodeOwnershipEdge(owner, owned, edge.Importance)
	}
}

func scalarUnits(units string) graph.ScalarUnits {
	if units == rawdump.UnitsObjects {
		return graph.UnitsObjects
	}
	return graph.UnitsBytes
}
