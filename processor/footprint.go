// ABOUTME: Cross-process shared footprint attribution over the global subtree
// ABOUTME: Splits each global node's size evenly across the processes claiming it via shared_memory

package processor

import "github.com/prateek/memlens/graph"

// sharedMemoryNodeName is the per-process subtree through which a process
// stakes its claim on global memory.
const sharedMemoryNodeName = "shared_memory"

// ComputeSharedFootprintFromGraph attributes each global node's size to the
// processes that own it through their shared_memory subtree. Only the owners
// with the highest priority participate; the size is divided evenly (integer
// division) across the distinct owning processes. Returns pid to attributed
// shared bytes.
func ComputeSharedFootprintFromGraph(globalGraph *graph.GlobalNodeGraph) map[graph.ProcessID]uint64 {
	footprint := make(map[graph.ProcessID]uint64)

	globalRoot := globalGraph.SharedMemoryGraph().Root().GetChild("global")
	if globalRoot == nil {
		return footprint
	}

	for _, name := range globalRoot.SortedChildNames() {
		globalNode := globalRoot.GetChild(name)
		size, ok := globalNode.SizeEntry()
		if !ok {
			continue
		}

		// Keep only owners reaching this node through their process's
		// shared_memory subtree, then only those at the maximum priority.
		var qualified []*graph.Edge
		maxPriority := 0
		for _, edge := range globalNode.OwnedByEdges() {
			if !ownsViaSharedMemory(edge.Source()) {
				continue
			}
			if len(qualified) == 0 || edge.Priority() > maxPriority {
				maxPriority = edge.Priority()
			}
			qualified = append(qualified, edge)
		}
		if len(qualified) == 0 {
			continue
		}

		processes := make(map[*graph.Process]bool)
		for _, edge := range qualified {
			if edge.Priority() == maxPriority {
				processes[edge.Source().Process()] = true
			}
		}

		sizePerProcess := size / uint64(len(processes))
		for process := range processes {
			footprint[process.Pid()] += sizePerProcess
		}
	}

	return footprint
}

// ownsViaSharedMemory reports whether the node's root-most path component in
// its own process tree is the shared_memory subtree.
func ownsViaSharedMemory(node *graph.Node) bool {
	current := node
	for current.Parent() != nil && current.Parent().Parent() != nil {
		current = current.Parent()
	}
	if current.Parent() == nil {
		// The node is a process root; roots claim nothing.
		return false
	}
	return current.Name() == sharedMemoryNodeName
}
