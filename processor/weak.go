// ABOUTME: Weak-node pruning: marks implicit weak parents, propagates weakness, removes weak subtrees
// ABOUTME: Three passes over the shared-memory root and every process root

package processor

import "github.com/prateek/memlens/graph"

// RemoveWeakNodesFromGraph discards every weak node, every node whose
// weakness is implied (all children weak, weak parent, or weak owned target),
// and every ownership edge sourced at a removed node. Must run before any
// entry or size pass.
func RemoveWeakNodesFromGraph(globalGraph *graph.GlobalNodeGraph) {
	globalRoot := globalGraph.SharedMemoryGraph().Root()

	// First pass: turn implicit nodes whose children are all weak into weak
	// nodes themselves.
	markImplicitWeakParentsRecursively(globalRoot)
	for _, process := range globalGraph.ProcessGraphs() {
		markImplicitWeakParentsRecursively(process.Root())
	}

	// Second pass: spread weakness through parenthood and ownership. One
	// visited set across all roots; a node blocked on an unvisited
	// prerequisite is retried when the prerequisite's visit recurses back.
	visited := make(map[*graph.Node]bool)
	markWeakOwnersAndChildrenRecursively(globalRoot, visited)
	for _, process := range globalGraph.ProcessGraphs() {
		markWeakOwnersAndChildrenRecursively(process.Root(), visited)
	}

	// Third pass: detach weak subtrees and drop owner edges sourced inside
	// them.
	removeWeakNodesRecursively(globalRoot)
	for _, process := range globalGraph.ProcessGraphs() {
		removeWeakNodesRecursively(process.Root())
	}
}

// markImplicitWeakParentsRecursively marks a non-explicit node weak iff all
// of its children ended up weak. Post-order over the tree only; explicit
// nodes keep whatever weakness their dump reported.
func markImplicitWeakParentsRecursively(node *graph.Node) {
	if len(node.Children()) == 0 {
		return
	}
	for _, name := range node.SortedChildNames() {
		markImplicitWeakParentsRecursively(node.GetChild(name))
	}
	if node.IsExplicit() {
		return
	}
	allChildrenWeak := true
	for _, child := range node.Children() {
		if !child.IsWeak() {
			allChildrenWeak = false
			break
		}
	}
	node.SetWeak(allChildrenWeak)
}

// markWeakOwnersAndChildrenRecursively marks a node weak if its owned target
// or its parent is weak, then recurses into children and owners. A node is
// only processed once its owned target and parent have been processed; on an
// ownership cycle the involved nodes are never processed.
func markWeakOwnersAndChildrenRecursively(node *graph.Node, visited map[*graph.Node]bool) {
	if visited[node] {
		return
	}
	if edge := node.OwnsEdge(); edge != nil && !visited[edge.Target()] {
		return
	}
	if parent := node.Parent(); parent != nil && !visited[parent] {
		return
	}

	if edge := node.OwnsEdge(); edge != nil && edge.Target().IsWeak() {
		node.SetWeak(true)
	} else if parent := node.Parent(); parent != nil && parent.IsWeak() {
		node.SetWeak(true)
	}
	visited[node] = true

	for _, name := range node.SortedChildNames() {
		markWeakOwnersAndChildrenRecursively(node.GetChild(name), visited)
	}
	for _, edge := range node.OwnedByEdges() {
		markWeakOwnersAndChildrenRecursively(edge.Source(), visited)
	}
}

// removeWeakNodesRecursively erases weak children from the tree and strips
// owner edges whose source is weak from the surviving nodes.
func removeWeakNodesRecursively(node *graph.Node) {
	for _, name := range node.SortedChildNames() {
		child := node.GetChild(name)
		if child.IsWeak() {
			node.RemoveChild(name)
			continue
		}
		kept := child.OwnedByEdges()[:0]
		for _, edge := range child.OwnedByEdges() {
			if !edge.Source().IsWeak() {
				kept = append(kept, edge)
			}
		}
		child.SetOwnedByEdges(kept)
		removeWeakNodesRecursively(child)
	}
}
