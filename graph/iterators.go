// ABOUTME: Depth-first iterators over the union of the node tree and ownership edges
// ABOUTME: Pre-order yields dependencies first; post-order yields children and owners first

package graph

// PreOrderIterator walks the graph depth first, yielding each reachable node
// exactly once. A node is yielded only after its tree parent and the target
// of its ownership claim (if any) have been yielded. Nodes on an ownership
// cycle are never yielded.
type PreOrderIterator struct {
	toVisit []*Node
	visited map[*Node]bool
}

func newPreOrderIterator(roots []*Node) *PreOrderIterator {
	return &PreOrderIterator{
		toVisit: roots,
		visited: make(map[*Node]bool),
	}
}

// Next returns the next node in pre-order, nil when the traversal is done.
func (it *PreOrderIterator) Next() *Node {
	for len(it.toVisit) > 0 {
		node := it.toVisit[0]
		it.toVisit = it.toVisit[1:]
		if node == nil || it.visited[node] {
			continue
		}
		// A node whose prerequisites are pending is dropped here; visiting
		// the prerequisite re-enqueues it (parents enqueue children, owned
		// targets enqueue their owners).
		if node.ownsEdge != nil && !it.visited[node.ownsEdge.target] {
			continue
		}
		if node.parent != nil && !it.visited[node.parent] {
			continue
		}
		it.visited[node] = true
		for _, name := range node.SortedChildNames() {
			it.toVisit = append(it.toVisit, node.children[name])
		}
		for _, edge := range node.ownedByEdges {
			it.toVisit = append(it.toVisit, edge.source)
		}
		return node
	}
	return nil
}

// PostOrderIterator walks the graph depth first, yielding each reachable node
// exactly once, after all of its children and all of its owners. Nodes on an
// ownership cycle are never yielded.
type PostOrderIterator struct {
	toVisit []*Node
	path    []*Node
	visited map[*Node]bool
	doomed  map[*Node]bool
}

func newPostOrderIterator(roots []*Node) *PostOrderIterator {
	return &PostOrderIterator{
		toVisit: roots,
		visited: make(map[*Node]bool),
		doomed:  make(map[*Node]bool),
	}
}

// Next returns the next node in post-order, nil when the traversal is done.
func (it *PostOrderIterator) Next() *Node {
	for len(it.toVisit) > 0 {
		node := it.toVisit[len(it.toVisit)-1]
		it.toVisit = it.toVisit[:len(it.toVisit)-1]
		if it.visited[node] {
			continue
		}
		// Second encounter: all children and owners are done. A node marked
		// doomed sat on an ownership cycle and is retired without being
		// yielded.
		if len(it.path) > 0 && it.path[len(it.path)-1] == node {
			it.path = it.path[:len(it.path)-1]
			it.visited[node] = true
			if it.doomed[node] {
				continue
			}
			return node
		}
		// Re-encountering a node already on the path means the ownership
		// edges loop back into the current chain. Everything on the path
		// from the re-entered node onward is on that cycle; none of it may
		// be yielded.
		if it.onPath(node) {
			for i := len(it.path) - 1; i >= 0; i-- {
				it.doomed[it.path[i]] = true
				if it.path[i] == node {
					break
				}
			}
			continue
		}
		it.path = append(it.path, node)
		it.toVisit = append(it.toVisit, node)
		for _, edge := range node.ownedByEdges {
			it.toVisit = append(it.toVisit, edge.source)
		}
		for _, name := range node.SortedChildNames() {
			it.toVisit = append(it.toVisit, node.children[name])
		}
	}
	return nil
}

func (it *PostOrderIterator) onPath(node *Node) bool {
	for _, candidate := range it.path {
		if candidate == node {
			return true
		}
	}
	return false
}
