// ABOUTME: Ownership edge between two nodes in the merged graph
// ABOUTME: The source owns the target; priority ranks competing claims

package graph

// Edge records that the source node's memory is an alias of (part of) the
// target node's memory. A node sources at most one edge but may be the target
// of many.
type Edge struct {
	source   *Node
	target   *Node
	priority int
}

// Source returns the owning node.
func (e *Edge) Source() *Node {
	return e.source
}

// Target returns the owned node.
func (e *Edge) Target() *Node {
	return e.target
}

// Priority returns the claim's priority. Higher priorities win when several
// owners claim the same target.
func (e *Edge) Priority() int {
	return e.priority
}
