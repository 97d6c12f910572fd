// ABOUTME: Per-process subgraph: one tree of allocator nodes rooted at an unnamed root
// ABOUTME: Nodes are addressed by /-delimited paths below the root

package graph

import "strings"

// Process is the tree of allocator nodes one process reported, plus the
// synthetic shared-memory pseudo-process. The root node is unnamed and never
// carries entries of its own.
type Process struct {
	pid   ProcessID
	graph *GlobalNodeGraph
	root  *Node
}

// Pid returns the process id.
func (p *Process) Pid() ProcessID {
	return p.pid
}

// Root returns the unnamed root of the process tree.
func (p *Process) Root() *Node {
	return p.root
}

// CreateNode walks the /-delimited path below the root, creating missing
// nodes along the way, and returns the final node. The final node is marked
// explicit and gets the reported weakness and id; intermediates created on
// the way stay implicit. A non-empty id is registered in the graph-wide map.
func (p *Process) CreateNode(id NodeID, path string, weak bool) *Node {
	current := p.root
	for _, component := range strings.Split(path, "/") {
		child := current.GetChild(component)
		if child == nil {
			child = current.CreateChild(component)
		}
		current = child
	}
	current.SetExplicit(true)
	current.SetWeak(weak)
	if current.id.Empty() {
		current.id = id
	}
	if !id.Empty() {
		p.graph.registerNodeID(id, current)
	}
	return current
}

// FindNode resolves the /-delimited path below the root, nil if any component
// is missing. Pure lookup; nothing is created.
func (p *Process) FindNode(path string) *Node {
	current := p.root
	for _, component := range strings.Split(path, "/") {
		current = current.GetChild(component)
		if current == nil {
			return nil
		}
	}
	return current
}
