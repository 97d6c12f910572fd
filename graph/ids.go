// ABOUTME: Identifier types shared across the graph package
// ABOUTME: NodeID unifies global nodes across processes; ProcessID names a dumping process

package graph

// NodeID identifies a node across process boundaries. Nodes in the "global/"
// namespace reported by several processes carry the same id and are merged
// into one. The zero id is the empty id and is never registered.
type NodeID uint64

// Empty reports whether the id carries no identity.
func (id NodeID) Empty() bool {
	return id == 0
}

// ProcessID identifies the process a dump came from.
type ProcessID uint64

// SharedProcessID is the pid of the synthetic pseudo-process holding the
// merged "global/" namespace.
const SharedProcessID ProcessID = 0
