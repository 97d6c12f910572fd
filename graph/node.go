// ABOUTME: Node in the merged graph: tree position, typed entries, ownership edges
// ABOUTME: Also carries the sub-sizes and coefficients the attribution passes compute

package graph

import "sort"

// EntryType distinguishes numeric and string entries.
type EntryType int

const (
	// EntryUint64 is a numeric entry with a units tag.
	EntryUint64 EntryType = iota
	// EntryString is a free-form string entry.
	EntryString
)

// ScalarUnits tags what a numeric entry counts.
type ScalarUnits string

const (
	UnitsBytes   ScalarUnits = "bytes"
	UnitsObjects ScalarUnits = "objects"
)

// Well-known entry names.
const (
	// SizeEntryName is the settled byte size of a node.
	SizeEntryName = "size"
	// EffectiveSizeEntryName is the byte size after ownership attribution.
	EffectiveSizeEntryName = "effective_size"
)

// Entry is a named, typed value attached to a node. Entries are keyed by name
// on the node, so the name lives outside the struct.
type Entry struct {
	Type        EntryType
	Units       ScalarUnits
	ValueUint64 uint64
	ValueString string
}

// Node is one allocator node in the merged graph. It sits in exactly one
// process tree, may source one ownership edge and be the target of many, and
// accumulates the sub-sizes and coefficients of the attribution passes.
type Node struct {
	process      *Process
	parent       *Node
	name         string
	id           NodeID
	entries      map[string]Entry
	children     map[string]*Node
	weak         bool
	explicit     bool
	ownsEdge     *Edge
	ownedByEdges []*Edge

	notOwningSubSize uint64
	notOwnedSubSize  uint64

	owningCoefficient           float64
	ownedCoefficient            float64
	cumulativeOwningCoefficient float64
	cumulativeOwnedCoefficient  float64
}

func newNode(process *Process, parent *Node) *Node {
	return &Node{
		process:  process,
		parent:   parent,
		entries:  make(map[string]Entry),
		children: make(map[string]*Node),

		// Coefficients start at 1: an unowned, non-owning node keeps all of
		// its size.
		owningCoefficient:           1,
		ownedCoefficient:            1,
		cumulativeOwningCoefficient: 1,
		cumulativeOwnedCoefficient:  1,
	}
}

// Process returns the process tree the node belongs to.
func (n *Node) Process() *Process {
	return n.process
}

// Parent returns the tree parent, nil for a process root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Name returns the node's path component.
func (n *Node) Name() string {
	return n.name
}

// ID returns the node's cross-process id, possibly empty.
func (n *Node) ID() NodeID {
	return n.id
}

// Path returns the /-delimited path below the process root. The root itself
// has the empty path.
func (n *Node) Path() string {
	if n.parent == nil {
		return ""
	}
	if n.parent.parent == nil {
		return n.name
	}
	return n.parent.Path() + "/" + n.name
}

// GetChild returns the named child, nil if absent.
func (n *Node) GetChild(name string) *Node {
	return n.children[name]
}

// CreateChild allocates a new child with the given name. The caller must know
// the name is free.
func (n *Node) CreateChild(name string) *Node {
	child := n.process.graph.createNode(n.process, n)
	child.name = name
	n.children[name] = child
	return child
}

// Children returns the child map, keyed by name.
func (n *Node) Children() map[string]*Node {
	return n.children
}

// SortedChildNames returns the child names in ascending order, for
// deterministic iteration.
func (n *Node) SortedChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveChild detaches the named child from the tree.
func (n *Node) RemoveChild(name string) {
	delete(n.children, name)
}

// Entries returns the entry map, keyed by name.
func (n *Node) Entries() map[string]Entry {
	return n.entries
}

// AddEntry records a numeric entry unless the name is already taken. The
// first value wins; re-reported nodes keep their original entries.
func (n *Node) AddEntry(name string, units ScalarUnits, value uint64) {
	if _, ok := n.entries[name]; ok {
		return
	}
	n.entries[name] = Entry{Type: EntryUint64, Units: units, ValueUint64: value}
}

// AddStringEntry records a string entry unless the name is already taken.
func (n *Node) AddStringEntry(name, value string) {
	if _, ok := n.entries[name]; ok {
		return
	}
	n.entries[name] = Entry{Type: EntryString, ValueString: value}
}

// SetEntry records a numeric entry, replacing any existing value.
func (n *Node) SetEntry(name string, units ScalarUnits, value uint64) {
	n.entries[name] = Entry{Type: EntryUint64, Units: units, ValueUint64: value}
}

// RemoveEntry drops the named entry if present.
func (n *Node) RemoveEntry(name string) {
	delete(n.entries, name)
}

// SizeEntry returns the node's size entry value, false if the node has no
// numeric size.
func (n *Node) SizeEntry() (uint64, bool) {
	entry, ok := n.entries[SizeEntryName]
	if !ok || entry.Type != EntryUint64 {
		return 0, false
	}
	return entry.ValueUint64, true
}

// IsWeak reports whether the node is (currently) weak.
func (n *Node) IsWeak() bool {
	return n.weak
}

// SetWeak sets the node's weakness.
func (n *Node) SetWeak(weak bool) {
	n.weak = weak
}

// IsExplicit reports whether the node was named by a dump, as opposed to
// being created as an intermediate path component.
func (n *Node) IsExplicit() bool {
	return n.explicit
}

// SetExplicit marks the node as dump-reported.
func (n *Node) SetExplicit(explicit bool) {
	n.explicit = explicit
}

// OwnsEdge returns the ownership edge this node sources, nil if it owns
// nothing.
func (n *Node) OwnsEdge() *Edge {
	return n.ownsEdge
}

// OwnedByEdges returns the edges targeting this node.
func (n *Node) OwnedByEdges() []*Edge {
	return n.ownedByEdges
}

// SetOwnedByEdges replaces the owned-by edge list, used when pruning edges
// sourced at removed nodes.
func (n *Node) SetOwnedByEdges(edges []*Edge) {
	n.ownedByEdges = edges
}

// IsDescendantOf reports whether ancestor is on the node's parent chain. A
// node is its own descendant.
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	for current := n; current != nil; current = current.parent {
		if current == ancestor {
			return true
		}
	}
	return false
}

// NotOwningSubSize returns the subtree size excluding owning descendants.
func (n *Node) NotOwningSubSize() uint64 {
	return n.notOwningSubSize
}

// AddNotOwningSubSize accumulates into the not-owning sub-size.
func (n *Node) AddNotOwningSubSize(size uint64) {
	n.notOwningSubSize += size
}

// NotOwnedSubSize returns the subtree size not already claimed by owners.
func (n *Node) NotOwnedSubSize() uint64 {
	return n.notOwnedSubSize
}

// AddNotOwnedSubSize accumulates into the not-owned sub-size.
func (n *Node) AddNotOwnedSubSize(size uint64) {
	n.notOwnedSubSize += size
}

// OwningCoefficient returns the fraction of this node's size attributed to it
// as an owner.
func (n *Node) OwningCoefficient() float64 {
	return n.owningCoefficient
}

// SetOwningCoefficient sets the owning coefficient.
func (n *Node) SetOwningCoefficient(coefficient float64) {
	n.owningCoefficient = coefficient
}

// OwnedCoefficient returns the fraction of this node's size it keeps after
// its owners took their share.
func (n *Node) OwnedCoefficient() float64 {
	return n.ownedCoefficient
}

// SetOwnedCoefficient sets the owned coefficient.
func (n *Node) SetOwnedCoefficient(coefficient float64) {
	n.ownedCoefficient = coefficient
}

// CumulativeOwningCoefficient returns the owning coefficient folded with the
// owned target's chain.
func (n *Node) CumulativeOwningCoefficient() float64 {
	return n.cumulativeOwningCoefficient
}

// SetCumulativeOwningCoefficient sets the cumulative owning coefficient.
func (n *Node) SetCumulativeOwningCoefficient(coefficient float64) {
	n.cumulativeOwningCoefficient = coefficient
}

// CumulativeOwnedCoefficient returns the owned coefficient folded with the
// parent chain.
func (n *Node) CumulativeOwnedCoefficient() float64 {
	return n.cumulativeOwnedCoefficient
}

// SetCumulativeOwnedCoefficient sets the cumulative owned coefficient.
func (n *Node) SetCumulativeOwnedCoefficient(coefficient float64) {
	n.cumulativeOwnedCoefficient = coefficient
}
