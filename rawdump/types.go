// ABOUTME: Raw input model for per-process allocator memory dumps
// ABOUTME: Defines the node, edge, and per-process container types produced by importers

package rawdump

import "github.com/prateek/memlens/graph"

// LevelOfDetail says how much the producing importer captured.
type LevelOfDetail int

const (
	// LevelBackground is the cheapest capture mode.
	LevelBackground LevelOfDetail = iota
	// LevelLight captures per-allocator totals.
	LevelLight
	// LevelDetailed captures full allocator breakdowns.
	LevelDetailed
)

// String returns the wire spelling of the level.
func (l LevelOfDetail) String() string {
	switch l {
	case LevelBackground:
		return "background"
	case LevelLight:
		return "light"
	case LevelDetailed:
		return "detailed"
	}
	return "unknown"
}

// ParseLevelOfDetail maps a wire spelling back to a level. Unknown spellings
// map to LevelBackground, the weakest claim.
func ParseLevelOfDetail(s string) LevelOfDetail {
	switch s {
	case "light":
		return LevelLight
	case "detailed":
		return LevelDetailed
	}
	return LevelBackground
}

// FlagWeak marks a node as speculative: it is discarded unless something
// non-weak references it.
const FlagWeak uint64 = 1 << 0

// Entry units on the wire.
const (
	UnitsBytes   = "bytes"
	UnitsObjects = "objects"
)

// EntryType distinguishes scalar and string raw entries.
type EntryType int

const (
	// EntryUint64 is a numeric entry with a units tag.
	EntryUint64 EntryType = iota
	// EntryString is a free-form string entry.
	EntryString
)

// Entry is a named, typed value attached to a raw node.
type Entry struct {
	Name        string
	Type        EntryType
	Units       string // "bytes" or "objects", numeric entries only
	ValueUint64 uint64
	ValueString string
}

// NewUint64Entry builds a numeric entry.
func NewUint64Entry(name, units string, value uint64) Entry {
	return Entry{Name: name, Type: EntryUint64, Units: units, ValueUint64: value}
}

// NewStringEntry builds a string entry.
func NewStringEntry(name, value string) Entry {
	return Entry{Name: name, Type: EntryString, ValueString: value}
}

// Node is one allocator node as reported by a process: an absolute
// /-delimited path, an optional cross-process id, typed entries, and flags.
// Immutable input.
type Node struct {
	AbsoluteName string
	ID           graph.NodeID
	Entries      []Entry
	Flags        uint64
}

// Weak reports whether the weak flag bit is set.
func (n *Node) Weak() bool {
	return n.Flags&FlagWeak != 0
}

// Edge is a raw ownership claim between two nodes referenced by id: the
// source owns (is backed by) the target. Overridable is carried through for
// consumers but not consumed by the attribution passes.
type Edge struct {
	Source      graph.NodeID
	Target      graph.NodeID
	Importance  int
	Overridable bool
}

// ProcessDump is everything one process reported: its allocator nodes keyed
// by absolute path and its ownership edges keyed by source node id.
type ProcessDump struct {
	LevelOfDetail LevelOfDetail
	Nodes         map[string]*Node
	Edges         map[graph.NodeID]Edge
}

// Map is the full raw input for one snapshot: pid to per-process dump. Nil
// values mark processes whose dump was lost and must be skipped.
type Map map[graph.ProcessID]*ProcessDump
