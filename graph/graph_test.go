// ABOUTME: Tests for the merged graph data structures
// ABOUTME: Validates path-based node creation, id registration, entries, and ownership edges

package graph

import (
	"testing"
)

func TestProcessCreateNode(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)

	node := p.CreateNode(42, "malloc/allocated_objects", false)
	if node == nil {
		t.Fatal("Expected node to be created")
	}
	if !node.IsExplicit() {
		t.Error("Final path node should be explicit")
	}
	if node.IsWeak() {
		t.Error("Node should not be weak")
	}
	if node.ID() != 42 {
		t.Errorf("Expected id 42, got %d", node.ID())
	}
	if node.Path() != "malloc/allocated_objects" {
		t.Errorf("Expected path 'malloc/allocated_objects', got %q", node.Path())
	}

	intermediate := p.FindNode("malloc")
	if intermediate == nil {
		t.Fatal("Intermediate node should exist")
	}
	if intermediate.IsExplicit() {
		t.Error("Intermediate node should not be explicit")
	}
	if intermediate.Parent() != p.Root() {
		t.Error("Intermediate node's parent should be the process root")
	}
	if node.Parent() != intermediate {
		t.Error("Final node's parent should be the intermediate")
	}
}

func TestProcessFindNode(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)
	p.CreateNode(0, "a/b/c", false)

	tests := []struct {
		path  string
		found bool
	}{
		{"a", true},
		{"a/b", true},
		{"a/b/c", true},
		{"a/b/c/d", false},
		{"x", false},
		{"a/x", false},
	}

	for _, tt := range tests {
		node := p.FindNode(tt.path)
		if (node != nil) != tt.found {
			t.Errorf("FindNode(%q): found=%v, want %v", tt.path, node != nil, tt.found)
		}
	}
}

func TestNodeIDRegistration(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)

	first := p.CreateNode(7, "a", false)
	if g.NodeByID(7) != first {
		t.Error("Expected id 7 to resolve to the first node")
	}

	// Re-registering the same id keeps the first node.
	second := g.SharedMemoryGraph().CreateNode(7, "global/a", false)
	if g.NodeByID(7) != first {
		t.Error("First registration should win for a duplicate id")
	}
	if second == first {
		t.Error("Nodes at different paths must be distinct")
	}

	// An empty id is never registered.
	p.CreateNode(0, "b", false)
	if g.NodeByID(0) != nil {
		t.Error("Empty id must not be registered")
	}
}

func TestAddNodeOwnershipEdge(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)
	owner := p.CreateNode(1, "owner", false)
	owned := p.CreateNode(2, "owned", false)

	edge := g.AddNodeOwnershipEdge(owner, owned, 3)

	if edge.Source() != owner || edge.Target() != owned {
		t.Error("Edge endpoints do not match")
	}
	if edge.Priority() != 3 {
		t.Errorf("Expected priority 3, got %d", edge.Priority())
	}
	if owner.OwnsEdge() != edge {
		t.Error("Owner should carry the edge as its owns edge")
	}
	if len(owned.OwnedByEdges()) != 1 || owned.OwnedByEdges()[0] != edge {
		t.Error("Owned node should carry the edge in its owned-by list")
	}
}

func TestEntryFirstWins(t *testing.T) {
	g := NewGlobalNodeGraph()
	node := g.CreateGraphForProcess(1).CreateNode(0, "a", false)

	node.AddEntry("size", UnitsBytes, 100)
	node.AddEntry("size", UnitsBytes, 200)
	if size, _ := node.SizeEntry(); size != 100 {
		t.Errorf("AddEntry must keep the first value, got %d", size)
	}

	node.SetEntry("size", UnitsBytes, 300)
	if size, _ := node.SizeEntry(); size != 300 {
		t.Errorf("SetEntry must replace the value, got %d", size)
	}

	node.AddStringEntry("tag", "first")
	node.AddStringEntry("tag", "second")
	if entry := node.Entries()["tag"]; entry.ValueString != "first" {
		t.Errorf("AddStringEntry must keep the first value, got %q", entry.ValueString)
	}
}

func TestIsDescendantOf(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)
	leaf := p.CreateNode(0, "a/b/c", false)
	mid := p.FindNode("a/b")
	other := p.CreateNode(0, "x", false)

	if !leaf.IsDescendantOf(mid) {
		t.Error("Leaf should be a descendant of its ancestor")
	}
	if !leaf.IsDescendantOf(leaf) {
		t.Error("A node is a descendant of itself")
	}
	if !leaf.IsDescendantOf(p.Root()) {
		t.Error("Every node descends from the process root")
	}
	if leaf.IsDescendantOf(other) {
		t.Error("Unrelated nodes are not descendants")
	}
}

func TestRemoveChild(t *testing.T) {
	g := NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)
	p.CreateNode(0, "a/b", false)

	parent := p.FindNode("a")
	parent.RemoveChild("b")
	if p.FindNode("a/b") != nil {
		t.Error("Removed child should not be findable")
	}
}

func TestSharedMemoryGraph(t *testing.T) {
	g := NewGlobalNodeGraph()
	if g.SharedMemoryGraph() == nil {
		t.Fatal("Shared memory pseudo-process must exist")
	}
	if g.SharedMemoryGraph().Pid() != SharedProcessID {
		t.Errorf("Shared process pid = %d, want %d", g.SharedMemoryGraph().Pid(), SharedProcessID)
	}

	p1 := g.CreateGraphForProcess(5)
	p2 := g.CreateGraphForProcess(5)
	if p1 != p2 {
		t.Error("CreateGraphForProcess must be idempotent per pid")
	}
	if len(g.ProcessGraphs()) != 1 {
		t.Errorf("Expected 1 process graph, got %d", len(g.ProcessGraphs()))
	}
}
