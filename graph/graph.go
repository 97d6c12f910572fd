// ABOUTME: GlobalNodeGraph owning all nodes, edges, and per-process subgraphs
// ABOUTME: Provides node/edge allocation, the graph-wide id map, and traversal entry points

package graph

// GlobalNodeGraph is the merged graph for one dump snapshot. It owns every
// Node and Edge (pointers stay valid until the graph is discarded), one
// Process subgraph per pid, a synthetic shared-memory pseudo-process for the
// "global/" namespace, and the graph-wide id map.
type GlobalNodeGraph struct {
	processes         map[ProcessID]*Process
	processList       []*Process // creation order
	sharedMemoryGraph *Process
	nodesByID         map[NodeID]*Node
	allNodes          []*Node
	allEdges          []*Edge
}

// NewGlobalNodeGraph creates an empty graph with its shared-memory
// pseudo-process.
func NewGlobalNodeGraph() *GlobalNodeGraph {
	g := &GlobalNodeGraph{
		processes: make(map[ProcessID]*Process),
		nodesByID: make(map[NodeID]*Node),
	}
	g.sharedMemoryGraph = g.newProcess(SharedProcessID)
	return g
}

func (g *GlobalNodeGraph) newProcess(pid ProcessID) *Process {
	process := &Process{pid: pid, graph: g}
	process.root = g.createNode(process, nil)
	return process
}

// CreateGraphForProcess returns the Process subgraph for pid, creating it on
// first use.
func (g *GlobalNodeGraph) CreateGraphForProcess(pid ProcessID) *Process {
	if process, ok := g.processes[pid]; ok {
		return process
	}
	process := g.newProcess(pid)
	g.processes[pid] = process
	g.processList = append(g.processList, process)
	return process
}

// ProcessGraph returns the subgraph for pid, nil if the pid never appeared.
func (g *GlobalNodeGraph) ProcessGraph(pid ProcessID) *Process {
	return g.processes[pid]
}

// ProcessGraphs returns the per-pid subgraphs in creation order. The
// shared-memory pseudo-process is not included.
func (g *GlobalNodeGraph) ProcessGraphs() []*Process {
	return g.processList
}

// SharedMemoryGraph returns the pseudo-process holding the "global/"
// namespace.
func (g *GlobalNodeGraph) SharedMemoryGraph() *Process {
	return g.sharedMemoryGraph
}

// NodeByID resolves a non-empty id against the graph-wide id map.
func (g *GlobalNodeGraph) NodeByID(id NodeID) *Node {
	return g.nodesByID[id]
}

// NodeCount returns the number of nodes ever allocated in the graph,
// including nodes later detached by weak pruning.
func (g *GlobalNodeGraph) NodeCount() int {
	return len(g.allNodes)
}

// createNode allocates a node owned by the graph.
func (g *GlobalNodeGraph) createNode(process *Process, parent *Node) *Node {
	node := newNode(process, parent)
	g.allNodes = append(g.allNodes, node)
	return node
}

// registerNodeID records the id in the graph-wide map; first registration
// wins. Re-registration happens only when a global node is re-reported by
// another process.
func (g *GlobalNodeGraph) registerNodeID(id NodeID, node *Node) {
	if _, ok := g.nodesByID[id]; ok {
		return
	}
	g.nodesByID[id] = node
}

// AddNodeOwnershipEdge records that owner's memory is an alias of (part of)
// owned's memory, with the given claim priority. The owner must not already
// carry an ownership claim.
func (g *GlobalNodeGraph) AddNodeOwnershipEdge(owner, owned *Node, priority int) *Edge {
	edge := &Edge{source: owner, target: owned, priority: priority}
	g.allEdges = append(g.allEdges, edge)
	owner.ownsEdge = edge
	owned.ownedByEdges = append(owned.ownedByEdges, edge)
	return edge
}

// traversalRoots returns the starting points for the depth-first iterators:
// every process root, most recently created first, then the shared-memory
// root.
func (g *GlobalNodeGraph) traversalRoots() []*Node {
	roots := make([]*Node, 0, len(g.processList)+1)
	for i := len(g.processList) - 1; i >= 0; i-- {
		roots = append(roots, g.processList[i].root)
	}
	roots = append(roots, g.sharedMemoryGraph.root)
	return roots
}

// VisitInDepthFirstPreOrder returns an iterator yielding each reachable node
// exactly once, parents and owned targets before the nodes that depend on
// them.
func (g *GlobalNodeGraph) VisitInDepthFirstPreOrder() *PreOrderIterator {
	return newPreOrderIterator(g.traversalRoots())
}

// VisitInDepthFirstPostOrder returns an iterator yielding each reachable node
// exactly once, children and owners before the node itself.
func (g *GlobalNodeGraph) VisitInDepthFirstPostOrder() *PostOrderIterator {
	return newPostOrderIterator(g.traversalRoots())
}
