// ABOUTME: Tests for the pipeline orchestrator and cycle diagnostics
// ABOUTME: Runs the full stage sequence and checks recorded warnings

package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/memlens/graph"
	"github.com/prateek/memlens/rawdump"
)

func TestPipelineRunEndToEnd(t *testing.T) {
	input := rawdump.Map{
		1: {
			Nodes: map[string]*rawdump.Node{
				"malloc": {AbsoluteName: "malloc", ID: 1, Entries: []rawdump.Entry{sizeEntry(100)}},
				"malloc/allocated_objects": {
					AbsoluteName: "malloc/allocated_objects", ID: 2,
					Entries: []rawdump.Entry{sizeEntry(80)},
				},
				"tracing": {AbsoluteName: "tracing", ID: 3, Entries: []rawdump.Entry{sizeEntry(5)}},
			},
			Edges: map[graph.NodeID]rawdump.Edge{},
		},
	}

	pipeline := &Pipeline{SharedFootprint: true}
	result := pipeline.Run(input)

	require.NotNil(t, result.Graph)
	p := result.Graph.ProcessGraph(1)
	require.NotNil(t, p)

	malloc := p.FindNode("malloc")
	require.NotNil(t, malloc)
	size, ok := malloc.SizeEntry()
	require.True(t, ok)
	assert.Equal(t, uint64(100), size)

	// The tracing node owns the synthesized overhead child.
	overhead := p.FindNode("malloc/allocated_objects/tracing_overhead")
	require.NotNil(t, overhead)

	// Residual memory shows up as <unspecified>.
	require.NotNil(t, malloc.GetChild("<unspecified>"))

	assert.NotNil(t, result.SharedFootprint)
	assert.Empty(t, result.SharedFootprint, "no global nodes in this dump")
	assert.Empty(t, result.Warnings)
}

func TestPipelineReportsOwnershipCycle(t *testing.T) {
	input := rawdump.Map{
		1: {
			Nodes: map[string]*rawdump.Node{
				"a": {AbsoluteName: "a", ID: 1, Entries: []rawdump.Entry{sizeEntry(10)}},
				"b": {AbsoluteName: "b", ID: 2, Entries: []rawdump.Entry{sizeEntry(10)}},
			},
			Edges: map[graph.NodeID]rawdump.Edge{
				1: {Source: 1, Target: 2, Importance: 0},
				2: {Source: 2, Target: 1, Importance: 0},
			},
		},
	}

	result := (&Pipeline{}).Run(input)

	var cyclePaths []string
	for _, w := range result.Warnings {
		if w.Kind == WarningOwnershipCycle {
			cyclePaths = append(cyclePaths, w.NodePath)
		}
	}
	require.Len(t, cyclePaths, 2, "both nodes on the cycle must be reported")
	assert.Contains(t, cyclePaths, "pid 1: a")
	assert.Contains(t, cyclePaths, "pid 1: b")
}

func TestDetectOwnershipCyclesCleanGraph(t *testing.T) {
	g := graph.NewGlobalNodeGraph()
	p := g.CreateGraphForProcess(1)
	a := p.CreateNode(1, "a", false)
	b := p.CreateNode(2, "b", false)
	g.AddNodeOwnershipEdge(a, b, 0)

	assert.Empty(t, DetectOwnershipCycles(g))
}

func TestDiagnosticsNilSafe(t *testing.T) {
	var diag *Diagnostics
	diag.add(WarningUnitsMismatch, "a", "detail")
	assert.Nil(t, diag.Warnings())
}

func TestWarningString(t *testing.T) {
	w := Warning{Kind: WarningOwnershipCycle, NodePath: "pid 1: a", Detail: "skipped"}
	assert.Equal(t, "ownership_cycle: skipped (pid 1: a)", w.String())
}
