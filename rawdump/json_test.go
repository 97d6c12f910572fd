// ABOUTME: Tests for the JSON dump decoder
// ABOUTME: Validates format detection, node/edge decoding, and error cases

package rawdump

import (
	"strings"
	"testing"

	"github.com/prateek/memlens/graph"
)

const sampleJSON = `{
	"processes": {
		"1": {
			"level_of_detail": "detailed",
			"nodes": [
				{"path": "malloc", "id": 1, "entries": [
					{"name": "size", "units": "bytes", "value": 100},
					{"name": "vendor", "string": "tcmalloc"}
				]},
				{"path": "malloc/allocated_objects", "id": 2, "weak": true, "entries": [
					{"name": "objects", "units": "objects", "value": 42}
				]}
			],
			"edges": [
				{"source": 1, "target": 2, "importance": 5, "overridable": true}
			]
		},
		"2": null
	}
}`

func TestJSONParserCanParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid dump", sampleJSON, true},
		{"other json", `{"objects": []}`, false},
		{"not json", "processes:\n  1:\n", false},
		{"empty", "", false},
	}

	parser := &JSONParser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.CanParse(strings.NewReader(tt.input))
			if got != tt.want {
				t.Errorf("CanParse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONParserParse(t *testing.T) {
	parser := &JSONParser{}
	m, err := parser.Parse(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(m) != 2 {
		t.Fatalf("Expected 2 processes, got %d", len(m))
	}
	if m[2] != nil {
		t.Error("Null process dump should decode to nil")
	}

	dump := m[1]
	if dump == nil {
		t.Fatal("Process 1 missing")
	}
	if dump.LevelOfDetail != LevelDetailed {
		t.Errorf("Level of detail = %v, want detailed", dump.LevelOfDetail)
	}
	if len(dump.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(dump.Nodes))
	}

	malloc := dump.Nodes["malloc"]
	if malloc == nil {
		t.Fatal("malloc node missing")
	}
	if malloc.ID != 1 {
		t.Errorf("malloc id = %d, want 1", malloc.ID)
	}
	if malloc.Weak() {
		t.Error("malloc should not be weak")
	}
	if len(malloc.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(malloc.Entries))
	}
	if malloc.Entries[0].Name != "size" || malloc.Entries[0].ValueUint64 != 100 ||
		malloc.Entries[0].Units != UnitsBytes {
		t.Errorf("Unexpected size entry: %+v", malloc.Entries[0])
	}
	if malloc.Entries[1].Type != EntryString || malloc.Entries[1].ValueString != "tcmalloc" {
		t.Errorf("Unexpected string entry: %+v", malloc.Entries[1])
	}

	objects := dump.Nodes["malloc/allocated_objects"]
	if objects == nil || !objects.Weak() {
		t.Error("allocated_objects should be weak")
	}

	edge, ok := dump.Edges[graph.NodeID(1)]
	if !ok {
		t.Fatal("Edge keyed by source id missing")
	}
	if edge.Target != 2 || edge.Importance != 5 || !edge.Overridable {
		t.Errorf("Unexpected edge: %+v", edge)
	}
}

func TestJSONParserRejectsBrokenInput(t *testing.T) {
	parser := &JSONParser{}

	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `{"processes": {`},
		{"bad pid", `{"processes": {"abc": {"nodes": []}}}`},
		{"node without path", `{"processes": {"1": {"nodes": [{"id": 1}]}}}`},
		{"entry without value", `{"processes": {"1": {"nodes": [{"path": "a", "entries": [{"name": "x"}]}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
