// ABOUTME: JSON decoder for raw memory dumps
// ABOUTME: Reads a per-process JSON format with nodes, entries, and ownership edges

package rawdump

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/prateek/memlens/graph"
)

// JSONParser decodes the JSON dump interchange format
type JSONParser struct{}

// jsonDump represents the JSON dump format. Processes are keyed by decimal
// pid; a null process marks a dump that was lost.
type jsonDump struct {
	Processes map[string]*jsonProcess `json:"processes"`
}

type jsonProcess struct {
	LevelOfDetail string     `json:"level_of_detail"`
	Nodes         []jsonNode `json:"nodes"`
	Edges         []jsonEdge `json:"edges"`
}

type jsonNode struct {
	Path    string      `json:"path"`
	ID      uint64      `json:"id"`
	Weak    bool        `json:"weak"`
	Entries []jsonEntry `json:"entries"`
}

// jsonEntry carries either a numeric value with units or a string value.
type jsonEntry struct {
	Name   string  `json:"name"`
	Units  string  `json:"units,omitempty"`
	Value  *uint64 `json:"value,omitempty"`
	String *string `json:"string,omitempty"`
}

type jsonEdge struct {
	Source      uint64 `json:"source"`
	Target      uint64 `json:"target"`
	Importance  int    `json:"importance"`
	Overridable bool   `json:"overridable"`
}

// CanParse checks if the input looks like the JSON dump format
func (p *JSONParser) CanParse(r io.Reader) bool {
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}

	// A cheap structural probe: the document must carry a "processes" map.
	// The preview may be truncated mid-document, so probe the prefix rather
	// than decode it.
	return gjson.GetBytes(buf[:n], "processes").Exists()
}

// Parse reads the JSON dump and builds the raw node map
func (p *JSONParser) Parse(r io.Reader) (Map, error) {
	var dump jsonDump

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&dump); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	result := make(Map, len(dump.Processes))
	for pidText, process := range dump.Processes {
		pid, err := strconv.ParseUint(pidText, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid process id %q: %w", pidText, err)
		}
		if process == nil {
			result[graph.ProcessID(pid)] = nil
			continue
		}
		converted, err := process.convert()
		if err != nil {
			return nil, fmt.Errorf("process %d: %w", pid, err)
		}
		result[graph.ProcessID(pid)] = converted
	}
	return result, nil
}

func (jp *jsonProcess) convert() (*ProcessDump, error) {
	dump := &ProcessDump{
		LevelOfDetail: ParseLevelOfDetail(jp.LevelOfDetail),
		Nodes:         make(map[string]*Node, len(jp.Nodes)),
		Edges:         make(map[graph.NodeID]Edge, len(jp.Edges)),
	}
	for i, jn := range jp.Nodes {
		if jn.Path == "" {
			return nil, fmt.Errorf("node at index %d missing path", i)
		}
		node := &Node{
			AbsoluteName: jn.Path,
			ID:           graph.NodeID(jn.ID),
		}
		if jn.Weak {
			node.Flags |= FlagWeak
		}
		for _, je := range jn.Entries {
			switch {
			case je.String != nil:
				node.Entries = append(node.Entries, NewStringEntry(je.Name, *je.String))
			case je.Value != nil:
				node.Entries = append(node.Entries, NewUint64Entry(je.Name, je.Units, *je.Value))
			default:
				return nil, fmt.Errorf("entry %q on node %q has no value", je.Name, jn.Path)
			}
		}
		dump.Nodes[jn.Path] = node
	}
	for _, je := range jp.Edges {
		dump.Edges[graph.NodeID(je.Source)] = Edge{
			Source:      graph.NodeID(je.Source),
			Target:      graph.NodeID(je.Target),
			Importance:  je.Importance,
			Overridable: je.Overridable,
		}
	}
	return dump, nil
}

// init registers the JSON parser
func init() {
	Register(&JSONParser{})
}
