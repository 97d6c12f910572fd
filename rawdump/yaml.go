// ABOUTME: YAML decoder for raw memory dumps
// ABOUTME: Accepts the same per-process structure as the JSON format

package rawdump

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prateek/memlens/graph"
)

// YAMLParser decodes the YAML dump interchange format
type YAMLParser struct{}

type yamlDump struct {
	Processes map[uint64]*yamlProcess `yaml:"processes"`
}

type yamlProcess struct {
	LevelOfDetail string     `yaml:"level_of_detail"`
	Nodes         []yamlNode `yaml:"nodes"`
	Edges         []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	Path    string      `yaml:"path"`
	ID      uint64      `yaml:"id"`
	Weak    bool        `yaml:"weak"`
	Entries []yamlEntry `yaml:"entries"`
}

type yamlEntry struct {
	Name   string  `yaml:"name"`
	Units  string  `yaml:"units"`
	Value  *uint64 `yaml:"value"`
	String *string `yaml:"string"`
}

type yamlEdge struct {
	Source      uint64 `yaml:"source"`
	Target      uint64 `yaml:"target"`
	Importance  int    `yaml:"importance"`
	Overridable bool   `yaml:"overridable"`
}

// CanParse checks if the input looks like the YAML dump format. JSON is valid
// YAML, so the JSON parser must be consulted first; this probe rejects
// documents that open with a brace.
func (p *YAMLParser) CanParse(r io.Reader) bool {
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}
	preview := strings.TrimLeft(string(buf[:n]), " \t\r\n")
	if strings.HasPrefix(preview, "{") {
		return false
	}
	return strings.HasPrefix(preview, "processes:") ||
		strings.Contains(preview, "\nprocesses:")
}

// Parse reads the YAML dump and builds the raw node map
func (p *YAMLParser) Parse(r io.Reader) (Map, error) {
	var dump yamlDump

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&dump); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	result := make(Map, len(dump.Processes))
	for pid, process := range dump.Processes {
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

func (yp *yamlProcess) convert() (*ProcessDump, error) {
	dump := &ProcessDump{
		LevelOfDetail: ParseLevelOfDetail(yp.LevelOfDetail),
		Nodes:         make(map[string]*Node, len(yp.Nodes)),
		Edges:         make(map[graph.NodeID]Edge, len(yp.Edges)),
	}
	for i, yn := range yp.Nodes {
		if yn.Path == "" {
			return nil, fmt.Errorf("node at index %d missing path", i)
		}
		node := &Node{
			AbsoluteName: yn.Path,
			ID:           graph.NodeID(yn.ID),
		}
		if yn.Weak {
			node.Flags |= FlagWeak
		}
		for _, ye := range yn.Entries {
			switch {
			case ye.String != nil:
				node.Entries = append(node.Entries, NewStringEntry(ye.Name, *ye.String))
			case ye.Value != nil:
				node.Entries = append(node.Entries, NewUint64Entry(ye.Name, ye.Units, *ye.Value))
			default:
				return nil, fmt.Errorf("entry %q on node %q has no value", ye.Name, yn.Path)
			}
		}
		dump.Nodes[yn.Path] = node
	}
	for _, ye := range yp.Edges {
		dump.Edges[graph.NodeID(ye.Source)] = Edge{
			Source:      graph.NodeID(ye.Source),
			Target:      graph.NodeID(ye.Target),
			Importance:  ye.Importance,
			Overridable: ye.Overridable,
		}
	}
	return dump, nil
}

// init registers the YAML parser
func init() {
	Register(&YAMLParser{})
}
