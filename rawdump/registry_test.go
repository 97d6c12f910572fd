// ABOUTME: Tests for the dump parser registry
// ABOUTME: Verifies parser selection and the no-parser error

package rawdump

import (
	"errors"
	"strings"
	"testing"
)

func TestOpenSelectsJSON(t *testing.T) {
	m, err := Open(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if m[1] == nil {
		t.Error("Expected process 1 in decoded map")
	}
}

func TestOpenSelectsYAML(t *testing.T) {
	m, err := Open(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if m[1] == nil {
		t.Error("Expected process 1 in decoded map")
	}
	if dump := m[1]; dump.LevelOfDetail != LevelDetailed {
		t.Errorf("Level of detail = %v, want detailed", dump.LevelOfDetail)
	}
}

func TestOpenNoParser(t *testing.T) {
	_, err := Open(strings.NewReader("not a dump at all"))
	if !errors.Is(err, ErrNoParser) {
		t.Errorf("Expected ErrNoParser, got %v", err)
	}
}
