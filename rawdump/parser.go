// ABOUTME: Parser interface for raw memory dump formats
// ABOUTME: Defines the contract for pluggable dump decoders

package rawdump

import "io"

// Parser is the interface for raw dump decoders
type Parser interface {
	// CanParse checks if this parser can handle the given dump format
	// The reader should be treated as a preview - implementations should
	// read a small amount to detect format and not consume the entire stream
	CanParse(r io.Reader) bool

	// Parse reads the dump and builds the raw per-process node map
	// The reader will be a fresh reader positioned at the start
	Parse(r io.Reader) (Map, error)
}
