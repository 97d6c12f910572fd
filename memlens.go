// ABOUTME: Main memlens package providing version information and package documentation
// ABOUTME: This is the root package for the memory dump graph analysis library

// Package memlens merges per-process allocator memory dumps into a single
// global graph and attributes byte sizes across shared ownership. It includes
// weak-node pruning, multi-pass size/coefficient computation, and
// cross-process shared-footprint attribution.
package memlens

// Version is the semantic version of the memlens library
const Version = "0.1.0-dev"
