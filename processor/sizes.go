// ABOUTME: Five-pass size, sub-size, ownership coefficient, and effective size computation
// ABOUTME: Pass order is load-bearing; each pass reads fields the previous one wrote

package processor

import (
	"sort"

	"github.com/prateek/memlens/graph"
)

// unspecifiedNodeName holds memory known to exist on a parent but not broken
// down by any child.
const unspecifiedNodeName = "<unspecified>"

// CalculateSizesForGraph runs the five attribution passes in their required
// order: sizes (post-order), sub-sizes (post-order), ownership coefficients
// (post-order), cumulative coefficients (pre-order), effective sizes
// (post-order).
func CalculateSizesForGraph(globalGraph *graph.GlobalNodeGraph) {
	calculateSizesForGraph(globalGraph, nil)
}

func calculateSizesForGraph(globalGraph *graph.GlobalNodeGraph, diag *Diagnostics) {
	for it := globalGraph.VisitInDepthFirstPostOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		calculateSizeForNode(node, diag)
	}
	for it := globalGraph.VisitInDepthFirstPostOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		calculateNodeSubSizes(node)
	}
	for it := globalGraph.VisitInDepthFirstPostOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		calculateNodeOwnershipCoefficient(node)
	}
	for it := globalGraph.VisitInDepthFirstPreOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		calculateNodeCumulativeOwnershipCoefficient(node)
	}
	for it := globalGraph.VisitInDepthFirstPostOrder(); ; {
		node := it.Next()
		if node == nil {
			break
		}
		calculateNodeEffectiveSize(node)
	}
}

// calculateSizeForNode settles the node's size as the maximum of its own
// reported size, the aggregated size of its children, and the largest size
// claimed by an owner. Any surplus over the children's total materializes as
// an <unspecified> child.
func calculateSizeForNode(node *graph.Node, diag *Diagnostics) {
	nodeSize, hasNodeSize := node.SizeEntry()

	var aggregatedSize uint64
	hasAggregatedSize := false
	for _, name := range node.SortedChildNames() {
		childSize, ok := aggregateSizeForDescendantNode(node, node.GetChild(name))
		if !ok {
			continue
		}
		aggregatedSize += childSize
		hasAggregatedSize = true
	}

	var maxOwnerSize uint64
	hasOwnerSize := false
	for _, edge := range node.OwnedByEdges() {
		ownerSize, ok := edge.Source().SizeEntry()
		if !ok {
			continue
		}
		if !hasOwnerSize || ownerSize > maxOwnerSize {
			maxOwnerSize = ownerSize
		}
		hasOwnerSize = true
	}

	if hasNodeSize && hasAggregatedSize && nodeSize < aggregatedSize {
		diag.add(WarningSizeInconsistency, node.Path(),
			"reported size is smaller than the aggregated size of its children")
	}
	if hasNodeSize && hasOwnerSize && nodeSize < maxOwnerSize {
		diag.add(WarningSizeInconsistency, node.Path(),
			"reported size is smaller than the size claimed by an owner")
	}

	if !hasNodeSize && !hasAggregatedSize && !hasOwnerSize {
		return
	}

	size := nodeSize
	if aggregatedSize > size {
		size = aggregatedSize
	}
	if maxOwnerSize > size {
		size = maxOwnerSize
	}
	node.SetEntry(graph.SizeEntryName, graph.UnitsBytes, size)

	// Memory the node reports but no child accounts for.
	unaccounted := size - aggregatedSize
	if unaccounted > 0 && len(node.Children()) > 0 {
		unspecified := node.CreateChild(unspecifiedNodeName)
		unspecified.AddEntry(graph.SizeEntryName, graph.UnitsBytes, unaccounted)
	}
}

// aggregateSizeForDescendantNode sums the sizes in root's subtree below
// descendant. A descendant owning a node inside the same subtree counts as
// zero: its bytes alias memory the subtree already accounts for.
func aggregateSizeForDescendantNode(root, descendant *graph.Node) (uint64, bool) {
	if edge := descendant.OwnsEdge(); edge != nil && edge.Target().IsDescendantOf(root) {
		return 0, true
	}
	if len(descendant.Children()) == 0 {
		return descendant.SizeEntry()
	}
	var total uint64
	found := false
	for _, name := range descendant.SortedChildNames() {
		childSize, ok := aggregateSizeForDescendantNode(root, descendant.GetChild(name))
		if !ok {
			continue
		}
		total += childSize
		found = true
	}
	return total, found
}

// calculateNodeSubSizes computes the two sub-sizes the coefficient pass
// divides: not-owning (subtree size excluding children that own other nodes)
// and not-owned (subtree size not already claimed by owners).
func calculateNodeSubSizes(node *graph.Node) {
	size, ok := node.SizeEntry()
	if !ok {
		return
	}

	// Leaves count fully in both directions.
	if len(node.Children()) == 0 {
		node.AddNotOwningSubSize(size)
		node.AddNotOwnedSubSize(size)
		return
	}

	for _, name := range node.SortedChildNames() {
		child := node.GetChild(name)
		if child.OwnsEdge() == nil {
			node.AddNotOwningSubSize(child.NotOwningSubSize())
		}
	}

	for _, name := range node.SortedChildNames() {
		child := node.GetChild(name)
		if len(child.OwnedByEdges()) == 0 {
			node.AddNotOwnedSubSize(child.NotOwnedSubSize())
			continue
		}
		// An owned child contributes only what its largest owner leaves
		// behind.
		var largestOwnerSize uint64
		for _, edge := range child.OwnedByEdges() {
			ownerSize, _ := edge.Source().SizeEntry()
			if ownerSize > largestOwnerSize {
				largestOwnerSize = ownerSize
			}
		}
		childSize, _ := child.SizeEntry()
		if childSize > largestOwnerSize {
			node.AddNotOwnedSubSize(childSize - largestOwnerSize)
		}
	}
}

// calculateNodeOwnershipCoefficient splits an owned node's not-owned
// sub-size among its owners. Owners are ranked by descending priority, ties
// broken by ascending not-owning sub-size; within a priority tier the
// remaining memory is spread evenly, each owner capped at its own not-owning
// sub-size. Whatever stays unattributed remains with the owned node.
func calculateNodeOwnershipCoefficient(node *graph.Node) {
	if _, ok := node.SizeEntry(); !ok {
		return
	}
	owners := node.OwnedByEdges()
	if len(owners) == 0 {
		return
	}

	sorted := make([]*graph.Edge, len(owners))
	copy(sorted, owners)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() > sorted[j].Priority()
		}
		return sorted[i].Source().NotOwningSubSize() < sorted[j].Source().NotOwningSubSize()
	})

	notOwnedSubSize := node.NotOwnedSubSize()

	var alreadyAttributed uint64
	for tierStart := 0; tierStart < len(sorted); {
		tierEnd := tierStart
		for tierEnd < len(sorted) && sorted[tierEnd].Priority() == sorted[tierStart].Priority() {
			tierEnd++
		}

		// Walk the tier in ascending not-owning sub-size, splitting what
		// each owner still lacks evenly among it and the rest of the tier.
		for i := tierStart; i < tierEnd; i++ {
			owner := sorted[i].Source()
			ownerSubSize := owner.NotOwningSubSize()
			var attributed uint64
			if ownerSubSize > alreadyAttributed {
				attributed = (ownerSubSize - alreadyAttributed) / uint64(tierEnd-i)
				alreadyAttributed += attributed
			}
			if ownerSubSize == 0 {
				owner.SetOwningCoefficient(0)
			} else {
				owner.SetOwningCoefficient(float64(attributed) / float64(ownerSubSize))
			}
		}
		tierStart = tierEnd
	}

	if notOwnedSubSize == 0 {
		return
	}
	if alreadyAttributed > notOwnedSubSize {
		alreadyAttributed = notOwnedSubSize
	}
	remainder := notOwnedSubSize - alreadyAttributed
	node.SetOwnedCoefficient(float64(remainder) / float64(notOwnedSubSize))
}

// calculateNodeCumulativeOwnershipCoefficient folds the parent's and the
// owned target's cumulative coefficients into the node's own. Pre-order
// guarantees both were computed first.
func calculateNodeCumulativeOwnershipCoefficient(node *graph.Node) {
	if _, ok := node.SizeEntry(); !ok {
		return
	}

	owned := node.OwnedCoefficient()
	if parent := node.Parent(); parent != nil {
		owned *= parent.CumulativeOwnedCoefficient()
	}
	node.SetCumulativeOwnedCoefficient(owned)

	if edge := node.OwnsEdge(); edge != nil {
		node.SetCumulativeOwningCoefficient(
			node.OwningCoefficient() * edge.Target().CumulativeOwningCoefficient())
	} else if parent := node.Parent(); parent != nil {
		node.SetCumulativeOwningCoefficient(parent.CumulativeOwningCoefficient())
	} else {
		node.SetCumulativeOwningCoefficient(1)
	}
}

// calculateNodeEffectiveSize scales a leaf's size by its cumulative
// coefficients; a non-leaf sums its children's already-computed effective
// sizes. Nodes without a size get no effective size at all.
func calculateNodeEffectiveSize(node *graph.Node) {
	size, ok := node.SizeEntry()
	if !ok {
		node.RemoveEntry(graph.EffectiveSizeEntryName)
		return
	}

	var effectiveSize uint64
	if len(node.Children()) == 0 {
		effectiveSize = uint64(float64(size) *
			node.CumulativeOwningCoefficient() * node.CumulativeOwnedCoefficient())
	} else {
		for _, name := range node.SortedChildNames() {
			entry, ok := node.GetChild(name).Entries()[graph.EffectiveSizeEntryName]
			if !ok {
				continue
			}
			effectiveSize += entry.ValueUint64
		}
	}
	node.SetEntry(graph.EffectiveSizeEntryName, graph.UnitsBytes, effectiveSize)
}
