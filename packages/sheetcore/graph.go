package sheetcore

import (
	"fmt"
	"slices"
)

// DependencyNode represents a cell in the dependency graph
type DependencyNode struct {
	// address of *THIS* node
	Ref Coordinate

	CellPrecedents map[Coordinate]struct{} // cells this cell reads
	CellDependents map[Coordinate]struct{} // cells that read this cell

	// ranges this cell reads. members are not expanded into cell edges; a
	// range reaches its dependents through rangeObservers.
	RangePrecedents map[RangeAddress]struct{}
}

// DependencyGraph manages cell dependencies and dirty tracking. the graph
// is acyclic after every successful put, and the dirty set is closed under
// dependents: a dirty cell's dependents are dirty too. the dependents of a
// cell are its direct readers plus the observers of every range containing
// it.
type DependencyGraph struct {
	nodes          map[Coordinate]*DependencyNode           // all nodes in the graph
	rangeObservers map[RangeAddress]map[Coordinate]struct{} // range -> cells that read it
	dirtySet       map[Coordinate]struct{}                  // cells needing recalculation
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:          make(map[Coordinate]*DependencyNode),
		rangeObservers: make(map[RangeAddress]map[Coordinate]struct{}),
		dirtySet:       make(map[Coordinate]struct{}),
	}
}

// GetOrCreateNode gets an existing node or creates a new one
func (dg *DependencyGraph) GetOrCreateNode(ref Coordinate) *DependencyNode {
	if node, exists := dg.nodes[ref]; exists {
		return node
	}

	node := &DependencyNode{
		Ref:             ref,
		CellPrecedents:  make(map[Coordinate]struct{}),
		CellDependents:  make(map[Coordinate]struct{}),
		RangePrecedents: make(map[RangeAddress]struct{}),
	}
	dg.nodes[ref] = node
	return node
}

// cleanupNodeIfEmpty removes a node with no edges left
func (dg *DependencyGraph) cleanupNodeIfEmpty(ref Coordinate) {
	node, exists := dg.nodes[ref]
	if !exists {
		return
	}
	if len(node.CellPrecedents) > 0 || len(node.CellDependents) > 0 ||
		len(node.RangePrecedents) > 0 {
		return
	}
	delete(dg.nodes, ref)
}

// SetPrecedents replaces the outgoing edges of ref with precedents. cost is
// proportional to the old plus the new degree.
func (dg *DependencyGraph) SetPrecedents(ref Coordinate, precedents []Coordinate) {
	node := dg.GetOrCreateNode(ref)

	next := make(map[Coordinate]struct{}, len(precedents))
	for _, p := range precedents {
		next[p] = struct{}{}
	}

	for p := range node.CellPrecedents {
		if _, keep := next[p]; keep {
			continue
		}
		delete(node.CellPrecedents, p)
		if pn, ok := dg.nodes[p]; ok {
			delete(pn.CellDependents, ref)
			dg.cleanupNodeIfEmpty(p)
		}
	}

	for p := range next {
		if _, exists := node.CellPrecedents[p]; exists {
			continue
		}
		node.CellPrecedents[p] = struct{}{}
		dg.GetOrCreateNode(p).CellDependents[ref] = struct{}{}
	}

	dg.cleanupNodeIfEmpty(ref)
}

// SetRangePrecedents replaces the ranges ref reads. cost is proportional to
// the number of ranges, not their size.
func (dg *DependencyGraph) SetRangePrecedents(ref Coordinate, ranges []RangeAddress) {
	node := dg.GetOrCreateNode(ref)

	next := make(map[RangeAddress]struct{}, len(ranges))
	for _, r := range ranges {
		next[r] = struct{}{}
	}

	for r := range node.RangePrecedents {
		if _, keep := next[r]; keep {
			continue
		}
		delete(node.RangePrecedents, r)
		if observers, ok := dg.rangeObservers[r]; ok {
			delete(observers, ref)
			if len(observers) == 0 {
				delete(dg.rangeObservers, r)
			}
		}
	}

	for r := range next {
		node.RangePrecedents[r] = struct{}{}
		if dg.rangeObservers[r] == nil {
			dg.rangeObservers[r] = make(map[Coordinate]struct{})
		}
		dg.rangeObservers[r][ref] = struct{}{}
	}

	dg.cleanupNodeIfEmpty(ref)
}

// forEachDependent calls fn for every direct reader of ref, including the
// observers of ranges containing ref. a cell may be reported more than once.
// stops early when fn returns false.
func (dg *DependencyGraph) forEachDependent(ref Coordinate, fn func(Coordinate) bool) bool {
	if node, exists := dg.nodes[ref]; exists {
		for dep := range node.CellDependents {
			if !fn(dep) {
				return false
			}
		}
	}
	for r, observers := range dg.rangeObservers {
		if !r.Contains(ref) {
			continue
		}
		for dep := range observers {
			if !fn(dep) {
				return false
			}
		}
	}
	return true
}

// WouldCreateCycle reports whether giving ref the cell and range precedents
// would close a cycle: either ref reads itself, or ref already reaches one
// of them through dependents edges. the search visits at most maxVisits
// cells.
func (dg *DependencyGraph) WouldCreateCycle(ref Coordinate, cells []Coordinate, ranges []RangeAddress, maxVisits int) (bool, error) {
	if len(cells) == 0 && len(ranges) == 0 {
		return false, nil
	}

	targets := make(map[Coordinate]struct{}, len(cells))
	for _, p := range cells {
		targets[p] = struct{}{}
	}
	reads := func(c Coordinate) bool {
		if _, hit := targets[c]; hit {
			return true
		}
		for _, r := range ranges {
			if r.Contains(c) {
				return true
			}
		}
		return false
	}

	if reads(ref) {
		return true, nil
	}

	cyclic := false
	var limitErr error
	visited := map[Coordinate]struct{}{ref: {}}
	stack := []Coordinate{ref}
	for len(stack) > 0 && !cyclic && limitErr == nil {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dg.forEachDependent(current, func(dep Coordinate) bool {
			if reads(dep) {
				cyclic = true
				return false
			}
			if _, seen := visited[dep]; seen {
				return true
			}
			visited[dep] = struct{}{}
			if maxVisits > 0 && len(visited) > maxVisits {
				limitErr = NewApplicationError(DepthExceeded,
					fmt.Sprintf("cycle check visited more than %d cells", maxVisits))
				return false
			}
			stack = append(stack, dep)
			return true
		})
	}

	if cyclic {
		return true, nil
	}
	return false, limitErr
}

// MarkDirty marks every transitive dependent of ref dirty, breadth first,
// and ref itself when self is set (a formula cell); otherwise ref is clean.
// the walk stops at cells already dirty since their dependents are dirty
// already. returns the number of newly dirty cells.
func (dg *DependencyGraph) MarkDirty(ref Coordinate, self bool) int {
	marked := 0
	if self {
		if _, dirty := dg.dirtySet[ref]; !dirty {
			dg.dirtySet[ref] = struct{}{}
			marked++
		}
	} else {
		delete(dg.dirtySet, ref)
	}

	queue := []Coordinate{ref}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		dg.forEachDependent(current, func(dep Coordinate) bool {
			if _, dirty := dg.dirtySet[dep]; dirty {
				return true
			}
			dg.dirtySet[dep] = struct{}{}
			marked++
			queue = append(queue, dep)
			return true
		})
	}
	return marked
}

// IsDirty reports whether ref needs recalculation
func (dg *DependencyGraph) IsDirty(ref Coordinate) bool {
	_, dirty := dg.dirtySet[ref]
	return dirty
}

// ClearDirty clears the dirty flag for a cell
func (dg *DependencyGraph) ClearDirty(ref Coordinate) {
	delete(dg.dirtySet, ref)
}

// DirtyCells returns every dirty cell, sorted
func (dg *DependencyGraph) DirtyCells() []Coordinate {
	result := make([]Coordinate, 0, len(dg.dirtySet))
	for ref := range dg.dirtySet {
		result = append(result, ref)
	}
	slices.SortFunc(result, compareCoordinates)
	return result
}

// DependentsOf returns cells directly reading ref, through a cell or a
// range reference, sorted
func (dg *DependencyGraph) DependentsOf(ref Coordinate) []Coordinate {
	set := make(map[Coordinate]struct{})
	dg.forEachDependent(ref, func(dep Coordinate) bool {
		set[dep] = struct{}{}
		return true
	})
	if len(set) == 0 {
		return nil
	}
	return sortedKeys(set)
}

// PrecedentsOf returns cells ref directly reads by cell reference, sorted
func (dg *DependencyGraph) PrecedentsOf(ref Coordinate) []Coordinate {
	node, exists := dg.nodes[ref]
	if !exists {
		return nil
	}
	return sortedKeys(node.CellPrecedents)
}

// RangePrecedentsOf returns the ranges ref reads, sorted by top-left corner
func (dg *DependencyGraph) RangePrecedentsOf(ref Coordinate) []RangeAddress {
	node, exists := dg.nodes[ref]
	if !exists || len(node.RangePrecedents) == 0 {
		return nil
	}
	result := make([]RangeAddress, 0, len(node.RangePrecedents))
	for r := range node.RangePrecedents {
		result = append(result, r)
	}
	slices.SortFunc(result, compareRanges)
	return result
}

// dirtyPrecedents returns the dirty cells ref reads, range members
// included, sorted. a range is scanned through whichever is smaller: its
// members or the dirty set.
func (dg *DependencyGraph) dirtyPrecedents(ref Coordinate) []Coordinate {
	node, exists := dg.nodes[ref]
	if !exists {
		return nil
	}

	set := make(map[Coordinate]struct{})
	for p := range node.CellPrecedents {
		if dg.IsDirty(p) {
			set[p] = struct{}{}
		}
	}
	for r := range node.RangePrecedents {
		if len(dg.dirtySet) < r.Size() {
			for c := range dg.dirtySet {
				if r.Contains(c) {
					set[c] = struct{}{}
				}
			}
			continue
		}
		for c := range r.Cells() {
			if dg.IsDirty(c) {
				set[c] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// ObservedRangeCount returns the number of distinct ranges read by formulas
func (dg *DependencyGraph) ObservedRangeCount() int {
	return len(dg.rangeObservers)
}

// NodeCount returns the number of cells taking part in any edge
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.nodes)
}

func sortedKeys(set map[Coordinate]struct{}) []Coordinate {
	result := make([]Coordinate, 0, len(set))
	for ref := range set {
		result = append(result, ref)
	}
	slices.SortFunc(result, compareCoordinates)
	return result
}

// compareRanges orders ranges by top-left corner, then bottom-right
func compareRanges(a, b RangeAddress) int {
	if c := compareCoordinates(a.Start, b.Start); c != 0 {
		return c
	}
	return compareCoordinates(a.End, b.End)
}
