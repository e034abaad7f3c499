package sheetcore

import (
	"errors"
	"log/slog"
	"slices"
)

// CalculationStack manages the stack-based calculation order. it produces a
// post-order over the dirty precedents of a cell without recursing across
// cells, so long dependency chains cannot exhaust the goroutine stack.
type CalculationStack struct {
	items     []calcFrame             // stack of cells to process
	visited   map[Coordinate]struct{} // cells already expanded in this pass
	completed map[Coordinate]struct{} // cells already placed in the order
}

type calcFrame struct {
	ref      Coordinate
	expanded bool // precedents already pushed; emit on pop
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:     make([]calcFrame, 0),
		visited:   make(map[Coordinate]struct{}),
		completed: make(map[Coordinate]struct{}),
	}
}

// push adds a cell to the stack
func (cs *CalculationStack) push(ref Coordinate, expanded bool) {
	cs.items = append(cs.items, calcFrame{ref: ref, expanded: expanded})
}

// pop removes and returns the top frame from the stack
func (cs *CalculationStack) pop() (calcFrame, bool) {
	if len(cs.items) == 0 {
		return calcFrame{}, false
	}
	frame := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	return frame, true
}

// isCompleted checks if a cell has been placed in the order
func (cs *CalculationStack) isCompleted(ref Coordinate) bool {
	_, exists := cs.completed[ref]
	return exists
}

// order returns the dirty cells target depends on (target included), each
// after all of its dirty precedents. clean precedents are not visited:
// their cached values are current.
func (cs *CalculationStack) order(target Coordinate, graph *DependencyGraph) []Coordinate {
	var result []Coordinate
	cs.push(target, false)

	for {
		frame, ok := cs.pop()
		if !ok {
			break
		}

		if frame.expanded {
			if !cs.isCompleted(frame.ref) {
				cs.completed[frame.ref] = struct{}{}
				result = append(result, frame.ref)
			}
			continue
		}

		if _, seen := cs.visited[frame.ref]; seen {
			continue
		}
		cs.visited[frame.ref] = struct{}{}
		cs.push(frame.ref, true)

		precedents := graph.dirtyPrecedents(frame.ref)
		// push in reverse so precedents are computed in row-major order
		for i := len(precedents) - 1; i >= 0; i-- {
			p := precedents[i]
			if cs.isCompleted(p) {
				continue
			}
			if _, seen := cs.visited[p]; seen {
				continue
			}
			cs.push(p, false)
		}
	}

	return result
}

// reset clears the stack
func (cs *CalculationStack) reset() {
	cs.items = cs.items[:0]
	cs.visited = make(map[Coordinate]struct{})
	cs.completed = make(map[Coordinate]struct{})
}

// ensureComputed brings ref and its dirty precedent closure up to date.
// callers hold s.mu.
func (s *Sheet) ensureComputed(ref Coordinate) error {
	graph := s.storage.dependencyGraph
	if !graph.IsDirty(ref) {
		return nil
	}

	s.stack.reset()
	order := s.stack.order(ref, graph)
	for _, c := range order {
		if err := s.recompute(c); err != nil {
			return err
		}
	}

	s.logger.Debug("recomputed cells",
		slog.String("ref", FormatReference(ref)),
		slog.Int("count", len(order)))
	return nil
}

// recompute evaluates one dirty cell whose precedents are all clean, stores
// the result and clears the flag. on a depth error the cell stays dirty.
func (s *Sheet) recompute(ref Coordinate) error {
	graph := s.storage.dependencyGraph
	cell, ok := s.storage.GetCell(ref)
	if !ok || cell.Formula == nil {
		graph.ClearDirty(ref)
		return nil
	}

	if cell.Formula.Root == nil {
		cell.Value = ErrorValue(ErrorCodeSyntax)
		graph.ClearDirty(ref)
		return nil
	}

	value, err := s.evaluator.Evaluate(cell.Formula.Root, s.storage.valueAt)
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr.Ref == "" {
			appErr.Ref = FormatReference(ref)
		}
		return err
	}

	cell.Value = value
	graph.ClearDirty(ref)
	return nil
}

// recalculateAll recomputes every dirty cell. used by the eager policy
// after each put. a cell that fails stays dirty and is not retried in the
// same pass, and neither is anything reading it; the other cells are still
// brought up to date. returns one error per failed cell.
func (s *Sheet) recalculateAll() error {
	graph := s.storage.dependencyGraph
	failed := make(map[Coordinate]struct{})
	isFailed := func(c Coordinate) bool {
		_, ok := failed[c]
		return ok
	}

	var errs []error
	for _, ref := range graph.DirtyCells() {
		if isFailed(ref) || !graph.IsDirty(ref) {
			continue
		}

		s.stack.reset()
		order := s.stack.order(ref, graph)
		if slices.ContainsFunc(order, isFailed) {
			failed[ref] = struct{}{}
			continue
		}

		for _, c := range order {
			if err := s.recompute(c); err != nil {
				failed[c] = struct{}{}
				failed[ref] = struct{}{}
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}
