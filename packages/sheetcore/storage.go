package sheetcore

// Cell holds what was put at one coordinate. Value is the cached result; it
// is only meaningful while the dependency graph does not mark the cell dirty.
type Cell struct {
	Literal string
	Formula *Formula // nil for plain literals
	Value   Value
}

// Storage holds references to shared tables needed by storage operations
type Storage struct {
	cells           map[Coordinate]*Cell
	formulas        *FormulaTable
	dependencyGraph *DependencyGraph
}

// NewStorage creates empty tables
func NewStorage(cfg Config) *Storage {
	return &Storage{
		cells:           make(map[Coordinate]*Cell),
		formulas:        NewFormulaTable(cfg),
		dependencyGraph: NewDependencyGraph(),
	}
}

// GetCell returns the cell at ref if it was ever created
func (st *Storage) GetCell(ref Coordinate) (*Cell, bool) {
	cell, ok := st.cells[ref]
	return cell, ok
}

// GetOrCreateCell returns the cell at ref, creating an empty one
func (st *Storage) GetOrCreateCell(ref Coordinate) *Cell {
	if cell, ok := st.cells[ref]; ok {
		return cell
	}
	cell := &Cell{}
	st.cells[ref] = cell
	return cell
}

// valueAt returns the cached value at ref; unknown cells are empty
func (st *Storage) valueAt(ref Coordinate) Value {
	if cell, ok := st.cells[ref]; ok {
		return cell.Value
	}
	return EmptyValue
}

// CellCount returns the number of cells created so far
func (st *Storage) CellCount() int {
	return len(st.cells)
}
