package sheetcore

import (
	"slices"
)

// Formula is a parsed formula shared by every cell whose literal has the
// same text. Root is nil when the text failed to parse; the cell then
// evaluates to #ERROR.
type Formula struct {
	ID              uint32
	Text            string
	Root            Node
	Precedents      []Coordinate   // sorted, deduplicated, in-bounds only
	RangePrecedents []RangeAddress // read whole; members not in Precedents
	SyntaxErr       error
}

// FormulaTable stores formulas centrally so each distinct formula text is
// parsed once, and tracks which cells use which formula.
type FormulaTable struct {
	cfg Config

	textIndex map[string]uint32   // formula text -> formula ID
	formulas  map[uint32]*Formula // formula ID -> formula
	refCounts map[uint32]int      // formula ID -> reference count

	cellsUsingFormula map[uint32]map[Coordinate]struct{} // formula ID -> cells using it
	formulaAtCell     map[Coordinate]uint32              // cell -> formula ID (reverse index)

	nextID uint32
}

// NewFormulaTable creates a new formula table
func NewFormulaTable(cfg Config) *FormulaTable {
	return &FormulaTable{
		cfg:               cfg,
		textIndex:         make(map[string]uint32),
		formulas:          make(map[uint32]*Formula),
		refCounts:         make(map[uint32]int),
		cellsUsingFormula: make(map[uint32]map[Coordinate]struct{}),
		formulaAtCell:     make(map[Coordinate]uint32),
		nextID:            1, // start at 1, reserve 0 for no formula
	}
}

// Compile returns the formula for text, parsing it only if no cell uses the
// same text yet. the result is not attached to any cell.
func (ft *FormulaTable) Compile(text string) *Formula {
	if id, exists := ft.textIndex[text]; exists {
		return ft.formulas[id]
	}

	parsed, err := parseLiteral(text, ft.cfg.FormulaMarker, ft.cfg.MaxFormulaDepth)
	if err != nil {
		return &Formula{Text: text, SyntaxErr: err}
	}
	cells, ranges := collectPrecedents(parsed.Formula, ft.cfg)
	return &Formula{
		Text:            text,
		Root:            parsed.Formula,
		Precedents:      cells,
		RangePrecedents: ranges,
	}
}

// Attach makes cell use f, releasing whatever formula it used before
func (ft *FormulaTable) Attach(cell Coordinate, f *Formula) {
	id, exists := ft.textIndex[f.Text]
	if !exists {
		id = ft.nextID
		ft.nextID++
		f.ID = id
		ft.textIndex[f.Text] = id
		ft.formulas[id] = f
	}

	if old, ok := ft.formulaAtCell[cell]; ok {
		if old == id {
			return
		}
		ft.Detach(cell)
	}

	ft.refCounts[id]++
	if ft.cellsUsingFormula[id] == nil {
		ft.cellsUsingFormula[id] = make(map[Coordinate]struct{})
	}
	ft.cellsUsingFormula[id][cell] = struct{}{}
	ft.formulaAtCell[cell] = id
}

// Detach removes the formula reference held by cell, dropping the formula
// once nothing uses it
func (ft *FormulaTable) Detach(cell Coordinate) {
	id, ok := ft.formulaAtCell[cell]
	if !ok {
		return
	}
	delete(ft.formulaAtCell, cell)

	if cells, ok := ft.cellsUsingFormula[id]; ok {
		delete(cells, cell)
		if len(cells) == 0 {
			delete(ft.cellsUsingFormula, id)
		}
	}

	ft.refCounts[id]--
	if ft.refCounts[id] <= 0 {
		ft.removeFormula(id)
	}
}

func (ft *FormulaTable) removeFormula(id uint32) {
	if f, ok := ft.formulas[id]; ok {
		delete(ft.textIndex, f.Text)
	}
	delete(ft.formulas, id)
	delete(ft.refCounts, id)
	delete(ft.cellsUsingFormula, id)
}

// FormulaAt returns the formula used by cell
func (ft *FormulaTable) FormulaAt(cell Coordinate) (*Formula, bool) {
	id, ok := ft.formulaAtCell[cell]
	if !ok {
		return nil, false
	}
	return ft.formulas[id], true
}

// GetReferenceCount gets the reference count for a formula
func (ft *FormulaTable) GetReferenceCount(id uint32) int {
	return ft.refCounts[id]
}

// GetCellsUsingFormula returns the cells using a formula, sorted
func (ft *FormulaTable) GetCellsUsingFormula(id uint32) []Coordinate {
	cells := make([]Coordinate, 0, len(ft.cellsUsingFormula[id]))
	for cell := range ft.cellsUsingFormula[id] {
		cells = append(cells, cell)
	}
	slices.SortFunc(cells, compareCoordinates)
	return cells
}

// Count returns the number of distinct formulas
func (ft *FormulaTable) Count() int {
	return len(ft.formulas)
}

// TotalReferences returns the number of cells holding a formula
func (ft *FormulaTable) TotalReferences() int {
	return len(ft.formulaAtCell)
}

// collectPrecedents lists the in-bounds cells and ranges a tree reads.
// ranges stay whole, so the cost does not depend on their size.
// out-of-bounds references contribute nothing.
func collectPrecedents(root Node, cfg Config) ([]Coordinate, []RangeAddress) {
	cells := make(map[Coordinate]struct{})
	ranges := make(map[RangeAddress]struct{})
	var walk func(n Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case *CellRefNode:
			if !node.Invalid && cfg.cellInBounds(node.Ref) {
				cells[node.Ref] = struct{}{}
			}
		case *RangeNode:
			if !node.Invalid && cfg.rangeInBounds(node.Range) {
				ranges[node.Range] = struct{}{}
			}
		case *BinaryOpNode:
			walk(node.Left)
			walk(node.Right)
		case *UnaryOpNode:
			walk(node.Operand)
		case *FunctionCallNode:
			for _, arg := range node.Args {
				walk(arg)
			}
		}
	}
	walk(root)

	var rangeList []RangeAddress
	for r := range ranges {
		rangeList = append(rangeList, r)
	}
	slices.SortFunc(rangeList, compareRanges)
	return sortedKeys(cells), rangeList
}

// compareCoordinates orders coordinates row-major
func compareCoordinates(a, b Coordinate) int {
	if a.Row != b.Row {
		return a.Row - b.Row
	}
	return a.Column - b.Column
}
