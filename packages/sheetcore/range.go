package sheetcore

import "iter"

// RangeAddress represents a rectangular block of cells. Start is always the
// top-left corner and End the bottom-right one.
type RangeAddress struct {
	Start Coordinate
	End   Coordinate
}

// NewRangeAddress builds a range from two corners in any order, normalizing
// rows and columns independently
func NewRangeAddress(a, b Coordinate) RangeAddress {
	return RangeAddress{
		Start: Coordinate{Row: min(a.Row, b.Row), Column: min(a.Column, b.Column)},
		End:   Coordinate{Row: max(a.Row, b.Row), Column: max(a.Column, b.Column)},
	}
}

// Rows returns the number of rows covered
func (r RangeAddress) Rows() int {
	return r.End.Row - r.Start.Row + 1
}

// Columns returns the number of columns covered
func (r RangeAddress) Columns() int {
	return r.End.Column - r.Start.Column + 1
}

// Size returns the number of cells in the range
func (r RangeAddress) Size() int {
	return r.Rows() * r.Columns()
}

// Contains checks if a cell is within the range
func (r RangeAddress) Contains(c Coordinate) bool {
	return c.Row >= r.Start.Row && c.Row <= r.End.Row &&
		c.Column >= r.Start.Column && c.Column <= r.End.Column
}

// Cells returns an iterator over every coordinate in the range, row by row
func (r RangeAddress) Cells() iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			for col := r.Start.Column; col <= r.End.Column; col++ {
				if !yield(Coordinate{Row: row, Column: col}) {
					return
				}
			}
		}
	}
}

// rangeValues lazily resolves every cell of a range through lookup
func rangeValues(r RangeAddress, lookup func(Coordinate) Value) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for c := range r.Cells() {
			if !yield(lookup(c)) {
				return
			}
		}
	}
}
