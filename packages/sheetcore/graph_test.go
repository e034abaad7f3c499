package sheetcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(t testing.TB, text string) Coordinate {
	t.Helper()
	c, err := ParseReference(text)
	require.NoError(t, err)
	return c
}

func refs(t testing.TB, texts ...string) []Coordinate {
	t.Helper()
	result := make([]Coordinate, len(texts))
	for i, text := range texts {
		result[i] = ref(t, text)
	}
	return result
}

func TestDependencyGraphSetPrecedents(t *testing.T) {
	dg := NewDependencyGraph()

	dg.SetPrecedents(ref(t, "C1"), refs(t, "A1", "B1"))
	assert.Equal(t, refs(t, "A1", "B1"), dg.PrecedentsOf(ref(t, "C1")))
	assert.Equal(t, refs(t, "C1"), dg.DependentsOf(ref(t, "A1")))
	assert.Equal(t, refs(t, "C1"), dg.DependentsOf(ref(t, "B1")))
	assert.Equal(t, 3, dg.NodeCount())

	// replacing edges drops the old ones on both sides
	dg.SetPrecedents(ref(t, "C1"), refs(t, "B1", "D1"))
	assert.Equal(t, refs(t, "B1", "D1"), dg.PrecedentsOf(ref(t, "C1")))
	assert.Empty(t, dg.DependentsOf(ref(t, "A1")))
	assert.Equal(t, refs(t, "C1"), dg.DependentsOf(ref(t, "D1")))
	assert.Equal(t, 3, dg.NodeCount())

	dg.SetPrecedents(ref(t, "C1"), nil)
	assert.Empty(t, dg.PrecedentsOf(ref(t, "C1")))
	assert.Empty(t, dg.DependentsOf(ref(t, "B1")))
	assert.Equal(t, 0, dg.NodeCount())
}

func TestDependencyGraphDuplicatePrecedents(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetPrecedents(ref(t, "B1"), refs(t, "A1", "A1", "A1"))
	assert.Equal(t, refs(t, "A1"), dg.PrecedentsOf(ref(t, "B1")))
	assert.Equal(t, refs(t, "B1"), dg.DependentsOf(ref(t, "A1")))
}

func TestDependencyGraphWouldCreateCycle(t *testing.T) {
	dg := NewDependencyGraph()
	// A1 <- B1 <- C1 <- D1
	dg.SetPrecedents(ref(t, "B1"), refs(t, "A1"))
	dg.SetPrecedents(ref(t, "C1"), refs(t, "B1"))
	dg.SetPrecedents(ref(t, "D1"), refs(t, "C1"))

	tests := []struct {
		name       string
		cell       string
		precedents []string
		cyclic     bool
	}{
		{"self reference", "A1", []string{"A1"}, true},
		{"direct back edge", "A1", []string{"B1"}, true},
		{"long back edge", "A1", []string{"D1"}, true},
		{"middle of chain", "B1", []string{"C1"}, true},
		{"no precedents", "A1", nil, false},
		{"unrelated", "A1", []string{"Z9"}, false},
		{"forward edge", "D1", []string{"A1"}, false},
		{"rewire existing", "C1", []string{"A1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cyclic, err := dg.WouldCreateCycle(ref(t, tt.cell), refs(t, tt.precedents...), nil, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.cyclic, cyclic)
		})
	}
}

func TestDependencyGraphCycleCheckTraversalLimit(t *testing.T) {
	dg := NewDependencyGraph()
	for row := 1; row < 100; row++ {
		dg.SetPrecedents(Coordinate{Row: row}, []Coordinate{{Row: row - 1}})
	}

	_, err := dg.WouldCreateCycle(Coordinate{Row: 0}, []Coordinate{{Row: 0, Column: 5}}, nil, 10)
	require.Error(t, err)
	assert.True(t, IsDepthError(err))

	cyclic, err := dg.WouldCreateCycle(Coordinate{Row: 0}, []Coordinate{{Row: 0, Column: 5}}, nil, 1000)
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func rng(t testing.TB, text string) RangeAddress {
	t.Helper()
	r, err := ParseRange(text)
	require.NoError(t, err)
	return r
}

func TestDependencyGraphRangePrecedents(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetRangePrecedents(ref(t, "Z1"), []RangeAddress{rng(t, "A1:ZZ1000")})

	// one node for the reader, none for the members
	assert.Equal(t, 1, dg.NodeCount())
	assert.Equal(t, 1, dg.ObservedRangeCount())
	assert.Empty(t, dg.PrecedentsOf(ref(t, "Z1")))
	assert.Equal(t, []RangeAddress{rng(t, "A1:ZZ1000")}, dg.RangePrecedentsOf(ref(t, "Z1")))
	assert.Equal(t, refs(t, "Z1"), dg.DependentsOf(ref(t, "B500")))
	assert.Empty(t, dg.DependentsOf(ref(t, "A1001")))

	// two readers of the same range share one observer entry
	dg.SetRangePrecedents(ref(t, "Z2"), []RangeAddress{rng(t, "A1:ZZ1000")})
	assert.Equal(t, 1, dg.ObservedRangeCount())
	assert.Equal(t, refs(t, "Z1", "Z2"), dg.DependentsOf(ref(t, "C3")))

	dg.SetRangePrecedents(ref(t, "Z1"), nil)
	dg.SetRangePrecedents(ref(t, "Z2"), nil)
	assert.Equal(t, 0, dg.ObservedRangeCount())
	assert.Equal(t, 0, dg.NodeCount())
	assert.Empty(t, dg.DependentsOf(ref(t, "C3")))
}

func TestDependencyGraphRangeCycles(t *testing.T) {
	dg := NewDependencyGraph()
	// C1 reads A1:A10, D1 reads C1
	dg.SetRangePrecedents(ref(t, "C1"), []RangeAddress{rng(t, "A1:A10")})
	dg.SetPrecedents(ref(t, "D1"), refs(t, "C1"))

	tests := []struct {
		name   string
		cell   string
		cells  []string
		ranges []string
		cyclic bool
	}{
		{"unrelated range", "A5", nil, []string{"B1:B3"}, false},
		{"reads range holding itself", "A5", nil, []string{"A1:A10"}, true},
		{"self in own range", "B2", nil, []string{"A1:C3"}, true},
		{"member reads reader", "A5", []string{"C1"}, nil, true},
		{"member reads transitive reader", "A5", []string{"D1"}, nil, true},
		{"outside member reads reader", "A11", []string{"D1"}, nil, false},
		{"reader range covers dependent", "A5", nil, []string{"D1:D2"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ranges []RangeAddress
			for _, text := range tt.ranges {
				ranges = append(ranges, rng(t, text))
			}
			cyclic, err := dg.WouldCreateCycle(ref(t, tt.cell), refs(t, tt.cells...), ranges, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.cyclic, cyclic)
		})
	}
}

func TestDependencyGraphMarkDirtyThroughRange(t *testing.T) {
	dg := NewDependencyGraph()
	dg.SetRangePrecedents(ref(t, "C1"), []RangeAddress{rng(t, "A1:A10")})
	dg.SetPrecedents(ref(t, "D1"), refs(t, "C1"))

	assert.Equal(t, 2, dg.MarkDirty(ref(t, "A7"), false))
	assert.Equal(t, refs(t, "C1", "D1"), dg.DirtyCells())

	dg.ClearDirty(ref(t, "C1"))
	dg.ClearDirty(ref(t, "D1"))
	assert.Equal(t, 0, dg.MarkDirty(ref(t, "B7"), false))
	assert.Empty(t, dg.DirtyCells())
}

func TestCalculationStackRangeMembers(t *testing.T) {
	dg := NewDependencyGraph()
	// C1 reads A1:A3; A2 is a formula reading B1
	dg.SetRangePrecedents(ref(t, "C1"), []RangeAddress{rng(t, "A1:A3")})
	dg.SetPrecedents(ref(t, "A2"), refs(t, "B1"))
	dg.MarkDirty(ref(t, "A2"), true)

	cs := NewCalculationStack()
	assert.Equal(t, refs(t, "A2", "C1"), cs.order(ref(t, "C1"), dg))
}

func TestDependencyGraphMarkDirty(t *testing.T) {
	dg := NewDependencyGraph()
	// A1 <- B1 <- C1, A1 <- D1
	dg.SetPrecedents(ref(t, "B1"), refs(t, "A1"))
	dg.SetPrecedents(ref(t, "C1"), refs(t, "B1"))
	dg.SetPrecedents(ref(t, "D1"), refs(t, "A1"))

	marked := dg.MarkDirty(ref(t, "A1"), false)
	assert.Equal(t, 3, marked)
	assert.False(t, dg.IsDirty(ref(t, "A1")))
	assert.Equal(t, refs(t, "B1", "C1", "D1"), dg.DirtyCells())

	// already dirty: the walk stops immediately
	assert.Equal(t, 0, dg.MarkDirty(ref(t, "A1"), false))

	dg.ClearDirty(ref(t, "B1"))
	dg.ClearDirty(ref(t, "C1"))
	dg.ClearDirty(ref(t, "D1"))
	assert.Empty(t, dg.DirtyCells())

	marked = dg.MarkDirty(ref(t, "B1"), true)
	assert.Equal(t, 2, marked)
	assert.True(t, dg.IsDirty(ref(t, "B1")))
	assert.True(t, dg.IsDirty(ref(t, "C1")))
	assert.False(t, dg.IsDirty(ref(t, "D1")))

	// putting a plain value clears the cell itself
	dg.MarkDirty(ref(t, "B1"), false)
	assert.False(t, dg.IsDirty(ref(t, "B1")))
	assert.True(t, dg.IsDirty(ref(t, "C1")))
}

func TestCalculationStackOrder(t *testing.T) {
	dg := NewDependencyGraph()
	// diamond: D1 reads B1 and C1, both read A1
	dg.SetPrecedents(ref(t, "B1"), refs(t, "A1"))
	dg.SetPrecedents(ref(t, "C1"), refs(t, "A1"))
	dg.SetPrecedents(ref(t, "D1"), refs(t, "B1", "C1"))
	dg.MarkDirty(ref(t, "A1"), true)

	cs := NewCalculationStack()
	order := cs.order(ref(t, "D1"), dg)
	assert.Equal(t, refs(t, "A1", "B1", "C1", "D1"), order)

	cs.reset()
	order = cs.order(ref(t, "B1"), dg)
	assert.Equal(t, refs(t, "A1", "B1"), order)

	// clean precedents are skipped
	dg.ClearDirty(ref(t, "A1"))
	dg.ClearDirty(ref(t, "B1"))
	cs.reset()
	order = cs.order(ref(t, "D1"), dg)
	assert.Equal(t, refs(t, "C1", "D1"), order)
}

func TestCalculationStackLongChain(t *testing.T) {
	dg := NewDependencyGraph()
	const length = 50000
	for row := 1; row < length; row++ {
		dg.SetPrecedents(Coordinate{Row: row}, []Coordinate{{Row: row - 1}})
	}
	dg.MarkDirty(Coordinate{Row: 0}, true)

	cs := NewCalculationStack()
	order := cs.order(Coordinate{Row: length - 1}, dg)
	require.Len(t, order, length)
	assert.Equal(t, Coordinate{Row: 0}, order[0])
	assert.Equal(t, Coordinate{Row: length - 1}, order[length-1])
}
