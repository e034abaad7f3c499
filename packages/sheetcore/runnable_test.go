package sheetcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnableSheet(t *testing.T) {
	var lines []string
	printLn := func(s string) { lines = append(lines, s) }

	r := NewRunnableSheet(newTestSheet(t), printLn).
		PutPairs("A1", "2", "A2", "3", "A3", "=A1*A2").
		Log("A3").
		Put("A1", "10").
		Log("A3").
		CheckError()

	require.NoError(t, r.Error())
	assert.Equal(t, []string{"A3: 6", "A3: 30"}, lines)
	assert.Equal(t, "=A1*A2", r.Literal("A3"))
	assert.Equal(t, "30", r.Value("A3"))
	assert.NotNil(t, r.Sheet())
}

func TestRunnableSheetStopsAtFirstError(t *testing.T) {
	var lines []string
	printLn := func(s string) { lines = append(lines, s) }

	r := NewRunnableSheet(newTestSheet(t), printLn).
		Put("A1", "=B1").
		Put("B1", "=A1").
		Put("C1", "never stored").
		Then(func(r *RunnableSheet) *RunnableSheet {
			t.Error("Then must not run after an error")
			return r
		}).
		Log("A1").
		CheckError()

	require.Error(t, r.Error())
	assert.True(t, IsCycleError(r.Error()))
	assert.Equal(t, "", r.Value("A1"))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ERROR: B1: formula would create a circular reference")

	r.Reset()
	assert.NoError(t, r.Error())
	assert.Equal(t, "", r.Literal("C1"))
	assert.Equal(t, "0", r.Value("A1"))
}

func TestRunnableSheetOddPairs(t *testing.T) {
	r := NewRunnableSheet(newTestSheet(t), func(string) {}).PutPairs("A1", "1", "A2")
	require.Error(t, r.Error())
	assert.Contains(t, r.Error().Error(), "got 3 arguments")

	r.Reset().Then(func(r *RunnableSheet) *RunnableSheet {
		return r.Put("A1", "7")
	})
	assert.Equal(t, "7", r.Value("A1"))
}

func TestRunnableSheetGetError(t *testing.T) {
	r := NewRunnableSheet(newTestSheet(t), func(string) {})
	assert.Equal(t, "", r.Value("1A"))
	assert.True(t, IsReferenceError(r.Error()))
}
