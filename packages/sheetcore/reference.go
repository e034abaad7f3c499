package sheetcore

import (
	"strconv"
	"strings"
)

// MaxColumns is the number of addressable columns: A..Z then AA..ZZ.
const MaxColumns = 26 + 26*26

// Coordinate is a zero-based cell address. it is comparable and used as a
// map key throughout the store and the dependency graph.
type Coordinate struct {
	Row    int
	Column int
}

// String returns the display form, e.g. "B3"
func (c Coordinate) String() string {
	return FormatReference(c)
}

// ParseReference parses a cell reference like "A1" or "zz10" into a
// coordinate. columns are one or two letters (case-insensitive) and rows are
// 1-based decimal digits without a leading zero.
func ParseReference(text string) (Coordinate, error) {
	letterEnd := 0
	for letterEnd < len(text) && isASCIILetter(text[letterEnd]) {
		letterEnd++
	}

	if letterEnd == 0 || letterEnd > 2 {
		return Coordinate{}, newReferenceError(text, "invalid column")
	}
	if letterEnd == len(text) {
		return Coordinate{}, newReferenceError(text, "missing row number")
	}

	rowStr := text[letterEnd:]
	for i := 0; i < len(rowStr); i++ {
		if rowStr[i] < '0' || rowStr[i] > '9' {
			return Coordinate{}, newReferenceError(text, "invalid row number")
		}
	}
	if rowStr[0] == '0' {
		return Coordinate{}, newReferenceError(text, "row number must be positive without leading zeros")
	}

	rowNum, err := strconv.Atoi(rowStr)
	if err != nil {
		return Coordinate{}, newReferenceError(text, "row number out of range")
	}

	return Coordinate{
		Row:    rowNum - 1,
		Column: columnIndex(text[:letterEnd]),
	}, nil
}

// FormatReference is the inverse of ParseReference
func FormatReference(c Coordinate) string {
	return columnName(c.Column) + strconv.Itoa(c.Row+1)
}

// ParseRange parses "A1:B2". the corners are normalized so Start is the
// top-left and End the bottom-right cell, whatever order they were written in.
func ParseRange(text string) (RangeAddress, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return RangeAddress{}, newReferenceError(text, "invalid range format")
	}

	start, err := ParseReference(parts[0])
	if err != nil {
		return RangeAddress{}, newReferenceError(text, "invalid start cell in range")
	}
	end, err := ParseReference(parts[1])
	if err != nil {
		return RangeAddress{}, newReferenceError(text, "invalid end cell in range")
	}

	return NewRangeAddress(start, end), nil
}

// FormatRange formats a range as "A1:B2"
func FormatRange(r RangeAddress) string {
	return FormatReference(r.Start) + ":" + FormatReference(r.End)
}

// columnIndex converts a column name to its zero-based index
// (A=0, Z=25, AA=26, ZZ=701).
func columnIndex(letters string) int {
	col := 0
	for i := 0; i < len(letters); i++ {
		col = col*26 + int(toUpperASCII(letters[i])-'A') + 1
	}
	return col - 1
}

// columnName converts a zero-based column index to its name
func columnName(col int) string {
	if col < 26 {
		return string(rune('A' + col))
	}
	col -= 26
	return string([]byte{byte('A' + col/26), byte('A' + col%26)})
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func toUpperASCII(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}
