package sheetcore

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultFormulaMarker introduces a formula literal
const DefaultFormulaMarker = "="

// ParsedCell is the result of classifying a literal. plain literals carry
// their Value directly; formulas carry the parsed tree.
type ParsedCell struct {
	Literal string
	Value   Value // for plain literals
	Formula Node  // nil for plain literals
}

// IsFormula reports whether the literal was a formula
func (p ParsedCell) IsFormula() bool {
	return p.Formula != nil
}

// Parse classifies a literal and parses it when it starts with marker. an
// empty marker falls back to DefaultFormulaMarker.
func Parse(literal string, marker string) (ParsedCell, error) {
	return parseLiteral(literal, marker, DefaultMaxFormulaDepth)
}

func parseLiteral(literal string, marker string, maxDepth int) (ParsedCell, error) {
	if marker == "" {
		marker = DefaultFormulaMarker
	}

	if !isFormulaLiteral(literal, marker) {
		return ParsedCell{Literal: literal, Value: plainValue(literal)}, nil
	}

	root, err := ParseFormula(literal, utf8.RuneCountInString(marker), maxDepth)
	if err != nil {
		return ParsedCell{}, err
	}
	return ParsedCell{Literal: literal, Formula: root}, nil
}

func isFormulaLiteral(literal string, marker string) bool {
	return strings.HasPrefix(literal, marker)
}

// plainValue classifies a non-formula literal as empty, number or text
func plainValue(literal string) Value {
	if literal == "" {
		return EmptyValue
	}
	if n, ok := parseNumberLiteral(literal); ok {
		return literalNumber(n, literal)
	}
	return TextValue(literal)
}

// parseNumberLiteral accepts [+-]?(digits[.digits]|.digits)([eE][+-]?digits)?
// with nothing around it
func parseNumberLiteral(s string) (float64, bool) {
	runes := []rune(s)
	pos := 0
	if pos < len(runes) && (runes[pos] == charPlus || runes[pos] == charMinus) {
		pos++
	}
	if pos >= len(runes) {
		return 0, false
	}
	if !isDigit(runes[pos]) && !(runes[pos] == charPeriod && pos+1 < len(runes) && isDigit(runes[pos+1])) {
		return 0, false
	}
	if scanNumberRunes(runes, pos) != len(runes) {
		return 0, false
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of float range; keep it as text
		return 0, false
	}
	return n, true
}
