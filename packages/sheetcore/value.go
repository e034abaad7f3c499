package sheetcore

import (
	"math"
	"strconv"

	"golang.org/x/text/cases"
)

// ErrorCode represents the in-value error markers a computation can
// produce. markers are ordinary values: they are stored, displayed and
// propagated through dependent formulas, never returned as Go errors.
type ErrorCode uint8

const (
	ErrorCodeDiv0   ErrorCode = 1 // #DIV0 - division by zero
	ErrorCodeType   ErrorCode = 2 // #TYPE - wrong type of operand
	ErrorCodeRef    ErrorCode = 3 // #REF - reference out of bounds
	ErrorCodeName   ErrorCode = 4 // #NAME - unknown function name
	ErrorCodeNum    ErrorCode = 5 // #NUM - result is not a finite number
	ErrorCodeNA     ErrorCode = 6 // #NA - wrong number of function arguments
	ErrorCodeSyntax ErrorCode = 7 // #ERROR - formula could not be parsed
)

// ErrorMapper maps error codes to their display strings
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0:   "#DIV0",
	ErrorCodeType:   "#TYPE",
	ErrorCodeRef:    "#REF",
	ErrorCodeName:   "#NAME",
	ErrorCodeNum:    "#NUM",
	ErrorCodeNA:     "#NA",
	ErrorCodeSyntax: "#ERROR",
}

func (c ErrorCode) String() string {
	if s, ok := ErrorMapper[c]; ok {
		return s
	}
	return "#ERROR"
}

// ValueKind tags the variant held by a Value
type ValueKind uint8

const (
	KindEmpty  ValueKind = 0
	KindNumber ValueKind = 1
	KindText   ValueKind = 2
	KindError  ValueKind = 3
)

// Value is the result of evaluating a cell. it is a tagged variant over
// empty, number, text and error marker; operators pattern-match on Kind
// instead of coercing at runtime.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string // text payload, or the source spelling of a literal number
	Error  ErrorCode
}

// EmptyValue is the value of a cell that holds nothing
var EmptyValue = Value{}

// NumberValue wraps a computed number
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// TextValue wraps a text value
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// ErrorValue wraps an error marker
func ErrorValue(code ErrorCode) Value {
	return Value{Kind: KindError, Error: code}
}

// literalNumber keeps the user's spelling so a plain literal displays
// exactly as it was typed.
func literalNumber(n float64, spelling string) Value {
	return Value{Kind: KindNumber, Number: n, Text: spelling}
}

func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Display formats the value the way Get returns it
func (v Value) Display() string {
	switch v.Kind {
	case KindNumber:
		if v.Text != "" {
			return v.Text
		}
		return formatNumber(v.Number)
	case KindText:
		return v.Text
	case KindError:
		return v.Error.String()
	default:
		return ""
	}
}

// formatNumber renders a computed number rounded to 15 significant digits,
// which hides binary artifacts like 0.1+0.2 = 0.30000000000000004.
func formatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(n, 'g', 15, 64), 64)
	if err != nil {
		rounded = n
	}
	abs := math.Abs(rounded)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(rounded, 'f', -1, 64)
	}
	return strconv.FormatFloat(rounded, 'g', -1, 64)
}

// asNumber reads a value as an arithmetic operand. empty counts as zero,
// text is a type mismatch.
func asNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindEmpty:
		return 0, true
	default:
		return 0, false
	}
}

// asText reads a value as a text operand
func asText(v Value) string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Number)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

// computed drops the literal spelling of a number so results of formulas
// always display in canonical form. an empty result reads as zero.
func computed(v Value) Value {
	switch v.Kind {
	case KindNumber:
		return NumberValue(v.Number)
	case KindEmpty:
		return NumberValue(0)
	default:
		return v
	}
}

// numberResult converts a float into a value, turning NaN and infinities
// into the #NUM marker
func numberResult(n float64) Value {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ErrorValue(ErrorCodeNum)
	}
	return NumberValue(n)
}

// compareValues orders two non-error values. numbers sort before text,
// empty compares as 0 against numbers and "" against text. text compares
// case-insensitively.
func compareValues(left, right Value) int {
	if left.Kind == KindEmpty && right.Kind == KindText {
		left = TextValue("")
	}
	if right.Kind == KindEmpty && left.Kind == KindText {
		right = TextValue("")
	}

	leftNum, leftIsNum := asNumber(left)
	rightNum, rightIsNum := asNumber(right)
	switch {
	case leftIsNum && rightIsNum:
		switch {
		case leftNum < rightNum:
			return -1
		case leftNum > rightNum:
			return 1
		}
		return 0
	case leftIsNum:
		return -1
	case rightIsNum:
		return 1
	}

	fold := cases.Fold()
	leftText, rightText := fold.String(left.Text), fold.String(right.Text)
	switch {
	case leftText < rightText:
		return -1
	case leftText > rightText:
		return 1
	}
	return 0
}

func boolValue(b bool) Value {
	if b {
		return NumberValue(1)
	}
	return NumberValue(0)
}
