package sheetcore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n        float64
		expected string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-0.5, "-0.5"},
		{100, "100"},
		{0.1 + 0.2, "0.3"},
		{1.0 / 3, "0.333333333333333"},
		{123456789012345678, "123456789012346000"},
		{1e21, "1e+21"},
		{1e-7, "1e-07"},
		{0.000001, "0.000001"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatNumber(tt.n), "%v", tt.n)
	}
}

func TestValueDisplay(t *testing.T) {
	assert.Equal(t, "", EmptyValue.Display())
	assert.Equal(t, "2.5", NumberValue(2.5).Display())
	assert.Equal(t, "2.50", literalNumber(2.5, "2.50").Display())
	assert.Equal(t, "hi", TextValue("hi").Display())
	assert.Equal(t, "#DIV0", ErrorValue(ErrorCodeDiv0).Display())
	assert.Equal(t, "#ERROR", ErrorValue(ErrorCodeSyntax).Display())
	assert.Equal(t, "#ERROR", ErrorCode(99).String())
}

func TestComputedValue(t *testing.T) {
	assert.Equal(t, NumberValue(0), computed(EmptyValue))
	assert.Equal(t, "2.5", computed(literalNumber(2.5, "2.50")).Display())
	assert.Equal(t, TextValue("x"), computed(TextValue("x")))
	assert.Equal(t, ErrorValue(ErrorCodeRef), computed(ErrorValue(ErrorCodeRef)))
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name        string
		left, right Value
		expected    int
	}{
		{"numbers", NumberValue(1), NumberValue(2), -1},
		{"equal numbers", NumberValue(2), literalNumber(2, "2.0"), 0},
		{"empty as zero", EmptyValue, NumberValue(0), 0},
		{"empty as text", EmptyValue, TextValue(""), 0},
		{"empty below text", EmptyValue, TextValue("a"), -1},
		{"number before text", NumberValue(100), TextValue("1"), -1},
		{"text after number", TextValue("a"), NumberValue(1), 1},
		{"case folded", TextValue("Straße"), TextValue("STRASSE"), 0},
		{"text order", TextValue("apple"), TextValue("Banana"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compareValues(tt.left, tt.right))
		})
	}
}

func TestNumberResult(t *testing.T) {
	assert.Equal(t, NumberValue(1), numberResult(1))
	assert.Equal(t, ErrorValue(ErrorCodeNum), numberResult(math.NaN()))
	assert.Equal(t, ErrorValue(ErrorCodeNum), numberResult(math.Inf(-1)))
}
