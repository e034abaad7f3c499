package sheetcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, literal string) []Token {
	t.Helper()
	tokens, err := NewLexer(literal, 1).Tokenize()
	require.NoError(t, err, literal)
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerFunctionCall(t *testing.T) {
	tokens := tokenize(t, "=SUM(A1:B2, 3)")

	expected := []Token{
		{Type: TokenFunction, Value: "SUM", Pos: 1, End: 4},
		{Type: TokenLeftParen, Value: "(", Pos: 4, End: 5},
		{Type: TokenRange, Value: "A1:B2", Pos: 5, End: 10},
		{Type: TokenComma, Value: ",", Pos: 10, End: 11},
		{Type: TokenNumber, Value: "3", Pos: 12, End: 13},
		{Type: TokenRightParen, Value: ")", Pos: 13, End: 14},
		{Type: TokenEOF, Pos: 14, End: 14},
	}
	assert.Equal(t, expected, tokens)
}

func TestLexerUnaryAndBinaryMinus(t *testing.T) {
	tokens := tokenize(t, "=-1--2")
	assert.Equal(t, []TokenType{
		TokenUnaryPrefixOp, TokenNumber, TokenBinaryOp, TokenUnaryPrefixOp, TokenNumber, TokenEOF,
	}, tokenTypes(tokens))

	tokens = tokenize(t, "=2^-1")
	assert.Equal(t, []TokenType{
		TokenNumber, TokenBinaryOp, TokenUnaryPrefixOp, TokenNumber, TokenEOF,
	}, tokenTypes(tokens))

	tokens = tokenize(t, "=(+1)")
	assert.Equal(t, TokenUnaryPrefixOp, tokens[1].Type)
}

func TestLexerComparisonOperators(t *testing.T) {
	tokens := tokenize(t, "=A1<=B1<>C1>=D1<E1>F1=G1")

	var ops []string
	for _, tok := range tokens {
		if tok.Type == TokenBinaryOp {
			ops = append(ops, tok.Value)
		}
	}
	assert.Equal(t, []string{"<=", "<>", ">=", "<", ">", "="}, ops)
}

func TestLexerStringEscapes(t *testing.T) {
	tokens := tokenize(t, `="say ""hi"""`)
	require.Len(t, tokens, 2)
	assert.Equal(t, `say "hi"`, tokens[0].Value)
	assert.Equal(t, 1, tokens[0].Pos)
	assert.Equal(t, 14, tokens[0].End)

	tokens = tokenize(t, `="日本語"&""`)
	assert.Equal(t, "日本語", tokens[0].Value)
	assert.Equal(t, 6, tokens[0].End)
	assert.Equal(t, "", tokens[2].Value)
}

func TestLexerNumbers(t *testing.T) {
	tokens := tokenize(t, "=1.5e3+.5*2E-2")

	var numbers []string
	for _, tok := range tokens {
		if tok.Type == TokenNumber {
			numbers = append(numbers, tok.Value)
		}
	}
	assert.Equal(t, []string{"1.5e3", ".5", "2E-2"}, numbers)
}

func TestLexerFunctionNameWithSpaceBeforeParen(t *testing.T) {
	tokens := tokenize(t, "=sum (A1)")
	assert.Equal(t, TokenFunction, tokens[0].Type)
	assert.Equal(t, "sum", tokens[0].Value)
	assert.Equal(t, 5, tokens[1].Pos)
}

func TestLexerSkipsLongMarker(t *testing.T) {
	tokens, err := NewLexer(">>A1", 2).Tokenize()
	require.NoError(t, err)
	assert.Equal(t, TokenCell, tokens[0].Type)
	assert.Equal(t, 2, tokens[0].Pos)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		literal string
		pos     int
		message string
	}{
		{"=", 1, "unexpected end of formula"},
		{"=1+", 3, "unexpected end of formula"},
		{"=(1+2", 1, "missing ')'"},
		{"=1+2)", 4, "unexpected ')'"},
		{`="abc`, 1, "unclosed string literal"},
		{"=1 # 2", 3, "unexpected character: #"},
		{"=FOO", 1, "unknown identifier: FOO"},
		{"=SUM 1", 1, "unknown identifier: SUM"},
		{"=1 2", 3, "unexpected number"},
		{"=A1:", 1, "invalid range reference"},
		{"=1e", 2, "unknown identifier: e"},
		{"=SUM(1,)", 7, "unexpected ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			_, err := NewLexer(tt.literal, 1).Tokenize()
			require.Error(t, err)
			assert.True(t, IsSyntaxError(err))
			assert.Equal(t, tt.pos, syntaxPosition(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
