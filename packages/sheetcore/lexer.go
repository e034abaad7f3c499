package sheetcore

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenError
)

var tokenNames = map[TokenType]string{
	TokenEOF:           "end of formula",
	TokenNumber:        "number",
	TokenString:        "string",
	TokenCell:          "cell reference",
	TokenRange:         "range reference",
	TokenFunction:      "function name",
	TokenUnaryPrefixOp: "unary operator",
	TokenBinaryOp:      "operator",
	TokenComma:         "','",
	TokenLeftParen:     "'('",
	TokenRightParen:    "')'",
	TokenError:         "error",
}

func (t TokenType) String() string {
	return tokenNames[t]
}

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charQuote      = '"'
	charAmpersand  = '&'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charLess       = '<'
	charEqual      = '='
	charGreater    = '>'
	charCaret      = '^'
	charUnderscore = '_'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterComma
	StateAfterFunction
)

var valueStarts = map[TokenType]bool{
	TokenNumber:        true,
	TokenString:        true,
	TokenCell:          true,
	TokenRange:         true,
	TokenFunction:      true,
	TokenLeftParen:     true,
	TokenUnaryPrefixOp: true,
}

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart:         valueStarts,
	StateAfterOperator: valueStarts,
	StateAfterComma:    valueStarts,
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenString:        true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
		TokenRightParen:    true, // empty argument list, e.g. SUM()
	},
	StateAfterValue: { // after number, string, cell, range or ')'
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true,
		TokenEOF:        true,
	},
	StateAfterFunction: {
		TokenLeftParen: true,
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune offset into the full literal, marker included
	End   int // offset just past the token
}

// Lexer tokenizes the body of a formula. positions are reported relative to
// the whole literal so errors point at what the user typed.
type Lexer struct {
	runes      []rune
	pos        int
	state      TokenState
	openParens []int // positions of unmatched '('
	tokens     []Token
}

// NewLexer creates a lexer for literal, skipping the first skip runes (the
// formula marker)
func NewLexer(literal string, skip int) *Lexer {
	return &Lexer{
		runes: []rune(literal),
		pos:   skip,
		state: StateStart,
	}
}

// Tokenize tokenizes the entire input. the token slice always ends with a
// TokenEOF on success.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok := l.nextToken()
		tok.End = l.pos
		if tok.Type == TokenError {
			return nil, newSyntaxError(tok.Pos, "%s", tok.Value)
		}

		if !l.validateTransition(tok.Type) {
			if tok.Type == TokenEOF {
				return nil, newSyntaxError(tok.Pos, "unexpected end of formula")
			}
			return nil, newSyntaxError(tok.Pos, "unexpected %s %q", tok.Type, tok.Value)
		}

		switch tok.Type {
		case TokenLeftParen:
			l.openParens = append(l.openParens, tok.Pos)
		case TokenRightParen:
			if len(l.openParens) == 0 {
				return nil, newSyntaxError(tok.Pos, "unbalanced parentheses: unexpected ')'")
			}
			l.openParens = l.openParens[:len(l.openParens)-1]
		}

		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)

		if tok.Type == TokenEOF {
			break
		}
	}

	if len(l.openParens) > 0 {
		return nil, newSyntaxError(l.openParens[len(l.openParens)-1], "unbalanced parentheses: missing ')'")
	}

	return l.tokens, nil
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenNumber, TokenString, TokenCell, TokenRange, TokenRightParen:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenComma:
		l.state = StateAfterComma
	case TokenFunction:
		l.state = StateAfterFunction
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	startPos := l.pos
	ch := l.current()

	if ch == charQuote {
		return l.scanString()
	}

	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charCaret, charAmpersand, charEqual, charLess, charGreater:
		return l.scanBinaryOp()
	}

	if isLetter(ch) || ch == charUnderscore {
		return l.scanIdentifierOrCell()
	}

	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		switch l.current() {
		case charSpace, charTab, charNewline, charReturn:
			l.pos++
		default:
			return
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || ch == charUnderscore || ch == charPeriod
}

// scanNumber scans a number token including decimals and scientific notation
func (l *Lexer) scanNumber() Token {
	startPos := l.pos
	l.pos = scanNumberRunes(l.runes, l.pos)
	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanNumberRunes consumes digits[.digits][e[+-]digits] (or .digits...)
// starting at pos and returns the position after the number
func scanNumberRunes(runes []rune, pos int) int {
	at := func(i int) rune {
		if i < len(runes) {
			return runes[i]
		}
		return charNull
	}

	for isDigit(at(pos)) {
		pos++
	}

	if at(pos) == charPeriod && isDigit(at(pos+1)) {
		pos++ // consume '.'
		for isDigit(at(pos)) {
			pos++
		}
	}

	if at(pos) == 'e' || at(pos) == 'E' {
		next := pos + 1
		if at(next) == charPlus || at(next) == charMinus {
			next++
		}
		// must have at least one digit after e/E, otherwise it is not an exponent
		if isDigit(at(next)) {
			pos = next
			for isDigit(at(pos)) {
				pos++
			}
		}
	}

	return pos
}

// scanString scans a string literal with support for double-quote escapes
func (l *Lexer) scanString() Token {
	startPos := l.pos
	l.pos++ // consume opening quote

	var result []rune
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch != charQuote {
			result = append(result, ch)
			l.pos++
			continue
		}
		if l.peek(1) == charQuote {
			result = append(result, charQuote)
			l.pos += 2
			continue
		}
		l.pos++ // consume closing quote
		return Token{Type: TokenString, Value: string(result), Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unclosed string literal", Pos: startPos}
}

// scanIdentifierOrCell scans function names, cells and ranges
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && isIdentChar(l.current()) {
		l.pos++
	}
	value := l.substring(startPos, l.pos)

	// a name directly followed by '(' is a function call
	save := l.pos
	l.skipWhitespace()
	isCall := l.current() == charLParen
	l.pos = save
	if isCall {
		return Token{Type: TokenFunction, Value: value, Pos: startPos}
	}

	if !isCellName(value) {
		return Token{Type: TokenError, Value: "unknown identifier: " + value, Pos: startPos}
	}

	if l.current() != charColon {
		return Token{Type: TokenCell, Value: value, Pos: startPos}
	}

	l.pos++ // consume ':'
	cellStart := l.pos
	for l.pos < len(l.runes) && isIdentChar(l.current()) {
		l.pos++
	}
	if !isCellName(l.substring(cellStart, l.pos)) {
		return Token{Type: TokenError, Value: "invalid range reference", Pos: startPos}
	}

	return Token{Type: TokenRange, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// isCellName checks if a string has the shape of a cell reference: one or
// two letters followed by digits. bounds are checked later by the resolver.
func isCellName(s string) bool {
	letterEnd := 0
	for letterEnd < len(s) && isASCIILetter(s[letterEnd]) {
		letterEnd++
	}
	if letterEnd == 0 || letterEnd > 2 || letterEnd == len(s) {
		return false
	}
	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// scanBinaryOp scans binary operators
func (l *Lexer) scanBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	switch ch {
	case charLess:
		switch l.current() {
		case charEqual:
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<=", Pos: startPos}
		case charGreater:
			l.pos++
			return Token{Type: TokenBinaryOp, Value: "<>", Pos: startPos}
		}
	case charGreater:
		if l.current() == charEqual {
			l.pos++
			return Token{Type: TokenBinaryOp, Value: ">=", Pos: startPos}
		}
	}

	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	switch l.state {
	case StateStart, StateAfterOperator, StateAfterLeftParen, StateAfterComma:
		return true
	default:
		return false
	}
}
