package sheetcore

import (
	"fmt"
	"strconv"
	"strings"
)

type NodePosition struct {
	Start int
	End   int
}

// Node is an immutable expression tree node. trees are shared between every
// cell holding the same formula text, so nothing may mutate a node after
// parsing.
type Node interface {
	GetPosition() NodePosition
	ToString() string
}

// BinaryOp represents binary operators
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpPower
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

var binaryOpSymbols = map[BinaryOp]string{
	BinOpAdd:          "+",
	BinOpSubtract:     "-",
	BinOpMultiply:     "*",
	BinOpDivide:       "/",
	BinOpPower:        "^",
	BinOpConcat:       "&",
	BinOpEqual:        "=",
	BinOpNotEqual:     "<>",
	BinOpLess:         "<",
	BinOpLessEqual:    "<=",
	BinOpGreater:      ">",
	BinOpGreaterEqual: ">=",
}

func (op BinaryOp) String() string {
	return binaryOpSymbols[op]
}

// UnaryOp represents unary operators
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// Parser parses tokens into a tree
type Parser struct {
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
}

// TextNode represents a string literal
type TextNode struct {
	Value    string
	Position NodePosition
}

func (n *TextNode) GetPosition() NodePosition {
	return n.Position
}

func (n *TextNode) ToString() string {
	escaped := strings.ReplaceAll(n.Value, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", escaped)
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return formatNumber(n.Value)
}

// CellRefNode represents an absolute cell reference. Invalid is set when the
// reference has the right shape but cannot address a cell (row overflow);
// it evaluates to #REF.
type CellRefNode struct {
	Ref      Coordinate
	Text     string
	Invalid  bool
	Position NodePosition
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	if n.Invalid {
		return strings.ToUpper(n.Text)
	}
	return FormatReference(n.Ref)
}

// RangeNode represents a rectangular range of cells, already normalized
type RangeNode struct {
	Range    RangeAddress
	Text     string
	Invalid  bool
	Position NodePosition
}

func (n *RangeNode) GetPosition() NodePosition {
	return n.Position
}

func (n *RangeNode) ToString() string {
	if n.Invalid {
		return strings.ToUpper(n.Text)
	}
	return FormatRange(n.Range)
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     Node
	Right    Node
	Position NodePosition
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) ToString() string {
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), n.Op, n.Right.ToString())
}

// UnaryOpNode represents a unary operation
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  Node
	Position NodePosition
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	opStr := "+"
	if n.Op == UnaryOpMinus {
		opStr = "-"
	}
	return fmt.Sprintf("%s%s", opStr, n.Operand.ToString())
}

// FunctionCallNode represents a function call. Name is kept as written;
// lookup folds case.
type FunctionCallNode struct {
	Name     string
	Args     []Node
	Position NodePosition
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return fmt.Sprintf("%s(%s)", foldName(n.Name), strings.Join(args, ","))
}

// NewParser creates a new parser over tokens. maxDepth bounds expression
// nesting; zero means unbounded.
func NewParser(tokens []Token, maxDepth int) *Parser {
	return &Parser{
		tokens:   tokens,
		maxDepth: maxDepth,
	}
}

// ParseFormula tokenizes and parses the text of a formula literal. skip is
// the rune length of the formula marker.
func ParseFormula(literal string, skip int, maxDepth int) (Node, error) {
	tokens, err := NewLexer(literal, skip).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, maxDepth).Parse()
}

// Parse parses the tokens into a tree
func (p *Parser) Parse() (Node, error) {
	if len(p.tokens) == 0 || p.tokens[0].Type == TokenEOF {
		pos := 0
		if len(p.tokens) > 0 {
			pos = p.tokens[0].Pos
		}
		return nil, newSyntaxError(pos, "empty formula")
	}

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// ensure we've consumed all tokens except EOF
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, newSyntaxError(tok.Pos, "unexpected token after expression: %q", tok.Value)
	}

	return node, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		// the lexer always terminates with EOF, so this only happens with
		// hand-built token slices
		end := 0
		if len(p.tokens) > 0 {
			end = p.tokens[len(p.tokens)-1].End
		}
		return Token{Type: TokenEOF, Pos: end, End: end}
	}
	return p.tokens[p.pos]
}

// enter increments the nesting depth and fails once it exceeds the limit
func (p *Parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return newSyntaxError(p.current().Pos, "formula nested deeper than %d levels", p.maxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

var comparisonOps = map[string]BinaryOp{
	"=":  BinOpEqual,
	"<>": BinOpNotEqual,
	"<":  BinOpLess,
	"<=": BinOpLessEqual,
	">":  BinOpGreater,
	">=": BinOpGreaterEqual,
}

var additiveOps = map[string]BinaryOp{
	"+": BinOpAdd,
	"-": BinOpSubtract,
}

var multiplicativeOps = map[string]BinaryOp{
	"*": BinOpMultiply,
	"/": BinOpDivide,
}

var concatOps = map[string]BinaryOp{
	"&": BinOpConcat,
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseLeftAssoc(comparisonOps, p.parseConcatenation)
}

// parseConcatenation handles string concatenation operator
func (p *Parser) parseConcatenation() (Node, error) {
	return p.parseLeftAssoc(concatOps, p.parseAddition)
}

// parseAddition handles addition and subtraction
func (p *Parser) parseAddition() (Node, error) {
	return p.parseLeftAssoc(additiveOps, p.parseMultiplication)
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (Node, error) {
	return p.parseLeftAssoc(multiplicativeOps, p.parseUnary)
}

// parseLeftAssoc folds a run of same-precedence binary operators to the left
func (p *Parser) parseLeftAssoc(ops map[string]BinaryOp, next func() (Node, error)) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenBinaryOp {
			break
		}
		op, ok := ops[tok.Value]
		if !ok {
			break
		}

		p.pos++
		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseUnary handles prefix + and -. they bind looser than ^, so -2^2 is
// -(2^2).
func (p *Parser) parseUnary() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	tok := p.current()
	if tok.Type != TokenUnaryPrefixOp {
		return p.parsePower()
	}

	op := UnaryOpPlus
	if tok.Value == "-" {
		op = UnaryOpMinus
	}

	p.pos++
	operand, err := p.parseUnary() // recurse for chained unary operators
	if err != nil {
		return nil, err
	}

	return &UnaryOpNode{
		Op:       op,
		Operand:  operand,
		Position: NodePosition{Start: tok.Pos, End: operand.GetPosition().End},
	}, nil
}

// parsePower handles exponentiation
func (p *Parser) parsePower() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	// right-associative; the exponent may carry its own sign (2^-1)
	if tok := p.current(); tok.Type == TokenBinaryOp && tok.Value == "^" {
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &BinaryOpNode{
			Op:       BinOpPower,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}, nil
	}

	return left, nil
}

// parsePrimary handles primary expressions (literals, references,
// functions, parentheses)
func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			// only overflow gets here; the lexer already checked the shape
			return nil, newSyntaxError(tok.Pos, "invalid number: %s", tok.Value)
		}
		return &NumberNode{
			Value:    val,
			Position: NodePosition{Start: tok.Pos, End: tok.End},
		}, nil

	case TokenString:
		p.pos++
		return &TextNode{
			Value:    tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.End},
		}, nil

	case TokenCell:
		p.pos++
		return parseCellReference(tok), nil

	case TokenRange:
		p.pos++
		return parseRangeReference(tok), nil

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		if closing := p.current(); closing.Type != TokenRightParen {
			return nil, newSyntaxError(closing.Pos, "expected closing parenthesis")
		}
		p.pos++

		return node, nil

	case TokenEOF:
		return nil, newSyntaxError(tok.Pos, "unexpected end of formula")

	default:
		return nil, newSyntaxError(tok.Pos, "unexpected token: %q", tok.Value)
	}
}

// parseFunctionCall parses a function call
func (p *Parser) parseFunctionCall() (Node, error) {
	funcTok := p.current()
	p.pos++

	if tok := p.current(); tok.Type != TokenLeftParen {
		return nil, newSyntaxError(tok.Pos, "expected '(' after function name")
	}
	p.pos++

	args := []Node{}

	// check for empty argument list
	if tok := p.current(); tok.Type == TokenRightParen {
		p.pos++
		return &FunctionCallNode{
			Name:     funcTok.Value,
			Args:     args,
			Position: NodePosition{Start: funcTok.Pos, End: tok.End},
		}, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.current()
		if tok.Type == TokenRightParen {
			p.pos++
			return &FunctionCallNode{
				Name:     funcTok.Value,
				Args:     args,
				Position: NodePosition{Start: funcTok.Pos, End: tok.End},
			}, nil
		}

		if tok.Type != TokenComma {
			return nil, newSyntaxError(tok.Pos, "expected ',' or ')' in function arguments")
		}
		p.pos++
	}
}

// parseCellReference turns a cell token into a node. a row too large to
// address still yields a node, marked invalid, so the formula evaluates to
// #REF instead of failing to parse.
func parseCellReference(tok Token) Node {
	node := &CellRefNode{
		Text:     tok.Value,
		Position: NodePosition{Start: tok.Pos, End: tok.End},
	}
	ref, err := ParseReference(tok.Value)
	if err != nil {
		node.Invalid = true
		return node
	}
	node.Ref = ref
	return node
}

// parseRangeReference turns a range token into a normalized range node
func parseRangeReference(tok Token) Node {
	node := &RangeNode{
		Text:     tok.Value,
		Position: NodePosition{Start: tok.Pos, End: tok.End},
	}
	r, err := ParseRange(tok.Value)
	if err != nil {
		node.Invalid = true
		return node
	}
	node.Range = r
	return node
}
