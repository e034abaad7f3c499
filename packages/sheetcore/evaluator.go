package sheetcore

import (
	"fmt"
	"math"
)

// Evaluator computes the value of an expression tree. it is pure: cell
// values come from the lookup passed to Evaluate, and evaluating never
// changes any state.
type Evaluator struct {
	cfg       Config
	functions *FunctionRegistry
}

// NewEvaluator creates an evaluator bound to a configuration and a set of
// functions
func NewEvaluator(cfg Config, functions *FunctionRegistry) *Evaluator {
	return &Evaluator{cfg: cfg, functions: functions}
}

// Evaluate computes the value of root. failures of the formula itself are
// error markers in the returned value; the error is reserved for the depth
// guard.
func (e *Evaluator) Evaluate(root Node, lookup func(Coordinate) Value) (Value, error) {
	v, err := e.eval(root, lookup, 1)
	if err != nil {
		return Value{}, err
	}
	return computed(v), nil
}

func (e *Evaluator) eval(n Node, lookup func(Coordinate) Value, depth int) (Value, error) {
	if depth > e.cfg.MaxEvalDepth {
		return Value{}, NewApplicationError(DepthExceeded,
			fmt.Sprintf("formula evaluation deeper than %d levels", e.cfg.MaxEvalDepth))
	}

	switch node := n.(type) {
	case *NumberNode:
		return NumberValue(node.Value), nil

	case *TextNode:
		return TextValue(node.Value), nil

	case *CellRefNode:
		if node.Invalid || !e.cfg.cellInBounds(node.Ref) {
			return ErrorValue(ErrorCodeRef), nil
		}
		return lookup(node.Ref), nil

	case *RangeNode:
		// a range only makes sense as a function argument
		if node.Invalid || !e.cfg.rangeInBounds(node.Range) {
			return ErrorValue(ErrorCodeRef), nil
		}
		return ErrorValue(ErrorCodeType), nil

	case *UnaryOpNode:
		return e.evalUnary(node, lookup, depth)

	case *BinaryOpNode:
		return e.evalBinary(node, lookup, depth)

	case *FunctionCallNode:
		return e.evalFunction(node, lookup, depth)

	default:
		return Value{}, NewApplicationError(Internal, fmt.Sprintf("unknown node type %T", n))
	}
}

func (e *Evaluator) evalUnary(node *UnaryOpNode, lookup func(Coordinate) Value, depth int) (Value, error) {
	val, err := e.eval(node.Operand, lookup, depth+1)
	if err != nil || val.IsError() {
		return val, err
	}

	num, ok := asNumber(val)
	if !ok {
		return ErrorValue(ErrorCodeType), nil
	}
	if node.Op == UnaryOpMinus {
		return NumberValue(-num), nil
	}
	return NumberValue(num), nil
}

// evalBinary folds the left spine of a binary tree in a loop. a flat
// chain like 1+1+...+1 parses into a tree as deep as the chain is long, so
// only right operands count towards the depth limit.
func (e *Evaluator) evalBinary(node *BinaryOpNode, lookup func(Coordinate) Value, depth int) (Value, error) {
	spine := []*BinaryOpNode{node}
	for {
		left, ok := spine[len(spine)-1].Left.(*BinaryOpNode)
		if !ok {
			break
		}
		spine = append(spine, left)
	}

	// the left operand's error wins and the right one is never evaluated
	acc, err := e.eval(spine[len(spine)-1].Left, lookup, depth+1)
	if err != nil || acc.IsError() {
		return acc, err
	}
	for i := len(spine) - 1; i >= 0; i-- {
		right, err := e.eval(spine[i].Right, lookup, depth+1)
		if err != nil || right.IsError() {
			return right, err
		}
		acc, err = applyBinary(spine[i].Op, acc, right)
		if err != nil || acc.IsError() {
			return acc, err
		}
	}
	return acc, nil
}

func applyBinary(op BinaryOp, left, right Value) (Value, error) {
	switch op {
	case BinOpConcat:
		return TextValue(asText(left) + asText(right)), nil
	case BinOpEqual:
		return boolValue(compareValues(left, right) == 0), nil
	case BinOpNotEqual:
		return boolValue(compareValues(left, right) != 0), nil
	case BinOpLess:
		return boolValue(compareValues(left, right) < 0), nil
	case BinOpLessEqual:
		return boolValue(compareValues(left, right) <= 0), nil
	case BinOpGreater:
		return boolValue(compareValues(left, right) > 0), nil
	case BinOpGreaterEqual:
		return boolValue(compareValues(left, right) >= 0), nil
	}

	leftNum, ok := asNumber(left)
	if !ok {
		return ErrorValue(ErrorCodeType), nil
	}
	rightNum, ok := asNumber(right)
	if !ok {
		return ErrorValue(ErrorCodeType), nil
	}

	switch op {
	case BinOpAdd:
		return numberResult(leftNum + rightNum), nil
	case BinOpSubtract:
		return numberResult(leftNum - rightNum), nil
	case BinOpMultiply:
		return numberResult(leftNum * rightNum), nil
	case BinOpDivide:
		if rightNum == 0 {
			return ErrorValue(ErrorCodeDiv0), nil
		}
		return numberResult(leftNum / rightNum), nil
	case BinOpPower:
		if leftNum == 0 && rightNum < 0 {
			return ErrorValue(ErrorCodeDiv0), nil
		}
		return numberResult(math.Pow(leftNum, rightNum)), nil
	default:
		return Value{}, NewApplicationError(Internal, fmt.Sprintf("unknown operator %d", op))
	}
}

// evalFunction checks name and arity before evaluating any argument, then
// evaluates arguments left to right, stopping at the first error marker.
// a lazy function evaluates only the arguments it asks for.
func (e *Evaluator) evalFunction(node *FunctionCallNode, lookup func(Coordinate) Value, depth int) (Value, error) {
	fn, ok := e.functions.Lookup(node.Name)
	if !ok {
		return ErrorValue(ErrorCodeName), nil
	}
	if !fn.acceptsArgs(len(node.Args)) {
		return ErrorValue(ErrorCodeNA), nil
	}

	if fn.Lazy != nil {
		return fn.Lazy(len(node.Args), func(i int) (Arg, error) {
			return e.evalArg(node.Args[i], lookup, depth)
		})
	}

	args := make([]Arg, 0, len(node.Args))
	for _, argNode := range node.Args {
		arg, err := e.evalArg(argNode, lookup, depth)
		if err != nil {
			return Value{}, err
		}
		if v, ok := arg.Scalar(); ok && v.IsError() {
			return v, nil
		}
		args = append(args, arg)
	}

	return fn.Call(args), nil
}

// evalArg evaluates one function argument. an error marker, whether from a
// scalar or from a range member, comes back as a scalar argument.
func (e *Evaluator) evalArg(argNode Node, lookup func(Coordinate) Value, depth int) (Arg, error) {
	rangeNode, isRange := argNode.(*RangeNode)
	if !isRange {
		val, err := e.eval(argNode, lookup, depth+1)
		if err != nil {
			return Arg{}, err
		}
		return ScalarArg(val), nil
	}

	if rangeNode.Invalid || !e.cfg.rangeInBounds(rangeNode.Range) {
		return ScalarArg(ErrorValue(ErrorCodeRef)), nil
	}
	values := make([]Value, 0, rangeNode.Range.Size())
	for v := range rangeValues(rangeNode.Range, lookup) {
		if v.IsError() {
			return ScalarArg(v), nil
		}
		values = append(values, v)
	}
	return RangeArg(values), nil
}
