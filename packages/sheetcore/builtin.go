package sheetcore

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Arg is one evaluated function argument: a scalar value, or the values of a
// range in row-major order. arguments passed to Call never hold error
// markers; the evaluator returns the first one it meets before calling the
// function. arguments fetched by a Lazy function may be a scalar marker.
type Arg struct {
	value   Value
	values  []Value
	isRange bool
}

// ScalarArg wraps a single value as an argument
func ScalarArg(v Value) Arg {
	return Arg{value: v}
}

// RangeArg wraps the values of a range as an argument
func RangeArg(values []Value) Arg {
	return Arg{values: values, isRange: true}
}

// IsRange reports whether the argument came from a range reference
func (a Arg) IsRange() bool {
	return a.isRange
}

// Scalar returns the argument's value. ok is false for ranges.
func (a Arg) Scalar() (Value, bool) {
	if a.isRange {
		return Value{}, false
	}
	return a.value, true
}

// Values iterates the argument: every range member, or the single scalar
func (a Arg) Values() iter.Seq[Value] {
	if a.isRange {
		return slices.Values(a.values)
	}
	return func(yield func(Value) bool) {
		yield(a.value)
	}
}

// ArgFunc evaluates the argument at index i on demand
type ArgFunc func(i int) (Arg, error)

// Function is a pure function callable from formulas. MaxArgs of -1 means
// variadic. Call receives between MinArgs and MaxArgs arguments, all
// evaluated. Lazy, when set, is used instead of Call: it receives the
// argument count and evaluates only the arguments it needs, so an unused
// branch cannot produce an error.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Call    func(args []Arg) Value
	Lazy    func(n int, arg ArgFunc) (Value, error)
}

func (f Function) acceptsArgs(n int) bool {
	return n >= f.MinArgs && (f.MaxArgs < 0 || n <= f.MaxArgs)
}

// FunctionRegistry maps case-folded names to functions
type FunctionRegistry struct {
	functions map[string]Function
}

// NewFunctionRegistry creates a registry holding the built-in functions
func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{functions: make(map[string]Function)}
	for _, fn := range builtInFunctions() {
		r.functions[foldName(fn.Name)] = fn
	}
	return r
}

// Register adds or replaces a function
func (r *FunctionRegistry) Register(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("function name must not be empty")
	}
	if fn.Call == nil && fn.Lazy == nil {
		return fmt.Errorf("function %s has no implementation", fn.Name)
	}
	if fn.MinArgs < 0 || (fn.MaxArgs >= 0 && fn.MaxArgs < fn.MinArgs) {
		return fmt.Errorf("function %s has invalid arity %d..%d", fn.Name, fn.MinArgs, fn.MaxArgs)
	}
	r.functions[foldName(fn.Name)] = fn
	return nil
}

// Lookup finds a function by name, ignoring case
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	fn, ok := r.functions[foldName(name)]
	return fn, ok
}

// Names returns the registered names, sorted
func (r *FunctionRegistry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// foldName normalizes a function name for lookup. a Caser is stateful so
// one is built per call.
func foldName(name string) string {
	return cases.Upper(language.Und).String(name)
}

func builtInFunctions() []Function {
	return []Function{
		{Name: "SUM", MinArgs: 1, MaxArgs: -1, Call: SUM},
		{Name: "AVERAGE", MinArgs: 1, MaxArgs: -1, Call: AVERAGE},
		{Name: "MIN", MinArgs: 1, MaxArgs: -1, Call: MIN},
		{Name: "MAX", MinArgs: 1, MaxArgs: -1, Call: MAX},
		{Name: "COUNT", MinArgs: 1, MaxArgs: -1, Call: COUNT},
		{Name: "ABS", MinArgs: 1, MaxArgs: 1, Call: ABS},
		{Name: "ROUND", MinArgs: 1, MaxArgs: 2, Call: ROUND},
		{Name: "SQRT", MinArgs: 1, MaxArgs: 1, Call: SQRT},
		{Name: "POWER", MinArgs: 2, MaxArgs: 2, Call: POWER},
		{Name: "MOD", MinArgs: 2, MaxArgs: 2, Call: MOD},
		{Name: "IF", MinArgs: 2, MaxArgs: 3, Lazy: IF},
		{Name: "CONCATENATE", MinArgs: 1, MaxArgs: -1, Call: CONCATENATE},
		{Name: "LEN", MinArgs: 1, MaxArgs: 1, Call: LEN},
		{Name: "UPPER", MinArgs: 1, MaxArgs: 1, Call: UPPER},
		{Name: "LOWER", MinArgs: 1, MaxArgs: 1, Call: LOWER},
	}
}

// numbers walks the numeric content of args. range members that are not
// numbers are skipped; a scalar that is not a number is a type error.
func numbers(args []Arg) ([]float64, bool) {
	var result []float64
	for _, arg := range args {
		if !arg.IsRange() {
			num, ok := asNumber(arg.value)
			if !ok {
				return nil, false
			}
			result = append(result, num)
			continue
		}
		for v := range arg.Values() {
			if v.Kind == KindNumber {
				result = append(result, v.Number)
			}
		}
	}
	return result, true
}

// scalarNumber reads a single numeric argument
func scalarNumber(arg Arg) (float64, Value, bool) {
	v, ok := arg.Scalar()
	if !ok {
		return 0, ErrorValue(ErrorCodeType), false
	}
	num, ok := asNumber(v)
	if !ok {
		return 0, ErrorValue(ErrorCodeType), false
	}
	return num, Value{}, true
}

// scalarText reads a single text argument
func scalarText(arg Arg) (string, Value, bool) {
	v, ok := arg.Scalar()
	if !ok {
		return "", ErrorValue(ErrorCodeType), false
	}
	return asText(v), Value{}, true
}

func SUM(args []Arg) Value {
	nums, ok := numbers(args)
	if !ok {
		return ErrorValue(ErrorCodeType)
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return numberResult(sum)
}

func AVERAGE(args []Arg) Value {
	nums, ok := numbers(args)
	if !ok {
		return ErrorValue(ErrorCodeType)
	}
	if len(nums) == 0 {
		return ErrorValue(ErrorCodeDiv0)
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return numberResult(sum / float64(len(nums)))
}

func MIN(args []Arg) Value {
	nums, ok := numbers(args)
	if !ok {
		return ErrorValue(ErrorCodeType)
	}
	if len(nums) == 0 {
		return NumberValue(0)
	}
	return NumberValue(slices.Min(nums))
}

func MAX(args []Arg) Value {
	nums, ok := numbers(args)
	if !ok {
		return ErrorValue(ErrorCodeType)
	}
	if len(nums) == 0 {
		return NumberValue(0)
	}
	return NumberValue(slices.Max(nums))
}

// COUNT counts numbers only; text and empty cells are ignored
func COUNT(args []Arg) Value {
	count := 0
	for _, arg := range args {
		for v := range arg.Values() {
			if v.Kind == KindNumber {
				count++
			}
		}
	}
	return NumberValue(float64(count))
}

func ABS(args []Arg) Value {
	num, errVal, ok := scalarNumber(args[0])
	if !ok {
		return errVal
	}
	return NumberValue(math.Abs(num))
}

// ROUND rounds half away from zero to the given number of decimal places,
// which may be negative
func ROUND(args []Arg) Value {
	num, errVal, ok := scalarNumber(args[0])
	if !ok {
		return errVal
	}

	places := 0.0
	if len(args) == 2 {
		places, errVal, ok = scalarNumber(args[1])
		if !ok {
			return errVal
		}
	}
	places = math.Trunc(places)
	switch {
	case places > 15:
		return NumberValue(num)
	case places < -308:
		// 10^places underflows to 0; every finite number rounds to 0 there
		return NumberValue(0)
	}

	multiplier := math.Pow(10, places)
	scaled := num * multiplier
	if math.IsInf(scaled, 0) {
		return NumberValue(num)
	}
	return numberResult(math.Round(scaled) / multiplier)
}

func SQRT(args []Arg) Value {
	num, errVal, ok := scalarNumber(args[0])
	if !ok {
		return errVal
	}
	if num < 0 {
		return ErrorValue(ErrorCodeNum)
	}
	return NumberValue(math.Sqrt(num))
}

func POWER(args []Arg) Value {
	base, errVal, ok := scalarNumber(args[0])
	if !ok {
		return errVal
	}
	exp, errVal, ok := scalarNumber(args[1])
	if !ok {
		return errVal
	}
	if base == 0 && exp < 0 {
		return ErrorValue(ErrorCodeDiv0)
	}
	return numberResult(math.Pow(base, exp))
}

// MOD returns a remainder with the sign of the divisor
func MOD(args []Arg) Value {
	dividend, errVal, ok := scalarNumber(args[0])
	if !ok {
		return errVal
	}
	divisor, errVal, ok := scalarNumber(args[1])
	if !ok {
		return errVal
	}
	if divisor == 0 {
		return ErrorValue(ErrorCodeDiv0)
	}
	return numberResult(dividend - divisor*math.Floor(dividend/divisor))
}

// IF picks its second or third argument and evaluates only the one picked.
// without a third argument a false condition yields 0.
func IF(n int, arg ArgFunc) (Value, error) {
	pick := func(i int) (Value, error) {
		a, err := arg(i)
		if err != nil {
			return Value{}, err
		}
		v, ok := a.Scalar()
		if !ok {
			return ErrorValue(ErrorCodeType), nil
		}
		return v, nil
	}

	condition, err := pick(0)
	if err != nil || condition.IsError() {
		return condition, err
	}
	num, ok := asNumber(condition)
	if !ok {
		return ErrorValue(ErrorCodeType), nil
	}

	if num != 0 {
		return pick(1)
	}
	if n == 3 {
		return pick(2)
	}
	return NumberValue(0), nil
}

// CONCATENATE joins every argument as text, range members included
func CONCATENATE(args []Arg) Value {
	var result strings.Builder
	for _, arg := range args {
		for v := range arg.Values() {
			result.WriteString(asText(v))
		}
	}
	return TextValue(result.String())
}

// LEN counts characters, not bytes
func LEN(args []Arg) Value {
	text, errVal, ok := scalarText(args[0])
	if !ok {
		return errVal
	}
	return NumberValue(float64(utf8.RuneCountInString(text)))
}

func UPPER(args []Arg) Value {
	text, errVal, ok := scalarText(args[0])
	if !ok {
		return errVal
	}
	return TextValue(cases.Upper(language.Und).String(text))
}

func LOWER(args []Arg) Value {
	text, errVal, ok := scalarText(args[0])
	if !ok {
		return errVal
	}
	return TextValue(cases.Lower(language.Und).String(text))
}
