package sheetcore

import "fmt"

// RunnableSheet provides a chainable interface for sheet operations. wraps
// a Sheet and tracks the first error; every step after an error is a no-op
// until Reset.
type RunnableSheet struct {
	sheet   *Sheet
	err     error
	printLn func(string)
}

// NewRunnableSheet wraps sheet. printLn is required and will be used for
// all output (Log, CheckError)
func NewRunnableSheet(sheet *Sheet, printLn func(string)) *RunnableSheet {
	return &RunnableSheet{
		sheet:   sheet,
		printLn: printLn,
	}
}

// Put stores a literal (chainable)
func (r *RunnableSheet) Put(ref, literal string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.sheet.Put(ref, literal)
	return r
}

// PutPairs stores literals given as ref, literal, ref, literal... in order
// (chainable)
func (r *RunnableSheet) PutPairs(pairs ...string) *RunnableSheet {
	if r.err != nil {
		return r
	}
	if len(pairs)%2 != 0 {
		r.err = fmt.Errorf("expected ref/literal pairs, got %d arguments", len(pairs))
		return r
	}
	for i := 0; i < len(pairs); i += 2 {
		if r.Put(pairs[i], pairs[i+1]); r.err != nil {
			return r
		}
	}
	return r
}

// Value returns the display text of a cell, or "" once the chain has
// failed
func (r *RunnableSheet) Value(ref string) string {
	if r.err != nil {
		return ""
	}
	val, err := r.sheet.Get(ref)
	if err != nil {
		r.err = err
		return ""
	}
	return val
}

// Literal returns the literal of a cell, or "" once the chain has failed
func (r *RunnableSheet) Literal(ref string) string {
	if r.err != nil {
		return ""
	}
	literal, err := r.sheet.GetLiteral(ref)
	if err != nil {
		r.err = err
		return ""
	}
	return literal
}

// Log prints the value of a cell (chainable)
func (r *RunnableSheet) Log(ref string) *RunnableSheet {
	val := r.Value(ref)
	if r.err != nil {
		return r
	}
	r.printLn(fmt.Sprintf("%s: %s", ref, val))
	return r
}

// Then allows conditional execution based on current error state
func (r *RunnableSheet) Then(fn func(*RunnableSheet) *RunnableSheet) *RunnableSheet {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// CheckError prints the current error, if any (chainable)
func (r *RunnableSheet) CheckError() *RunnableSheet {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	}
	return r
}

// Error returns the current error state
func (r *RunnableSheet) Error() error {
	return r.err
}

// Reset clears the error state (chainable)
func (r *RunnableSheet) Reset() *RunnableSheet {
	r.err = nil
	return r
}

// Sheet returns the underlying sheet
func (r *RunnableSheet) Sheet() *Sheet {
	return r.sheet
}
