package sheetcore

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Sheet is the cell store: it combines storage, parsing, dependency
// tracking and formula evaluation behind Get, Put and GetLiteral. a Sheet is
// safe for concurrent use; operations are serialized by one mutex.
type Sheet struct {
	mu sync.Mutex

	id        uuid.UUID
	cfg       Config
	logger    *slog.Logger
	storage   *Storage
	functions *FunctionRegistry
	evaluator *Evaluator
	stack     *CalculationStack
	store     LiteralStore
}

type options struct {
	cfg       Config
	logger    *slog.Logger
	store     LiteralStore
	functions []Function
}

// Option configures a Sheet
type Option func(*options)

// WithConfig replaces the default configuration
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore persists every accepted put to store
func WithStore(store LiteralStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithFunction registers an extra pure function, or replaces a built-in
// one with the same name
func WithFunction(fn Function) Option {
	return func(o *options) {
		o.functions = append(o.functions, fn)
	}
}

// New creates an empty sheet
func New(opts ...Option) (*Sheet, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	functions := NewFunctionRegistry()
	for _, fn := range o.functions {
		if err := functions.Register(fn); err != nil {
			return nil, err
		}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &Sheet{
		id:        id,
		cfg:       o.cfg,
		logger:    logger.With(slog.String("sheet_id", id.String())),
		storage:   NewStorage(o.cfg),
		functions: functions,
		evaluator: NewEvaluator(o.cfg, functions),
		stack:     NewCalculationStack(),
		store:     o.store,
	}, nil
}

// Open creates a sheet backed by store and replays the literals it holds.
// formulas that no longer parse are loaded with an #ERROR value even in
// strict mode.
func Open(store LiteralStore, opts ...Option) (*Sheet, error) {
	s, err := New(append(opts, WithStore(store))...)
	if err != nil {
		return nil, err
	}

	count := 0
	err = store.Load(func(ref, literal string) error {
		coord, err := s.resolve(ref)
		if err != nil {
			return err
		}
		if err := s.commit(coord, literal, false); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, &AppError{Code: Internal, Message: "load literals", Err: err}
	}

	if s.cfg.Policy == PolicyEager {
		if err := s.recalculateAll(); err != nil {
			s.logger.Warn("eager recalculation failed", slog.Any("error", err))
		}
	}

	s.logger.Info("sheet loaded", slog.Int("cells", count))
	return s, nil
}

// ID identifies this sheet instance in log records
func (s *Sheet) ID() uuid.UUID {
	return s.id
}

// Config returns the configuration the sheet runs with
func (s *Sheet) Config() Config {
	return s.cfg
}

// resolve parses a reference and checks it against the configured bounds
func (s *Sheet) resolve(ref string) (Coordinate, error) {
	coord, err := ParseReference(ref)
	if err != nil {
		return Coordinate{}, err
	}
	if !s.cfg.cellInBounds(coord) {
		return Coordinate{}, newReferenceError(ref, "row number exceeds "+strconv.Itoa(s.cfg.MaxRows))
	}
	return coord, nil
}

// Get returns the display text of the cell at ref, recomputing it first if
// it is dirty. a cell that was never set reads as "".
func (s *Sheet) Get(ref string) (string, error) {
	coord, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage.GetOrCreateCell(coord)
	if err := s.ensureComputed(coord); err != nil {
		s.logger.Warn("recalculation failed",
			slog.String("ref", FormatReference(coord)),
			slog.Any("error", err))
		return "", err
	}
	return s.storage.valueAt(coord).Display(), nil
}

// GetLiteral returns exactly what was last put at ref
func (s *Sheet) GetLiteral(ref string) (string, error) {
	coord, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.storage.GetOrCreateCell(coord).Literal, nil
}

// Put stores literal at ref. a put that would make a formula depend on
// itself, directly or through other cells, is rejected with a
// CyclicReference error and changes nothing.
func (s *Sheet) Put(ref string, literal string) error {
	coord, err := s.resolve(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(coord, literal, true); err != nil {
		return err
	}

	if s.cfg.Policy == PolicyEager {
		// the put is already committed; cells that failed stay dirty and
		// report the error from Get, same as under the lazy policy
		if err := s.recalculateAll(); err != nil {
			s.logger.Warn("eager recalculation failed",
				slog.String("ref", FormatReference(coord)),
				slog.Any("error", err))
		}
	}
	return nil
}

// commit validates and applies one put. nothing is changed unless every
// check passes and the literal was persisted. callers hold s.mu, except
// during Open.
func (s *Sheet) commit(coord Coordinate, literal string, persist bool) error {
	name := FormatReference(coord)

	var formula *Formula
	var precedents []Coordinate
	var ranges []RangeAddress
	if isFormulaLiteral(literal, s.cfg.FormulaMarker) {
		formula = s.storage.formulas.Compile(literal)
		if formula.SyntaxErr != nil && s.cfg.StrictFormulas && persist {
			return withRef(formula.SyntaxErr, name)
		}
		precedents = formula.Precedents
		ranges = formula.RangePrecedents
	}

	graph := s.storage.dependencyGraph
	cyclic, err := graph.WouldCreateCycle(coord, precedents, ranges, s.cfg.MaxTraversal)
	if err != nil {
		return withRef(err, name)
	}
	if cyclic {
		s.logger.Warn("rejected cyclic put",
			slog.String("ref", name),
			slog.String("literal", literal))
		return &AppError{
			Code:    CyclicReference,
			Message: "formula would create a circular reference",
			Ref:     name,
		}
	}

	if persist && s.store != nil {
		if err := s.store.Save(name, literal); err != nil {
			s.logger.Error("persisting literal failed",
				slog.String("ref", name),
				slog.Any("error", err))
			return &AppError{Code: Internal, Message: "persist literal", Ref: name, Err: err}
		}
	}

	cell := s.storage.GetOrCreateCell(coord)
	cell.Literal = literal
	cell.Formula = formula
	if formula != nil {
		s.storage.formulas.Attach(coord, formula)
		cell.Value = EmptyValue
	} else {
		s.storage.formulas.Detach(coord)
		cell.Value = plainValue(literal)
	}

	graph.SetPrecedents(coord, precedents)
	graph.SetRangePrecedents(coord, ranges)
	marked := graph.MarkDirty(coord, formula != nil)

	s.logger.Debug("put",
		slog.String("ref", name),
		slog.Bool("formula", formula != nil),
		slog.Int("precedents", len(precedents)),
		slog.Int("ranges", len(ranges)),
		slog.Int("dirty", marked))
	return nil
}

// withRef attaches the target reference to a structural error
func withRef(err error, ref string) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err
	}
	copied := *appErr
	copied.Ref = ref
	return &copied
}

// Precedents lists the cells and then the ranges ref reads directly, as
// display references
func (s *Sheet) Precedents(ref string) ([]string, error) {
	coord, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	graph := s.storage.dependencyGraph
	result := formatReferences(graph.PrecedentsOf(coord))
	for _, r := range graph.RangePrecedentsOf(coord) {
		result = append(result, FormatRange(r))
	}
	return result, nil
}

// Dependents lists the cells that read ref directly, through a cell or a
// range reference, as display references
func (s *Sheet) Dependents(ref string) ([]string, error) {
	coord, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return formatReferences(s.storage.dependencyGraph.DependentsOf(coord)), nil
}

func formatReferences(refs []Coordinate) []string {
	result := make([]string, len(refs))
	for i, ref := range refs {
		result[i] = FormatReference(ref)
	}
	return result
}
