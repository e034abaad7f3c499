package sheetcore

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RecalcPolicy selects when dirty cells are recomputed
type RecalcPolicy string

const (
	// PolicyLazy recomputes a dirty cell when it is read
	PolicyLazy RecalcPolicy = "lazy"
	// PolicyEager recomputes every dirty cell at the end of each put
	PolicyEager RecalcPolicy = "eager"
)

const (
	DefaultMaxRows         = 1 << 20
	DefaultMaxFormulaDepth = 256
	DefaultMaxEvalDepth    = 4096
	DefaultMaxTraversal    = 1 << 22
	DefaultMaxRangeCells   = 1 << 20
)

// Config holds the tunables of a Sheet. the zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// FormulaMarker is the prefix that turns a literal into a formula
	FormulaMarker string `yaml:"formula_marker"`

	// MaxRows bounds addressable rows. references beyond it are invalid
	// for Get/Put and evaluate to #REF inside formulas.
	MaxRows int `yaml:"max_rows"`

	// MaxFormulaDepth bounds expression nesting at parse time
	MaxFormulaDepth int `yaml:"max_formula_depth"`

	// MaxEvalDepth bounds evaluator recursion over a single tree
	MaxEvalDepth int `yaml:"max_eval_depth"`

	// MaxTraversal bounds the number of cells a cycle check may visit
	MaxTraversal int `yaml:"max_traversal"`

	// MaxRangeCells bounds the size of a range reference. larger ranges
	// evaluate to #REF and contribute no dependency edges.
	MaxRangeCells int `yaml:"max_range_cells"`

	// StrictFormulas rejects puts of formulas that fail to parse instead of
	// storing them with an #ERROR value
	StrictFormulas bool `yaml:"strict_formulas"`

	Policy RecalcPolicy `yaml:"policy"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		FormulaMarker:   DefaultFormulaMarker,
		MaxRows:         DefaultMaxRows,
		MaxFormulaDepth: DefaultMaxFormulaDepth,
		MaxEvalDepth:    DefaultMaxEvalDepth,
		MaxTraversal:    DefaultMaxTraversal,
		MaxRangeCells:   DefaultMaxRangeCells,
		Policy:          PolicyLazy,
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.FormulaMarker == "" {
		errs = append(errs, errors.New("formula_marker must not be empty"))
	}
	if c.MaxRows < 1 {
		errs = append(errs, fmt.Errorf("max_rows must be positive, got %d", c.MaxRows))
	}
	if c.MaxFormulaDepth < 1 {
		errs = append(errs, fmt.Errorf("max_formula_depth must be positive, got %d", c.MaxFormulaDepth))
	}
	if c.MaxEvalDepth < 1 {
		errs = append(errs, fmt.Errorf("max_eval_depth must be positive, got %d", c.MaxEvalDepth))
	}
	if c.MaxTraversal < 1 {
		errs = append(errs, fmt.Errorf("max_traversal must be positive, got %d", c.MaxTraversal))
	}
	if c.MaxRangeCells < 1 {
		errs = append(errs, fmt.Errorf("max_range_cells must be positive, got %d", c.MaxRangeCells))
	}
	switch c.Policy {
	case PolicyLazy, PolicyEager:
	default:
		errs = append(errs, fmt.Errorf("policy must be %q or %q, got %q", PolicyLazy, PolicyEager, c.Policy))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML file over the defaults, then applies
// SHEETCORE_* environment overrides. an empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	loadConfigFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFromEnv(cfg *Config) {
	if v := os.Getenv("SHEETCORE_POLICY"); v != "" {
		cfg.Policy = RecalcPolicy(v)
	}
	if v := os.Getenv("SHEETCORE_STRICT_FORMULAS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictFormulas = b
		}
	}
	if v := os.Getenv("SHEETCORE_MAX_ROWS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.MaxRows = i
		}
	}
}

func (c Config) cellInBounds(ref Coordinate) bool {
	return ref.Row >= 0 && ref.Row < c.MaxRows && ref.Column >= 0 && ref.Column < MaxColumns
}

func (c Config) rangeInBounds(r RangeAddress) bool {
	return c.cellInBounds(r.Start) && c.cellInBounds(r.End) && r.Size() <= c.MaxRangeCells
}
