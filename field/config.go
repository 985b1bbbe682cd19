package field

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ztq1996/treecorr/partition"
)

// Sentinel errors raised at the construction boundary. Every returned
// error wraps one of these with %w so callers can branch with
// errors.Is regardless of the added context.
var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrOutOfMemory       = errors.New("out of memory")
)

// Config is the numeric parameter surface the tree-construction core
// actually consumes out of the much larger ambient configuration-key
// surface collaborators carry (file names, column indices, unit
// conversions, and so on all live upstream of this package).
type Config struct {
	MinSep float64             // minimum separation of interest, same unit as coordinates
	MaxSep float64             // maximum separation of interest, same unit as coordinates
	B      float64             // opening-angle parameter, dimensionless, in [0, 1]
	Split  partition.SplitMethod
	FlipG1 bool // negate g1 before building a Shear field
	FlipG2 bool // negate g2 before building a Shear field
}

// Validate raises ErrInvalidParameter for any out-of-range numeric
// field, per the InvalidParameter error kind.
func (c Config) Validate() error {
	if c.MinSep < 0 {
		return fmt.Errorf("field: min_sep must be >= 0, got %v: %w", c.MinSep, ErrInvalidParameter)
	}
	if c.MaxSep < c.MinSep {
		return fmt.Errorf("field: max_sep (%v) must be >= min_sep (%v): %w", c.MaxSep, c.MinSep, ErrInvalidParameter)
	}
	if c.B < 0 || c.B > 1 {
		return fmt.Errorf("field: b must be in [0, 1], got %v: %w", c.B, ErrInvalidParameter)
	}
	return nil
}

// yamlConfig mirrors the subset of TreeCorr's own parameter-file keys
// that affect tree construction: min_sep, max_sep, b, split_method,
// flip_g1, flip_g2. Everything else in that surface (file names, column
// selectors, units, nbins, ...) belongs to collaborators upstream of
// this package.
type yamlConfig struct {
	MinSep      float64 `yaml:"min_sep"`
	MaxSep      float64 `yaml:"max_sep"`
	B           float64 `yaml:"b"`
	SplitMethod string  `yaml:"split_method"`
	FlipG1      bool    `yaml:"flip_g1"`
	FlipG2      bool    `yaml:"flip_g2"`
}

// DecodeYAML reads a Config from the narrow numeric-parameter subset of
// a TreeCorr-style YAML document. split_method accepts the symbolic
// names "Mean", "Median", "Middle", "Random" (case-sensitive, matching
// partition.SplitMethod.String); an empty value defaults to Mean.
func DecodeYAML(r io.Reader) (Config, error) {
	var raw yamlConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("field: decoding config: %w", err)
	}

	method, err := parseSplitMethodName(raw.SplitMethod)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		MinSep: raw.MinSep,
		MaxSep: raw.MaxSep,
		B:      raw.B,
		Split:  method,
		FlipG1: raw.FlipG1,
		FlipG2: raw.FlipG2,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseSplitMethodName(name string) (partition.SplitMethod, error) {
	switch name {
	case "", "Mean":
		return partition.Mean, nil
	case "Median":
		return partition.Median, nil
	case "Middle":
		return partition.Middle, nil
	case "Random":
		return partition.Random, nil
	default:
		return 0, fmt.Errorf("field: unknown split_method %q: %w", name, ErrInvalidParameter)
	}
}
