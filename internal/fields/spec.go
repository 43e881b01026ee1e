// Package fields turns proximity candidates into title block field values.
//
// Each field is described by a Spec: the label synonyms to look for, how fast
// the search window grows, how many neighbors to collect, the shape a value
// must have and how the surviving candidates are combined into a result.
package fields

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/a3tai/mcp-drawing-fields/internal/proximity"
)

// Field identifies a title block attribute
type Field string

const (
	JobNumber     Field = "job_number"
	DrawingNumber Field = "drawing_number"
	Revision      Field = "revision"
	ProjectName   Field = "project_name"
	DrawingTitle  Field = "drawing_title"
)

// Label returns the human readable name of the field
func (f Field) Label() string {
	switch f {
	case JobNumber:
		return "Job Number"
	case DrawingNumber:
		return "Drawing Number"
	case Revision:
		return "Revision"
	case ProjectName:
		return "Project Name"
	case DrawingTitle:
		return "Drawing Title"
	default:
		return string(f)
	}
}

// Strategy selects how validated candidates become a field result
type Strategy string

const (
	// StrategyFirst keeps the topmost candidate that passes the validator.
	StrategyFirst Strategy = "first"
	// StrategyAll keeps every candidate that passes the validator.
	StrategyAll Strategy = "all"
	// StrategyJoin joins the texts of the topmost candidates with spaces.
	StrategyJoin Strategy = "join"
)

// wordEnd closes a value the way a Unicode-aware \b would. RE2's \b only
// knows ASCII word characters, so "AÉ" would otherwise match as "A".
const wordEnd = `(?:[^\pL\pN_]|$)`

// Default value shapes. They are examples of common title block
// conventions and can be replaced through configuration.
const (
	JobNumberPattern     = `\b[A-Z]\d{5,7}` + wordEnd
	DrawingNumberPattern = `\b(?:[A-Z0-9]+[-/])+(?:\([0-9]+\))?[A-Z0-9_]+(?:[-/][A-Z0-9]+)*` + wordEnd
	RevisionPattern      = `\b[A-Z]{1,2}\d{0,2}` + wordEnd
	RevisionMaxLength    = 3
	DefaultJoinCount     = 2
	DefaultTitlePrefix   = "Title"
)

// Spec is the static configuration for one field
type Spec struct {
	Field           Field    `mapstructure:"field" json:"field" yaml:"field"`
	Synonyms        []string `mapstructure:"synonyms" json:"synonyms" yaml:"synonyms"`
	DX              float64  `mapstructure:"dx" json:"dx" yaml:"dx"`
	DY              float64  `mapstructure:"dy" json:"dy" yaml:"dy"`
	RequiredResults int      `mapstructure:"required" json:"required" yaml:"required"`
	MaxIterations   int      `mapstructure:"max_iterations" json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`

	// Pattern is matched from the start of a candidate's text. Empty
	// accepts any non-empty text.
	Pattern string `mapstructure:"pattern" json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// MaxLength rejects longer candidate texts before the pattern runs.
	MaxLength int      `mapstructure:"max_length" json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Strategy  Strategy `mapstructure:"strategy" json:"strategy" yaml:"strategy"`

	// FallbackSynonyms are searched only when Synonyms yield no candidate.
	// Fallback candidates are kept only if their value text starts with
	// FallbackPrefix.
	FallbackSynonyms []string `mapstructure:"fallback_synonyms" json:"fallback_synonyms,omitempty" yaml:"fallback_synonyms,omitempty"`
	FallbackPrefix   string   `mapstructure:"fallback_prefix" json:"fallback_prefix,omitempty" yaml:"fallback_prefix,omitempty"`
	// JoinCount is how many candidates StrategyJoin combines.
	JoinCount int `mapstructure:"join_count" json:"join_count,omitempty" yaml:"join_count,omitempty"`
}

// DefaultSpecs returns the built-in configuration for every field, in
// reporting order.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Field:           JobNumber,
			Synonyms:        []string{"Job Number", "BDP JOB NUMBER", "Job No"},
			DX:              1,
			DY:              3,
			RequiredResults: 3,
			Pattern:         JobNumberPattern,
			Strategy:        StrategyFirst,
		},
		{
			Field:           DrawingNumber,
			Synonyms:        []string{"Drawing Number", "BDP Drawing Number", "DRG NO", "Drawing No"},
			DX:              1,
			DY:              3,
			RequiredResults: 3,
			Pattern:         DrawingNumberPattern,
			Strategy:        StrategyFirst,
		},
		{
			Field:           Revision,
			Synonyms:        []string{"Revision", "REVISION", "REV.", "Rev:"},
			DX:              1,
			DY:              1,
			RequiredResults: 3,
			Pattern:         RevisionPattern,
			MaxLength:       RevisionMaxLength,
			Strategy:        StrategyFirst,
		},
		{
			Field:           ProjectName,
			Synonyms:        []string{"Project Name", "Project Title", "Project"},
			DX:              1,
			DY:              3,
			RequiredResults: 1,
			Strategy:        StrategyAll,
		},
		{
			Field:            DrawingTitle,
			Synonyms:         []string{"Drawing Title"},
			DX:               1,
			DY:               3,
			RequiredResults:  3,
			Strategy:         StrategyJoin,
			FallbackSynonyms: []string{"Title"},
			FallbackPrefix:   DefaultTitlePrefix,
			JoinCount:        DefaultJoinCount,
		},
	}
}

// DefaultSpec returns the built-in configuration for f
func DefaultSpec(f Field) (Spec, bool) {
	for _, s := range DefaultSpecs() {
		if s.Field == f {
			return s, true
		}
	}
	return Spec{}, false
}

// Params returns the proximity search parameters for the primary synonyms
func (s Spec) Params() proximity.Params {
	return proximity.Params{
		Synonyms:        s.Synonyms,
		DX:              s.DX,
		DY:              s.DY,
		MaxIterations:   s.MaxIterations,
		RequiredResults: s.RequiredResults,
	}
}

// fallbackParams returns the search parameters for the fallback synonyms
func (s Spec) fallbackParams() proximity.Params {
	p := s.Params()
	p.Synonyms = s.FallbackSynonyms
	return p
}

func (s Spec) joinCount() int {
	if s.JoinCount <= 0 {
		return DefaultJoinCount
	}
	return s.JoinCount
}

// Validate checks that the spec can drive a search
func (s Spec) Validate() error {
	if s.Field == "" {
		return errors.New("field name cannot be empty")
	}
	if len(s.Synonyms) == 0 {
		return fmt.Errorf("%s: at least one synonym is required", s.Field)
	}
	for _, syn := range append(append([]string{}, s.Synonyms...), s.FallbackSynonyms...) {
		if syn == "" {
			return fmt.Errorf("%s: synonyms cannot be empty strings", s.Field)
		}
	}
	if s.DX <= 0 || s.DY <= 0 {
		return fmt.Errorf("%s: window steps must be positive (dx=%v, dy=%v)", s.Field, s.DX, s.DY)
	}
	if s.RequiredResults < 0 {
		return fmt.Errorf("%s: required results must not be negative", s.Field)
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("%s: max iterations must not be negative", s.Field)
	}
	if s.MaxLength < 0 {
		return fmt.Errorf("%s: max length must not be negative", s.Field)
	}
	switch s.Strategy {
	case StrategyFirst, StrategyAll, StrategyJoin:
	default:
		return fmt.Errorf("%s: unknown strategy %q (must be one of: first, all, join)", s.Field, s.Strategy)
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			return fmt.Errorf("%s: invalid pattern: %w", s.Field, err)
		}
	}
	return nil
}
