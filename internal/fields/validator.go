package fields

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validator decides whether a candidate's text has the shape of a field value
type Validator interface {
	Validate(text string) bool
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(text string) bool

// Validate calls f(text)
func (f ValidatorFunc) Validate(text string) bool {
	return f(text)
}

// NonEmpty accepts any text with at least one character
var NonEmpty = ValidatorFunc(func(text string) bool { return text != "" })

// PatternValidator matches a regular expression against the start of a text
type PatternValidator struct {
	re        *regexp.Regexp
	maxLength int
}

// NewPatternValidator compiles pattern so that it must match at the
// beginning of the text. A positive maxLength rejects texts with more runes
// before the pattern is tried.
func NewPatternValidator(pattern string, maxLength int) (*PatternValidator, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &PatternValidator{re: re, maxLength: maxLength}, nil
}

// Validate reports whether text starts with a match of the pattern
func (v *PatternValidator) Validate(text string) bool {
	if v.maxLength > 0 && utf8.RuneCountInString(text) > v.maxLength {
		return false
	}
	return v.re.MatchString(text)
}

// NewValidator builds the validator described by a spec
func NewValidator(s Spec) (Validator, error) {
	if s.Pattern == "" {
		if s.MaxLength > 0 {
			max := s.MaxLength
			return ValidatorFunc(func(text string) bool {
				return text != "" && utf8.RuneCountInString(text) <= max
			}), nil
		}
		return NonEmpty, nil
	}
	return NewPatternValidator(s.Pattern, s.MaxLength)
}
