package fields

import (
	"sort"
	"strings"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
	"github.com/a3tai/mcp-drawing-fields/internal/proximity"
)

// Finder resolves a single field against a corpus
type Finder struct {
	spec      Spec
	validator Validator
}

// NewFinder validates s and compiles its value validator
func NewFinder(s Spec) (*Finder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	v, err := NewValidator(s)
	if err != nil {
		return nil, err
	}
	return &Finder{spec: s, validator: v}, nil
}

// Spec returns the configuration the finder was built from
func (f *Finder) Spec() Spec {
	return f.spec
}

// Find runs the proximity search for the field and resolves the candidates
func (f *Finder) Find(c *layout.Corpus) Result {
	return Resolve(f.spec, f.validator, Gather(c, f.spec))
}

// Gather returns the unvalidated candidates for s. The fallback synonyms are
// searched only when the primary synonyms produce no candidate, and only
// fallback values starting with the fallback prefix are kept.
func Gather(c *layout.Corpus, s Spec) []proximity.Candidate {
	cands := proximity.Search(c, s.Params())
	if len(cands) > 0 || len(s.FallbackSynonyms) == 0 {
		return cands
	}
	prefix := s.FallbackPrefix
	return filter(proximity.Search(c, s.fallbackParams()), func(c proximity.Candidate) bool {
		return strings.HasPrefix(c.Value.Text, prefix)
	})
}

// Resolve orders candidates top to bottom and applies the spec's strategy.
// The input slice is not modified.
func Resolve(s Spec, v Validator, cands []proximity.Candidate) Result {
	sorted := sortByValueY(cands)

	switch s.Strategy {
	case StrategyFirst:
		for _, c := range sorted {
			if v.Validate(c.Value.Text) {
				return Found(s.Field, Scalar{Candidate: c})
			}
		}
		return NotFound(s.Field)

	case StrategyAll:
		var kept []proximity.Candidate
		for _, c := range sorted {
			if v.Validate(c.Value.Text) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return NotFound(s.Field)
		}
		return Found(s.Field, List{Candidates: kept})

	case StrategyJoin:
		if s.Pattern != "" {
			sorted = filter(sorted, func(c proximity.Candidate) bool { return v.Validate(c.Value.Text) })
		}
		return join(s, sorted)
	}
	return NotFound(s.Field)
}

// ResolveTitle gathers candidates for s and joins up to JoinCount of the
// topmost values with single spaces. A lone candidate is used verbatim, even
// if its text is empty.
func ResolveTitle(c *layout.Corpus, s Spec, v Validator) Result {
	js := s
	js.Strategy = StrategyJoin
	return Resolve(js, v, Gather(c, js))
}

func join(s Spec, sorted []proximity.Candidate) Result {
	if len(sorted) == 0 {
		return NotFound(s.Field)
	}
	n := s.joinCount()
	if len(sorted) < n {
		n = len(sorted)
	}
	parts := sorted[:n]
	texts := make([]string, n)
	for i, c := range parts {
		texts[i] = c.Value.Text
	}
	return Found(s.Field, Text{Text: strings.Join(texts, " "), Parts: parts})
}

func sortByValueY(cands []proximity.Candidate) []proximity.Candidate {
	out := make([]proximity.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.Y < out[j].Value.Y
	})
	return out
}

func filter(cands []proximity.Candidate, keep func(proximity.Candidate) bool) []proximity.Candidate {
	var out []proximity.Candidate
	for _, c := range cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
