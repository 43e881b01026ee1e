package proximity

import (
	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// DefaultMaxIterations bounds how many times a search window may grow
const DefaultMaxIterations = 100

// Params configures a proximity search for one field
type Params struct {
	Synonyms []string
	// DX and DY are added to the horizontal and vertical thresholds after
	// every unsatisfied iteration.
	DX, DY float64
	// MaxIterations caps window growth. Zero selects DefaultMaxIterations.
	MaxIterations int
	// RequiredResults is how many neighbors satisfy the search. Zero or
	// less yields no candidates.
	RequiredResults int
}

func (p Params) maxIterations() int {
	if p.MaxIterations == 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}

// Candidate pairs a label token with a token found near it. It has not been
// checked against the field's expected value shape.
type Candidate struct {
	Label   layout.Token `json:"label"`
	Synonym string       `json:"synonym"`
	Value   layout.Token `json:"value"`
}

// Window is the search area state for one anchor
type Window struct {
	X         float64 `json:"x_threshold"`
	Y         float64 `json:"y_threshold"`
	Iteration int     `json:"iteration"`
}

// AnchorResult is the owned outcome of searching around one anchor
type AnchorResult struct {
	Anchor     Anchor      `json:"anchor"`
	Window     Window      `json:"window"`
	Satisfied  bool        `json:"satisfied"`
	Candidates []Candidate `json:"candidates"`
}

// SearchAnchor grows a window around a until it holds at least
// p.RequiredResults neighbors or the iteration cap is reached. Neighbors are
// tokens at or below the anchor's row. When the cap is hit the neighbors of
// the last window tried are kept, which may be fewer than required or none.
// The result holds at most p.RequiredResults candidates.
func SearchAnchor(c *layout.Corpus, a Anchor, p Params) AnchorResult {
	res := AnchorResult{Anchor: a, Window: Window{X: 1, Y: 1}}
	if c == nil || p.RequiredResults <= 0 {
		return res
	}

	w := Window{X: 1, Y: 1}
	var found []layout.Token
	for w.Iteration < p.maxIterations() {
		found = c.Below(a.Token, w.X, w.Y)
		res.Window = w
		if len(found) >= p.RequiredResults {
			res.Satisfied = true
			break
		}
		w.X += p.DX
		w.Y += p.DY
		w.Iteration++
	}

	if len(found) > p.RequiredResults {
		found = found[:p.RequiredResults]
	}
	res.Candidates = make([]Candidate, len(found))
	for i, v := range found {
		res.Candidates[i] = Candidate{Label: a.Token, Synonym: a.Synonym, Value: v}
	}
	return res
}

// SearchAll locates the anchors for p.Synonyms and searches around each one
// independently.
func SearchAll(c *layout.Corpus, p Params) []AnchorResult {
	anchors := Locate(c, p.Synonyms)
	results := make([]AnchorResult, len(anchors))
	for i, a := range anchors {
		results[i] = SearchAnchor(c, a, p)
	}
	return results
}

// Search returns the candidates of every anchor, concatenated in anchor
// order. A value token near two anchors appears once per anchor.
func Search(c *layout.Corpus, p Params) []Candidate {
	var out []Candidate
	for _, r := range SearchAll(c, p) {
		out = append(out, r.Candidates...)
	}
	return out
}
