package layout

import (
	"math"
	"slices"

	"github.com/tidwall/rtree"
)

// queryPad widens index queries slightly so that rounding in the window
// bounds never drops a token the exact distance test would accept.
const queryPad = 1e-6

// Corpus is the immutable set of tokens gathered from every page of one
// document. It is safe for concurrent readers.
type Corpus struct {
	tokens []Token
	index  rtree.RTreeG[int]
}

// NewCorpus copies tokens into a new corpus and indexes their positions
func NewCorpus(tokens []Token) *Corpus {
	c := &Corpus{tokens: slices.Clone(tokens)}
	for i, t := range c.tokens {
		p := [2]float64{t.X, t.Y}
		c.index.Insert(p, p, i)
	}
	return c
}

// Len returns the number of tokens in the corpus
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tokens)
}

// At returns the i-th token in insertion order
func (c *Corpus) At(i int) Token {
	return c.tokens[i]
}

// Tokens returns a copy of the corpus tokens in insertion order
func (c *Corpus) Tokens() []Token {
	return slices.Clone(c.tokens)
}

// Below returns every token that differs from origin, lies on or below its
// row, and is within dx horizontally and dy vertically of it. Results keep
// corpus insertion order.
func (c *Corpus) Below(origin Token, dx, dy float64) []Token {
	if dx < 0 || dy < 0 || len(c.tokens) == 0 {
		return nil
	}

	var hits []int
	lo := [2]float64{origin.X - dx - queryPad, origin.Y - queryPad}
	hi := [2]float64{origin.X + dx + queryPad, origin.Y + dy + queryPad}
	c.index.Search(lo, hi, func(_, _ [2]float64, i int) bool {
		if within(origin, c.tokens[i], dx, dy) {
			hits = append(hits, i)
		}
		return true
	})
	if len(hits) == 0 {
		return nil
	}

	slices.Sort(hits)
	out := make([]Token, len(hits))
	for n, i := range hits {
		out[n] = c.tokens[i]
	}
	return out
}

// within is the exact neighbor test shared by the indexed and linear scans
func within(origin, t Token, dx, dy float64) bool {
	if t == origin || t.Y < origin.Y {
		return false
	}
	return math.Abs(origin.X-t.X) <= dx && math.Abs(origin.Y-t.Y) <= dy
}
