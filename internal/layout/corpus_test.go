package layout

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// belowLinear is the reference nested scan the index must agree with
func belowLinear(c *Corpus, origin Token, dx, dy float64) []Token {
	var out []Token
	for _, t := range c.tokens {
		if within(origin, t, dx, dy) {
			out = append(out, t)
		}
	}
	return out
}

func TestNewCorpus_CopiesInput(t *testing.T) {
	in := []Token{{X: 1, Y: 2, Text: "A"}, {X: 3, Y: 4, Text: "B"}}
	c := NewCorpus(in)
	in[0].Text = "changed"

	require.Equal(t, 2, c.Len())
	assert.Equal(t, "A", c.At(0).Text)

	out := c.Tokens()
	out[1].Text = "changed"
	assert.Equal(t, "B", c.At(1).Text)
}

func TestCorpus_Below(t *testing.T) {
	origin := Token{X: 10, Y: 10, Text: "Revision"}
	c := NewCorpus([]Token{
		origin,
		{X: 10, Y: 12, Text: "P01"},
		{X: 10, Y: 8, Text: "above"},
		{X: 11, Y: 10, Text: "same row"},
		{X: 14, Y: 11, Text: "too far right"},
		{X: 10, Y: 20, Text: "too far down"},
		origin, // exact duplicate of the anchor
	})

	tests := []struct {
		name   string
		dx, dy float64
		want   []string
	}{
		{name: "unit window", dx: 1, dy: 1, want: []string{"same row"}},
		{name: "taller window", dx: 1, dy: 3, want: []string{"P01", "same row"}},
		{name: "wide window", dx: 4, dy: 3, want: []string{"P01", "same row", "too far right"}},
		{name: "huge window", dx: 100, dy: 100, want: []string{"P01", "same row", "too far right", "too far down"}},
		{name: "negative window", dx: -1, dy: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tok := range c.Below(origin, tt.dx, tt.dy) {
				got = append(got, tok.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorpus_BelowMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tokens := make([]Token, 300)
	for i := range tokens {
		tokens[i] = Token{
			X:    float64(rng.Intn(60)) + rng.Float64(),
			Y:    float64(rng.Intn(60)) + rng.Float64(),
			Text: fmt.Sprintf("t%d", rng.Intn(40)),
		}
	}
	c := NewCorpus(tokens)

	for i := 0; i < 50; i++ {
		origin := tokens[rng.Intn(len(tokens))]
		dx := float64(rng.Intn(20)) + 0.5
		dy := float64(rng.Intn(20)) + 0.25
		assert.Equal(t, belowLinear(c, origin, dx, dy), c.Below(origin, dx, dy),
			"origin %s dx=%v dy=%v", origin, dx, dy)
	}
}

func TestCorpus_BelowEmpty(t *testing.T) {
	c := NewCorpus(nil)
	assert.Nil(t, c.Below(Token{Text: "x"}, 10, 10))
	assert.Equal(t, 0, c.Len())
}
