// Package layout holds the positioned text tokens extracted from a drawing
// and the immutable corpus the proximity search runs over.
package layout

import "fmt"

// Token is a positioned text fragment. X and Y locate the top-left corner of
// the token's bounding box in a page-local frame with the origin at the top
// left, x growing right and y growing down.
//
// Tokens are plain values: two tokens with the same position and text are
// indistinguishable.
type Token struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Text string  `json:"text" yaml:"text"`
}

// String returns a compact representation used in logs and reports
func (t Token) String() string {
	return fmt.Sprintf("(%.2f, %.2f) %q", t.X, t.Y, t.Text)
}
