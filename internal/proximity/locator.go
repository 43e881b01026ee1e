// Package proximity finds label tokens in a corpus and searches the area
// around each of them for tokens that may hold the label's value.
package proximity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// Anchor is a token whose text contains one of a field's label synonyms
type Anchor struct {
	Token   layout.Token `json:"token"`
	Synonym string       `json:"synonym"`
}

// Locate returns every token whose text contains one of the synonyms,
// ignoring case. A token is reported once, with the first synonym in
// configured order that matched. Tokens equal in position and text collapse
// into a single anchor. Anchors keep corpus order.
func Locate(c *layout.Corpus, synonyms []string) []Anchor {
	if c == nil || len(synonyms) == 0 {
		return nil
	}

	// Casers carry state, so each call gets its own.
	lower := cases.Lower(language.Und)
	folded := make([]string, len(synonyms))
	for i, s := range synonyms {
		folded[i] = lower.String(s)
	}

	var anchors []Anchor
	seen := make(map[layout.Token]struct{})
	for i := 0; i < c.Len(); i++ {
		t := c.At(i)
		if _, dup := seen[t]; dup {
			continue
		}
		text := lower.String(t.Text)
		for j, s := range folded {
			// an empty synonym would match every token
			if s == "" {
				continue
			}
			if strings.Contains(text, s) {
				anchors = append(anchors, Anchor{Token: t, Synonym: synonyms[j]})
				seen[t] = struct{}{}
				break
			}
		}
	}
	return anchors
}
