package fields

import (
	"encoding/json"

	"github.com/a3tai/mcp-drawing-fields/internal/proximity"
)

// Kind names the shape of a found value
type Kind string

const (
	KindScalar Kind = "scalar"
	KindList   Kind = "list"
	KindText   Kind = "text"
)

// Value is the payload of a found field: Scalar, List or Text
type Value interface {
	Kind() Kind
	isValue()
}

// Scalar is a single label/value pair
type Scalar struct {
	Candidate proximity.Candidate
}

// List holds every accepted label/value pair, topmost first
type List struct {
	Candidates []proximity.Candidate
}

// Text is a value assembled from one or more candidates
type Text struct {
	Text  string
	Parts []proximity.Candidate
}

func (Scalar) Kind() Kind { return KindScalar }
func (List) Kind() Kind   { return KindList }
func (Text) Kind() Kind   { return KindText }

func (Scalar) isValue() {}
func (List) isValue()   {}
func (Text) isValue()   {}

// Result is the outcome for one field: either not found, or found with a
// value. A found Text value may hold an empty string.
type Result struct {
	Field Field
	value Value
}

// NotFound returns the result for a field with no accepted candidate
func NotFound(f Field) Result {
	return Result{Field: f}
}

// Found returns a result carrying v
func Found(f Field, v Value) Result {
	return Result{Field: f, value: v}
}

// Found reports whether the field was located
func (r Result) Found() bool {
	return r.value != nil
}

// Value returns the found value, or nil
func (r Result) Value() Value {
	return r.value
}

// Text returns the value as display text: the value token's text for a
// scalar, the first entry of a list, or the assembled text. It is empty
// when the field was not found.
func (r Result) Text() string {
	switch v := r.value.(type) {
	case Scalar:
		return v.Candidate.Value.Text
	case List:
		if len(v.Candidates) > 0 {
			return v.Candidates[0].Value.Text
		}
	case Text:
		return v.Text
	}
	return ""
}

// Candidates returns the label/value pairs behind the value
func (r Result) Candidates() []proximity.Candidate {
	switch v := r.value.(type) {
	case Scalar:
		return []proximity.Candidate{v.Candidate}
	case List:
		return v.Candidates
	case Text:
		return v.Parts
	}
	return nil
}

// Match is the flat label/value tuple exposed to callers
type Match struct {
	LabelX    float64 `json:"label_x" yaml:"label_x"`
	LabelY    float64 `json:"label_y" yaml:"label_y"`
	LabelText string  `json:"label_text" yaml:"label_text"`
	ValueX    float64 `json:"value_x" yaml:"value_x"`
	ValueY    float64 `json:"value_y" yaml:"value_y"`
	ValueText string  `json:"value_text" yaml:"value_text"`
}

// MatchOf flattens a candidate
func MatchOf(c proximity.Candidate) Match {
	return Match{
		LabelX:    c.Label.X,
		LabelY:    c.Label.Y,
		LabelText: c.Label.Text,
		ValueX:    c.Value.X,
		ValueY:    c.Value.Y,
		ValueText: c.Value.Text,
	}
}

// View is the serializable form of a Result
type View struct {
	Field   Field   `json:"field" yaml:"field"`
	Found   bool    `json:"found" yaml:"found"`
	Kind    Kind    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Text    string  `json:"text,omitempty" yaml:"text,omitempty"`
	Matches []Match `json:"matches,omitempty" yaml:"matches,omitempty"`
}

// View flattens the result for reporting
func (r Result) View() View {
	v := View{Field: r.Field, Found: r.Found()}
	if !v.Found {
		return v
	}
	v.Kind = r.value.Kind()
	v.Text = r.Text()
	for _, c := range r.Candidates() {
		v.Matches = append(v.Matches, MatchOf(c))
	}
	return v
}

// MarshalJSON encodes the result through its View
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}

// MarshalYAML encodes the result through its View
func (r Result) MarshalYAML() (interface{}, error) {
	return r.View(), nil
}
