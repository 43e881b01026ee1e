package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpecs_Valid(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 5)

	want := []Field{JobNumber, DrawingNumber, Revision, ProjectName, DrawingTitle}
	for i, s := range specs {
		assert.Equal(t, want[i], s.Field)
		assert.NoError(t, s.Validate(), s.Field)
	}
}

func TestDefaultSpecs_ReturnsFreshCopies(t *testing.T) {
	a := DefaultSpecs()
	a[0].Synonyms[0] = "changed"

	b := DefaultSpecs()
	assert.Equal(t, "Job Number", b[0].Synonyms[0])
}

func TestSpec_Validate(t *testing.T) {
	base := Spec{Field: "custom", Synonyms: []string{"Sheet"}, DX: 1, DY: 1, RequiredResults: 1, Strategy: StrategyFirst}

	tests := []struct {
		name    string
		modify  func(*Spec)
		wantErr string
	}{
		{"valid", func(*Spec) {}, ""},
		{"missing field", func(s *Spec) { s.Field = "" }, "field name"},
		{"no synonyms", func(s *Spec) { s.Synonyms = nil }, "synonym"},
		{"empty synonym", func(s *Spec) { s.Synonyms = []string{""} }, "empty strings"},
		{"empty fallback synonym", func(s *Spec) { s.FallbackSynonyms = []string{""} }, "empty strings"},
		{"negative step", func(s *Spec) { s.DX = -1 }, "positive"},
		{"zero step", func(s *Spec) { s.DY = 0 }, "positive"},
		{"negative required", func(s *Spec) { s.RequiredResults = -1 }, "required"},
		{"negative iterations", func(s *Spec) { s.MaxIterations = -2 }, "iterations"},
		{"negative length", func(s *Spec) { s.MaxLength = -1 }, "length"},
		{"unknown strategy", func(s *Spec) { s.Strategy = "best" }, "unknown strategy"},
		{"bad pattern", func(s *Spec) { s.Pattern = "(" }, "invalid pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.modify(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestField_Label(t *testing.T) {
	assert.Equal(t, "Drawing Number", DrawingNumber.Label())
	assert.Equal(t, "sheet_size", Field("sheet_size").Label())
}
