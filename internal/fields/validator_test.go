package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidators(t *testing.T) {
	tests := []struct {
		field Field
		text  string
		want  bool
	}{
		{JobNumber, "A123456", true},
		{JobNumber, "B12345", true},
		{JobNumber, "A123456 rev", true},
		{JobNumber, "A1234", false},
		{JobNumber, "A12345678", false},
		{JobNumber, "a123456", false},
		{JobNumber, "Job A123456", false},

		{DrawingNumber, "ABC-123", true},
		{DrawingNumber, "1234-A-B/C", true},
		{DrawingNumber, "ABC/(2)X_1", true},
		{DrawingNumber, "ABC123", false},
		{DrawingNumber, "abc-123", false},
		{DrawingNumber, "", false},

		{Revision, "P01", true},
		{Revision, "C", true},
		{Revision, "P1.", true},
		{Revision, "A1 B", false},
		{Revision, "AB12", false},
		{Revision, "p01", false},
		{Revision, "-", false},

		{ProjectName, "Riverside Tower", true},
		{ProjectName, " ", true},
		{ProjectName, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.text, func(t *testing.T) {
			spec, ok := DefaultSpec(tt.field)
			require.True(t, ok)
			v, err := NewValidator(spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Validate(tt.text))
		})
	}
}

func TestNewPatternValidator_InvalidPattern(t *testing.T) {
	_, err := NewPatternValidator(`[A-Z`, 0)
	assert.Error(t, err)
}

func TestPatternValidator_LengthCheckedFirst(t *testing.T) {
	v, err := NewPatternValidator(`.*`, 2)
	require.NoError(t, err)

	assert.True(t, v.Validate("ab"))
	assert.True(t, v.Validate("éé"))
	assert.False(t, v.Validate("abc"))
}

func TestNewValidator_MaxLengthWithoutPattern(t *testing.T) {
	v, err := NewValidator(Spec{MaxLength: 3})
	require.NoError(t, err)

	assert.True(t, v.Validate("abc"))
	assert.False(t, v.Validate("abcd"))
	assert.False(t, v.Validate(""))
}

func TestDefaultValidators_UnicodeWordEnd(t *testing.T) {
	tests := []struct {
		field Field
		text  string
		want  bool
	}{
		{Revision, "AÉ", false},
		{Revision, "P0ñ", false},
		{Revision, "A-", true},
		{Revision, "A", true},
		{DrawingNumber, "ABC-123é", false},
		{DrawingNumber, "ABC-123 é", true},
		{DrawingNumber, "ABC-123", true},
		{JobNumber, "A12345ü", false},
		{JobNumber, "A12345٣", false},
		{JobNumber, "A12345 ü", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.text, func(t *testing.T) {
			spec, ok := DefaultSpec(tt.field)
			require.True(t, ok)
			v, err := NewValidator(spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Validate(tt.text))
		})
	}
}
