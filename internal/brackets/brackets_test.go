package brackets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Segments(t *testing.T) {
	segs, err := Parse("I visited [Paris] in {{2021}}.")
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Kind: Plain, Text: "I visited "},
		{Kind: Target, Text: "Paris"},
		{Kind: Plain, Text: " in "},
		{Kind: Protected, Text: "2021"},
		{Kind: Plain, Text: "."},
	}, segs)
}

func TestParse_RoundTrip(t *testing.T) {
	texts := []string{
		"",
		"no markers at all",
		"[a] and [b] and {{c}}",
		"single { and } braces are plain",
		"[6CO₂ + 6H₂O + light energy] → [C₆H₁₂O₆]",
	}
	for _, text := range texts {
		segs, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, Render(segs))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"unclosed target", "the [sun is hot", ErrUnbalanced},
		{"stray close", "the sun] is hot", ErrUnbalanced},
		{"unclosed protected", "the {{sun is hot", ErrUnbalanced},
		{"stray protected close", "the sun}} is hot", ErrUnbalanced},
		{"nested target", "the [big [sun]] is hot", ErrNested},
		{"target in protected", "the {{big [sun]}} is hot", ErrNested},
		{"empty", "the [] is hot", ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSpans(t *testing.T) {
	spans, err := Spans("I visited [Paris] in [2021], then {{Rome}}.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "2021"}, spans)

	spans, err = Spans("nothing here")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestAnnotate(t *testing.T) {
	out, err := Annotate("Ozone affects [climate] and [air quality] in [urban areas].")
	require.NoError(t, err)
	assert.Equal(t, "Ozone affects [climate:0] and [air quality:1] in [urban areas:2].", out)
}

func TestAnnotate_RepeatedTerms(t *testing.T) {
	out, err := Annotate("[glucose] makes [oxygen] and [glucose]")
	require.NoError(t, err)
	assert.Equal(t, "[glucose:0] makes [oxygen:1] and [glucose:2]", out)
}

func TestProtect(t *testing.T) {
	out, err := Protect("This is [term1] and another [term2].", []string{"term1"})
	require.NoError(t, err)
	assert.Equal(t, "This is [term1] and another {{term2}}.", out)
}

func TestProtect_CaseInsensitive(t *testing.T) {
	out, err := Protect("[NASA] went to [Mars]", []string{"nasa"})
	require.NoError(t, err)
	assert.Equal(t, "[NASA] went to {{Mars}}", out)
}

func TestProtect_ConsumesEachAllowedTermOnce(t *testing.T) {
	out, err := Protect("[glucose] makes [oxygen] and [glucose]", []string{"glucose"})
	require.NoError(t, err)
	assert.Equal(t, "[glucose] makes {{oxygen}} and {{glucose}}", out)

	out, err = Protect("[glucose] makes [oxygen] and [glucose]", []string{"glucose", "Glucose"})
	require.NoError(t, err)
	assert.Equal(t, "[glucose] makes {{oxygen}} and [glucose]", out)
}

func TestProtect_KeepsProtectedSpans(t *testing.T) {
	out, err := Protect("with [term1] and {{term2}}", []string{"term1", "term2"})
	require.NoError(t, err)
	assert.Equal(t, "with [term1] and {{term2}}", out)
}

func TestRestore(t *testing.T) {
	out, err := Restore("This is termX and another {{term2}}.")
	require.NoError(t, err)
	assert.Equal(t, "This is termX and another [term2].", out)

	_, err = Restore("This is termX and another {{term2.")
	assert.True(t, errors.Is(err, ErrUnbalanced))
}

func TestStrip(t *testing.T) {
	out, err := Strip("This is [termX] and another {{term2}}.")
	require.NoError(t, err)
	assert.Equal(t, "This is termX and another term2.", out)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("[a] b {{c}}"))
	assert.Error(t, Validate("[a"))
}

func TestHasMarkers(t *testing.T) {
	assert.False(t, HasMarkers("Curie found radium in 1898."))
	assert.False(t, HasMarkers("a {single} brace"))
	assert.True(t, HasMarkers("Curie found radium in 1898 [1]."))
	assert.True(t, HasMarkers("closing ] only"))
	assert.True(t, HasMarkers("kept {{1898}}"))
	assert.True(t, HasMarkers("dangling }}"))
}
