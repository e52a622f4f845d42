package placeholder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"variable", "Hello, [player]!"},
		{"tags", "{b}Bold{/b} and {i}italic{/i}"},
		{"mixed", "Hi [name], you have {color=#ff0000}[count]{/color} items"},
		{"percent", "Score: %(points)d of %d"},
		{"brace_format", "Total {:,} gold and {0} silver"},
		{"disambiguation", "New{#project}"},
		{"plain", "Nothing special here."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processed, mappings := Mask(tt.text)
			assert.Equal(t, tt.text, Unmask(processed, mappings))
		})
	}
}

func TestMaskReplacesMarkers(t *testing.T) {
	processed, mappings := Mask("Hello, [player]! {b}Hi{/b}")

	assert.Equal(t, "Hello, ⟦V000⟧! ⟦T001⟧Hi⟦T002⟧", processed)
	require.Len(t, mappings, 3)
	assert.Equal(t, "[player]", mappings[0].Original)
	assert.Equal(t, "{b}", mappings[1].Original)
	assert.Equal(t, "{/b}", mappings[2].Original)
}

func TestMaskIdempotent(t *testing.T) {
	processed, _ := Mask("Hello, [player]!")

	again, mappings := Mask(processed)
	assert.Equal(t, processed, again)
	assert.Empty(t, mappings)
}

func TestMaskKeepsEscapedBrackets(t *testing.T) {
	processed, mappings := Mask("Press [[A]] to [jump]")

	assert.Equal(t, "Press [[A]] to ⟦V000⟧", processed)
	require.Len(t, mappings, 1)
	assert.Equal(t, "[jump]", mappings[0].Original)
}

func TestMaskUnterminatedMarkerStaysLiteral(t *testing.T) {
	processed, mappings := Mask("Oops [broken")

	assert.Equal(t, "Oops [broken", processed)
	assert.Empty(t, mappings)
}

func TestUnmaskCaseInsensitive(t *testing.T) {
	processed, mappings := Mask("Hello, [player]!")

	// Translation engines sometimes re-case tokens.
	mangled := strings.ReplaceAll(processed, "⟦V000⟧", "⟦v000⟧")
	assert.Equal(t, "Hello, [player]!", Unmask(mangled, mappings))
}

func TestValidate(t *testing.T) {
	processed, mappings := Mask("Hi [name], {b}welcome{/b}")

	assert.True(t, Validate(processed, mappings))
	assert.False(t, Validate("tokens all gone", mappings))
}

func TestSplitDisambiguation(t *testing.T) {
	text, tag := SplitDisambiguation("New{#project}")
	assert.Equal(t, "New{#project}", text)
	assert.Equal(t, "project", tag)

	text, tag = SplitDisambiguation("New")
	assert.Equal(t, "New", text)
	assert.Equal(t, "", tag)
}

func TestMaskDisambiguationToken(t *testing.T) {
	processed, mappings := Mask("New{#project}")

	assert.Equal(t, "New⟦D000⟧", processed)
	require.Len(t, mappings, 1)
	assert.Equal(t, "{#project}", mappings[0].Original)
	assert.Equal(t, "New{#project}", Unmask(processed, mappings))
}
