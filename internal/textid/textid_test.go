package textid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignQuoteStyleEquivalence(t *testing.T) {
	a := Assign(`"It's fine"`, "")
	b := Assign(`'It\'s fine'`, "")
	assert.Equal(t, a, b)
}

func TestAssignEscapeEquivalence(t *testing.T) {
	a := Assign(`"Line\nBreak"`, "")
	b := AssignDecoded("Line\nBreak", "")
	assert.Equal(t, a, b)
}

func TestAssignPreservesCase(t *testing.T) {
	assert.NotEqual(t, Assign(`"Save"`, ""), Assign(`"save"`, ""))
}

func TestAssignDisambiguationTag(t *testing.T) {
	assert.NotEqual(t, Assign(`"New"`, ""), Assign(`"New"`, "project"))
	assert.Equal(t, Assign(`"New"`, "project"), Assign(`'New'`, "project"))
}

func TestAssignDecodedMatchesSourceForm(t *testing.T) {
	assert.Equal(t, Assign(`"Hello, [player]!"`, ""), AssignDecoded("Hello, [player]!", ""))
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"double", `"Hi"`, `"Hi"`},
		{"single", `'Hi'`, `"Hi"`},
		{"triple", `"""Hi"""`, `"Hi"`},
		{"unicode_prefix", `u"Hi"`, `"Hi"`},
		{"escaped_quote", `'It\'s'`, `"It's"`},
		{"newline_escape", `"a\nb"`, `"a\nb"`},
		{"raw_keeps_backslash", `r"C:\new"`, `"C:\\new"`},
		{"unquoted_passthrough", `plain text`, `"plain text"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.raw))
		})
	}
}

func TestAssignStableLength(t *testing.T) {
	id := Assign(`"anything"`, "")
	assert.Len(t, id, 64)
}
