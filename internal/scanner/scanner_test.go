package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsOf(line LogicalLine) []Token {
	var out []Token
	for _, t := range line.Tokens {
		if t.Type == StringLiteral {
			out = append(out, t)
		}
	}
	return out
}

func TestScanSimpleDialogueLine(t *testing.T) {
	s := New(`e "Hello, world!"`, "test.rpy")

	lines := s.Lines()
	require.Len(t, lines, 1)

	toks := stringsOf(lines[0])
	require.Len(t, toks, 1)
	assert.Equal(t, "Hello, world!", toks[0].Value)
	assert.Equal(t, "Hello, world!", toks[0].Inner)
	assert.Equal(t, `"Hello, world!"`, toks[0].Raw)
	assert.Equal(t, QuoteDouble, toks[0].Quote)
	assert.Equal(t, 1, toks[0].Line)
}

func TestScanEscapes(t *testing.T) {
	s := New(`e "Line one\nLine two \"quoted\""`, "test.rpy")

	toks := stringsOf(s.Lines()[0])
	require.Len(t, toks, 1)
	assert.Equal(t, "Line one\nLine two \"quoted\"", toks[0].Value)
	assert.Equal(t, `Line one\nLine two \"quoted\"`, toks[0].Inner)
}

func TestScanRawPrefix(t *testing.T) {
	s := New(`x = r"C:\new"`, "test.rpy")

	toks := stringsOf(s.Lines()[0])
	require.Len(t, toks, 1)
	assert.True(t, toks[0].RawPrefix)
	assert.Equal(t, `C:\new`, toks[0].Value)
}

func TestScanTripleQuoteSpansLines(t *testing.T) {
	src := "screen about():\n    text \"\"\"Line one\nLine two\nLine three\"\"\"\n"
	s := New(src, "test.rpy")

	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.True(t, lines[2].Blank)

	toks := stringsOf(lines[1])
	require.Len(t, toks, 1)
	assert.Equal(t, QuoteTriple, toks[0].Quote)
	assert.Equal(t, "Line one\nLine two\nLine three", toks[0].Value)
	assert.Equal(t, 2, toks[0].Line)
	assert.Equal(t, 4, toks[0].EndLine)
	assert.False(t, toks[0].Truncated)
}

func TestScanUnterminatedString(t *testing.T) {
	s := New(`e "never closed`, "test.rpy")

	toks := stringsOf(s.Lines()[0])
	require.Len(t, toks, 1)
	assert.True(t, toks[0].Truncated)
	assert.Equal(t, "never closed", toks[0].Value)
}

func TestScanUnterminatedTripleConsumesFile(t *testing.T) {
	s := New("text \"\"\"starts here\nand never ends\n", "test.rpy")

	toks := stringsOf(s.Lines()[0])
	require.Len(t, toks, 1)
	assert.True(t, toks[0].Truncated)
	assert.Contains(t, toks[0].Value, "and never ends")
}

func TestScanContinuationJoinsLines(t *testing.T) {
	s := New("if a and \\\n    b:\n", "test.rpy")

	lines := s.Lines()
	require.NotEmpty(t, lines)
	assert.Equal(t, "if a and b:", lines[0].Text)
	assert.Equal(t, 1, lines[0].Number)
	assert.Equal(t, 2, lines[0].EndNumber)

	hasCont := false
	for _, tok := range lines[0].Tokens {
		if tok.Type == LineContinuation {
			hasCont = true
		}
	}
	assert.True(t, hasCont)
}

func TestScanTabIndent(t *testing.T) {
	s := New("label x:\n\t\"tabbed\"\n", "test.rpy")

	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, 4, lines[1].Indent)

	wide := New("label x:\n\t\"tabbed\"\n", "test.rpy", WithTabWidth(8))
	assert.Equal(t, 8, wide.Lines()[1].Indent)
}

func TestScanIndentError(t *testing.T) {
	src := "label a:\n    \"one\"\n  \"two\"\n"
	s := New(src, "test.rpy")

	lines := s.Lines()
	require.Len(t, lines, 4)
	assert.False(t, lines[1].IndentError)
	assert.True(t, lines[2].IndentError)
}

func TestScanComment(t *testing.T) {
	s := New(`e "hi" # trailing note`, "test.rpy")

	var comment *Token
	for i, tok := range s.Lines()[0].Tokens {
		if tok.Type == Comment {
			comment = &s.Lines()[0].Tokens[i]
		}
	}
	require.NotNil(t, comment)
	assert.Equal(t, "# trailing note", comment.Value)

	// A hash inside a string is content, not a comment.
	s2 := New(`e "color #ff0000 is red"`, "test.rpy")
	toks := stringsOf(s2.Lines()[0])
	require.Len(t, toks, 1)
	assert.Equal(t, "color #ff0000 is red", toks[0].Value)
}

func TestResetReplaysTokens(t *testing.T) {
	s := New(`e "one"`+"\n"+`f "two"`, "test.rpy")

	var first []Token
	for {
		tok, ok := s.Next()
		if !ok {
			break
		}
		first = append(first, tok)
	}
	require.NotEmpty(t, first)

	s.Reset()
	tok, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, first[0], tok)
}
