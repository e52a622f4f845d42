// Package scanner turns Ren'Py script source into a stream of typed tokens.
// It is line-oriented: physical lines joined by backslash continuations form
// logical lines, triple-quoted literals may span many physical lines, and
// indentation is tracked in columns after tab expansion.
package scanner

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultTabWidth is the column width a tab expands to when measuring
// indentation.
const DefaultTabWidth = 4

// LogicalLine is one statement line after continuation joining, together with
// the tokens found on it.
type LogicalLine struct {
	// Number and EndNumber bound the physical lines this statement covers.
	Number    int
	EndNumber int
	// Text is the joined statement text without leading indentation.
	Text string
	// Indent is the indentation of the first physical line, in columns.
	Indent int
	// IndentError is set when the indentation matches no level on the
	// current indentation stack.
	IndentError bool
	Tokens      []Token
	Blank       bool
}

// Scanner tokenizes one source buffer. The token sequence is built eagerly so
// the stream can be restarted with Reset.
type Scanner struct {
	file     string
	tabWidth int

	lines   []LogicalLine
	tokens  []Token
	pos     int
	current *Token
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTabWidth overrides the tab expansion width.
func WithTabWidth(w int) Option {
	return func(s *Scanner) {
		if w > 0 {
			s.tabWidth = w
		}
	}
}

// New scans src completely and returns a restartable token stream.
func New(src, file string, opts ...Option) *Scanner {
	s := &Scanner{file: file, tabWidth: DefaultTabWidth}
	for _, opt := range opts {
		opt(s)
	}
	s.tokenize(src)
	return s
}

// Lines returns the logical lines in order. The slice is shared; callers must
// not mutate it.
func (s *Scanner) Lines() []LogicalLine {
	return s.lines
}

// Next consumes and returns the next token; ok is false at end of stream.
func (s *Scanner) Next() (Token, bool) {
	if s.pos >= len(s.tokens) {
		return Token{}, false
	}
	tok := s.tokens[s.pos]
	s.pos++
	s.current = &tok
	return tok, true
}

// Peek returns the upcoming token without consuming it.
func (s *Scanner) Peek() (Token, bool) {
	if s.pos >= len(s.tokens) {
		return Token{}, false
	}
	return s.tokens[s.pos], true
}

// Reset restarts the stream from the beginning.
func (s *Scanner) Reset() {
	s.pos = 0
	s.current = nil
}

func (s *Scanner) tokenize(src string) {
	physical := strings.Split(normalizeNewlines(src), "\n")
	indentStack := []int{0}
	prevIndent := 0

	idx := 0
	for idx < len(physical) {
		startIdx := idx
		raw := physical[idx]

		// Join backslash continuations into one logical line.
		joined := raw
		continued := false
		for strings.HasSuffix(joined, "\\") && !endsInsideString(joined) && idx+1 < len(physical) {
			idx++
			joined = strings.TrimRight(strings.TrimSuffix(joined, "\\"), " \t") + " " + strings.TrimLeft(physical[idx], " \t")
			continued = true
		}

		indent := s.measureIndent(joined)
		text := strings.TrimLeft(joined, " \t")

		line := LogicalLine{
			Number:    startIdx + 1,
			EndNumber: idx + 1,
			Text:      text,
			Indent:    indent,
			Blank:     text == "",
		}

		if continued {
			line.Tokens = append(line.Tokens, Token{
				Type: LineContinuation, Line: startIdx + 1, EndLine: idx + 1,
			})
		}

		if !line.Blank {
			if delta, bad := updateIndentStack(&indentStack, indent, prevIndent); delta != 0 || bad {
				if bad {
					line.IndentError = true
					log.Warn().Str("file", s.file).Int("line", line.Number).
						Int("indent", indent).Msg("Indentation matches no open block level")
				}
				if delta != 0 {
					line.Tokens = append(line.Tokens, Token{
						Type: IndentChange, Delta: delta,
						Line: line.Number, EndLine: line.Number,
					})
				}
			}
			prevIndent = indent

			endIdx := s.scanLine(&line, physical, startIdx, idx)
			if endIdx > idx {
				idx = endIdx
				line.EndNumber = idx + 1
			}
		}

		s.lines = append(s.lines, line)
		s.tokens = append(s.tokens, line.Tokens...)
		idx++
	}
}

// scanLine walks the logical line character by character, emitting string,
// comment and opaque tokens. It returns the index of the last physical line
// consumed, which moves forward when a triple-quoted literal spans lines.
func (s *Scanner) scanLine(line *LogicalLine, physical []string, startIdx, curIdx int) int {
	text := line.Text
	lastConsumed := curIdx
	otherStart := 0
	i := 0

	flushOther := func(end int) {
		seg := strings.TrimSpace(text[otherStart:end])
		if seg != "" {
			line.Tokens = append(line.Tokens, Token{
				Type: Other, Value: seg, Raw: seg,
				Line: line.Number, EndLine: line.Number,
			})
		}
	}

	for i < len(text) {
		c := text[i]

		if c == '#' {
			flushOther(i)
			line.Tokens = append(line.Tokens, Token{
				Type: Comment, Value: text[i:], Raw: text[i:],
				Line: line.Number, EndLine: line.Number,
			})
			return lastConsumed
		}

		prefixLen, rawPrefix := stringPrefix(text[i:])
		j := i + prefixLen
		if j >= len(text) || (text[j] != '"' && text[j] != '\'') {
			i++
			continue
		}

		flushOther(i)
		q := text[j]
		if strings.HasPrefix(text[j:], strings.Repeat(string(q), 3)) {
			tok, endIdx, rest := s.scanTriple(text[i:], q, rawPrefix, physical, line.Number, lastConsumed)
			line.Tokens = append(line.Tokens, tok)
			if endIdx > lastConsumed {
				lastConsumed = endIdx
				// The remainder of the closing physical line continues this
				// logical line.
				text = rest
				otherStart = 0
				i = 0
				continue
			}
			text = text[i+len(tok.Raw):]
			otherStart = 0
			i = 0
			continue
		}

		tok, consumed := scanSingle(text[i:], q, prefixLen, rawPrefix, line.Number)
		line.Tokens = append(line.Tokens, tok)
		if tok.Truncated {
			log.Warn().Str("file", s.file).Int("line", line.Number).
				Msg("Unterminated string literal, value truncated at end of line")
		}
		text = text[i+consumed:]
		otherStart = 0
		i = 0
	}

	flushOther(len(text))
	return lastConsumed
}

// scanTriple consumes a triple-quoted literal that starts in text. When the
// closing delimiter sits on a later physical line, endIdx advances and rest
// carries whatever follows the delimiter on that line.
func (s *Scanner) scanTriple(text string, q byte, rawPrefix bool, physical []string, lineNo, curIdx int) (Token, int, string) {
	delim := strings.Repeat(string(q), 3)
	prefixLen, _ := stringPrefix(text)
	body := text[prefixLen+3:]

	style := QuoteTriple
	tok := Token{
		Type: StringLiteral, Quote: style, RawPrefix: rawPrefix,
		Line: lineNo, EndLine: lineNo, Col: 0,
	}

	if close := strings.Index(body, delim); close >= 0 {
		inner := body[:close]
		tok.Raw = text[:prefixLen+3+close+3]
		tok.Inner = inner
		tok.Value = unescapeValue(inner, rawPrefix)
		return tok, curIdx, ""
	}

	collected := []string{body}
	idx := curIdx
	for idx+1 < len(physical) {
		idx++
		l := physical[idx]
		if close := strings.Index(l, delim); close >= 0 {
			collected = append(collected, l[:close])
			inner := strings.Join(collected, "\n")
			tok.Inner = inner
			tok.Value = unescapeValue(inner, rawPrefix)
			tok.Raw = text + "\n" + strings.Join(physical[curIdx+1:idx+1], "\n")
			tok.EndLine = idx + 1
			rest := strings.TrimLeft(l[close+3:], " \t")
			return tok, idx, rest
		}
		collected = append(collected, l)
	}

	// Ran off the end of the file.
	tok.Truncated = true
	tok.Inner = strings.Join(collected, "\n")
	tok.Value = unescapeValue(tok.Inner, rawPrefix)
	tok.Raw = text + "\n" + strings.Join(physical[curIdx+1:], "\n")
	tok.EndLine = len(physical)
	log.Warn().Str("file", s.file).Int("line", lineNo).
		Msg("Unterminated triple-quoted literal, consumed rest of file")
	return tok, len(physical) - 1, ""
}

// scanSingle consumes a single- or double-quoted literal confined to one
// line. Backslash escapes the following character regardless of quote style.
func scanSingle(text string, q byte, prefixLen int, rawPrefix bool, lineNo int) (Token, int) {
	style := QuoteDouble
	if q == '\'' {
		style = QuoteSingle
	}
	tok := Token{
		Type: StringLiteral, Quote: style, RawPrefix: rawPrefix,
		Line: lineNo, EndLine: lineNo,
	}

	var inner strings.Builder
	escaped := false
	for k := prefixLen + 1; k < len(text); k++ {
		c := text[k]
		if escaped {
			inner.WriteByte('\\')
			inner.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == q {
			tok.Raw = text[:k+1]
			tok.Inner = inner.String()
			tok.Value = unescapeValue(tok.Inner, rawPrefix)
			return tok, k + 1
		}
		inner.WriteByte(c)
	}

	tok.Truncated = true
	tok.Raw = text
	tok.Inner = inner.String()
	tok.Value = unescapeValue(tok.Inner, rawPrefix)
	return tok, len(text)
}

// stringPrefix returns the length of an r/u/b/f literal prefix at the start
// of s, and whether it marks a raw string.
func stringPrefix(s string) (int, bool) {
	n := 0
	raw := false
	for n < len(s) && n < 2 {
		switch s[n] {
		case 'r', 'R':
			raw = true
		case 'u', 'U', 'b', 'B', 'f', 'F':
		default:
			if n > 0 && (s[n] == '"' || s[n] == '\'') {
				return n, raw
			}
			return 0, false
		}
		n++
	}
	if n > 0 && n < len(s) && (s[n] == '"' || s[n] == '\'') {
		return n, raw
	}
	return 0, false
}

// unescapeValue resolves the escape sequences Ren'Py honors. Raw literals
// pass through untouched.
func unescapeValue(s string, rawPrefix bool) string {
	if rawPrefix {
		return s
	}
	r := strings.NewReplacer(
		`\r\n`, "\n",
		`\r`, "\n",
		`\n`, "\n",
		`\t`, "\t",
		`\"`, `"`,
		`\'`, "'",
		`\\`, `\`,
	)
	return r.Replace(s)
}

// measureIndent counts leading whitespace columns after tab expansion.
func (s *Scanner) measureIndent(line string) int {
	col := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			col++
		case '\t':
			col += s.tabWidth - col%s.tabWidth
		default:
			return col
		}
	}
	return col
}

// updateIndentStack pushes or pops levels to match indent. bad is true when
// a dedent lands between two known levels.
func updateIndentStack(stack *[]int, indent, prev int) (delta int, bad bool) {
	st := *stack
	top := st[len(st)-1]
	switch {
	case indent > top:
		st = append(st, indent)
	case indent < top:
		for len(st) > 1 && st[len(st)-1] > indent {
			st = st[:len(st)-1]
		}
		if st[len(st)-1] != indent {
			bad = true
			st = append(st, indent)
		}
	}
	*stack = st
	return indent - prev, bad
}

// endsInsideString reports whether the trailing backslash of line sits inside
// an open string literal, in which case it is an escape, not a continuation.
func endsInsideString(line string) bool {
	var open byte
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		switch {
		case open == 0 && (c == '"' || c == '\''):
			open = c
		case c == open:
			open = 0
		}
	}
	return open != 0
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
