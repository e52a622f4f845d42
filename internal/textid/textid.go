// Package textid derives stable translation identities from source literals.
// Two literals that denote the same string, regardless of quote character,
// raw prefix or escape style, canonicalize to the same bytes and therefore
// the same id. Case is preserved: "Save" and "save" are distinct.
package textid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Assign returns the translation id for a raw source fragment. The optional
// disambiguation tag keeps otherwise-identical text in different declared
// contexts from collapsing into one id.
func Assign(rawText, disambiguationTag string) string {
	canonical := Canonicalize(rawText)
	h := sha256.New()
	h.Write([]byte(canonical))
	h.Write([]byte{0})
	h.Write([]byte(disambiguationTag))
	return hex.EncodeToString(h.Sum(nil))
}

// AssignDecoded derives the id for text that is already a decoded string
// value (from the compiled-container path) rather than a source literal.
// Decoded text and the source literal that denotes it produce the same id.
func AssignDecoded(text, disambiguationTag string) string {
	canonical := quote(normalizeNewlines(text))
	h := sha256.New()
	h.Write([]byte(canonical))
	h.Write([]byte{0})
	h.Write([]byte(disambiguationTag))
	return hex.EncodeToString(h.Sum(nil))
}

// Canonicalize normalizes a source fragment into a fixed double-quoted
// representation: quotes and string prefixes are stripped, escape sequences
// resolved, newlines normalized, and the result re-escaped with a single
// consistent scheme.
func Canonicalize(raw string) string {
	content, rawPrefix := stripQuotes(raw)
	content = normalizeNewlines(content)
	if !rawPrefix {
		content = resolveEscapes(content)
	}
	return quote(content)
}

// stripQuotes removes an optional r/u/b/f prefix and the surrounding quote
// pair (single, double, or triple). Fragments that are not quoted literals
// pass through unchanged.
func stripQuotes(s string) (content string, rawPrefix bool) {
	i := 0
	for i < len(s) && i < 2 && isPrefixRune(s[i]) {
		i++
	}
	prefix := ""
	if i > 0 && i < len(s) && (s[i] == '"' || s[i] == '\'') {
		prefix = s[:i]
	}
	rawPrefix = strings.ContainsAny(prefix, "rR")
	content = s[len(prefix):]

	for _, delim := range []string{`"""`, `'''`} {
		if strings.HasPrefix(content, delim) && strings.HasSuffix(content, delim) && len(content) >= 6 {
			return content[3 : len(content)-3], rawPrefix
		}
	}
	if len(content) >= 2 {
		first, last := content[0], content[len(content)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return content[1 : len(content)-1], rawPrefix
		}
	}
	return content, rawPrefix
}

func isPrefixRune(b byte) bool {
	switch b {
	case 'r', 'R', 'u', 'U', 'b', 'B', 'f', 'F':
		return true
	}
	return false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// resolveEscapes turns backslash escape sequences into the characters they
// denote. Unknown escapes keep the backslash, matching how Ren'Py renders
// them.
func resolveEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\n') // \r is a newline to Ren'Py, same as \n
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// quote serializes content back into the canonical double-quoted form.
func quote(content string) string {
	var b strings.Builder
	b.Grow(len(content) + 2)
	b.WriteByte('"')
	for i := 0; i < len(content); i++ {
		switch c := content[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
