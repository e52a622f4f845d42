package scanner

// TokenType discriminates scanner output.
type TokenType int

const (
	// StringLiteral is a quoted literal; Value holds the unescaped content,
	// Raw the literal exactly as written including quotes and prefix.
	StringLiteral TokenType = iota
	// LineContinuation marks a logical line assembled from physical lines
	// ending in a backslash.
	LineContinuation
	// IndentChange reports the column delta against the previous logical
	// line.
	IndentChange
	Comment
	// Other is any code text the scanner does not interpret.
	Other
)

// QuoteStyle records how a string literal was quoted in source.
type QuoteStyle int

const (
	QuoteNone QuoteStyle = iota
	QuoteSingle
	QuoteDouble
	QuoteTriple
)

// Token is one unit of scanner output.
type Token struct {
	Type  TokenType
	Value string
	Raw   string
	// Inner is the literal's source text without prefix and quote
	// delimiters, escape sequences still intact.
	Inner string

	Quote     QuoteStyle
	RawPrefix bool
	// Truncated marks a literal whose closing quote was never found; the
	// value carries everything up to end of input.
	Truncated bool

	// Line and EndLine are 1-based physical line numbers. They differ only
	// for triple-quoted literals and joined continuations.
	Line    int
	EndLine int
	Col     int

	// Delta is the indentation change in columns, for IndentChange tokens.
	Delta int
}

func (t TokenType) String() string {
	switch t {
	case StringLiteral:
		return "STRING_LITERAL"
	case LineContinuation:
		return "LINE_CONTINUATION"
	case IndentChange:
		return "INDENT_CHANGE"
	case Comment:
		return "COMMENT"
	default:
		return "OTHER"
	}
}
