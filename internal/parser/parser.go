// Package parser walks tokenized Ren'Py source, tracking the nested block
// structure through an explicit indentation stack, and emits classified
// translatable entries.
package parser

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/slden26/RenLocalizer-UA/internal/diag"
	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/placeholder"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
	"github.com/slden26/RenLocalizer-UA/internal/scanner"
	"github.com/slden26/RenLocalizer-UA/internal/textid"
)

// frame is one open block on the context stack.
type frame struct {
	kind   string // label, hidden_label, screen, menu, python, style, transform, init, conditional, other
	name   string
	indent int
}

func (f frame) label() string {
	switch {
	case f.kind == "other":
		return f.name
	case f.name != "":
		return f.kind + ":" + f.name
	default:
		return f.kind
	}
}

// Parser extracts entries from Ren'Py script text. Stateless across files;
// one Parser may serve many goroutines.
type Parser struct {
	policy   *policy.Policy
	tabWidth int
}

// Option configures a Parser.
type Option func(*Parser)

// WithTabWidth overrides the indentation tab width.
func WithTabWidth(w int) Option {
	return func(p *Parser) { p.tabWidth = w }
}

// New creates a parser using pol to separate technical strings from
// translatable ones.
func New(pol *policy.Policy, opts ...Option) *Parser {
	p := &Parser{policy: pol, tabWidth: scanner.DefaultTabWidth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result carries everything extracted from one file.
type Result struct {
	Entries []entry.Entry
	Report  *diag.FileReport
}

// Parse extracts all entries from one source buffer. It never fails: every
// malformed construct degrades to a warning and parsing resumes at the next
// line boundary.
func (p *Parser) Parse(src, file string) *Result {
	sc := scanner.New(src, file, scanner.WithTabWidth(p.tabWidth))
	res := &Result{Report: &diag.FileReport{File: file}}

	var stack []frame
	var last *entry.Entry // target for extend continuation lines

	for _, line := range sc.Lines() {
		if line.Blank {
			continue
		}

		for len(stack) > 0 && line.Indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
			last = nil
		}

		text := line.Text
		if strings.HasPrefix(text, "#") {
			continue
		}
		if line.IndentError {
			res.Report.Warn(diag.Warning{
				Kind: diag.ParseWarning, Line: line.Number,
				Reason: "indentation matches no open block level",
			})
		}

		// old/new pairs hold already-translated content, never fresh source.
		if oldNewLineRe.MatchString(text) {
			continue
		}

		if nf, opened := detectBlock(text, line.Indent); opened {
			stack = append(stack, nf)
			last = nil
			// A menu line may carry an inline caption; everything else
			// keeps its strings (screen parameters etc.) out of the set.
			if nf.kind != "menu" || len(stringTokens(line)) == 0 {
				continue
			}
		}

		if hidden(stack) {
			continue
		}

		toks := stringTokens(line)
		if len(toks) == 0 {
			continue
		}

		var d descriptor
		var matched bool
		if extendRe.MatchString(text) {
			if last != nil {
				p.mergeExtend(last, toks[0], line)
				continue
			}
			// No entry to continue; the text still counts, classified by
			// the surrounding context rather than as dialogue.
			res.Report.Warn(diag.Warning{
				Kind: diag.ParseWarning, Line: line.Number,
				Reason: "extend with no preceding dialogue line",
			})
			d, matched = p.defaultDescriptor(stack), true
		} else {
			d, matched = classify(text)
		}
		if !matched {
			if dollarLineRe.MatchString(text) {
				// Inline python: only explicitly marked calls above count as
				// translatable, everything else is code.
				d = descriptor{name: "dollar_line", typ: entry.Technical, technical: true}
			} else {
				d = p.defaultDescriptor(stack)
			}
		}

		for _, tok := range toks {
			e, ok := p.buildEntry(tok, d, stack, line, file)
			if !ok {
				continue
			}
			if tok.Truncated {
				res.Report.Warn(diag.Warning{
					Kind: diag.ParseWarning, Line: tok.Line,
					Reason: "unterminated string literal, partial value extracted",
				})
			}
			res.Entries = append(res.Entries, e)
			if e.Type == entry.Dialogue || e.Type == entry.Narration {
				last = &res.Entries[len(res.Entries)-1]
			} else {
				last = nil
			}
		}
	}

	for i := range res.Entries {
		if res.Entries[i].Type == entry.Technical {
			res.Report.Technical++
		} else {
			res.Report.Extracted++
		}
	}
	return res
}

// buildEntry turns one string token into an Entry, demoting it to technical
// when the policy rejects it or the surrounding block is non-translatable.
func (p *Parser) buildEntry(tok scanner.Token, d descriptor, stack []frame, line scanner.LogicalLine, file string) (entry.Entry, bool) {
	raw := tok.Inner
	if raw == "" && tok.Value == "" {
		return entry.Entry{}, false
	}

	typ := d.typ
	switch {
	case d.technical:
		typ = entry.Technical
	case inNonTranslatableBlock(stack):
		typ = entry.Technical
	case p.policy.IsTechnical(tok.Value):
		typ = entry.Technical
	}

	character := ""
	if d.charGroup != "" {
		if m := d.re.FindStringSubmatch(line.Text); m != nil {
			for i, name := range d.re.SubexpNames() {
				if name == d.charGroup && i < len(m) {
					character = m[i]
				}
			}
		}
	}

	_, tag := placeholder.SplitDisambiguation(raw)
	processed, mappings := placeholder.Mask(raw)

	id := textid.Assign(tok.Raw, tag)
	if pFunctionRe.MatchString(line.Text) {
		// Ren'Py reflows _p() blocks before display; the id must match the
		// reflowed form the game will look up.
		id = textid.AssignDecoded(reflowParagraphs(tok.Value), tag)
	}

	e := entry.Entry{
		RawText:           raw,
		ProcessedText:     processed,
		Placeholders:      mappings,
		Type:              typ,
		Character:         character,
		ContextPath:       contextPath(stack),
		DisambiguationTag: tag,
		File:              file,
		Lines:             entry.LineRange{Start: tok.Line, End: tok.EndLine},
		TranslationID:     id,
		Source:            entry.TextSource,
	}
	return e, true
}

// mergeExtend folds an extend continuation into the previous entry instead of
// creating a new one.
func (p *Parser) mergeExtend(prev *entry.Entry, tok scanner.Token, line scanner.LogicalLine) {
	raw := prev.RawText + " " + tok.Inner
	processed, mappings := placeholder.Mask(raw)

	prev.RawText = raw
	prev.ProcessedText = processed
	prev.Placeholders = mappings
	prev.Lines.End = tok.EndLine
	prev.TranslationID = textid.Assign(raw, prev.DisambiguationTag)

	log.Debug().Int("line", line.Number).Msg("Merged extend continuation into previous entry")
}

// defaultDescriptor picks the fallback classification for a bare literal
// based on the innermost context.
func (p *Parser) defaultDescriptor(stack []frame) descriptor {
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i].kind {
		case "menu":
			return descriptor{name: "ctx_menu", typ: entry.MenuChoice}
		case "screen":
			return descriptor{name: "ctx_screen", typ: entry.ScreenText}
		case "python", "init":
			return descriptor{name: "ctx_python", typ: entry.Technical, technical: true}
		case "label":
			return descriptor{name: "ctx_label", typ: entry.Narration}
		}
	}
	return descriptor{name: "ctx_top", typ: entry.Narration}
}

// detectBlock decides whether a line opens a new context frame. An
// unrecognized keyword followed by a colon still opens an opaque frame so the
// indentation bookkeeping stays consistent.
func detectBlock(text string, indent int) (frame, bool) {
	switch {
	case translateRe.MatchString(text):
		// Translation blocks carry already-translated content.
		return frame{kind: "translate", indent: indent}, true
	case hiddenLabelRe.MatchString(text):
		return frame{kind: "hidden_label", indent: indent}, true
	case labelRe.MatchString(text):
		return frame{kind: "label", name: labelRe.FindStringSubmatch(text)[1], indent: indent}, true
	case screenRe.MatchString(text):
		return frame{kind: "screen", name: screenRe.FindStringSubmatch(text)[1], indent: indent}, true
	case pythonRe.MatchString(text):
		return frame{kind: "python", indent: indent}, true
	case menuRe.MatchString(text):
		return frame{kind: "menu", indent: indent}, true
	case initRe.MatchString(text):
		return frame{kind: "init", indent: indent}, true
	case styleBlockRe.MatchString(text):
		return frame{kind: "style", indent: indent}, true
	case transformRe.MatchString(text):
		return frame{kind: "transform", indent: indent}, true
	case conditionalRe.MatchString(text):
		return frame{kind: "conditional", indent: indent}, true
	}
	if m := genericOpenRe.FindStringSubmatch(text); m != nil {
		return frame{kind: "other", name: m[1], indent: indent}, true
	}
	return frame{}, false
}

func hidden(stack []frame) bool {
	for _, f := range stack {
		if f.kind == "hidden_label" || f.kind == "translate" {
			return true
		}
	}
	return false
}

// inNonTranslatableBlock reports whether the innermost relevant block is a
// style, transform or ATL-style context whose strings are asset references.
func inNonTranslatableBlock(stack []frame) bool {
	for _, f := range stack {
		switch f.kind {
		case "style", "transform":
			return true
		}
	}
	return false
}

func contextPath(stack []frame) []string {
	if len(stack) == 0 {
		return nil
	}
	path := make([]string, len(stack))
	for i, f := range stack {
		path[i] = f.label()
	}
	return path
}

func stringTokens(line scanner.LogicalLine) []scanner.Token {
	var out []scanner.Token
	for _, t := range line.Tokens {
		if t.Type == scanner.StringLiteral {
			out = append(out, t)
		}
	}
	return out
}

// reflowParagraphs applies Ren'Py's _p() whitespace rules: lines are
// stripped, consecutive non-blank lines join with a space, blank lines
// separate paragraphs.
func reflowParagraphs(text string) string {
	if text == "" {
		return ""
	}
	var paragraphs []string
	var current []string
	for _, l := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(l)
		if stripped == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		current = append(current, stripped)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
