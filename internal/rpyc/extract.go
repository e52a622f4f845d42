package rpyc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slden26/RenLocalizer-UA/internal/diag"
	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/placeholder"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
	"github.com/slden26/RenLocalizer-UA/internal/textid"
)

// DefaultMaxDepth bounds graph recursion. Legitimate statement graphs nest
// shallowly; anything deeper is either corrupt or hostile.
const DefaultMaxDepth = 64

// Extractor walks decoded statement graphs and collects translatable text.
type Extractor struct {
	policy   *policy.Policy
	maxDepth int
	limit    int64
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxDepth overrides the recursion bound.
func WithMaxDepth(n int) ExtractorOption {
	return func(x *Extractor) { x.maxDepth = n }
}

// WithDecompressionCeiling overrides the inflation byte limit.
func WithDecompressionCeiling(n int64) ExtractorOption {
	return func(x *Extractor) { x.limit = n }
}

// NewExtractor creates an extractor using pol to drop technical strings.
func NewExtractor(pol *policy.Policy, opts ...ExtractorOption) *Extractor {
	x := &Extractor{policy: pol, maxDepth: DefaultMaxDepth, limit: DefaultDecompressionCeiling}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract reads one compiled archive. FormatError and SecurityError are hard
// failures returning zero entries; individual node damage degrades to
// warnings on the report.
func (x *Extractor) Extract(data []byte, file string, report *diag.FileReport) ([]entry.Entry, error) {
	payload, err := Payload(data, file, x.limit)
	if err != nil {
		return nil, err
	}
	graph, err := Decode(payload, file)
	if err != nil {
		return nil, err
	}

	w := &walker{
		ex:     x,
		file:   file,
		report: report,
	}
	w.walk(Statements(graph), "")
	return w.entries, nil
}

type walker struct {
	ex      *Extractor
	file    string
	report  *diag.FileReport
	entries []entry.Entry
	path    []string
	depth   int
}

func (w *walker) walk(nodes []Value, label string) {
	if label != "" {
		w.path = append(w.path, label)
		defer func() { w.path = w.path[:len(w.path)-1] }()
	}
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > w.ex.maxDepth {
		w.report.Warn(diag.Warning{
			Kind: diag.GraphWalkWarning, NodePath: w.contextString(),
			Reason: "graph depth ceiling reached, subtree skipped",
		})
		return
	}

	for _, n := range nodes {
		w.node(n)
	}
}

// node dispatches one graph node. A panic from unexpected structure is
// contained to the node and recorded, siblings continue.
func (w *walker) node(v Value) {
	defer func() {
		if r := recover(); r != nil {
			w.report.Warn(diag.Warning{
				Kind: diag.GraphWalkWarning, NodePath: w.contextString(),
				Reason: fmt.Sprintf("node extraction failed: %v", r),
			})
		}
	}()

	switch n := v.(type) {
	case *Object:
		w.object(n)
	case *List:
		w.walk(n.Items, "")
	case *Tuple:
		w.walk(n.Items, "")
	case *Dict:
		for _, p := range n.Pairs {
			w.node(p.Val)
		}
	}
}

func (w *walker) object(n *Object) {
	line := n.IntAttr("linenumber")

	switch n.Kind {
	case KindSay, KindTranslateSay:
		if what := n.StringAttr("what"); what != "" {
			w.add(what, line, entry.Dialogue, n.StringAttr("who"))
		}

	case KindMenu:
		for _, item := range n.ListAttr("items") {
			parts := Items(item)
			if len(parts) == 0 {
				continue
			}
			if label, ok := AsString(parts[0]); ok && label != "" {
				w.add(label, line, entry.MenuChoice, "")
			}
			if len(parts) >= 3 {
				w.walk(Items(parts[2]), "menu")
			}
		}

	case KindLabel:
		if b, ok := n.Attr("hide").(bool); ok && b {
			return
		}
		w.walk(n.ListAttr("block"), "label:"+n.StringAttr("name"))

	case KindInit:
		w.walk(n.ListAttr("block"), "init")

	case KindIf:
		for _, e := range n.ListAttr("entries") {
			if parts := Items(e); len(parts) >= 2 {
				w.walk(Items(parts[1]), "")
			}
		}

	case KindWhile:
		w.walk(n.ListAttr("block"), "")

	case KindTranslateString:
		if old := n.StringAttr("old"); old != "" {
			w.add(old, line, entry.UILabel, "")
		}

	case KindTranslate, KindTranslateBlock:
		// Only the untranslated source graph is of interest; translated
		// variants carry a language marker.
		if lang := n.Attr("language"); lang == nil {
			w.walk(n.ListAttr("block"), "translate:"+n.StringAttr("identifier"))
		}

	case KindScreen:
		name := n.StringAttr("name")
		if scr, ok := n.Attr("screen").(*Object); ok {
			if name == "" {
				name = scr.StringAttr("name")
			}
			w.path = append(w.path, "screen:"+name)
			w.screen(scr)
			w.path = w.path[:len(w.path)-1]
		}

	case KindDefine, KindDefault, KindPython:
		if code, ok := n.Attr("code").(*Object); ok {
			w.code(code.StringAttr("source"), line)
		}

	case KindUserStatement:
		if l := n.StringAttr("line"); l != "" {
			w.userLine(l, line)
		}

	default:
		w.walk(n.ListAttr("block"), "")
	}
}

// screen walks the screen-language subtree of one screen definition.
func (w *walker) screen(n *Object) {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > w.ex.maxDepth {
		w.report.Warn(diag.Warning{
			Kind: diag.GraphWalkWarning, NodePath: w.contextString(),
			Reason: "graph depth ceiling reached, subtree skipped",
		})
		return
	}

	switch n.Kind {
	case KindSLScreen, KindSLBlock, KindSLFor:
		w.screenChildren(n)

	case KindSLDisplayable:
		line := locationLine(n.Attr("location"))
		for _, pos := range n.ListAttr("positional") {
			if s, ok := AsString(pos); ok {
				if text, isLit := unquoteExpr(s); isLit {
					w.add(text, line, entry.ScreenText, "")
				}
			}
		}
		for _, kw := range n.ListAttr("keyword") {
			pair := Items(kw)
			if len(pair) < 2 {
				continue
			}
			key, _ := AsString(pair[0])
			switch key {
			case "text", "alt", "tooltip", "caption", "title":
				if s, ok := AsString(pair[1]); ok {
					if text, isLit := unquoteExpr(s); isLit {
						w.add(text, line, entry.ScreenText, "")
					} else {
						w.code(s, line)
					}
				}
			}
		}
		w.screenChildren(n)

	case KindSLIf:
		for _, e := range n.ListAttr("entries") {
			if parts := Items(e); len(parts) >= 2 {
				if sub, ok := parts[1].(*Object); ok {
					w.screen(sub)
				}
			}
		}

	case KindSLUse:
		if sub, ok := n.Attr("block").(*Object); ok {
			w.screen(sub)
		}

	case KindSLPython:
		if code, ok := n.Attr("code").(*Object); ok {
			w.code(code.StringAttr("source"), locationLine(n.Attr("location")))
		}
	}
}

func (w *walker) screenChildren(n *Object) {
	for _, c := range n.ListAttr("children") {
		if sub, ok := c.(*Object); ok {
			w.screen(sub)
		}
	}
}

// Patterns matched inside embedded python sources.
var codePatterns = []struct {
	re  *regexp.Regexp
	typ entry.TextType
}{
	{re: regexp.MustCompile(`(?:^|[^_\w])__?\s*\(\s*["'](.+?)["']\s*\)`), typ: entry.UILabel},
	{re: regexp.MustCompile(`renpy\.notify\s*\(\s*["'](.+?)["']\s*\)`), typ: entry.UILabel},
	{re: regexp.MustCompile(`(?:Dynamic)?Character\s*\(\s*["'](.+?)["']\s*[,)]`), typ: entry.UILabel},
	{re: regexp.MustCompile(`renpy\.say\s*\([^,]*,\s*["'](.+?)["']\s*[,)]`), typ: entry.Dialogue},
	{re: regexp.MustCompile(`\bText\s*\(\s*["'](.+?)["']\s*[,)]`), typ: entry.ScreenText},
	{re: regexp.MustCompile(`config\.(?:name|version|window_title)\s*=\s*["'](.+?)["']`), typ: entry.UILabel},
	{re: regexp.MustCompile(`gui\.\w*text\w*\s*=\s*["'](.+?)["']`), typ: entry.UILabel},
}

// code scans an embedded python source for translation-bearing calls.
func (w *walker) code(source string, line int) {
	if source == "" {
		return
	}
	for _, p := range codePatterns {
		for _, m := range p.re.FindAllStringSubmatch(source, -1) {
			w.add(m[1], line, p.typ, "")
		}
	}
}

var userLineKeywords = []string{"text", "label", "button", "tooltip", "caption", "title"}

// userLine scans the raw line of a custom statement.
func (w *walker) userLine(raw string, line int) {
	w.code(raw, line)

	lower := strings.ToLower(raw)
	relevant := false
	for _, kw := range userLineKeywords {
		if strings.Contains(lower, kw) {
			relevant = true
			break
		}
	}
	if !relevant {
		return
	}
	for _, m := range userLineStringRe.FindAllString(raw, -1) {
		if text, ok := unquoteExpr(m); ok && len(text) >= 3 {
			w.add(text, line, entry.UILabel, "")
		}
	}
}

var userLineStringRe = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)

// add records one extracted string as an entry, dropping technical values.
func (w *walker) add(text string, line int, typ entry.TextType, character string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if !w.ex.policy.Meaningful(text) {
		w.report.Technical++
		return
	}

	_, tag := placeholder.SplitDisambiguation(text)
	processed, mappings := placeholder.Mask(text)

	w.entries = append(w.entries, entry.Entry{
		RawText:           text,
		ProcessedText:     processed,
		Placeholders:      mappings,
		Type:              typ,
		Character:         character,
		ContextPath:       append([]string(nil), w.path...),
		DisambiguationTag: tag,
		File:              w.file,
		Lines:             entry.LineRange{Start: line, End: line},
		TranslationID:     textid.AssignDecoded(text, tag),
		Source:            entry.CompiledSource,
	})
	w.report.Extracted++
}

func (w *walker) contextString() string {
	return strings.Join(w.path, "/")
}

// locationLine pulls the line number out of a (filename, line) location pair.
func locationLine(v Value) int {
	parts := Items(v)
	if len(parts) >= 2 {
		if n, ok := parts[1].(int64); ok {
			return int(n)
		}
	}
	return 0
}

// unquoteExpr reports whether an expression source is a plain string literal
// and returns its content.
func unquoteExpr(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	return "", false
}
