package parser

import (
	"regexp"

	"github.com/slden26/RenLocalizer-UA/internal/entry"
)

// descriptor classifies one logical line. Descriptors are tried in order and
// the first match wins, so more specific patterns sit before general ones.
type descriptor struct {
	name string
	re   *regexp.Regexp
	typ  entry.TextType
	// charGroup names the capture group holding the speaker identifier.
	charGroup string
	// technical forces the technical classification regardless of content.
	technical bool
}

const quotedLit = `(?:[rRuUbBfF]{1,2})?(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|"""|''')`

var descriptors = []descriptor{
	// show screen carries string arguments for the screen itself; it must
	// outrank the plain show statement below.
	{name: "show_screen", re: regexp.MustCompile(`^show\s+screen\s+[A-Za-z_]\w*\s*\(`), typ: entry.ScreenText},

	// Statements whose string arguments are asset names or label targets,
	// never player-facing text.
	{name: "asset_stmt", re: regexp.MustCompile(`^(?:image|play|queue|stop|voice|jump|call|scene|show|hide|window)\b`), typ: entry.Technical, technical: true},
	{name: "style_prop", re: regexp.MustCompile(`^style\s*\.\s*[A-Za-z_]\w*\s*=`), typ: entry.Technical, technical: true},

	// Explicitly translation-marked literals always survive.
	{name: "textbutton_marked", re: regexp.MustCompile(`^textbutton\s+_\s*\(`), typ: entry.ScreenText},
	{name: "screen_marked", re: regexp.MustCompile(`^(?:text|label|tooltip)\s+_\s*\(`), typ: entry.ScreenText},
	{name: "action_marked", re: regexp.MustCompile(`\baction\b.*_\s*\(\s*` + quotedLit), typ: entry.ScreenText},

	// Programmatic UI text.
	{name: "notify", re: regexp.MustCompile(`(?:renpy\.notify|Notify)\s*\(`), typ: entry.UILabel},
	{name: "confirm", re: regexp.MustCompile(`Confirm\s*\(`), typ: entry.UILabel},
	{name: "renpy_say", re: regexp.MustCompile(`renpy\.say\s*\(`), typ: entry.Dialogue},
	{name: "renpy_input", re: regexp.MustCompile(`renpy\.input\s*\(`), typ: entry.UILabel},
	{name: "text_displayable", re: regexp.MustCompile(`\bText\s*\(\s*` + quotedLit), typ: entry.ScreenText},
	{name: "character_define", re: regexp.MustCompile(`^(?:define\s+)?[A-Za-z_]\w*\s*=\s*(?:Dynamic)?Character\s*\(\s*` + quotedLit), typ: entry.UILabel},

	// _p() paragraph definitions and other _() defines.
	{name: "paragraph", re: regexp.MustCompile(`^(?:define\s+)?(?:gui|config)\.[A-Za-z_]\w*\s*=\s*_p\s*\(`), typ: entry.UILabel},
	{name: "default_marked", re: regexp.MustCompile(`^default\s+[A-Za-z_]\w*\s*=\s*_\s*\(`), typ: entry.UILabel},
	{name: "generic_marked", re: regexp.MustCompile(`(?:^|[^_\w])_\s*\(\s*` + quotedLit), typ: entry.UILabel},

	// Config / GUI string assignments.
	{name: "config_string", re: regexp.MustCompile(`^(?:define\s+)?config\.(?:name|version|about|menu_\w+|window_title|save_name)\s*=`), typ: entry.UILabel},
	{name: "gui_text", re: regexp.MustCompile(`^(?:define\s+)?gui\.(?:text|button|label|title|heading|caption|tooltip|confirm)(?:_[a-z_]*)?(?:\[[^\]]*\])?\s*=`), typ: entry.UILabel},
	{name: "gui_other", re: regexp.MustCompile(`^(?:define\s+)?gui\.[A-Za-z_]\w*\s*=`), typ: entry.Technical, technical: true},

	// Screen language text attributes.
	{name: "textbutton", re: regexp.MustCompile(`^textbutton\s+` + quotedLit), typ: entry.ScreenText},
	{name: "screen_text", re: regexp.MustCompile(`^(?:text|label|tooltip)\s+` + quotedLit), typ: entry.ScreenText},
	{name: "alt_text", re: regexp.MustCompile(`^alt\s+` + quotedLit + `|\balt\s+` + quotedLit + `$`), typ: entry.ScreenText},
	{name: "input_text", re: regexp.MustCompile(`^input\b.*\b(?:default|prefix|suffix)\s+` + quotedLit), typ: entry.ScreenText},

	// Remaining define/default assignments carry identifiers or paths.
	{name: "define_plain", re: regexp.MustCompile(`^(?:define|default)\s+[\w.]+\s*=`), typ: entry.Technical, technical: true},

	// Menu option: quoted label, optional arguments or condition, colon.
	{name: "menu_choice", re: regexp.MustCompile(`^` + quotedLit + `\s*(?:\([^)]*\))?\s*(?:if\s+[^:]+)?:`), typ: entry.MenuChoice},
	{name: "menu_caption", re: regexp.MustCompile(`^menu\s+` + quotedLit + `\s*:`), typ: entry.MenuChoice},

	// Dialogue: speaker identifier followed by the spoken literal.
	{name: "char_dialogue", re: regexp.MustCompile(`^(?P<char>[A-Za-z_]\w*)(?:\s+[a-z_]\w*)*\s+` + quotedLit), typ: entry.Dialogue, charGroup: "char"},
	// Bare literal: the narrator speaks.
	{name: "narration", re: regexp.MustCompile(`^` + quotedLit), typ: entry.Narration},
}

var (
	hiddenLabelRe = regexp.MustCompile(`^label\s+[\w.]+\s*(?:\([^)]*\))?\s+hide\s*:`)
	labelRe       = regexp.MustCompile(`^label\s+([\w.]+)\s*(?:\([^)]*\))?\s*:`)
	screenRe      = regexp.MustCompile(`^screen\s+([A-Za-z_]\w*)`)
	menuRe        = regexp.MustCompile(`^menu\b.*:`)
	pythonRe      = regexp.MustCompile(`^(?:init(?:\s+[-+]?\d+)?\s+)?(?:early\s+)?python\b.*:`)
	initRe        = regexp.MustCompile(`^init(?:\s+[-+]?\d+)?\s*:\s*(?:#.*)?$`)
	styleBlockRe  = regexp.MustCompile(`^style\s+\w+.*:\s*(?:#.*)?$`)
	transformRe   = regexp.MustCompile(`^transform\s+\w+.*:\s*(?:#.*)?$`)
	conditionalRe = regexp.MustCompile(`^(?:if|elif|else|while|for)\b.*:\s*(?:#.*)?$`)
	genericOpenRe = regexp.MustCompile(`^([a-z_]\w*)\b[^"']*:\s*(?:#.*)?$`)

	extendRe     = regexp.MustCompile(`^(?:\w+\s+)?extend\s+` + quotedLit)
	pFunctionRe  = regexp.MustCompile(`_p\s*\(`)
	translateRe  = regexp.MustCompile(`^translate\s+[A-Za-z_]\w*\s+[A-Za-z_]\w*\s*:`)
	oldNewLineRe = regexp.MustCompile(`^(?:old|new)\s+` + quotedLit)
	dollarLineRe = regexp.MustCompile(`^\$`)
)

// classify runs the descriptor chain over a logical line.
func classify(text string) (descriptor, bool) {
	for _, d := range descriptors {
		if d.re.MatchString(text) {
			return d, true
		}
	}
	return descriptor{}, false
}
