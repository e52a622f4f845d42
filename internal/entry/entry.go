package entry

import "github.com/slden26/RenLocalizer-UA/internal/placeholder"

// TextType classifies what kind of UI surface an extracted string belongs to.
type TextType string

const (
	Dialogue   TextType = "dialogue"
	Narration  TextType = "narration"
	MenuChoice TextType = "menu_choice"
	ScreenText TextType = "screen_text"
	UILabel    TextType = "ui_label"
	// DataValue entries come from structured data files shipped alongside
	// the scripts rather than from script text.
	DataValue TextType = "data_value"
	// Technical entries are retained for diagnostics but never handed to the
	// translation stage.
	Technical TextType = "technical"
)

// SourceKind records which extraction path produced an entry.
type SourceKind string

const (
	TextSource     SourceKind = "text_source"
	CompiledSource SourceKind = "compiled_source"
	DataSource     SourceKind = "data_source"
)

// LineRange is an inclusive span of physical source lines, both 1-based.
// Single-line entries have Start == End.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Entry is one translatable (or technical) unit of text.
type Entry struct {
	// RawText is the fragment exactly as written in the source, including
	// escape sequences for text-source entries.
	RawText string `json:"raw_text"`
	// ProcessedText is RawText with interpolation markers and tags replaced
	// by stable tokens; this is what the translation stage consumes.
	ProcessedText string `json:"processed_text"`
	// Placeholders maps each stable token back to its original substring,
	// in first-occurrence order.
	Placeholders []placeholder.Mapping `json:"placeholder_map,omitempty"`

	Type      TextType `json:"text_type"`
	Character string   `json:"character,omitempty"`
	// ContextPath is the chain of enclosing blocks, root first, e.g.
	// ["screen:main_menu", "vbox"].
	ContextPath []string `json:"context_path,omitempty"`
	// DisambiguationTag is the identifier from an inline {#tag} marker, if any.
	DisambiguationTag string `json:"disambiguation_tag,omitempty"`

	File  string    `json:"file,omitempty"`
	Lines LineRange `json:"lines"`

	// TranslationID is the stable identity derived from canonicalized text
	// plus the disambiguation tag. See the textid package.
	TranslationID string `json:"translation_id"`

	Source SourceKind `json:"source_kind"`
}

// Translatable reports whether the entry belongs in the externally visible
// translatable set.
func (e *Entry) Translatable() bool {
	return e.Type != Technical
}
