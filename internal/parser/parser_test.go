package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slden26/RenLocalizer-UA/internal/diag"
	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
	"github.com/slden26/RenLocalizer-UA/internal/textid"
)

func parse(t *testing.T, src string) *Result {
	t.Helper()
	return New(policy.Default()).Parse(src, "test.rpy")
}

func TestParseLabelDialogue(t *testing.T) {
	src := `label start:
    e "Hello, [player]!"
    "A quiet evening."
`
	res := parse(t, src)
	require.Len(t, res.Entries, 2)

	say := res.Entries[0]
	assert.Equal(t, entry.Dialogue, say.Type)
	assert.Equal(t, "e", say.Character)
	assert.Equal(t, "Hello, [player]!", say.RawText)
	assert.Equal(t, "Hello, ⟦V000⟧!", say.ProcessedText)
	assert.Equal(t, []string{"label:start"}, say.ContextPath)
	assert.Equal(t, entry.LineRange{Start: 2, End: 2}, say.Lines)
	assert.Equal(t, textid.Assign(`"Hello, [player]!"`, ""), say.TranslationID)
	assert.Equal(t, entry.TextSource, say.Source)

	narration := res.Entries[1]
	assert.Equal(t, entry.Narration, narration.Type)
	assert.Empty(t, narration.Character)
}

func TestParseHiddenLabelDropped(t *testing.T) {
	src := `label secret hide:
    "You should not see this."

label visible:
    "But this you should."
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "But this you should.", res.Entries[0].RawText)
	assert.Equal(t, []string{"label:visible"}, res.Entries[0].ContextPath)
}

func TestParseMenu(t *testing.T) {
	src := `menu:
    "Go left":
        e "You went left."
    "Go right" if flag:
        "Right it is."
`
	res := parse(t, src)
	require.Len(t, res.Entries, 4)

	assert.Equal(t, entry.MenuChoice, res.Entries[0].Type)
	assert.Equal(t, "Go left", res.Entries[0].RawText)
	assert.Equal(t, []string{"menu"}, res.Entries[0].ContextPath)

	assert.Equal(t, entry.Dialogue, res.Entries[1].Type)
	assert.Equal(t, "e", res.Entries[1].Character)

	assert.Equal(t, entry.MenuChoice, res.Entries[2].Type)
	assert.Equal(t, "Go right", res.Entries[2].RawText)

	assert.Equal(t, entry.Narration, res.Entries[3].Type)
}

func TestParseScreenTripleQuote(t *testing.T) {
	src := "screen about():\n    text \"\"\"Line one\nLine two\nLine three\"\"\"\n"
	res := parse(t, src)
	require.Len(t, res.Entries, 1)

	e := res.Entries[0]
	assert.Equal(t, entry.ScreenText, e.Type)
	assert.Equal(t, "Line one\nLine two\nLine three", e.RawText)
	assert.Equal(t, entry.LineRange{Start: 2, End: 4}, e.Lines)
	assert.Equal(t, []string{"screen:about"}, e.ContextPath)
	assert.Equal(t, textid.AssignDecoded("Line one\nLine two\nLine three", ""), e.TranslationID)
}

func TestParseDisambiguationTag(t *testing.T) {
	src := `screen file_slots:
    textbutton "New"
    textbutton "New{#project}"
`
	res := parse(t, src)
	require.Len(t, res.Entries, 2)

	plain, tagged := res.Entries[0], res.Entries[1]
	assert.Empty(t, plain.DisambiguationTag)
	assert.Equal(t, "project", tagged.DisambiguationTag)
	assert.Equal(t, "New⟦D000⟧", tagged.ProcessedText)
	assert.NotEqual(t, plain.TranslationID, tagged.TranslationID)
}

func TestParseAssetStatementsTechnical(t *testing.T) {
	src := `image bg room = "bg room.png"
play music "audio/theme.ogg"
`
	res := parse(t, src)
	require.Len(t, res.Entries, 2)
	for _, e := range res.Entries {
		assert.Equal(t, entry.Technical, e.Type)
	}
	assert.Equal(t, 2, res.Report.Technical)
	assert.Equal(t, 0, res.Report.Extracted)
}

func TestParseExtendMerges(t *testing.T) {
	src := `label start:
    e "First part,"
    extend "and more."
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)

	e := res.Entries[0]
	assert.Equal(t, "First part, and more.", e.RawText)
	assert.Equal(t, entry.LineRange{Start: 2, End: 3}, e.Lines)
	assert.Equal(t, textid.AssignDecoded("First part, and more.", ""), e.TranslationID)
}

func TestParseDanglingExtendIsNarration(t *testing.T) {
	src := `label start:
    extend "Orphan continuation."
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)

	e := res.Entries[0]
	assert.Equal(t, entry.Narration, e.Type)
	assert.Empty(t, e.Character)
	assert.Equal(t, "Orphan continuation.", e.RawText)

	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, diag.ParseWarning, res.Report.Warnings[0].Kind)
	assert.Contains(t, res.Report.Warnings[0].Reason, "extend")
}

func TestParseTranslateBlockSkipped(t *testing.T) {
	src := `translate russian start_1a2b:
    e "Privet"

label start:
    e "Hello"
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Hello", res.Entries[0].RawText)
}

func TestParseOldNewSkipped(t *testing.T) {
	src := `old "Cancel"
new "Otmena"
`
	res := parse(t, src)
	assert.Empty(t, res.Entries)
}

func TestParseDollarLine(t *testing.T) {
	src := `label start:
    $ portrait = "images/e_happy.png"
    $ renpy.notify(_("Game saved."))
`
	res := parse(t, src)
	require.Len(t, res.Entries, 2)

	assert.Equal(t, entry.Technical, res.Entries[0].Type)
	assert.Equal(t, entry.UILabel, res.Entries[1].Type)
	assert.Equal(t, "Game saved.", res.Entries[1].RawText)
}

func TestParseMarkedStringsInPython(t *testing.T) {
	src := `init python:
    stats = "strength"
    greeting = _("Welcome back!")
`
	res := parse(t, src)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, entry.Technical, res.Entries[0].Type)
	assert.Equal(t, entry.UILabel, res.Entries[1].Type)
}

func TestParseStyleBlockTechnical(t *testing.T) {
	src := `style my_button:
    font "fonts/main.ttf"
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, entry.Technical, res.Entries[0].Type)
}

func TestParseCharacterDefine(t *testing.T) {
	src := `define e = Character("Eileen", color="#ffcc00")
`
	res := parse(t, src)
	require.NotEmpty(t, res.Entries)
	assert.Equal(t, entry.UILabel, res.Entries[0].Type)
	assert.Equal(t, "Eileen", res.Entries[0].RawText)
}

func TestParseUnterminatedStringWarns(t *testing.T) {
	src := `label start:
    e "never closed
`
	res := parse(t, src)
	require.Len(t, res.Entries, 1)
	require.NotEmpty(t, res.Report.Warnings)
	assert.Equal(t, "never closed", res.Entries[0].RawText)
}
