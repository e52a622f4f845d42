package datafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slden26/RenLocalizer-UA/internal/entry"
)

func extract(t *testing.T, name, src string) []entry.Entry {
	t.Helper()
	out, err := NewExtractor().Extract([]byte(src), name)
	require.NoError(t, err)
	return out
}

func TestExtractCSVSniffsSemicolon(t *testing.T) {
	src := "1;a;Hello there, friend!\n2;b;An ancient oak looms.\n#ff0000;c;42\n"
	out := extract(t, "table.csv", src)

	require.Len(t, out, 2)
	assert.Equal(t, "Hello there, friend!", out[0].RawText)
	assert.Equal(t, []string{"csv:row0_col2"}, out[0].ContextPath)
	assert.Equal(t, entry.LineRange{Start: 1, End: 1}, out[0].Lines)
	assert.Equal(t, entry.DataValue, out[0].Type)
	assert.Equal(t, entry.DataSource, out[0].Source)
	assert.Equal(t, "An ancient oak looms.", out[1].RawText)
	assert.Equal(t, []string{"csv:row1_col2"}, out[1].ContextPath)
}

func TestExtractCSVCommaDefault(t *testing.T) {
	out := extract(t, "table.csv", "q,Hello world,7\n")

	require.Len(t, out, 1)
	assert.Equal(t, "Hello world", out[0].RawText)
	assert.Equal(t, []string{"csv:row0_col1"}, out[0].ContextPath)
}

func TestExtractJSONWhitelistedKeyPaths(t *testing.T) {
	src := `{"quest":{"title":"The Lost Amulet","id":"q_001","flavor":"never seen"},"items":["Rusty sword",3]}`
	out := extract(t, "quests.json", src)

	require.Len(t, out, 2)
	assert.Equal(t, "Rusty sword", out[0].RawText)
	assert.Equal(t, []string{"json:items[0]"}, out[0].ContextPath)
	assert.Equal(t, "The Lost Amulet", out[1].RawText)
	assert.Equal(t, []string{"json:quest.title"}, out[1].ContextPath)
	assert.Equal(t, entry.LineRange{Start: 0, End: 0}, out[1].Lines)
}

func TestExtractJSONRejectsKeyedNoise(t *testing.T) {
	src := `{"title":"12.5","message":"#note","help":"http://example.com","desc":"A fine day."}`
	out := extract(t, "strings.json", src)

	require.Len(t, out, 1)
	assert.Equal(t, "A fine day.", out[0].RawText)
	assert.Equal(t, []string{"json:desc"}, out[0].ContextPath)
}

func TestExtractYAMLNestedSequence(t *testing.T) {
	src := "title: A Quiet Morning\nsfx: click.ogg\nnotes:\n  - First note text\n  - 42\n"
	out := extract(t, "strings.yaml", src)

	require.Len(t, out, 2)
	assert.Equal(t, "First note text", out[0].RawText)
	assert.Equal(t, []string{"yaml:notes[0]"}, out[0].ContextPath)
	assert.Equal(t, "A Quiet Morning", out[1].RawText)
	assert.Equal(t, []string{"yaml:title"}, out[1].ContextPath)
}

func TestExtractINISectionContexts(t *testing.T) {
	src := `; locale strings
[dialogue]
text = Hello, stranger.
icon = star.png

[menu]
caption = Start a new game
speed = 1.5
`
	out := extract(t, "locale.ini", src)

	require.Len(t, out, 2)
	assert.Equal(t, "Hello, stranger.", out[0].RawText)
	assert.Equal(t, []string{"ini:[dialogue]text"}, out[0].ContextPath)
	assert.Equal(t, entry.LineRange{Start: 3, End: 3}, out[0].Lines)
	assert.Equal(t, "Start a new game", out[1].RawText)
	assert.Equal(t, []string{"ini:[menu]caption"}, out[1].ContextPath)
	assert.Equal(t, entry.LineRange{Start: 7, End: 7}, out[1].Lines)
}

func TestExtractXMLTextAndTail(t *testing.T) {
	src := `<dialog><line>Welcome home.</line> and nothing more.</dialog>`
	out := extract(t, "dialog.xml", src)

	require.Len(t, out, 2)
	assert.Equal(t, "Welcome home.", out[0].RawText)
	assert.Equal(t, []string{"xml:dialog.line"}, out[0].ContextPath)
	assert.Equal(t, "and nothing more.", out[1].RawText)
	assert.Equal(t, []string{"xml:dialog.line_tail"}, out[1].ContextPath)
}

func TestExtractMalformedDocumentFails(t *testing.T) {
	_, err := NewExtractor().Extract([]byte("{not json"), "broken.json")
	require.Error(t, err)

	_, err = NewExtractor().Extract([]byte("<open>"), "broken.xml")
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".csv", ".json", ".yaml", ".yml", ".ini", ".xml"} {
		assert.True(t, Supported(ext), ext)
	}
	assert.False(t, Supported(".rpy"))
	assert.False(t, Supported(".txt"))
}

func TestMeaningfulFilter(t *testing.T) {
	cases := []struct {
		text string
		key  string
		want bool
	}{
		{"Sword of Dawn", "id", false},
		{"Sword of Dawn", "title", true},
		{"Sword of Dawn", "flavor", false},
		{"12.5", "title", false},
		{"#80ff00", "", false},
		{"http://example.com", "", false},
		{"button.png", "", false},
		{"[hero] ok", "", true},
		{"[a]{b}", "", false},
		{"x", "", false},
		{"", "title", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, meaningful(tc.text, tc.key), "%q key=%q", tc.text, tc.key)
	}
}
