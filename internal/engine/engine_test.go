package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slden26/RenLocalizer-UA/internal/entry"
	"github.com/slden26/RenLocalizer-UA/internal/policy"
	"github.com/slden26/RenLocalizer-UA/internal/rpyc"
)

func newTestEngine(opts ...Option) *Engine {
	return New(policy.Default(), 4, rpyc.DefaultDecompressionCeiling, rpyc.DefaultMaxDepth, opts...)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunExtractsAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rpy", `label start:
    e "Hello, [player]!"
`)
	b := writeFile(t, dir, "b.rpy", `label epilogue:
    e "Hello, [player]!"
    "The end."
`)

	res := newTestEngine(WithWorkers(2)).Run(context.Background(), []string{a, b})

	require.Equal(t, 2, res.Store.Len())
	assert.Equal(t, 1, res.Store.Merged())
	assert.Equal(t, 1, res.Report.TotalMerged)

	visible := res.Store.Translatable()
	require.Len(t, visible, 2)

	var greeting *entry.Record
	for _, rec := range visible {
		if rec.RawText == "Hello, [player]!" {
			greeting = rec
		}
	}
	require.NotNil(t, greeting)
	assert.Equal(t, 2, greeting.Occurrences)
	assert.Len(t, greeting.ContextPaths, 2)
}

func TestRunUnreadableFileIsFailed(t *testing.T) {
	res := newTestEngine().Run(context.Background(), []string{"/nonexistent/missing.rpy"})

	assert.Equal(t, 0, res.Store.Len())
	assert.Equal(t, 1, res.Report.FailedFiles)
}

func TestRunBrokenContainerDegrades(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "broken.rpyc", "RENPY RPC2 but truncated")
	good := writeFile(t, dir, "good.rpy", `label start:
    "A quiet evening."
`)

	res := newTestEngine().Run(context.Background(), []string{bad, good})

	assert.Equal(t, 1, res.Store.Len())
	assert.Equal(t, 1, res.Report.FailedFiles)
}

func TestRunCancelledContextSkipsFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.rpy", `"Never reached."`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newTestEngine(WithWorkers(1)).Run(ctx, []string{path})

	assert.Equal(t, 0, res.Store.Len())
	assert.Equal(t, 0, res.Report.FailedFiles)
	assert.Empty(t, res.Report.Files)
}

func TestRunExtractsDataFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "strings.json", `{"title":"Chapter One","id":"ch_01"}`)

	res := newTestEngine().Run(context.Background(), []string{path})

	require.Equal(t, 1, res.Store.Len())
	rec := res.Store.Entries()[0]
	assert.Equal(t, "Chapter One", rec.Entry.RawText)
	assert.Equal(t, entry.DataValue, rec.Entry.Type)
	assert.Equal(t, entry.DataSource, rec.Entry.Source)
	assert.Equal(t, 0, res.Report.FailedFiles)
}

func TestRunMalformedDataFileDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.json", `{half a document`)

	res := newTestEngine().Run(context.Background(), []string{path})

	assert.Equal(t, 0, res.Store.Len())
	assert.Equal(t, 1, res.Report.FailedFiles)
}

func TestExtractTextDirect(t *testing.T) {
	out := newTestEngine().ExtractText(`label start:
    e "Good morning."
`, "inline.rpy")

	require.Len(t, out.Entries, 1)
	assert.Equal(t, "Good morning.", out.Entries[0].RawText)
	assert.Equal(t, 1, out.Report.Extracted)
}
