package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("label start:\n"), 0o644))
	return path
}

func names(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkCollectsSupportedFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "game/options.rpym")
	touch(t, root, "game/compiled.rpyc")
	touch(t, root, "game/readme.txt")
	touch(t, root, "game/archive.rpa")

	files, err := NewWalker().Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"game/script.rpy", "game/options.rpym", "game/compiled.rpyc"},
		names(t, root, files))
}

func TestWalkCollectsDataFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "game/data/strings.json")
	touch(t, root, "game/data/quests.yaml")
	touch(t, root, "game/data/locale.ini")
	touch(t, root, "game/data/table.csv")
	touch(t, root, "game/data/dialog.xml")
	touch(t, root, "game/readme.md")

	files, err := NewWalker().Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{
			"game/script.rpy", "game/data/strings.json", "game/data/quests.yaml",
			"game/data/locale.ini", "game/data/table.csv", "game/data/dialog.xml",
		},
		names(t, root, files))
}

func TestWalkSkipsTranslationAndEngineDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "game/tl/russian/script.rpy")
	touch(t, root, "renpy/common/00action.rpy")
	touch(t, root, "game/TL/french/ui.rpy")

	files, err := NewWalker().Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"game/script.rpy"}, names(t, root, files))
}

func TestWalkPreferCompiledDropsShadowedScript(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "game/script.rpyc")
	touch(t, root, "game/solo.rpy")

	w := NewWalker()
	w.PreferCompiled = true
	files, err := w.Walk(root)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"game/script.rpyc", "game/solo.rpy"},
		names(t, root, files))
}

func TestWalkKeepsBothWithoutPreference(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "game/script.rpy")
	touch(t, root, "game/script.rpyc")

	files, err := NewWalker().Walk(root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestWalkRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	path := touch(t, root, "script.rpy")

	_, err := NewWalker().Walk(path)
	assert.Error(t, err)
}
