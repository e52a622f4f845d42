package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 4, cfg.TabWidth)
	assert.Equal(t, int64(64<<20), cfg.DecompressionCeiling)
	assert.Equal(t, 64, cfg.MaxGraphDepth)
	assert.False(t, cfg.PreferCompiled)
	assert.True(t, cfg.TranslateDialogue)
	assert.True(t, cfg.TranslateMenus)
	assert.Positive(t, cfg.WorkerCount)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("TAB_WIDTH", "8")
	t.Setenv("PREFER_COMPILED", "true")
	t.Setenv("TRANSLATE_MENUS", "false")
	t.Setenv("POLICY_FILE", "rules.yaml")

	cfg := Load()
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 8, cfg.TabWidth)
	assert.True(t, cfg.PreferCompiled)
	assert.False(t, cfg.TranslateMenus)
	assert.Equal(t, "rules.yaml", cfg.PolicyFile)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TAB_WIDTH", "wide")
	t.Setenv("PREFER_COMPILED", "maybe")

	cfg := Load()
	assert.Equal(t, 4, cfg.TabWidth)
	assert.False(t, cfg.PreferCompiled)
}
