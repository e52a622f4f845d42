// Package filewalker discovers extractable game files under a project root.
package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists file types handled by the tool: script sources,
// compiled containers and the structured data formats games keep text in.
var SupportedExtensions = map[string]bool{
	".rpy":   true,
	".rpym":  true,
	".rpyc":  true,
	".rpymc": true,
	".csv":   true,
	".json":  true,
	".yaml":  true,
	".yml":   true,
	".ini":   true,
	".xml":   true,
}

// Subtrees that hold engine code or finished translations rather than game
// source.
var excludedDirs = map[string]bool{
	"tl":    true,
	"renpy": true,
}

// Walker traverses a game directory and collects extraction candidates.
type Walker struct {
	// PreferCompiled drops a .rpy file when the matching .rpyc sits next to
	// it, so each script is read once.
	PreferCompiled bool
}

// NewWalker creates a Walker with default settings.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk discovers all supported files under the given root directory.
func (w *Walker) Walk(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var files []string

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if info.IsDir() {
			if excludedDirs[strings.ToLower(info.Name())] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !SupportedExtensions[ext] {
			return nil
		}
		files = append(files, path)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	if w.PreferCompiled {
		files = dropShadowedScripts(files)
	}

	log.Info().Int("count", len(files)).Str("root", root).Msg("Discovered files")
	return files, nil
}

// dropShadowedScripts removes .rpy/.rpym paths whose compiled counterpart is
// also present.
func dropShadowedScripts(files []string) []string {
	compiledFor := make(map[string]bool, len(files))
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".rpyc", ".rpymc":
			compiledFor[strings.TrimSuffix(f, filepath.Ext(f))] = true
		}
	}

	out := files[:0]
	for _, f := range files {
		switch strings.ToLower(filepath.Ext(f)) {
		case ".rpy", ".rpym":
			if compiledFor[strings.TrimSuffix(f, filepath.Ext(f))] {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}
