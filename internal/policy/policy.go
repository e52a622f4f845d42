// Package policy decides which extracted strings are technical noise rather
// than translatable text. The rule set is a hand-tuned heuristic, not a
// grammar, so every part of it can be extended through a YAML overlay.
package policy

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Policy holds the technical-text exclusion rules applied to every candidate
// string before it enters the translatable set.
type Policy struct {
	neverExact    map[string]struct{}
	neverContains []string
	neverRegex    []*regexp.Regexp

	minLength int
}

// Overlay is the YAML-loadable shape of user rules. All lists extend the
// built-in defaults.
type Overlay struct {
	NeverTranslate struct {
		Exact    []string `yaml:"exact"`
		Contains []string `yaml:"contains"`
		Regex    []string `yaml:"regex"`
	} `yaml:"never_translate"`
	MinLength int `yaml:"min_length"`
}

// Identifiers and keyword-like values that appear as bare strings in scripts
// but must never reach a translator. Only exact lowercase forms are skipped:
// "history" is technical, "History" is a UI label.
var technicalTerms = []string{
	"left", "right", "center", "top", "bottom", "gui", "config",
	"true", "false", "none", "null", "auto", "png", "jpg", "mp3", "ogg",
	"say", "window", "namebox", "choice", "quick", "navigation",
	"slot", "pref", "radio", "check", "slider", "dismiss", "notify",
	"nvl_window", "nvl_button", "medium", "touch", "small", "color",
	"show", "hide", "unicode", "input", "output", "default", "value",
	"id", "name", "type", "style", "action", "hovered", "unhovered",
	"selected", "insensitive", "activate", "alternate",
}

var fileExtensions = []string{
	".otf", ".ttf", ".woff", ".woff2", ".eot",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".ico", ".svg",
	".mp3", ".ogg", ".wav", ".flac", ".aac", ".m4a", ".opus",
	".mp4", ".webm", ".avi", ".mkv", ".mov", ".ogv",
	".rpy", ".rpyc", ".rpa", ".rpym", ".rpymc",
	".py", ".pyc", ".pyo",
	".json", ".txt", ".xml", ".csv", ".yaml", ".yml",
	".zip", ".rar", ".7z", ".tar", ".gz",
}

var pathPrefixes = []string{
	"fonts/", "images/", "audio/", "music/", "sounds/",
	"gui/", "screens/", "script/", "game/", "tl/",
}

var (
	hexColorRe      = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)
	pureNumberRe    = regexp.MustCompile(`^-?\d+\.?\d*$`)
	versionRe       = regexp.MustCompile(`^v?\d+\.\d+(\.\d+)?([a-z])?$`)
	snakeCaseRe     = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)+$`)
	screamingCaseRe = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)+$`)
	camelCaseRe     = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*[A-Z][a-zA-Z0-9]*$`)
	urlRe           = regexp.MustCompile(`^(https?://|ftp://|mailto:|file://|www\.)`)
	bareSlashPathRe = regexp.MustCompile(`^[a-zA-Z0-9_/.\-]+$`)
	funcCallRe      = regexp.MustCompile(`^[A-Za-z_]\w*\s*\(.*\)$`)
	dottedAttrRe    = regexp.MustCompile(`^[A-Za-z_]\w*\.[A-Za-z_]\w*$`)
	markerOnlyRe    = regexp.MustCompile(`^\s*(\[[^\]]+\]|\{[^}]+\}|%s|%\([^)]+\)[sdif])\s*$`)
	tagOrVarRe      = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
)

// Default returns the built-in policy.
func Default() *Policy {
	p := &Policy{
		neverExact: make(map[string]struct{}, len(technicalTerms)),
		minLength:  2,
	}
	for _, t := range technicalTerms {
		p.neverExact[t] = struct{}{}
	}
	return p
}

// Load reads a YAML overlay and merges it over the defaults. A missing path
// returns the defaults untouched.
func Load(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("Policy file not found, using defaults")
			return p, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var ov Overlay
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	for _, v := range ov.NeverTranslate.Exact {
		p.neverExact[v] = struct{}{}
	}
	p.neverContains = append(p.neverContains, ov.NeverTranslate.Contains...)
	for _, expr := range ov.NeverTranslate.Regex {
		re, err := regexp.Compile(expr)
		if err != nil {
			log.Warn().Str("regex", expr).Err(err).Msg("Skipping invalid policy regex")
			continue
		}
		p.neverRegex = append(p.neverRegex, re)
	}
	if ov.MinLength > 0 {
		p.minLength = ov.MinLength
	}

	log.Info().Str("path", path).Msg("Loaded translation policy overlay")
	return p, nil
}

// IsTechnical reports whether text should be classified technical and kept
// out of the translatable set.
func (p *Policy) IsTechnical(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < p.minLength {
		return true
	}
	lower := strings.ToLower(trimmed)

	if _, ok := p.neverExact[trimmed]; ok {
		return true
	}
	for _, sub := range p.neverContains {
		if sub != "" && strings.Contains(trimmed, sub) {
			return true
		}
	}
	for _, re := range p.neverRegex {
		if re.MatchString(trimmed) {
			return true
		}
	}

	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, prefix := range pathPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	if !strings.Contains(trimmed, " ") {
		if strings.Contains(trimmed, "/") && bareSlashPathRe.MatchString(trimmed) {
			return true
		}
		if snakeCaseRe.MatchString(trimmed) || screamingCaseRe.MatchString(trimmed) || camelCaseRe.MatchString(trimmed) {
			return true
		}
		// A single all-lowercase word is almost always an identifier;
		// capitalized forms ("History") stay translatable.
		if trimmed == lower && isAlphaOnly(trimmed) {
			return true
		}
	}

	switch {
	case urlRe.MatchString(lower),
		hexColorRe.MatchString(trimmed),
		pureNumberRe.MatchString(trimmed),
		versionRe.MatchString(lower),
		markerOnlyRe.MatchString(text),
		funcCallRe.MatchString(trimmed),
		dottedAttrRe.MatchString(trimmed):
		return true
	}

	// Strip tags and variables; whatever remains must still contain at least
	// two letters to count as human-readable.
	cleaned := tagOrVarRe.ReplaceAllString(trimmed, "")
	letters := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters < 2
}

func isAlphaOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}

// Meaningful is the positive form used by extraction call sites.
func (p *Policy) Meaningful(text string) bool {
	return !p.IsTechnical(text)
}
