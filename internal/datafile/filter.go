package datafile

import (
	"regexp"
	"strings"
	"unicode"
)

// Keys whose values are identifiers or asset references, never prose.
var keyBlacklist = map[string]struct{}{
	"id": {}, "code": {}, "name_id": {}, "image": {}, "img": {},
	"icon": {}, "sfx": {}, "sound": {}, "audio": {}, "voice": {},
	"file": {}, "path": {}, "url": {}, "link": {}, "type": {},
	"ref": {}, "var": {}, "value_id": {}, "texture": {},
}

// Keys whose values are known to carry player-facing text.
var keyWhitelist = map[string]struct{}{
	"name": {}, "title": {}, "description": {}, "desc": {}, "text": {},
	"content": {}, "caption": {}, "label": {}, "prompt": {}, "help": {},
	"header": {}, "footer": {}, "message": {}, "dialogue": {},
	"summary": {}, "quest": {}, "objective": {}, "char": {},
	"character": {}, "tips": {}, "hints": {}, "notes": {}, "log": {},
	"history": {}, "inventory": {}, "items": {}, "objectives": {},
	"goals": {}, "achievements": {}, "gallery": {},
}

var (
	numericValueRe = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)
	dataMarkupRe   = regexp.MustCompile(`\[[^\]]+\]|\{[^}]+\}`)
)

var assetSuffixes = []string{".png", ".jpg", ".mp3", ".ogg"}

// meaningful decides whether a data value is worth translating. A key, when
// present, dominates: blacklisted keys are always skipped and only
// whitelisted ones are accepted. Keyless values are judged by shape.
func meaningful(text, key string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if key != "" {
		k := strings.ToLower(key)
		if _, ok := keyBlacklist[k]; ok {
			return false
		}
		if _, ok := keyWhitelist[k]; !ok {
			return false
		}
		return !numericValueRe.MatchString(text) &&
			!strings.HasPrefix(text, "#") &&
			!strings.HasPrefix(text, "http")
	}

	if numericValueRe.MatchString(text) ||
		strings.HasPrefix(text, "#") ||
		strings.HasPrefix(text, "http") {
		return false
	}
	lower := strings.ToLower(text)
	for _, suf := range assetSuffixes {
		if strings.HasSuffix(lower, suf) {
			return false
		}
	}

	// Whatever survives tag and variable stripping must still contain at
	// least two letters to count as human-readable.
	cleaned := dataMarkupRe.ReplaceAllString(text, "")
	letters := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}
