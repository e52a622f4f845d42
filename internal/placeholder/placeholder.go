// Package placeholder reversibly protects Ren'Py interpolation markers, text
// tags and format specifiers so a translation pass cannot corrupt them.
// Tokens use the ⟦..⟧ bracket pair, which survives machine translation far
// better than ASCII markers.
package placeholder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mapping stores one protected placeholder and the stable token that replaced
// it in the processed text.
type Mapping struct {
	Token    string `json:"token"`
	Original string `json:"original"`
}

// Marker classes, in masking priority order. The class letter is embedded in
// the token so the output writer can tell a variable from a style tag.
const (
	classDisambiguation = "D" // {#identifier}
	classVariable       = "V" // [name], with [name!t] kept in the same class
	classTag            = "T" // {b}, {color=#fff}, {/b}
	classFormat         = "F" // %s, %(name)s, {:,}, {:3d}
)

var (
	// [[name]] is Ren'Py's escape for a literal bracket and must stay as-is.
	escapedBracketRe = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)

	disambiguationRe = regexp.MustCompile(`\{#[^}\n]+\}`)
	variableRe       = regexp.MustCompile(`\[[^\[\]\n]+\]`)
	braceFormatRe    = regexp.MustCompile(`\{:[^}\n]*\}|\{\d*\}`)
	tagRe            = regexp.MustCompile(`\{/?[^}\n]*\}`)
	percentFormatRe  = regexp.MustCompile(`%\([^)\n]+\)[sdif]|%[sdif]`)

	tokenRe = regexp.MustCompile(`⟦[A-Z]{1,2}\d{3}⟧`)

	// Unterminated opener with no matching close before end of line.
	danglingOpenRe = regexp.MustCompile(`[\[{][^\]}\n]*$`)
)

type classMatcher struct {
	class string
	re    *regexp.Regexp
}

// matchers in priority order; earlier classes never see text already masked
// by a later pass because masking is sequential over the same string.
var matchers = []classMatcher{
	{classDisambiguation, disambiguationRe},
	{classVariable, variableRe},
	{classFormat, braceFormatRe},
	{classTag, tagRe},
	{classFormat, percentFormatRe},
}

// Mask replaces every recognized placeholder with a stable token unique
// within the fragment. Masking already-masked text is a no-op; unterminated
// markers are left as literal text and logged.
func Mask(text string) (string, []Mapping) {
	if text == "" {
		return text, nil
	}

	var mappings []Mapping
	counter := 0
	processed := text

	// Shield escaped brackets so the variable pattern cannot eat them.
	shields := map[string]string{}
	processed = escapedBracketRe.ReplaceAllStringFunc(processed, func(m string) string {
		key := fmt.Sprintf("\x00E%d\x00", len(shields))
		shields[key] = m
		return key
	})

	for _, cm := range matchers {
		for {
			loc := cm.re.FindStringIndex(processed)
			if loc == nil {
				break
			}
			original := processed[loc[0]:loc[1]]
			token := nextToken(processed, text, cm.class, &counter)
			mappings = append(mappings, Mapping{Token: token, Original: original})
			processed = processed[:loc[0]] + token + processed[loc[1]:]
		}
	}

	for key, original := range shields {
		processed = strings.Replace(processed, key, original, 1)
	}

	if danglingOpenRe.MatchString(stripTokens(processed)) {
		log.Warn().Str("text", truncate(text, 60)).Msg("Unterminated placeholder kept as literal text")
	}

	return processed, mappings
}

// nextToken returns a token that collides neither with the current working
// text nor with the original fragment.
func nextToken(processed, original, class string, counter *int) string {
	for {
		token := fmt.Sprintf("⟦%s%03d⟧", class, *counter)
		*counter++
		if !strings.Contains(processed, token) && !strings.Contains(original, token) {
			return token
		}
	}
}

// Unmask substitutes every token back with its original placeholder. Matching
// is case-insensitive because translation engines sometimes re-case the class
// letter; longer tokens are restored first so ⟦V010⟧ is never clipped by
// ⟦V01⟧-style partial matches.
func Unmask(text string, mappings []Mapping) string {
	if text == "" || len(mappings) == 0 {
		return text
	}

	ordered := make([]Mapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Token) > len(ordered[j].Token)
	})

	restored := text
	for _, m := range ordered {
		restored = replaceFold(restored, m.Token, m.Original)
	}
	return restored
}

// Validate reports whether every token is still present in the (possibly
// translated) text. Missing tokens mean the translation destroyed a
// placeholder and the entry needs attention.
func Validate(text string, mappings []Mapping) bool {
	lower := strings.ToLower(text)
	for _, m := range mappings {
		if !strings.Contains(lower, strings.ToLower(m.Token)) {
			log.Warn().Str("token", m.Token).Msg("Placeholder missing after translation")
			return false
		}
	}
	return true
}

// SplitDisambiguation extracts the first inline {#identifier} marker from a
// fragment, returning the fragment unchanged and the bare identifier. The
// marker itself stays in the text; callers fold the tag into the
// translation id.
func SplitDisambiguation(text string) (string, string) {
	m := disambiguationRe.FindString(text)
	if m == "" {
		return text, ""
	}
	return text, strings.TrimSuffix(strings.TrimPrefix(m, "{#"), "}")
}

// replaceFold is a case-insensitive strings.ReplaceAll.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	lower := strings.ToLower(s)
	target := strings.ToLower(old)
	var b strings.Builder
	for {
		idx := strings.Index(lower, target)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		b.WriteString(new)
		s = s[idx+len(old):]
		lower = lower[idx+len(target):]
	}
}

func stripTokens(s string) string {
	return tokenRe.ReplaceAllString(s, "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
