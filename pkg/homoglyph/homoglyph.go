package homoglyph

import (
	"strings"

	"github.com/picatz/homoglyphr"
)

// GetHomoglyphMap returns a map from every character related to a latin letter to that letter
func GetHomoglyphMap() map[string]string {
	alphabet := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z"}
	homoglyph := map[string]string{}
	for _, letter := range alphabet {
		for i := range homoglyphr.StreamAllRelatedCharacters(letter) {
			if _, ok := homoglyph[i]; ok {
				continue
			}
			homoglyph[i] = letter
		}
	}
	// latin letters always map to themselves
	for _, letter := range alphabet {
		homoglyph[letter] = letter
	}
	return homoglyph
}

// ReplaceHomoglyph replaces every known homoglyph in s by its latin letter
func ReplaceHomoglyph(s string, homoglyphs map[string]string) string {
	var b strings.Builder
	for _, r := range s {
		if l, ok := homoglyphs[string(r)]; ok {
			b.WriteString(l)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
