package pwl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isAllCaps reports whether word contains at least one upper-case rune and
// no lower-case or title-case runes. "CIA" and "R2D2" qualify; "r2d2" and
// "Cia" do not.
func isAllCaps(word string) bool {
	hasUpper := false
	for _, r := range word {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// isTitleCase reports whether the first rune is upper- or title-cased (and
// already in its title form) while the rest of the word has no upper- or
// title-case runes.
func isTitleCase(word string) bool {
	first := true
	for _, r := range word {
		if first {
			if !unicode.IsUpper(r) && !unicode.IsTitle(r) {
				return false
			}
			if r != unicode.ToTitle(r) {
				return false
			}
			first = false
			continue
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
	}
	return !first
}

// titleCase upper-cases the first rune to its title form and lower-cases
// the rest.
func titleCase(word string) string {
	if word == "" {
		return word
	}
	r, size := utf8.DecodeRuneInString(word)
	return string(unicode.ToTitle(unicode.ToUpper(r))) + strings.ToLower(word[size:])
}

// restoreCase shapes a stored suggestion to the case pattern of the query:
// an ALL-CAPS query upper-cases the suggestion, a Title-Case query
// title-cases it unless the stored word is itself all-caps (an acronym like
// "CIA" stays "CIA"), and any other query surfaces the stored casing as is.
func restoreCase(query, sugg string) string {
	switch {
	case isAllCaps(query):
		return strings.ToUpper(sugg)
	case isTitleCase(query):
		if isAllCaps(sugg) {
			return sugg
		}
		return titleCase(sugg)
	default:
		return sugg
	}
}
