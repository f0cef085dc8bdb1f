package broker

import "strings"

// NormalizeTag canonicalizes a language tag: any "@variant" and ".encoding"
// suffix is stripped, "-" becomes "_", the part before the first "_" is
// lower-cased and the part after it upper-cased. "EN-gb.UTF-8@euro" becomes
// "en_GB". Pure string transform, no validation.
func NormalizeTag(tag string) string {
	if i := strings.IndexByte(tag, '@'); i >= 0 {
		tag = tag[:i]
	}
	if i := strings.IndexByte(tag, '.'); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "-", "_")
	if i := strings.IndexByte(tag, '_'); i >= 0 {
		return strings.ToLower(tag[:i]) + "_" + strings.ToUpper(tag[i+1:])
	}
	return strings.ToLower(tag)
}

// validTag reports whether a normalized tag is usable: non-empty and made of
// ASCII letters, digits and underscores only.
func validTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// iso639 returns the bare language part of a tag ("en_GB" -> "en"), used as
// a fallback when no provider serves the full tag.
func iso639(tag string) string {
	if i := strings.IndexByte(tag, '_'); i >= 0 {
		return tag[:i]
	}
	return tag
}
