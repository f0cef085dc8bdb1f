package broker

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/spellbroker/spellbroker/pkg/provider"
)

var (
	// ErrInvalidWord is returned when a word argument is empty or not
	// valid UTF-8.
	ErrInvalidWord = errors.New("invalid word")
	// ErrNoCapability is returned when the underlying provider dictionary
	// cannot perform the requested operation.
	ErrNoCapability = errors.New("dictionary does not support this operation")
)

// Dict is a spell-checking dictionary handle: a provider dictionary wrapped
// in a session, or a pure word-list dictionary. Handles are obtained from a
// Broker and returned to it with FreeDict. Not safe for concurrent use.
type Dict struct {
	session   *session
	key       string
	lastError string
}

// Tag returns the normalized language tag this dictionary was opened for.
func (d *Dict) Tag() string {
	return d.session.tag
}

// Error returns a description of the last failed operation on this
// dictionary, or "". Any successful operation clears it. Argument errors
// (empty or malformed words) are reported in the return value only and
// neither set nor clear it.
func (d *Dict) Error() string {
	return d.lastError
}

func (d *Dict) clearError() {
	d.lastError = ""
}

func (d *Dict) fail(err error) error {
	d.lastError = err.Error()
	return err
}

func validWord(word string) error {
	if word == "" || !utf8.ValidString(word) {
		return ErrInvalidWord
	}
	return nil
}

// Check reports whether word is spelled correctly. Exclusion wins over
// everything except an explicit session include: a word on the exclude list
// is misspelled even when the provider knows it. Session and personal-list
// words are correct without consulting the provider.
func (d *Dict) Check(word string) (bool, error) {
	if err := validWord(word); err != nil {
		return false, err
	}
	d.clearError()

	if d.session.isExcluded(word) {
		return false, nil
	}
	if d.session.contains(word) {
		return true, nil
	}
	if checker, ok := d.session.provDict.(provider.Checker); ok {
		correct, err := checker.Check(word)
		if err != nil {
			return false, d.fail(err)
		}
		return correct, nil
	}
	if d.session.prov == nil {
		// Pure word-list dictionary: not in the list means misspelled.
		return false, nil
	}
	return false, d.fail(ErrNoCapability)
}

// Suggest returns corrections for word: the provider's suggestions first,
// in the provider's order, then personal-list matches at least as close to
// word as the best provider suggestion. Candidates that are excluded or not
// valid UTF-8 are dropped, and duplicates are detected on the NFD form, so
// a composed and a decomposed spelling of the same correction surface once.
func (d *Dict) Suggest(word string) ([]string, error) {
	if err := validWord(word); err != nil {
		return nil, err
	}
	d.clearError()

	var dictSuggs []string
	if suggester, ok := d.session.provDict.(provider.Suggester); ok {
		for _, sugg := range suggester.Suggest(word) {
			if sugg == "" || !utf8.ValidString(sugg) || d.session.isExcluded(sugg) {
				continue
			}
			dictSuggs = append(dictSuggs, sugg)
		}
	}

	var pwlSuggs []string
	for _, sugg := range d.session.personal.Suggest(word, dictSuggs) {
		if d.session.isExcluded(sugg) {
			continue
		}
		pwlSuggs = append(pwlSuggs, sugg)
	}

	seen := make(map[string]bool, len(dictSuggs)+len(pwlSuggs))
	merged := make([]string, 0, len(dictSuggs)+len(pwlSuggs))
	for _, sugg := range append(dictSuggs, pwlSuggs...) {
		key := norm.NFD.String(sugg)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sugg)
	}
	return merged, nil
}

// Add puts word on the personal list durably and lifts any exclusion, so a
// previously removed word becomes correct again. Forwarded to the provider's
// own personal list when it keeps one.
func (d *Dict) Add(word string) error {
	if err := validWord(word); err != nil {
		return err
	}
	d.clearError()

	d.session.addToSession(word)
	if err := d.session.personal.Add(word); err != nil {
		return d.fail(err)
	}
	if err := d.session.exclude.Remove(word); err != nil {
		return d.fail(err)
	}
	if pa, ok := d.session.provDict.(provider.PersonalAware); ok {
		pa.AddToPersonal(word)
	}
	return nil
}

// Remove puts word on the exclude list durably and takes it off the
// personal list, so it is reported misspelled from now on.
func (d *Dict) Remove(word string) error {
	if err := validWord(word); err != nil {
		return err
	}
	d.clearError()

	d.session.removeFromSession(word)
	if err := d.session.personal.Remove(word); err != nil {
		return d.fail(err)
	}
	if err := d.session.exclude.Add(word); err != nil {
		return d.fail(err)
	}
	if pa, ok := d.session.provDict.(provider.PersonalAware); ok {
		pa.AddToExclude(word)
	}
	return nil
}

// AddToSession accepts word for the lifetime of this dictionary handle only;
// nothing is written to disk.
func (d *Dict) AddToSession(word string) error {
	if err := validWord(word); err != nil {
		return err
	}
	d.clearError()

	d.session.addToSession(word)
	if sa, ok := d.session.provDict.(provider.SessionAware); ok {
		sa.AddToSession(word)
	}
	return nil
}

// RemoveFromSession rejects word for the lifetime of this dictionary handle
// only; nothing is written to disk and the provider is not told.
func (d *Dict) RemoveFromSession(word string) error {
	if err := validWord(word); err != nil {
		return err
	}
	d.clearError()

	d.session.removeFromSession(word)
	return nil
}

// IsAdded reports whether this session vouches for word (session include or
// personal list).
func (d *Dict) IsAdded(word string) bool {
	if validWord(word) != nil {
		return false
	}
	return d.session.contains(word)
}

// IsRemoved reports whether word is currently excluded.
func (d *Dict) IsRemoved(word string) bool {
	if validWord(word) != nil {
		return false
	}
	return d.session.isExcluded(word)
}

// StoreReplacement records that the user corrected misspelled to correction.
// Purely advisory: engines that track replacements may bias future
// suggestions, everyone else ignores it.
func (d *Dict) StoreReplacement(misspelled, correction string) error {
	if err := validWord(misspelled); err != nil {
		return err
	}
	if err := validWord(correction); err != nil {
		return err
	}
	d.clearError()

	if r, ok := d.session.provDict.(provider.Replacer); ok {
		r.StoreReplacement(misspelled, correction)
	}
	return nil
}

// ExtraWordCharacters returns characters the engine considers part of a
// word beyond letters, e.g. "'" for English contractions.
func (d *Dict) ExtraWordCharacters() string {
	if wc, ok := d.session.provDict.(provider.WordCharer); ok {
		return wc.ExtraWordCharacters()
	}
	return ""
}

// IsWordCharacter reports whether r may appear in a word at the given
// position (0 start, 1 middle, 2 end). Without engine support, letters are
// word characters anywhere and an apostrophe only word-internally.
func (d *Dict) IsWordCharacter(r rune, position int) bool {
	if wc, ok := d.session.provDict.(provider.WordCharer); ok {
		return wc.IsWordCharacter(r, position)
	}
	if unicode.IsLetter(r) {
		return true
	}
	return position == 1 && r == '\''
}

// Describe reports the dictionary's tag and provider to fn. A pure
// word-list dictionary reports provider name "personal" and its file path.
func (d *Dict) Describe(fn func(tag, providerName, providerDesc, file string)) {
	if fn == nil {
		return
	}
	if d.session.prov != nil {
		file := ""
		if fr, ok := d.session.provDict.(provider.FileReporter); ok {
			file = fr.File()
		}
		fn(d.session.tag, d.session.prov.Identify(), d.session.prov.Describe(), file)
		return
	}
	fn(d.session.tag, "personal", "personal word list", d.session.personal.Path())
}
