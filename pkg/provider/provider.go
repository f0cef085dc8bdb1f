// Package provider defines the boundary between the broker and backend
// spelling engines. A backend implements Provider plus whichever optional
// capability interfaces it supports; the broker discovers capabilities with
// type assertions and degrades gracefully when one is missing.
package provider

// Provider is the minimal surface a spelling backend must implement.
type Provider interface {
	// Identify returns the provider's short name, used in ordering
	// directives ("aspell", "wordlist", ...). Must be stable.
	Identify() string
	// Describe returns a human-readable description of the provider.
	Describe() string
	// RequestDict opens a dictionary for a normalized language tag.
	RequestDict(tag string) (Dict, error)
	// DisposeDict releases a dictionary previously returned by RequestDict.
	DisposeDict(dict Dict)
}

// Dict is a raw dictionary handle produced by a provider. Session layering,
// personal word lists and result merging happen above this interface.
type Dict interface {
	Tag() string
}

// Checker is implemented by dictionaries that can spell-check a word.
type Checker interface {
	Check(word string) (bool, error)
}

// Suggester is implemented by dictionaries that can propose corrections.
type Suggester interface {
	Suggest(word string) []string
}

// SessionAware dictionaries are told about words added to or removed from
// the current session, so the engine can adapt (tokenizers, caches).
type SessionAware interface {
	AddToSession(word string)
	RemoveFromSession(word string)
}

// PersonalAware dictionaries keep their own durable personal and exclude
// lists alongside the broker's.
type PersonalAware interface {
	AddToPersonal(word string)
	AddToExclude(word string)
}

// Replacer records a misspelling->correction pair the user accepted.
// Engines may use it to bias future suggestions; most ignore it.
type Replacer interface {
	StoreReplacement(misspelled, correction string)
}

// WordCharer exposes the engine's idea of what belongs inside a word.
// Position is 0 at the start of a word, 1 in the middle, 2 at the end.
type WordCharer interface {
	ExtraWordCharacters() string
	IsWordCharacter(r rune, position int) bool
}

// DictLister is implemented by providers that can enumerate the language
// tags they could serve.
type DictLister interface {
	ListDicts() []string
}

// ExistenceChecker is implemented by providers that can answer "do you have
// this tag" cheaper than opening the dictionary.
type ExistenceChecker interface {
	DictExists(tag string) bool
}

// FileReporter is implemented by dictionaries backed by a file the caller
// may want to show (the personal word list path, typically).
type FileReporter interface {
	File() string
}

// Disposer is implemented by providers that hold resources beyond their
// dictionaries and need a shutdown call.
type Disposer interface {
	Dispose()
}
