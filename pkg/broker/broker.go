/*
Package broker routes spell-checking requests to pluggable providers. A
Broker owns the loaded providers, per-tag provider ordering, and a
reference-counted cache of open dictionaries; every dictionary it hands out
is a provider dictionary layered under a session with personal and exclude
word lists.
*/
package broker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/spellbroker/spellbroker/internal/logger"
	"github.com/spellbroker/spellbroker/pkg/config"
	"github.com/spellbroker/spellbroker/pkg/provider"
)

var (
	// ErrNoDictionary is returned when no provider can serve a tag.
	ErrNoDictionary = errors.New("no dictionary for language tag")
	// ErrInvalidTag is returned for tags that normalize to something
	// other than ASCII letters, digits and underscores.
	ErrInvalidTag = errors.New("invalid language tag")
)

type dictEntry struct {
	dict *Dict
	refs int
}

// Broker dispatches dictionary requests to providers. Not safe for
// concurrent use; callers serialize access.
type Broker struct {
	providers []provider.Provider
	ordering  map[string][]string
	dicts     map[string]*dictEntry
	cfg       *config.Config
	confDir   string
	lastError string
	log       *log.Logger
}

// New builds a broker over the given providers, or over every registered
// provider when none are given. Invalid providers are skipped with a
// warning. Ordering files are read from the system and then the user config
// directory.
func New(cfg *config.Config, providers ...provider.Provider) *Broker {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	b := &Broker{
		ordering: make(map[string][]string),
		dicts:    make(map[string]*dictEntry),
		cfg:      cfg,
		log:      logger.New("broker"),
	}

	if len(providers) == 0 {
		providers = provider.Load()
	}
	for _, p := range providers {
		if !provider.Valid(p) {
			b.log.Warnf("Skipping provider with invalid identification")
			continue
		}
		b.providers = append(b.providers, p)
	}

	confDir, err := cfg.ResolveUserConfigDir()
	if err != nil {
		b.log.Warnf("No usable config directory, word lists will not persist: %v", err)
	}
	b.confDir = confDir
	b.loadOrderings(cfg.Broker.SystemConfigDir, confDir)
	return b
}

// Error returns a description of the last failed broker operation, or "".
// Any successful operation clears it.
func (b *Broker) Error() string {
	return b.lastError
}

func (b *Broker) clearError() {
	b.lastError = ""
}

func (b *Broker) fail(err error) error {
	b.lastError = err.Error()
	return err
}

// RequestDict opens a dictionary for a language tag. Repeated requests for
// the same tag return the same handle; each request must be balanced by a
// FreeDict. When no provider serves the exact tag, the bare language code
// is tried before giving up.
func (b *Broker) RequestDict(tag string) (*Dict, error) {
	b.clearError()

	normTag := NormalizeTag(tag)
	if !validTag(normTag) {
		return nil, b.fail(fmt.Errorf("%w: %q", ErrInvalidTag, tag))
	}

	if entry, ok := b.dicts[normTag]; ok {
		entry.refs++
		return entry.dict, nil
	}

	dict := b.openProviderDict(normTag)
	if dict == nil {
		if fallback := iso639(normTag); fallback != normTag {
			return b.RequestDict(fallback)
		}
		return nil, b.fail(fmt.Errorf("%w: %q", ErrNoDictionary, normTag))
	}

	b.dicts[normTag] = &dictEntry{dict: dict, refs: 1}
	return dict, nil
}

func (b *Broker) openProviderDict(normTag string) *Dict {
	for _, p := range b.orderedProviders(normTag) {
		provDict, err := p.RequestDict(normTag)
		if err != nil {
			b.log.Debugf("Provider %s has no dictionary for %s: %v", p.Identify(), normTag, err)
			continue
		}
		return &Dict{
			session: newSession(normTag, b.confDir, p, provDict, b.log),
			key:     normTag,
		}
	}
	return nil
}

// RequestPWLDict opens a provider-less dictionary backed directly by the
// word list file at path: every word in the file is correct, everything
// else is misspelled, and suggestions come from fuzzy matches in the file.
func (b *Broker) RequestPWLDict(path string) (*Dict, error) {
	b.clearError()

	key := "pwl\x00" + path
	if entry, ok := b.dicts[key]; ok {
		entry.refs++
		return entry.dict, nil
	}

	session, err := newPWLSession("personal", path)
	if err != nil {
		return nil, b.fail(err)
	}
	dict := &Dict{
		session: session,
		key:     key,
	}
	b.dicts[key] = &dictEntry{dict: dict, refs: 1}
	return dict, nil
}

// RequestDictWithPWL opens a provider dictionary for tag whose personal word
// list is the file at path instead of the user's default list.
func (b *Broker) RequestDictWithPWL(tag, path string) (*Dict, error) {
	b.clearError()

	normTag := NormalizeTag(tag)
	if !validTag(normTag) {
		return nil, b.fail(fmt.Errorf("%w: %q", ErrInvalidTag, tag))
	}

	key := normTag + "\x00" + path
	if entry, ok := b.dicts[key]; ok {
		entry.refs++
		return entry.dict, nil
	}

	dict := b.openProviderDict(normTag)
	if dict == nil {
		if fallback := iso639(normTag); fallback != normTag {
			return b.RequestDictWithPWL(fallback, path)
		}
		return nil, b.fail(fmt.Errorf("%w: %q", ErrNoDictionary, normTag))
	}
	personal, err := newPWLSession(normTag, path)
	if err != nil {
		dict.session.dispose()
		return nil, b.fail(err)
	}
	dict.session.personal = personal.personal
	dict.key = key

	b.dicts[key] = &dictEntry{dict: dict, refs: 1}
	return dict, nil
}

// FreeDict releases a dictionary handle. The dictionary is kept open while
// other requests still hold it; the last release disposes the provider
// dictionary.
func (b *Broker) FreeDict(d *Dict) {
	b.clearError()
	if d == nil {
		return
	}
	entry, ok := b.dicts[d.key]
	if !ok || entry.dict != d {
		b.log.Warnf("FreeDict called with a dictionary this broker does not own")
		return
	}
	entry.refs--
	if entry.refs > 0 {
		return
	}
	delete(b.dicts, d.key)
	d.session.dispose()
}

// DictExists reports whether any provider could serve tag, preferring cheap
// existence checks over opening a dictionary. The bare language code is
// tried when the full tag fails.
func (b *Broker) DictExists(tag string) bool {
	b.clearError()

	normTag := NormalizeTag(tag)
	if !validTag(normTag) {
		return false
	}
	if b.dictExists(normTag) {
		return true
	}
	if fallback := iso639(normTag); fallback != normTag {
		return b.dictExists(fallback)
	}
	return false
}

func (b *Broker) dictExists(normTag string) bool {
	if _, ok := b.dicts[normTag]; ok {
		return true
	}
	for _, p := range b.orderedProviders(normTag) {
		if ec, ok := p.(provider.ExistenceChecker); ok {
			if ec.DictExists(normTag) {
				return true
			}
			continue
		}
		if dl, ok := p.(provider.DictLister); ok {
			found := false
			for _, tag := range dl.ListDicts() {
				if NormalizeTag(tag) == normTag {
					found = true
					break
				}
			}
			if found {
				return true
			}
			continue
		}
		if dict, err := p.RequestDict(normTag); err == nil {
			p.DisposeDict(dict)
			return true
		}
	}
	return false
}

// ListDicts reports every language tag some provider can serve, once per
// distinct tag in sorted order, naming the provider that would win the tag
// under the current ordering.
func (b *Broker) ListDicts(fn func(tag, providerName, providerDesc string)) {
	b.clearError()
	if fn == nil {
		return
	}

	listed := make(map[string]map[string]bool)
	for _, p := range b.providers {
		dl, ok := p.(provider.DictLister)
		if !ok {
			continue
		}
		for _, tag := range dl.ListDicts() {
			normTag := NormalizeTag(tag)
			if !validTag(normTag) {
				b.log.Warnf("Provider %s lists invalid tag %q", p.Identify(), tag)
				continue
			}
			if listed[normTag] == nil {
				listed[normTag] = make(map[string]bool)
			}
			listed[normTag][p.Identify()] = true
		}
	}

	tags := make([]string, 0, len(listed))
	for tag := range listed {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		for _, p := range b.orderedProviders(tag) {
			if listed[tag][p.Identify()] {
				fn(tag, p.Identify(), p.Describe())
				break
			}
		}
	}
}

// Describe reports every loaded provider to fn in registration order.
func (b *Broker) Describe(fn func(name, desc string)) {
	b.clearError()
	if fn == nil {
		return
	}
	for _, p := range b.providers {
		fn(p.Identify(), p.Describe())
	}
}

// Close disposes every cached dictionary and shuts providers down. Cached
// dictionaries still held by callers at this point are a leak; they are
// force-disposed with a warning.
func (b *Broker) Close() {
	b.clearError()

	if len(b.dicts) > 0 {
		b.log.Warnf("Closing broker with %d dictionaries still open", len(b.dicts))
	}
	for key, entry := range b.dicts {
		entry.dict.session.dispose()
		delete(b.dicts, key)
	}
	for _, p := range b.providers {
		if disposer, ok := p.(provider.Disposer); ok {
			disposer.Dispose()
		}
	}
}
