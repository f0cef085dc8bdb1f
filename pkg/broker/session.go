package broker

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/spellbroker/spellbroker/pkg/provider"
	"github.com/spellbroker/spellbroker/pkg/pwl"
)

// session is the per-dictionary runtime state: session-only include and
// exclude sets (disjoint, in-memory), the durable personal and exclude word
// lists, and the provider dictionary being wrapped (nil for a pure word-list
// dictionary). A word's effective status is always computed from these,
// never cached.
type session struct {
	tag      string
	prov     provider.Provider
	provDict provider.Dict
	personal *pwl.WordList
	exclude  *pwl.WordList
	include  map[string]struct{}
	excluded map[string]struct{}
}

// newSession builds a session for tag backed by the user's default word-list
// files in confDir (<tag>.dic and <tag>.exc). A word-list file that cannot
// be opened degrades to an in-memory list with a warning rather than failing
// the dictionary request.
func newSession(tag, confDir string, prov provider.Provider, provDict provider.Dict, lgr *log.Logger) *session {
	s := &session{
		tag:      tag,
		prov:     prov,
		provDict: provDict,
		include:  make(map[string]struct{}),
		excluded: make(map[string]struct{}),
	}
	if confDir == "" {
		s.personal = pwl.New()
		s.exclude = pwl.New()
		return s
	}
	s.personal = openList(filepath.Join(confDir, tag+".dic"), lgr)
	s.exclude = openList(filepath.Join(confDir, tag+".exc"), lgr)
	return s
}

// newPWLSession builds a provider-less session backed directly by the word
// list at path. The exclude list is in-memory only.
func newPWLSession(tag, path string) (*session, error) {
	personal, err := pwl.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requesting word-list dictionary: %w", err)
	}
	return &session{
		tag:      tag,
		personal: personal,
		exclude:  pwl.New(),
		include:  make(map[string]struct{}),
		excluded: make(map[string]struct{}),
	}, nil
}

func openList(path string, lgr *log.Logger) *pwl.WordList {
	w, err := pwl.Open(path)
	if err != nil {
		lgr.Warnf("Falling back to in-memory word list: %v", err)
		return pwl.New()
	}
	return w
}

// contains reports whether the session itself vouches for word: added this
// session, or in the personal list and not shadowed by the exclude list.
func (s *session) contains(word string) bool {
	if _, ok := s.include[word]; ok {
		return true
	}
	return s.personal.Check(word) && !s.exclude.Check(word)
}

// isExcluded reports whether word is excluded. A session-include entry
// always wins over any exclusion.
func (s *session) isExcluded(word string) bool {
	if _, ok := s.include[word]; ok {
		return false
	}
	if _, ok := s.excluded[word]; ok {
		return true
	}
	return s.exclude.Check(word)
}

// addToSession includes word for the rest of this session. The include and
// exclude sets stay disjoint.
func (s *session) addToSession(word string) {
	delete(s.excluded, word)
	s.include[word] = struct{}{}
}

// removeFromSession excludes word for the rest of this session.
func (s *session) removeFromSession(word string) {
	delete(s.include, word)
	s.excluded[word] = struct{}{}
}

func (s *session) dispose() {
	if s.prov != nil && s.provDict != nil {
		s.prov.DisposeDict(s.provDict)
	}
}
