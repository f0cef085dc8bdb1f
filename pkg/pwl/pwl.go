// Package pwl implements the personal word list: a file-backed (or purely
// in-memory) set of user words over a fuzzy-matching trie. Stored words are
// keyed by their NFD normalization, with a side table preserving the original
// casing so suggestions surface the way the user wrote them. The backing file
// is re-read whenever its modification time changes, so edits made by other
// processes are picked up before every operation.
package pwl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"golang.org/x/text/unicode/norm"

	"github.com/spellbroker/spellbroker/internal/logger"
	"github.com/spellbroker/spellbroker/pkg/trie"
)

const (
	// MaxSuggestDistance caps how far a fuzzy suggestion may stray from
	// the query when no better reference bound is available.
	MaxSuggestDistance = 3
	// MaxSuggestions caps how many suggestions a single lookup returns.
	MaxSuggestions = 15
)

const utf8BOM = "\uFEFF"

// WordList is a personal word list. Not safe for concurrent use by multiple
// goroutines; the file lock only guards against other processes.
type WordList struct {
	path   string
	mtime  time.Time
	loaded bool
	words  *trie.Trie
	stored map[string]string // NFD form -> original casing
	log    *log.Logger
}

// New returns an empty in-memory word list with no backing file.
func New() *WordList {
	return &WordList{
		words:  trie.New(),
		stored: make(map[string]string),
		log:    logger.New("pwl"),
	}
}

// Open returns a word list backed by the file at path, creating the file if
// it does not exist. Loading is deferred to the first operation.
func Open(path string) (*WordList, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", path, err)
	}
	f.Close()

	w := New()
	w.path = path
	return w, nil
}

// Path returns the backing file path, or "" for an in-memory list.
func (w *WordList) Path() string {
	return w.path
}

// Len returns the number of stored words after refreshing from disk.
func (w *WordList) Len() int {
	w.refresh()
	return w.words.Len()
}

// Check reports whether word is in the list. Beyond the exact match, a
// Title-Case or ALL-CAPS query also matches its lower-cased form, and an
// ALL-CAPS query additionally matches its Title-Case form: storing "eric"
// makes "Eric" and "ERIC" known too.
func (w *WordList) Check(word string) bool {
	w.refresh()

	key := norm.NFD.String(word)
	if w.words.Contains(key) {
		return true
	}
	allCaps := isAllCaps(word)
	if allCaps || isTitleCase(word) {
		if w.words.Contains(strings.ToLower(key)) {
			return true
		}
	}
	if allCaps {
		if w.words.Contains(norm.NFD.String(titleCase(word))) {
			return true
		}
	}
	return false
}

// Add inserts word into the list and, for a file-backed list, appends it to
// the backing file under an exclusive lock.
func (w *WordList) Add(word string) error {
	w.refresh()
	w.insert(word)

	if w.path == "" {
		return nil
	}

	lock := flock.New(w.path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking word list %s: %w", w.path, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(w.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening word list %s: %w", w.path, err)
	}
	defer f.Close()

	// Hand-edited files may lack a trailing newline.
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			if _, err := f.WriteAt([]byte("\n"), info.Size()); err != nil {
				return fmt.Errorf("writing word list %s: %w", w.path, err)
			}
		}
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking word list %s: %w", w.path, err)
	}
	if _, err := f.WriteString(word + "\n"); err != nil {
		return fmt.Errorf("writing word list %s: %w", w.path, err)
	}

	w.noteMtime()
	return nil
}

// Remove deletes word from the list. Removing an absent word is a no-op and
// never touches the file. For a file-backed list, every line that spells
// word exactly is excised from the file under the lock.
func (w *WordList) Remove(word string) error {
	w.refresh()
	if !w.Check(word) {
		return nil
	}

	key := norm.NFD.String(word)
	w.words.Remove(key)
	delete(w.stored, key)

	if w.path == "" {
		return nil
	}

	lock := flock.New(w.path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking word list %s: %w", w.path, err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("reading word list %s: %w", w.path, err)
	}

	var out bytes.Buffer
	rest := data
	if bytes.HasPrefix(rest, []byte(utf8BOM)) {
		out.WriteString(utf8BOM)
		rest = rest[len(utf8BOM):]
	}
	for _, line := range bytes.SplitAfter(rest, []byte("\n")) {
		text := strings.TrimRight(string(line), "\r\n")
		if text == word {
			continue
		}
		out.Write(line)
	}

	if err := os.WriteFile(w.path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing word list %s: %w", w.path, err)
	}

	w.noteMtime()
	return nil
}

type match struct {
	word string
	dist int
}

// Suggest returns up to MaxSuggestions stored words near word, ordered by
// ascending edit distance. When refSuggs is non-empty, the search is bounded
// by the best distance any reference suggestion already achieves, so the
// list only contributes suggestions at least as good as what the caller has.
// Results carry their stored casing, adjusted to the query's case pattern.
func (w *WordList) Suggest(word string, refSuggs []string) []string {
	w.refresh()

	key := norm.NFD.String(word)
	bound := MaxSuggestDistance
	for _, ref := range refSuggs {
		if d := trie.Distance(key, norm.NFD.String(ref), trie.CaseInsensitive); d < bound {
			bound = d
		}
	}

	var found []match
	w.words.FindMatches(key, bound, trie.CaseInsensitive, func(stored string, dist int) {
		found = append(found, match{word: stored, dist: dist})
	})
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].dist < found[j].dist
	})
	if len(found) > MaxSuggestions {
		found = found[:MaxSuggestions]
	}

	suggs := make([]string, 0, len(found))
	for _, m := range found {
		original, ok := w.stored[m.word]
		if !ok {
			original = m.word
		}
		suggs = append(suggs, restoreCase(word, original))
	}
	return suggs
}

func (w *WordList) insert(word string) {
	key := norm.NFD.String(word)
	w.words.Insert(key)
	if _, ok := w.stored[key]; !ok {
		w.stored[key] = word
	}
}

// refresh reloads the word list from disk when the backing file's
// modification time has changed since the last load.
func (w *WordList) refresh() {
	if w.path == "" {
		return
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}
	if w.loaded && info.ModTime().Equal(w.mtime) {
		return
	}

	w.words = trie.New()
	w.stored = make(map[string]string)
	w.loaded = true
	w.mtime = info.ModTime()

	f, err := os.Open(w.path)
	if err != nil {
		w.log.Warnf("Failed to open word list %s: %v", w.path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if lineno == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !utf8.ValidString(line) {
			w.log.Warnf("Skipping invalid UTF-8 on line %d of %s", lineno, w.path)
			continue
		}
		w.insert(line)
	}
	if err := scanner.Err(); err != nil {
		w.log.Warnf("Failed to read word list %s: %v", w.path, err)
	}
}

// noteMtime records the backing file's post-write modification time so the
// next operation does not rebuild what we just wrote.
func (w *WordList) noteMtime() {
	if info, err := os.Stat(w.path); err == nil {
		w.mtime = info.ModTime()
		w.loaded = true
	}
}
