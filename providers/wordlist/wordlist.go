/*
Package wordlist is a spelling provider over plain word-list files: a
dictionary directory holds one <tag>.txt file per language, one word per
line. Exact lookups go through a patricia trie; suggestions come from a
fuzzy model trained on the same words. It is the reference in-tree provider
and the backend the IPC server registers by default.
*/
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sajari/fuzzy"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/spellbroker/spellbroker/internal/logger"
	"github.com/spellbroker/spellbroker/pkg/provider"
)

const (
	fuzzyDepth     = 2
	fuzzyThreshold = 1
	maxSuggestions = 10
)

// Provider serves dictionaries from a directory of <tag>.txt files.
type Provider struct {
	dir string
	log *log.Logger
}

// New returns a provider over the word lists in dir.
func New(dir string) *Provider {
	return &Provider{dir: dir, log: logger.New("wordlist")}
}

// Register records a wordlist provider over dir in the global provider
// registry, for brokers constructed without explicit providers.
func Register(dir string) {
	provider.Register(func() (provider.Provider, error) {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("wordlist dictionary dir: %w", err)
		}
		return New(dir), nil
	})
}

func (p *Provider) Identify() string { return "wordlist" }

func (p *Provider) Describe() string { return "plain word-list dictionaries" }

func (p *Provider) path(tag string) string {
	return filepath.Join(p.dir, tag+".txt")
}

// DictExists reports whether a word list for tag is present.
func (p *Provider) DictExists(tag string) bool {
	_, err := os.Stat(p.path(tag))
	return err == nil
}

// ListDicts returns the tags of every word list in the directory.
func (p *Provider) ListDicts() []string {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		p.log.Warnf("Cannot read dictionary dir %s: %v", p.dir, err)
		return nil
	}
	var tags []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		tags = append(tags, strings.TrimSuffix(name, ".txt"))
	}
	return tags
}

// RequestDict loads the word list for tag into a dictionary: a patricia
// trie for lookups and a fuzzy model for suggestions.
func (p *Provider) RequestDict(tag string) (provider.Dict, error) {
	path := p.path(tag)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list for %s: %w", tag, err)
	}
	defer f.Close()

	model := fuzzy.NewModel()
	model.SetDepth(fuzzyDepth)
	model.SetThreshold(fuzzyThreshold)

	dict := &Dict{
		tag:   tag,
		file:  path,
		words: patricia.NewTrie(),
		model: model,
	}

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		dict.words.Insert(patricia.Prefix(word), true)
		model.TrainWord(strings.ToLower(word))
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list for %s: %w", tag, err)
	}
	p.log.Debugf("Loaded %d words for %s from %s", count, tag, path)
	return dict, nil
}

// DisposeDict releases a dictionary. Nothing is held beyond memory.
func (p *Provider) DisposeDict(provider.Dict) {}

// Dict is one loaded word list.
type Dict struct {
	tag   string
	file  string
	words *patricia.Trie
	model *fuzzy.Model
}

func (d *Dict) Tag() string { return d.tag }

// File returns the word-list file this dictionary was loaded from.
func (d *Dict) File() string { return d.file }

// Check reports whether word appears in the list, as written or
// lower-cased.
func (d *Dict) Check(word string) (bool, error) {
	if d.words.Get(patricia.Prefix(word)) != nil {
		return true, nil
	}
	if lower := strings.ToLower(word); lower != word {
		if d.words.Get(patricia.Prefix(lower)) != nil {
			return true, nil
		}
	}
	return false, nil
}

// Suggest returns fuzzy-model corrections for word, lower-cased.
func (d *Dict) Suggest(word string) []string {
	return d.model.SpellCheckSuggestions(strings.ToLower(word), maxSuggestions)
}
