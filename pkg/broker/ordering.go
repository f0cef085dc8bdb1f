package broker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/spellbroker/spellbroker/pkg/provider"
)

const orderingFile = "spellbroker.ordering"

// loadOrderings reads provider-ordering files from the system config dir and
// then the user config dir, later files overriding earlier ones per tag.
// Each line is "language_tag:comma,separated,provider,names"; "*" sets the
// default for all tags. Malformed lines are skipped with a warning.
func (b *Broker) loadOrderings(dirs ...string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		b.loadOrderingFile(filepath.Join(dir, orderingFile))
	}
}

func (b *Broker) loadOrderingFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		// Ordering files are optional.
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tag, list, ok := strings.Cut(line, ":")
		if !ok {
			b.log.Warnf("Skipping malformed ordering line %d in %s", lineno, path)
			continue
		}
		b.setOrdering(strings.TrimSpace(tag), list)
	}
	if err := scanner.Err(); err != nil {
		b.log.Warnf("Failed to read ordering file %s: %v", path, err)
	}
}

// SetOrdering declares the preferred provider order for a tag, or for every
// tag when tag is "*". The list is comma-separated provider names.
func (b *Broker) SetOrdering(tag, providerList string) {
	b.clearError()
	b.setOrdering(tag, providerList)
}

func (b *Broker) setOrdering(tag, providerList string) {
	if tag != "*" {
		tag = NormalizeTag(tag)
		if !validTag(tag) {
			b.log.Warnf("Ignoring ordering for invalid tag %q", tag)
			return
		}
	}
	var names []string
	for _, name := range strings.Split(providerList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	b.ordering[tag] = names
}

// orderedProviders resolves the providers to try for a tag: the tag's own
// ordering, else the "*" ordering, else registration order. Names that match
// no loaded provider are skipped; loaded providers the ordering does not
// mention are appended in registration order.
func (b *Broker) orderedProviders(tag string) []provider.Provider {
	names, ok := b.ordering[tag]
	if !ok {
		names, ok = b.ordering["*"]
	}
	if !ok {
		return b.providers
	}

	byName := make(map[string]provider.Provider, len(b.providers))
	for _, p := range b.providers {
		byName[p.Identify()] = p
	}

	ordered := make([]provider.Provider, 0, len(b.providers))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := byName[name]
		if !ok {
			b.log.Warnf("Ordering for %q names unknown provider %q", tag, name)
			continue
		}
		ordered = append(ordered, p)
	}
	for _, p := range b.providers {
		if !seen[p.Identify()] {
			ordered = append(ordered, p)
		}
	}
	return ordered
}
