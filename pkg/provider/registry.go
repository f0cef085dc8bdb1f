package provider

import (
	"unicode/utf8"

	"github.com/spellbroker/spellbroker/internal/logger"
)

// InitFunc constructs a provider at load time. Returning an error skips the
// provider without aborting the program; backends whose runtime dependencies
// are missing report that here.
type InitFunc func() (Provider, error)

var registry []InitFunc

// Register records a provider constructor. It is meant to be called from a
// backend package's init function, in the manner of database/sql drivers;
// registration order becomes the broker's default provider order.
func Register(init InitFunc) {
	if init == nil {
		panic("provider: Register called with nil InitFunc")
	}
	registry = append(registry, init)
}

// Load runs every registered constructor and returns the providers that
// initialized cleanly and identify themselves validly. Failures are logged
// and skipped; a broken backend never takes the broker down.
func Load() []Provider {
	lgr := logger.New("provider")

	var providers []Provider
	for _, init := range registry {
		p, err := init()
		if err != nil {
			lgr.Warnf("Skipping provider that failed to initialize: %v", err)
			continue
		}
		if !Valid(p) {
			lgr.Warnf("Skipping provider with invalid identification")
			continue
		}
		providers = append(providers, p)
	}
	return providers
}

// Valid reports whether a provider identifies itself well enough to use:
// non-nil, a non-empty valid-UTF-8 name, and a valid-UTF-8 description.
func Valid(p Provider) bool {
	if p == nil {
		return false
	}
	name := p.Identify()
	if name == "" || !utf8.ValidString(name) {
		return false
	}
	return utf8.ValidString(p.Describe())
}
