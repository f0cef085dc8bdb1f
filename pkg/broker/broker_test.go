package broker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spellbroker/spellbroker/pkg/config"
	"github.com/spellbroker/spellbroker/pkg/provider"
)

type fakeDict struct {
	tag   string
	known map[string]bool
	suggs map[string][]string
}

func (d *fakeDict) Tag() string { return d.tag }

func (d *fakeDict) Check(word string) (bool, error) {
	return d.known[word], nil
}

func (d *fakeDict) Suggest(word string) []string {
	return d.suggs[word]
}

type fakeProvider struct {
	name     string
	tags     []string
	known    map[string]bool
	suggs    map[string][]string
	requests []string
	disposed int
}

func (p *fakeProvider) Identify() string { return p.name }
func (p *fakeProvider) Describe() string { return p.name + " fake engine" }

func (p *fakeProvider) RequestDict(tag string) (provider.Dict, error) {
	p.requests = append(p.requests, tag)
	for _, t := range p.tags {
		if t == tag {
			return &fakeDict{tag: tag, known: p.known, suggs: p.suggs}, nil
		}
	}
	return nil, fmt.Errorf("no dictionary for %s", tag)
}

func (p *fakeProvider) DisposeDict(provider.Dict) { p.disposed++ }

func (p *fakeProvider) ListDicts() []string { return p.tags }

// bareDict deliberately implements none of the optional capabilities.
type bareDict struct{ tag string }

func (d *bareDict) Tag() string { return d.tag }

// bareProvider has no DictLister either, so existence checks must fall back
// to opening a dictionary.
type bareProvider struct {
	tags     []string
	disposed int
}

func (p *bareProvider) Identify() string { return "bare" }
func (p *bareProvider) Describe() string { return "capability-free engine" }

func (p *bareProvider) RequestDict(tag string) (provider.Dict, error) {
	for _, t := range p.tags {
		if t == tag {
			return &bareDict{tag: tag}, nil
		}
	}
	return nil, errors.New("no such dictionary")
}

func (p *bareProvider) DisposeDict(provider.Dict) { p.disposed++ }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Broker.UserConfigDir = t.TempDir()
	cfg.Broker.SystemConfigDir = ""
	return cfg
}

func englishProvider() *fakeProvider {
	return &fakeProvider{
		name:  "english",
		tags:  []string{"en", "en_US", "en_GB"},
		known: map[string]bool{"banana": true, "hello": true},
		suggs: map[string][]string{"x": {"b", "a"}},
	}
}

func TestRequestDictNormalizesTag(t *testing.T) {
	p := englishProvider()
	b := New(testConfig(t), p)
	defer b.Close()

	d, err := b.RequestDict("EN-gb.UTF-8@euro")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if d.Tag() != "en_GB" {
		t.Errorf("Tag() = %q, want en_GB", d.Tag())
	}
	if len(p.requests) != 1 || p.requests[0] != "en_GB" {
		t.Errorf("provider saw requests %v, want [en_GB]", p.requests)
	}
}

func TestRequestDictInvalidTag(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	if _, err := b.RequestDict("en GB!"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("err = %v, want ErrInvalidTag", err)
	}
	if b.Error() == "" {
		t.Error("broker error string not recorded")
	}

	// The next successful operation clears it.
	if b.DictExists("en"); b.Error() != "" {
		t.Errorf("broker error not cleared: %q", b.Error())
	}
}

func TestRequestDictISO639Fallback(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en_ZZ")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if d.Tag() != "en" {
		t.Errorf("Tag() = %q, want fallback en", d.Tag())
	}
}

func TestRequestDictNoProvider(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	if _, err := b.RequestDict("zu"); !errors.Is(err, ErrNoDictionary) {
		t.Errorf("err = %v, want ErrNoDictionary", err)
	}
}

func TestDictCacheAndRefCount(t *testing.T) {
	p := englishProvider()
	b := New(testConfig(t), p)
	defer b.Close()

	d1, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	d2, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("second RequestDict failed: %v", err)
	}
	if d1 != d2 {
		t.Error("same tag produced different handles")
	}
	if len(p.requests) != 1 {
		t.Errorf("provider opened %d times, want 1", len(p.requests))
	}

	b.FreeDict(d1)
	if p.disposed != 0 {
		t.Error("dictionary disposed while still referenced")
	}
	b.FreeDict(d2)
	if p.disposed != 1 {
		t.Errorf("disposed = %d after final release, want 1", p.disposed)
	}
}

func TestSetOrderingControlsProviderChoice(t *testing.T) {
	first := &fakeProvider{name: "first", tags: []string{"en"}}
	second := &fakeProvider{name: "second", tags: []string{"en"}}
	b := New(testConfig(t), first, second)
	defer b.Close()

	b.SetOrdering("en", "second,first")

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if len(second.requests) != 1 {
		t.Error("ordered-first provider was not probed first")
	}
	if len(first.requests) != 0 {
		t.Error("ordered-second provider was probed despite the first succeeding")
	}
}

func TestOrderingFileLoaded(t *testing.T) {
	cfg := testConfig(t)
	content := "# preferred engines\nen:second\n*:first\nbadline\n"
	path := filepath.Join(cfg.Broker.UserConfigDir, "spellbroker.ordering")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	first := &fakeProvider{name: "first", tags: []string{"en", "de"}}
	second := &fakeProvider{name: "second", tags: []string{"en", "de"}}
	b := New(cfg, first, second)
	defer b.Close()

	den, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict(en) failed: %v", err)
	}
	defer b.FreeDict(den)
	if len(second.requests) != 1 || second.requests[0] != "en" {
		t.Errorf("en ordering not honoured, second saw %v", second.requests)
	}

	dde, err := b.RequestDict("de")
	if err != nil {
		t.Fatalf("RequestDict(de) failed: %v", err)
	}
	defer b.FreeDict(dde)
	if len(first.requests) == 0 || first.requests[len(first.requests)-1] != "de" {
		t.Errorf("wildcard ordering not honoured, first saw %v", first.requests)
	}
}

func TestCheckExclusionPrecedence(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if ok, _ := d.Check("banana"); !ok {
		t.Fatal("provider-known word reported misspelled")
	}

	// Removing wins over the provider.
	if err := d.Remove("banana"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := d.Check("banana"); ok {
		t.Error("excluded word reported correct")
	}
	if !d.IsRemoved("banana") {
		t.Error("IsRemoved = false for excluded word")
	}

	// An explicit session include wins over the exclusion.
	if err := d.AddToSession("banana"); err != nil {
		t.Fatalf("AddToSession failed: %v", err)
	}
	if ok, _ := d.Check("banana"); !ok {
		t.Error("session-included word reported misspelled")
	}
}

func TestAddLiftsExclusionDurably(t *testing.T) {
	cfg := testConfig(t)
	b := New(cfg, englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if err := d.Remove("quux"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := d.Add("quux"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ok, _ := d.Check("quux"); !ok {
		t.Error("re-added word reported misspelled")
	}
	if !d.IsAdded("quux") {
		t.Error("IsAdded = false after Add")
	}

	// The personal list file persists the word.
	data, err := os.ReadFile(filepath.Join(cfg.Broker.UserConfigDir, "en.dic"))
	if err != nil {
		t.Fatalf("reading personal list: %v", err)
	}
	if string(data) == "" {
		t.Error("personal list file empty after Add")
	}
}

func TestSuggestMerge(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	// Personal list contributes one duplicate and one novel word.
	if err := d.Add("a"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := d.Add("c"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := d.Suggest("x")
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest = %v, want %v", got, want)
	}
}

func TestSuggestDropsExcludedCandidates(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if err := d.Remove("b"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	got, err := d.Suggest("x")
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	for _, sugg := range got {
		if sugg == "b" {
			t.Errorf("Suggest = %v, excluded word surfaced", got)
		}
	}
}

func TestSuggestKeepsFullProviderList(t *testing.T) {
	many := make([]string, 20)
	for i := range many {
		many[i] = fmt.Sprintf("word%02d", i)
	}
	p := &fakeProvider{
		name:  "prolific",
		tags:  []string{"en"},
		suggs: map[string][]string{"x": many},
	}
	b := New(testConfig(t), p)
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	// Everything the engine offers is surfaced; trimming for display is
	// the caller's business.
	got, err := d.Suggest("x")
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !reflect.DeepEqual(got, many) {
		t.Errorf("Suggest = %v, want all %d engine suggestions", got, len(many))
	}
}

func TestCheckInvalidWord(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	// Argument errors surface only in the return value; the stored error
	// state is reserved for provider and resource failures.
	for _, word := range []string{"", "bad\xff\xfeutf8"} {
		if _, err := d.Check(word); !errors.Is(err, ErrInvalidWord) {
			t.Errorf("Check(%q) err = %v, want ErrInvalidWord", word, err)
		}
		if d.Error() != "" {
			t.Errorf("Check(%q) recorded error state: %q", word, d.Error())
		}
	}
	if _, err := d.Check("fine"); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if d.Error() != "" {
		t.Errorf("dict error not cleared: %q", d.Error())
	}
}

func TestCheckNoCapability(t *testing.T) {
	b := New(testConfig(t), &bareProvider{tags: []string{"en"}})
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	// Session words still work without engine support.
	if err := d.Add("hello"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ok, _ := d.Check("hello"); !ok {
		t.Error("personal word reported misspelled")
	}

	if _, err := d.Check("unknown"); !errors.Is(err, ErrNoCapability) {
		t.Errorf("err = %v, want ErrNoCapability", err)
	}
	if d.Error() == "" {
		t.Error("capability failure not recorded")
	}

	// A later argument error must not disturb the recorded failure.
	if _, err := d.Check(""); !errors.Is(err, ErrInvalidWord) {
		t.Errorf("err = %v, want ErrInvalidWord", err)
	}
	if d.Error() == "" {
		t.Error("argument error wiped the recorded failure")
	}
}

func TestPWLOnlyDict(t *testing.T) {
	b := New(testConfig(t))
	defer b.Close()

	path := filepath.Join(t.TempDir(), "mywords.txt")
	d, err := b.RequestPWLDict(path)
	if err != nil {
		t.Fatalf("RequestPWLDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if err := d.Add("hello"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if ok, _ := d.Check("hello"); !ok {
		t.Error("added word reported misspelled")
	}
	// A word-list dictionary reports unknown words misspelled, no error.
	if ok, err := d.Check("helo"); ok || err != nil {
		t.Errorf("Check(helo) = %v, %v; want misspelled, no error", ok, err)
	}

	got, err := d.Suggest("helo")
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("Suggest = %v, want [hello]", got)
	}

	var name, file string
	d.Describe(func(tag, providerName, providerDesc, f string) {
		name, file = providerName, f
	})
	if name != "personal" || file != path {
		t.Errorf("Describe reported %q %q, want personal %q", name, file, path)
	}
}

func TestRequestDictWithPWL(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	path := filepath.Join(t.TempDir(), "custom.dic")
	d, err := b.RequestDictWithPWL("en", path)
	if err != nil {
		t.Fatalf("RequestDictWithPWL failed: %v", err)
	}
	defer b.FreeDict(d)

	if err := d.Add("xylophone"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading custom list: %v", err)
	}
	if string(data) != "xylophone\n" {
		t.Errorf("custom list = %q, want the added word", data)
	}

	// The provider dictionary is still consulted for everything else.
	if ok, _ := d.Check("banana"); !ok {
		t.Error("provider word reported misspelled")
	}
}

func TestDictExists(t *testing.T) {
	lister := englishProvider()
	opener := &bareProvider{tags: []string{"pt"}}
	b := New(testConfig(t), lister, opener)
	defer b.Close()

	cases := []struct {
		tag  string
		want bool
	}{
		{"en", true},
		{"en_US", true},
		{"EN-us", true},
		{"en_ZZ", true}, // iso639 fallback
		{"pt", true},    // open-and-dispose fallback
		{"zu", false},
		{"no tag", false},
	}
	for _, tc := range cases {
		if got := b.DictExists(tc.tag); got != tc.want {
			t.Errorf("DictExists(%q) = %v, want %v", tc.tag, got, tc.want)
		}
	}
	if opener.disposed == 0 {
		t.Error("existence probe leaked the opened dictionary")
	}
}

func TestListDicts(t *testing.T) {
	first := &fakeProvider{name: "first", tags: []string{"en", "en_US"}}
	second := &fakeProvider{name: "second", tags: []string{"en_US", "de"}}
	b := New(testConfig(t), first, second)
	defer b.Close()

	b.SetOrdering("en_US", "second")

	type listing struct{ tag, name string }
	var got []listing
	b.ListDicts(func(tag, providerName, providerDesc string) {
		got = append(got, listing{tag, providerName})
	})

	want := []listing{
		{"de", "second"},
		{"en", "first"},
		{"en_US", "second"}, // ordering beats registration order
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListDicts = %v, want %v", got, want)
	}
}

func TestDescribe(t *testing.T) {
	b := New(testConfig(t), englishProvider(), &bareProvider{})
	defer b.Close()

	var names []string
	b.Describe(func(name, desc string) {
		names = append(names, name)
	})
	if !reflect.DeepEqual(names, []string{"english", "bare"}) {
		t.Errorf("Describe = %v, want registration order", names)
	}
}

func TestStoreReplacementIsHarmless(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if err := d.StoreReplacement("teh", "the"); err != nil {
		t.Errorf("StoreReplacement failed: %v", err)
	}
	if err := d.StoreReplacement("", "the"); !errors.Is(err, ErrInvalidWord) {
		t.Errorf("err = %v, want ErrInvalidWord", err)
	}
}

func TestWordCharacterDefaults(t *testing.T) {
	b := New(testConfig(t), englishProvider())
	defer b.Close()

	d, err := b.RequestDict("en")
	if err != nil {
		t.Fatalf("RequestDict failed: %v", err)
	}
	defer b.FreeDict(d)

	if d.ExtraWordCharacters() != "" {
		t.Errorf("ExtraWordCharacters = %q, want empty default", d.ExtraWordCharacters())
	}
	if !d.IsWordCharacter('a', 0) {
		t.Error("letter rejected at word start")
	}
	if !d.IsWordCharacter('\'', 1) {
		t.Error("apostrophe rejected word-internally")
	}
	if d.IsWordCharacter('\'', 0) {
		t.Error("apostrophe accepted at word start")
	}
	if d.IsWordCharacter('!', 1) {
		t.Error("punctuation accepted as word character")
	}
}
