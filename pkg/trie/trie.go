// Package trie implements a compressed prefix trie over UTF-8 strings with
// bounded fuzzy search. A node is either a leaf holding the entire remaining
// suffix of a single word, or a branching node keyed by the next code point;
// leaves are split into branches lazily on insert, so chains of one-child
// nodes are never materialised. The empty-string child of a branching node
// marks a word that ends there, which is how a stored word that is a prefix
// of another stored word is represented.
package trie

import "unicode/utf8"

type node struct {
	value    *string
	children map[string]*node
}

// Trie stores a set of strings. The zero value is not usable; call New.
type Trie struct {
	root *node
	size int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{}
}

// Len returns the number of stored words.
func (t *Trie) Len() int {
	return t.size
}

// Insert adds word to the trie. Inserting a word twice is a no-op.
func (t *Trie) Insert(word string) {
	if t.Contains(word) {
		return
	}
	t.root = insert(t.root, word)
	t.size++
}

// Remove deletes word from the trie if present.
func (t *Trie) Remove(word string) {
	if !t.Contains(word) {
		return
	}
	t.root = remove(t.root, word)
	t.size--
}

// Contains reports whether word is stored, compared byte-exact.
func (t *Trie) Contains(word string) bool {
	n := t.root
	rest := word
	for n != nil {
		if n.value != nil {
			return *n.value == rest
		}
		cp := firstPoint(rest)
		n = n.children[cp]
		rest = rest[len(cp):]
	}
	return false
}

func insert(n *node, word string) *node {
	if n == nil {
		return &node{value: &word}
	}
	if n.value != nil {
		if *n.value == word {
			return n
		}
		// Split the leaf into a branch, re-inserting its old suffix.
		old := *n.value
		n.value = nil
		n.children = make(map[string]*node)
		addChild(n, old)
		addChild(n, word)
		return n
	}
	addChild(n, word)
	return n
}

func addChild(n *node, word string) {
	cp := firstPoint(word)
	n.children[cp] = insert(n.children[cp], word[len(cp):])
}

func remove(n *node, word string) *node {
	if n == nil {
		return nil
	}
	if n.value != nil {
		if *n.value == word {
			return nil
		}
		return n
	}
	cp := firstPoint(word)
	child, ok := n.children[cp]
	if !ok {
		return n
	}
	if child = remove(child, word[len(cp):]); child == nil {
		delete(n.children, cp)
	} else {
		n.children[cp] = child
	}
	return collapse(n)
}

// collapse turns a branching node with a single leaf child back into a leaf.
// Purely a memory optimisation; lookups behave the same without it.
func collapse(n *node) *node {
	if len(n.children) == 0 {
		return nil
	}
	if len(n.children) != 1 {
		return n
	}
	for cp, child := range n.children {
		if child.value == nil {
			return n
		}
		joined := cp + *child.value
		return &node{value: &joined}
	}
	return n
}

// firstPoint returns the leading UTF-8 code point of s as a string, or ""
// when s is empty (the end-of-string child key).
func firstPoint(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}
