package trie

import (
	"sort"
	"strings"
)

// Mode selects how code points are compared during a fuzzy search.
type Mode int

const (
	// CaseSensitive compares code points byte-exact as stored.
	CaseSensitive Mode = iota
	// CaseInsensitive upper-cases both sides before comparing. Used for
	// suggestion searches, where case variants are re-derived by the caller.
	CaseInsensitive
)

// FindMatches enumerates every stored word whose Damerau-Levenshtein distance
// to query is at most maxDist, invoking visit once per word with the distance.
// Distance is measured over Unicode code points, never bytes: a substituted
// multi-byte character still counts as a single edit. Insertions, deletions,
// substitutions and adjacent transpositions each cost 1.
//
// The search carries an edit-distance DP row down every trie edge and prunes
// a subtree as soon as the row minimum exceeds maxDist, so the work done is
// bounded by the distance budget rather than the trie size.
func (t *Trie) FindMatches(query string, maxDist int, mode Mode, visit func(word string, dist int)) {
	if t.root == nil || maxDist < 0 || visit == nil {
		return
	}
	m := &matcher{
		query:   foldPoints(query, mode),
		maxDist: maxDist,
		mode:    mode,
		visit:   visit,
	}
	row := make([]int, len(m.query)+1)
	for j := range row {
		row[j] = j
	}
	m.walk(t.root, "", row, nil, "")
}

type matcher struct {
	query   []string
	maxDist int
	mode    Mode
	visit   func(word string, dist int)
}

// walk advances the DP state across each outgoing edge of a branching node.
// prevRow and prevCP trail one stored code point behind row, which is what a
// transposition needs to look back at.
func (m *matcher) walk(n *node, path string, row, prevRow []int, prevCP string) {
	if n.value != nil {
		m.leaf(n, path, row, prevRow, prevCP)
		return
	}
	for _, cp := range sortedKeys(n.children) {
		if cp == "" {
			// A stored word ends here.
			if d := row[len(m.query)]; d <= m.maxDist {
				m.visit(path, d)
			}
			continue
		}
		next := m.advance(cp, row, prevRow, prevCP)
		if minRow(next) > m.maxDist {
			continue
		}
		m.walk(n.children[cp], path+cp, next, row, cp)
	}
}

// leaf finishes the DP over the suffix held by a leaf-value node.
func (m *matcher) leaf(n *node, path string, row, prevRow []int, prevCP string) {
	for _, cp := range splitPoints(*n.value) {
		next := m.advance(cp, row, prevRow, prevCP)
		prevRow, row, prevCP = row, next, cp
		if minRow(row) > m.maxDist {
			return
		}
	}
	if d := row[len(m.query)]; d <= m.maxDist {
		m.visit(path+*n.value, d)
	}
}

// advance computes the DP row after consuming the stored code point cp.
func (m *matcher) advance(cp string, row, prevRow []int, prevCP string) []int {
	folded := foldPoint(cp, m.mode)
	next := make([]int, len(m.query)+1)
	next[0] = row[0] + 1
	for j := 1; j <= len(m.query); j++ {
		cost := 1
		if folded == m.query[j-1] {
			cost = 0
		}
		d := row[j-1] + cost
		if v := row[j] + 1; v < d { // stored word has an extra code point
			d = v
		}
		if v := next[j-1] + 1; v < d { // query has an extra code point
			d = v
		}
		if prevRow != nil && j > 1 &&
			folded == m.query[j-2] && foldPoint(prevCP, m.mode) == m.query[j-1] {
			if v := prevRow[j-2] + 1; v < d { // adjacent transposition
				d = v
			}
		}
		next[j] = d
	}
	return next
}

// Distance returns the Damerau-Levenshtein distance between a and b over
// Unicode code points, folded per mode. This is the same measure FindMatches
// bounds its search with.
func Distance(a, b string, mode Mode) int {
	pa := foldPoints(a, mode)
	pb := foldPoints(b, mode)

	prev2 := make([]int, len(pb)+1)
	prev := make([]int, len(pb)+1)
	cur := make([]int, len(pb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(pa); i++ {
		cur[0] = i
		for j := 1; j <= len(pb); j++ {
			cost := 1
			if pa[i-1] == pb[j-1] {
				cost = 0
			}
			d := prev[j-1] + cost
			if v := prev[j] + 1; v < d {
				d = v
			}
			if v := cur[j-1] + 1; v < d {
				d = v
			}
			if i > 1 && j > 1 && pa[i-1] == pb[j-2] && pa[i-2] == pb[j-1] {
				if v := prev2[j-2] + 1; v < d {
					d = v
				}
			}
			cur[j] = d
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(pb)]
}

func splitPoints(s string) []string {
	var pts []string
	for s != "" {
		cp := firstPoint(s)
		pts = append(pts, cp)
		s = s[len(cp):]
	}
	return pts
}

func foldPoints(s string, mode Mode) []string {
	pts := splitPoints(s)
	if mode == CaseInsensitive {
		for i, p := range pts {
			pts[i] = strings.ToUpper(p)
		}
	}
	return pts
}

func foldPoint(cp string, mode Mode) string {
	if mode == CaseInsensitive {
		return strings.ToUpper(cp)
	}
	return cp
}

func minRow(row []int) int {
	m := row[0]
	for _, v := range row[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// sortedKeys keeps traversal order deterministic across runs.
func sortedKeys(children map[string]*node) []string {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
