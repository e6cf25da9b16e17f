// Package probe reports join near-misses: activity events that failed the
// byte-exact (title, artist) join but would have matched a catalog entry if
// titles and artist names were compared case- and accent-insensitively.
//
// The report is purely observational. It never changes which songplays are
// produced; it exists so that a run summary can distinguish "the catalog
// really does not contain these songs" from "the catalog spells them
// differently".
package probe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining marks, so that "Café" and "cafe"
// compare equal. Decompose → remove nonspacing marks (accents) → recompose.
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, _ := transform.String(t, s)
	return strings.ToLower(folded)
}

// FoldIndex holds the folded (title, artist) pairs of a song catalog.
type FoldIndex struct {
	pairs map[string]struct{}
}

// Pair is one (title, artist) combination to index or look up.
type Pair struct {
	Title  string
	Artist string
}

// NewFoldIndex builds an index over the folded forms of the given pairs.
func NewFoldIndex(pairs []Pair) *FoldIndex {
	ix := &FoldIndex{pairs: make(map[string]struct{}, len(pairs))}
	for _, p := range pairs {
		ix.pairs[foldKey(p.Title, p.Artist)] = struct{}{}
	}
	return ix
}

// Len returns the number of distinct folded pairs.
func (ix *FoldIndex) Len() int { return len(ix.pairs) }

// Contains reports whether the folded form of (title, artist) is indexed.
func (ix *FoldIndex) Contains(title, artist string) bool {
	_, ok := ix.pairs[foldKey(title, artist)]
	return ok
}

// CountNearMisses returns how many of the given pairs fold-match the index.
// Callers pass the (song, artist) pairs of events the exact join dropped.
func (ix *FoldIndex) CountNearMisses(unmatched []Pair) int {
	n := 0
	for _, p := range unmatched {
		if ix.Contains(p.Title, p.Artist) {
			n++
		}
	}
	return n
}

func foldKey(title, artist string) string {
	return Fold(title) + "\x1f" + Fold(artist)
}
