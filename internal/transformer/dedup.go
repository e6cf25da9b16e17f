// Package transformer holds the in-memory batch transforms shared by the
// table builders. DeDup is the only one: every dimension table collapses
// duplicates by full-row equality before it is written.
package transformer

import "github.com/zeebo/xxh3"

// Keyer renders a row into its canonical byte form. Two rows are duplicates
// exactly when their encodings match.
type Keyer interface {
	AppendKey(dst []byte) []byte
}

// DeDup returns the distinct rows of in, keeping the first occurrence of
// each and preserving input order. The input slice is not modified.
//
// Rows are compared through a 128-bit hash of their canonical encoding,
// not the encoding itself, so the seen-set stays small for wide rows.
func DeDup[T Keyer](in []T) []T {
	if len(in) == 0 {
		return in
	}
	out := make([]T, 0, len(in))
	seen := make(map[xxh3.Uint128]struct{}, len(in))
	var buf []byte
	for _, r := range in {
		buf = r.AppendKey(buf[:0])
		k := xxh3.Hash128(buf)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
