// Package wordlist provides word list filtering helpers.
package wordlist

import "github.com/verte-zerg/kpmoled/internal/matrix"

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// Typeable keeps words whose every rune maps onto the keyboard matrix.
func Typeable(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if _, ok := matrix.Lookup(r); !ok {
			return false
		}
	}
	return true
}

// Filter returns the words kept by keep.
func Filter(words []string, keep FilterFunc) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
