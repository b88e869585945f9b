package helper

import (
	"sort"

	"github.com/caffix/stringset"
)

// SortedSlice returns the elements of a set in lexicographic order
func SortedSlice(set *stringset.Set) []string {
	result := set.Slice()
	sort.Strings(result)
	return result
}
