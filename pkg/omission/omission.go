package omission

import (
	"defenceblocker/helper"

	"github.com/caffix/stringset"
)

// GetOmissionPatterns returns the sorted list of strings with 1 up to depth missing letters
func GetOmissionPatterns(domain string, depth int) []string {
	set := GetOmissionSet(domain, depth)
	defer set.Close()
	return helper.SortedSlice(set)
}

// GetOmissionSet returns the set of strings with 1 up to depth missing letters.
// The caller owns the set and should Close it.
func GetOmissionSet(domain string, depth int) *stringset.Set {
	results := stringset.New()
	addOmissions(results, domain, depth)
	return results
}

func addOmissions(results *stringset.Set, domain string, depth int) {
	if depth <= 0 || domain == "" {
		return
	}
	for i := 0; i < len(domain); i++ {
		s := domain[:i] + domain[i+1:]
		results.Insert(s)
		if depth > 1 {
			addOmissions(results, s, depth-1)
		}
	}
}
