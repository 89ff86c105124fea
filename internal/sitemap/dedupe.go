package sitemap

import (
	"sort"

	"github.com/JakeFAU/sitemapdiag/internal/diag"
)

// Dedupe partitions locations into the sorted set of distinct values and one
// duplicate problem per repeated occurrence, in the order repeats appear.
func Dedupe(locations []string) ([]string, []diag.Problem) {
	seen := make(map[string]struct{}, len(locations))
	unique := make([]string, 0, len(locations))
	var duplicates []diag.Problem
	for _, loc := range locations {
		if _, ok := seen[loc]; ok {
			duplicates = append(duplicates, diag.Duplicate(loc))
			continue
		}
		seen[loc] = struct{}{}
		unique = append(unique, loc)
	}
	sort.Strings(unique)
	return unique, duplicates
}
