package stripper

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Unmatched is an ignored function name that no processed file defines.
type Unmatched struct {
	Name       string
	Suggestion string // closest defined name, "" if none is close
}

// UnmatchedIgnored returns the members of ignored that do not appear in
// defined, sorted by name, each with the closest defined name.
func UnmatchedIgnored(ignored IgnoreSet, defined []string) []Unmatched {
	seen := make(map[string]bool, len(defined))
	var candidates []string
	for _, name := range defined {
		if !seen[name] {
			seen[name] = true
			candidates = append(candidates, name)
		}
	}

	var out []Unmatched
	for _, name := range ignored.Names() {
		if seen[name] {
			continue
		}
		out = append(out, Unmatched{Name: name, Suggestion: closestName(name, candidates)})
	}
	return out
}

// closestName finds the best candidate for name. Candidates containing
// the letters of name in order win; otherwise the nearest by edit
// distance, if within a third of the name's length.
func closestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(name)/3+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
