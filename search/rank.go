// Package search answers prefix queries over activity names, ranks the
// matches and drives the debounced suggestion session behind a search box.
package search

import (
	"sort"
	"strings"

	"wanderlist/models"
)

const (
	scoreExact    = 3
	scorePrefix   = 2
	scoreContains = 1
)

// Score rates how well name matches term, ignoring case: 3 for an exact
// match, 2 for a prefix, 1 for a substring and 0 otherwise.
func Score(term, name string) int {
	t := strings.ToLower(strings.TrimSpace(term))
	n := strings.ToLower(name)
	switch {
	case t == "":
		return 0
	case n == t:
		return scoreExact
	case strings.HasPrefix(n, t):
		return scorePrefix
	case strings.Contains(n, t):
		return scoreContains
	}
	return 0
}

// Rank drops candidates that do not match term, orders the rest by
// descending score keeping candidate order among equal scores, and returns
// at most limit of them. A limit of zero or less keeps every match.
func Rank(term string, candidates []models.Activity, limit int) []models.Activity {
	type scored struct {
		a     models.Activity
		score int
	}
	pairs := make([]scored, 0, len(candidates))
	for _, a := range candidates {
		if sc := Score(term, a.ActivityFullName); sc > 0 {
			pairs = append(pairs, scored{a: a, score: sc})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]models.Activity, len(pairs))
	for i, p := range pairs {
		out[i] = p.a
	}
	return out
}
