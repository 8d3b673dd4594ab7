package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// NormalizeKeywords accepts a comma-separated string or a list and returns
// trimmed, non-empty keywords with case-insensitive duplicates removed.
// The first spelling of each keyword is kept.
func NormalizeKeywords(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		raw = stringsOf(t)
	case bson.A:
		raw = stringsOf(t)
	default:
		raw = []string{fmt.Sprint(t)}
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		lk := strings.ToLower(k)
		if _, dup := seen[lk]; dup {
			continue
		}
		seen[lk] = struct{}{}
		out = append(out, k)
	}
	return out
}

func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
			continue
		}
		if it != nil {
			out = append(out, fmt.Sprint(it))
		}
	}
	return out
}

// MatchesAny reports whether any keyword contains any preference,
// compared case-insensitively.
func MatchesAny(keywords, prefs []string) bool {
	for _, k := range keywords {
		lk := strings.ToLower(k)
		for _, p := range prefs {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && strings.Contains(lk, p) {
				return true
			}
		}
	}
	return false
}
