package search

import (
	"strings"

	"github.com/five82/marquee/internal/omdb"
)

// Filter returns the items whose title contains query, ignoring case. A blank
// query returns items unchanged. Items without a title never match a
// non-blank query. Filter does not modify items.
func Filter(items []omdb.ResultItem, query string) []omdb.ResultItem {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return items
	}
	out := make([]omdb.ResultItem, 0, len(items))
	for _, item := range items {
		title, ok := item.Title.Get()
		if ok && strings.Contains(strings.ToLower(title), needle) {
			out = append(out, item)
		}
	}
	return out
}
