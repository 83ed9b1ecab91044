package search

import "strings"

// DefaultLimit is the number of suggestions shown under the search box.
const DefaultLimit = 8

// Index suggests cached paths for a typed query. It is a plain linear scan;
// the cached set is expected to be small.
type Index struct {
	paths []string
	lower []string
	limit int
}

// NewIndex indexes paths in the order given. A limit of zero or less uses
// DefaultLimit.
func NewIndex(paths []string, limit int) *Index {
	if limit <= 0 {
		limit = DefaultLimit
	}
	idx := &Index{
		paths: make([]string, len(paths)),
		lower: make([]string, len(paths)),
		limit: limit,
	}
	copy(idx.paths, paths)
	for i, p := range paths {
		idx.lower[i] = strings.ToLower(p)
	}
	return idx
}

// Len returns the number of indexed paths.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.paths)
}

// Suggest returns up to the limit of indexed paths containing query,
// ignoring case. An empty query suggests nothing.
func (idx *Index) Suggest(query string) []string {
	out := []string{}
	if idx == nil {
		return out
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	for i, p := range idx.lower {
		if strings.Contains(p, q) {
			out = append(out, idx.paths[i])
			if len(out) == idx.limit {
				break
			}
		}
	}
	return out
}
