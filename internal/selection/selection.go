package selection

import (
	"strings"

	"sftp-append/internal/tree"
)

// Set is an ordered set of relative paths. Iteration follows insertion
// order and a path is never held twice.
type Set struct {
	order []string
	index map[string]struct{}
}

// New returns an empty set.
func New() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add inserts path if absent and reports whether it was added.
func (s *Set) Add(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	if _, ok := s.index[path]; ok {
		return false
	}
	s.index[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

// Remove deletes path and reports whether it was present.
func (s *Set) Remove(path string) bool {
	path = strings.TrimSpace(path)
	if _, ok := s.index[path]; !ok {
		return false
	}
	delete(s.index, path)
	for i, p := range s.order {
		if p == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// AddAll adds every non-directory entry strictly under dir, in the order
// given, and returns how many were new. An empty dir or "." is the base.
func (s *Set) AddAll(dir string, entries []tree.Entry) int {
	dir = strings.Trim(dir, "/")
	if dir == "." {
		dir = ""
	}
	n := 0
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if dir != "" && !strings.HasPrefix(e.Path, dir+"/") {
			continue
		}
		if s.Add(e.Path) {
			n++
		}
	}
	return n
}

// Contains reports whether path is selected.
func (s *Set) Contains(path string) bool {
	_, ok := s.index[strings.TrimSpace(path)]
	return ok
}

// Paths returns the selected paths in insertion order.
func (s *Set) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set) Len() int { return len(s.order) }

// Clear empties the set.
func (s *Set) Clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}
