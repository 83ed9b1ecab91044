package tree

import (
	"context"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"sftp-append/internal/remote"
)

// Entry is one cached file or directory. Path is relative to the base
// directory and slash separated.
type Entry struct {
	Path   string
	IsDir  bool
	IsLink bool
}

// Name returns the last path element.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// Lister lists one remote directory. remote.Session satisfies it.
type Lister interface {
	ListDir(ctx context.Context, dir string) ([]remote.RemoteFile, error)
}

// Options bound a walk.
type Options struct {
	// MaxDepth limits how many directory levels are listed below the base.
	// Zero means unlimited.
	MaxDepth int
}

// Cache is the flat set of entries discovered under Base, sorted by path.
type Cache struct {
	Base    string
	Skipped []string // subdirectories whose listing failed

	entries []Entry
	index   map[string]int
	root    []remote.RemoteFile
}

// NewCache returns an empty cache rooted at base.
func NewCache(base string) *Cache {
	return &Cache{Base: cleanBase(base), index: make(map[string]int)}
}

type pending struct {
	rel   string
	depth int
}

// Walk lists base and every directory below it, one ListDir per directory.
// Symbolic links are recorded but never followed, and a visited set keyed by
// absolute path stops any directory from being listed twice.
func Walk(ctx context.Context, l Lister, base string, opts Options) (*Cache, error) {
	c := NewCache(base)
	visited := make(map[string]bool)
	stack := []pending{{rel: "", depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("walk %s: %w", c.Base, err)
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		abs := c.Abs(cur.rel)
		if visited[abs] {
			continue
		}
		visited[abs] = true

		files, err := l.ListDir(ctx, abs)
		if err != nil {
			if cur.rel == "" {
				return nil, err
			}
			log.Printf("[tree] skipping %s: %v", abs, err)
			c.Skipped = append(c.Skipped, cur.rel)
			continue
		}

		if cur.rel == "" {
			c.root = append([]remote.RemoteFile(nil), files...)
		}
		added := c.add(cur.rel, files)
		if opts.MaxDepth > 0 && cur.depth+1 >= opts.MaxDepth {
			continue
		}
		// Push in reverse so the first child is listed first.
		for i := len(added) - 1; i >= 0; i-- {
			e := added[i]
			if e.IsDir && !e.IsLink {
				stack = append(stack, pending{rel: e.Path, depth: cur.depth + 1})
			}
		}
	}

	c.sort()
	log.Printf("[tree] walked %s: %d entries, %d skipped", c.Base, len(c.entries), len(c.Skipped))
	return c, nil
}

// Abs joins a relative path onto Base. Absolute paths are returned cleaned.
func (c *Cache) Abs(rel string) string {
	if rel == "" || rel == "." {
		return c.Base
	}
	if path.IsAbs(rel) {
		return path.Clean(rel)
	}
	return path.Join(c.Base, rel)
}

// Merge records the children of dir, as returned by a later listing. Entries
// already present are left alone.
func (c *Cache) Merge(dir string, files []remote.RemoteFile) {
	if len(c.add(normalize(dir), files)) > 0 {
		c.sort()
	}
}

// add appends unseen children of dir and returns them.
func (c *Cache) add(dir string, files []remote.RemoteFile) []Entry {
	var added []Entry
	for _, f := range files {
		if f.Name == "" || f.Name == "." || f.Name == ".." {
			continue
		}
		rel := f.Name
		if dir != "" {
			rel = dir + "/" + f.Name
		}
		if _, ok := c.index[rel]; ok {
			continue
		}
		e := Entry{Path: rel, IsDir: f.IsDir, IsLink: f.IsLink}
		c.index[rel] = len(c.entries)
		c.entries = append(c.entries, e)
		added = append(added, e)
	}
	return added
}

func (c *Cache) sort() {
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].Path < c.entries[j].Path
	})
	for i, e := range c.entries {
		c.index[e.Path] = i
	}
}

// RootListing returns the base directory listing recorded by Walk, in the
// order the Lister returned it.
func (c *Cache) RootListing() []remote.RemoteFile {
	return append([]remote.RemoteFile(nil), c.root...)
}

// Entries returns a copy of every cached entry.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Contains reports whether rel is cached.
func (c *Cache) Contains(rel string) bool {
	_, ok := c.index[normalize(rel)]
	return ok
}

// Lookup returns the entry for rel.
func (c *Cache) Lookup(rel string) (Entry, bool) {
	i, ok := c.index[normalize(rel)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Files returns the paths of all non-directory entries.
func (c *Cache) Files() []string {
	var out []string
	for _, e := range c.entries {
		if !e.IsDir {
			out = append(out, e.Path)
		}
	}
	return out
}

// FilesUnder returns the non-directory entries strictly below dir. An empty
// dir or "." means the base directory.
func (c *Cache) FilesUnder(dir string) []Entry {
	dir = normalize(dir)
	var out []Entry
	for _, e := range c.entries {
		if e.IsDir {
			continue
		}
		if dir == "" || strings.HasPrefix(e.Path, dir+"/") {
			out = append(out, e)
		}
	}
	return out
}

func normalize(rel string) string {
	rel = strings.Trim(path.Clean("/"+rel), "/")
	return rel
}

func cleanBase(base string) string {
	if base == "" {
		return "."
	}
	return path.Clean(base)
}
