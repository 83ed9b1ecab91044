package tree

import (
	"context"
	"fmt"

	"sftp-append/internal/remote"
)

// Node is one row of the browsable tree.
type Node struct {
	Entry
	Expanded bool
	Loaded   bool
	Children []*Node
}

// Row is a snapshot of one visible node and its indentation level.
type Row struct {
	Entry
	Depth    int
	Expanded bool
}

// Tree is the lazily loaded display model over a Cache. A directory is
// listed the first time it is expanded and its children are merged into the
// cache so search sees them.
type Tree struct {
	cache *Cache
	root  *Node
	nodes map[string]*Node
}

// New returns a tree whose root is the cache's base directory. Nothing is
// listed until Expand is called.
func New(c *Cache) *Tree {
	root := &Node{Entry: Entry{Path: "", IsDir: true}}
	return &Tree{cache: c, root: root, nodes: map[string]*Node{"": root}}
}

// Cache returns the backing cache.
func (t *Tree) Cache() *Cache {
	return t.cache
}

// Node returns the node at rel, if it has been loaded.
func (t *Tree) Node(rel string) (*Node, bool) {
	n, ok := t.nodes[normalize(rel)]
	return n, ok
}

// Expand opens the directory at rel, listing it on first use. Re-expanding
// a loaded directory does not list again.
func (t *Tree) Expand(ctx context.Context, l Lister, rel string) error {
	n, err := t.dir(rel)
	if err != nil {
		return err
	}
	if !n.Loaded {
		files, err := l.ListDir(ctx, t.cache.Abs(n.Path))
		if err != nil {
			return err
		}
		t.attach(n, files)
	}
	n.Expanded = true
	return nil
}

// NeedsListing reports whether expanding rel would list it. It fails for
// paths that are not expandable directories.
func (t *Tree) NeedsListing(rel string) (bool, error) {
	n, err := t.dir(rel)
	if err != nil {
		return false, err
	}
	return !n.Loaded, nil
}

// Attach loads a listing obtained elsewhere into rel and expands it.
func (t *Tree) Attach(rel string, files []remote.RemoteFile) error {
	n, err := t.dir(rel)
	if err != nil {
		return err
	}
	if !n.Loaded {
		t.attach(n, files)
	}
	n.Expanded = true
	return nil
}

func (t *Tree) dir(rel string) (*Node, error) {
	n, ok := t.Node(rel)
	if !ok {
		return nil, fmt.Errorf("expand %q: not in tree", rel)
	}
	if !n.IsDir || n.IsLink {
		return nil, fmt.Errorf("expand %q: not a directory", rel)
	}
	return n, nil
}

func (t *Tree) attach(n *Node, files []remote.RemoteFile) {
	t.cache.Merge(n.Path, files)
	n.Children = n.Children[:0]
	for _, f := range files {
		child := &Node{Entry: Entry{Path: join(n.Path, f.Name), IsDir: f.IsDir, IsLink: f.IsLink}}
		n.Children = append(n.Children, child)
		t.nodes[child.Path] = child
	}
	n.Loaded = true
}

// Collapse hides the children of rel but keeps them loaded.
func (t *Tree) Collapse(rel string) {
	if n, ok := t.Node(rel); ok {
		n.Expanded = false
	}
}

// Toggle expands a collapsed directory and collapses an expanded one.
func (t *Tree) Toggle(ctx context.Context, l Lister, rel string) error {
	n, ok := t.Node(rel)
	if ok && n.Expanded {
		t.Collapse(rel)
		return nil
	}
	return t.Expand(ctx, l, rel)
}

// Rows flattens the visible nodes below the root in display order.
func (t *Tree) Rows() []Row {
	var rows []Row
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.Children {
			rows = append(rows, Row{Entry: c.Entry, Depth: depth, Expanded: c.Expanded})
			if c.Expanded {
				walk(c, depth+1)
			}
		}
	}
	if t.root.Expanded {
		walk(t.root, 0)
	}
	return rows
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
