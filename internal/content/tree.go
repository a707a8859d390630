// internal/content/tree.go
//
// In-memory published content tree.
//
// Context
// -------
// Tree is the read side of the content store: every lookup the routing
// pipeline needs (by id, by key, by route, by URL alias) is answered from
// maps and parent/child links built once by NewTree.
//
// Route lookup
// ------------
// Routes are "{rootId}/path" or "/path" (see internal/routes).
//
//  1. With a root id the path is followed from that node downwards.  A
//     sub-path carried by the domain itself ("example.com/en") is not part
//     of the route; callers strip it first.
//  2. Without a root id, "/" is the first top-level node.
//  3. Otherwise the first segment is matched against the top-level nodes,
//     or against their children when HideTopLevelNodeFromPath is on.  In
//     that legacy mode a single-segment miss is retried against the
//     top-level nodes, so "/foo" also finds a non-default top-level node.
//
// Notes
// -----
// • Segments compare case-insensitively; stored segments are lower-case.
// • Oxford commas, two spaces after periods.
package content

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yanizio/contentrouter/internal/routes"
)

// Store is the lookup surface consumed by finders and URL providers.
type Store interface {
	GetByID(id int) *Node
	GetByKey(key uuid.UUID) *Node
	GetAtRoot() []*Node
	GetByRoute(route, culture string) *Node
	GetByURLAlias(rootID int, culture, alias string) *Node
	HideTopLevelNodeFromPath() bool
}

// TreeOptions tune route lookup.
type TreeOptions struct {
	HideTopLevelNodeFromPath bool
}

// Tree implements Store over an immutable node set.
type Tree struct {
	opts  TreeOptions
	byID  map[int]*Node
	byKey map[uuid.UUID]*Node
	roots []*Node
}

// NewTree links nodes into a tree.  Nodes whose parent is missing are
// dropped (an unpublished parent hides its whole branch); duplicate ids are
// an error.
func NewTree(nodes []*Node, opts TreeOptions) (*Tree, error) {
	t := &Tree{
		opts:  opts,
		byID:  make(map[int]*Node, len(nodes)),
		byKey: make(map[uuid.UUID]*Node, len(nodes)),
	}
	for _, n := range nodes {
		if n.ID <= 0 {
			return nil, fmt.Errorf("content: invalid node id %d", n.ID)
		}
		if _, dup := t.byID[n.ID]; dup {
			return nil, fmt.Errorf("content: duplicate node id %d", n.ID)
		}
		n.parent, n.children = nil, nil
		t.byID[n.ID] = n
	}

	for _, n := range nodes {
		if n.ParentID <= 0 {
			n.ParentID = RootParentID
			t.roots = append(t.roots, n)
			continue
		}
		if p, ok := t.byID[n.ParentID]; ok {
			n.parent = p
			p.children = append(p.children, n)
		}
	}
	sortNodes(t.roots)

	// Walk from the roots so orphaned branches never get a path.
	var link func(n *Node, level int, path string)
	link = func(n *Node, level int, path string) {
		n.level = level
		n.path = path + "," + strconv.Itoa(n.ID)
		if n.Key != uuid.Nil {
			t.byKey[n.Key] = n
		}
		sortNodes(n.children)
		for _, c := range n.children {
			link(c, level+1, n.path)
		}
	}
	for _, r := range t.roots {
		link(r, 1, strconv.Itoa(RootParentID))
	}
	for id, n := range t.byID {
		if n.path == "" {
			delete(t.byID, id)
		}
	}
	return t, nil
}

// HideTopLevelNodeFromPath reports the legacy top-level hiding flag.
func (t *Tree) HideTopLevelNodeFromPath() bool { return t.opts.HideTopLevelNodeFromPath }

// GetByID returns the node or nil.
func (t *Tree) GetByID(id int) *Node { return t.byID[id] }

// GetByKey returns the node or nil.
func (t *Tree) GetByKey(key uuid.UUID) *Node { return t.byKey[key] }

// GetAtRoot returns the top-level nodes in sort order.
func (t *Tree) GetAtRoot() []*Node { return t.roots }

// Len reports the number of reachable nodes.
func (t *Tree) Len() int { return len(t.byID) }

// GetByRoute resolves route for culture, or nil.
func (t *Tree) GetByRoute(route, c string) *Node {
	r, err := routes.Parse(strings.ToLower(route))
	if err != nil {
		return nil
	}
	parts := r.Segments()

	var n *Node
	switch {
	case r.HasRoot():
		n = followRoute(t.byID[r.RootID], parts, 0, c)
	case len(parts) == 0:
		if len(t.roots) > 0 {
			n = t.roots[0]
		}
	case t.opts.HideTopLevelNodeFromPath:
		for _, root := range t.roots {
			if n = childBySegment(root.children, parts[0], c); n != nil {
				break
			}
		}
		n = followRoute(n, parts, 1, c)
	default:
		n = followRoute(childBySegment(t.roots, parts[0], c), parts, 1, c)
	}

	if n == nil && !r.HasRoot() && t.opts.HideTopLevelNodeFromPath && len(parts) == 1 {
		n = childBySegment(t.roots, parts[0], c)
	}
	return n
}

func followRoute(n *Node, parts []string, start int, c string) *Node {
	for i := start; n != nil && i < len(parts); i++ {
		n = childBySegment(n.children, parts[i], c)
	}
	return n
}

func childBySegment(nodes []*Node, segment, c string) *Node {
	for _, n := range nodes {
		if s := n.URLSegment(c); s != "" && strings.EqualFold(s, segment) {
			return n
		}
	}
	return nil
}

// GetByURLAlias finds the first node whose URL alias property lists alias.
// Aliases may or may not start with "/", and whitespace inside the property
// is ignored.  With rootID > 0 only descendants of that node are searched;
// otherwise every top-level subtree, self included.
func (t *Tree) GetByURLAlias(rootID int, c, alias string) *Node {
	test := "," + strings.Trim(strings.ReplaceAll(alias, " ", ""), "/") + ","
	if test == ",," {
		return nil
	}
	test = strings.ToLower(test)

	var found *Node
	match := func(n *Node) bool {
		p := n.Property(PropURLAlias)
		if p == nil {
			return true
		}
		if p.Varies && !n.HasCulture(c) {
			return true
		}
		v := p.Value(c)
		if strings.TrimSpace(v) == "" {
			return true
		}
		if strings.Contains(normaliseAliases(v), test) {
			found = n
			return false
		}
		return true
	}

	if rootID > 0 {
		if root := t.byID[rootID]; root != nil {
			root.Descendants(match)
		}
		return found
	}
	for _, root := range t.roots {
		if !root.DescendantsOrSelf(match) {
			return found
		}
	}
	return nil
}

// normaliseAliases turns " /foo, bar/baz " into ",foo,bar/baz,".
func normaliseAliases(v string) string {
	v = strings.ToLower(strings.ReplaceAll(v, " ", ""))
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, "/")
	}
	return "," + strings.Join(parts, ",") + ","
}

// SplitAliases returns the distinct, trimmed aliases of a URL alias value,
// in declaration order and without leading slashes.
func SplitAliases(v string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range strings.Split(v, ",") {
		a = strings.Trim(strings.TrimSpace(a), "/")
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
