// internal/content/node.go
//
// Published content model.
//
// Context
// -------
// A Node is one published document in an immutable snapshot of the content
// tree.  The router and URL providers only ever read nodes; a refresh builds
// a brand new Tree, so nodes need no locking.
//
// Conventions
// -----------
// Routing reads a handful of well-known property aliases:
//
//   - PropURLName             explicit URL segment (else slug of Name)
//   - PropURLAlias            comma-separated alternative paths
//   - PropInternalRedirectID  render another node in place of this one
//   - PropRedirect            external redirect to another node's URL
//
// Redirect properties hold either a legacy integer id or a structured
// identifier (a bare UUID or "umb://document/<32 hex>"); see ParseRef.
//
// Notes
// -----
// • Culture keys are canonical tags (internal/culture); "" is invariant.
// • Oxford commas, two spaces after periods.
package content

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/routes"
)

// Well-known property aliases.
const (
	PropURLName            = "urlName"
	PropURLAlias           = "urlAlias"
	PropInternalRedirectID = "internalRedirectId"
	PropRedirect           = "redirect"
)

// RootParentID is the parent id of top-level nodes.
const RootParentID = -1

//
// Property
//

// Property is one named value on a node.  Varying properties store one
// value per culture; invariant properties store a single value under "".
type Property struct {
	Alias  string
	Varies bool
	values map[string]string
}

// NewProperty builds an invariant property.
func NewProperty(alias, value string) *Property {
	return &Property{Alias: alias, values: map[string]string{culture.Invariant: value}}
}

// NewVariantProperty builds a culture-varying property.
func NewVariantProperty(alias string, values map[string]string) *Property {
	p := &Property{Alias: alias, Varies: true, values: make(map[string]string, len(values))}
	for c, v := range values {
		p.values[culture.Canonical(c)] = v
	}
	return p
}

// Value returns the raw value for culture.  Invariant properties ignore
// culture.
func (p *Property) Value(c string) string {
	if p == nil {
		return ""
	}
	if !p.Varies {
		return p.values[culture.Invariant]
	}
	return p.values[culture.Canonical(c)]
}

func (p *Property) set(c, v string) {
	if p.values == nil {
		p.values = make(map[string]string, 1)
	}
	if !p.Varies {
		c = culture.Invariant
	}
	p.values[culture.Canonical(c)] = v
}

//
// Node
//

// CultureInfo holds per-culture publication data of a varying node.
type CultureInfo struct {
	Name       string
	URLSegment string
}

// Node is one published document.
type Node struct {
	ID                 int
	Key                uuid.UUID
	Name               string
	ParentID           int
	SortOrder          int
	TemplateID         int
	AllowedTemplateIDs []int
	Varies             bool
	Cultures           map[string]CultureInfo
	Props              map[string]*Property

	level    int
	path     string
	parent   *Node
	children []*Node
}

// Level is the depth of the node, top-level nodes being 1.
func (n *Node) Level() int { return n.level }

// Path is the comma-separated ancestor chain, "-1,1000,1001".
func (n *Node) Path() string { return n.path }

// Parent returns nil for top-level nodes.
func (n *Node) Parent() *Node { return n.parent }

// Children are ordered by SortOrder.
func (n *Node) Children() []*Node { return n.children }

// PathIDs returns the ids of the path, root first, excluding -1.
func (n *Node) PathIDs() []int {
	parts := strings.Split(n.path, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil || id == RootParentID {
			continue
		}
		out = append(out, id)
	}
	return out
}

// HasCulture reports whether the node is published in c.  Invariant nodes
// are published in every culture.
func (n *Node) HasCulture(c string) bool {
	if !n.Varies {
		return true
	}
	_, ok := n.Cultures[culture.Canonical(c)]
	return ok
}

// URLSegment returns the segment used to build routes for culture c, or ""
// when the node is not published in c.
func (n *Node) URLSegment(c string) string {
	if !n.Varies {
		if v := n.Value(PropURLName, ""); v != "" {
			return strings.ToLower(v)
		}
		return routes.MakeSegment(n.Name)
	}
	ci, ok := n.Cultures[culture.Canonical(c)]
	if !ok {
		return ""
	}
	if ci.URLSegment != "" {
		return strings.ToLower(ci.URLSegment)
	}
	if v := n.Value(PropURLName, c); v != "" {
		return strings.ToLower(v)
	}
	name := ci.Name
	if name == "" {
		name = n.Name
	}
	return routes.MakeSegment(name)
}

// HasProperty reports whether the node defines alias.
func (n *Node) HasProperty(alias string) bool {
	_, ok := n.Props[alias]
	return ok
}

// Property returns the named property or nil.
func (n *Node) Property(alias string) *Property { return n.Props[alias] }

// Value returns the trimmed raw value of alias for culture c.
func (n *Node) Value(alias, c string) string {
	return strings.TrimSpace(n.Props[alias].Value(c))
}

// SetProperty adds or replaces an invariant property value.  Only valid
// before the node is handed to NewTree.
func (n *Node) SetProperty(alias, value string) {
	if n.Props == nil {
		n.Props = make(map[string]*Property)
	}
	n.Props[alias] = NewProperty(alias, value)
}

// IsAllowedTemplate reports whether templateID may render this node.
// When alternative templates are disabled only the node's own template is
// allowed; when validation is off every template is allowed.
func (n *Node) IsAllowedTemplate(templateID int, disableAlternatives, validate bool) bool {
	if disableAlternatives {
		return n.TemplateID == templateID
	}
	if n.TemplateID == templateID || !validate {
		return true
	}
	for _, id := range n.AllowedTemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}

// Descendants walks the subtree depth-first (excluding n) in sort order
// and stops when fn returns false.
func (n *Node) Descendants(fn func(*Node) bool) bool {
	for _, c := range n.children {
		if !fn(c) {
			return false
		}
		if !c.Descendants(fn) {
			return false
		}
	}
	return true
}

// DescendantsOrSelf is Descendants including n itself.
func (n *Node) DescendantsOrSelf(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	return n.Descendants(fn)
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].ID < nodes[j].ID
	})
}

//
// Identifier references
//

// udiPrefix is the structured identifier scheme for documents.
const udiPrefix = "umb://document/"

// Ref is a parsed node reference: either a legacy id or a key.
type Ref struct {
	ID  int
	Key uuid.UUID
}

// Valid reports whether the reference carries an id or a key.
func (r Ref) Valid() bool { return r.ID > 0 || r.Key != uuid.Nil }

// ParseRef parses "1234", "umb://document/<32 hex>", or a bare UUID.
// Anything else yields the zero Ref.
func ParseRef(raw string) Ref {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}
	}
	if id, err := strconv.Atoi(raw); err == nil {
		if id > 0 {
			return Ref{ID: id}
		}
		return Ref{}
	}
	if len(raw) > len(udiPrefix) && strings.EqualFold(raw[:len(udiPrefix)], udiPrefix) {
		raw = raw[len(udiPrefix):]
	}
	key, err := uuid.Parse(raw)
	if err != nil || key == uuid.Nil {
		return Ref{}
	}
	return Ref{Key: key}
}

// Resolve loads the node a Ref points to, or nil.
func (r Ref) Resolve(s Store) *Node {
	switch {
	case r.ID > 0:
		return s.GetByID(r.ID)
	case r.Key != uuid.Nil:
		return s.GetByKey(r.Key)
	}
	return nil
}
