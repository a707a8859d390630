// Package contenttest builds the small published site shared by the
// routing tests.
//
//	1000 Home                         template 1
//	├── 1001 About Us                 template 2
//	│   └── 1002 Contact              urlAlias "contact-us, /reach-us"
//	├── 1003 Products                 template 2
//	│   └── 1004 Widget               template 3 allowed besides 2
//	├── 1005 Old Page                 internalRedirectId 1001
//	├── 1006 Go                       redirect umb://document/<key of 1003>
//	├── 1007 Members
//	│   └── 1008 Secret
//	├── 1009 Login
//	├── 1010 No Access
//	└── 1011 Not Found
//	2000 Site Deux                    varies: en-US "site-two", fr-FR "site-deux"
//	└── 2001 Page                     varies: en-US "page", fr-FR "la-page"
package contenttest

import (
	"github.com/google/uuid"

	"github.com/yanizio/contentrouter/internal/content"
)

// Well-known ids of the fixture.
const (
	Home     = 1000
	About    = 1001
	Contact  = 1002
	Products = 1003
	Widget   = 1004
	Old      = 1005
	Go       = 1006
	Members  = 1007
	Secret   = 1008
	Login    = 1009
	NoAccess = 1010
	NotFound = 1011
	SiteTwo  = 2000
	TwoPage  = 2001
)

// Key derives a stable key for id.
func Key(id int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(id >> 8), byte(id)})
}

func node(id, parent, sort int, name string, template int) *content.Node {
	return &content.Node{
		ID:         id,
		Key:        Key(id),
		Name:       name,
		ParentID:   parent,
		SortOrder:  sort,
		TemplateID: template,
		Props:      map[string]*content.Property{},
	}
}

// Nodes returns a fresh node set; NewTree mutates links so every test gets
// its own copy.
func Nodes() []*content.Node {
	home := node(Home, -1, 0, "Home", 1)
	about := node(About, Home, 0, "About Us", 2)
	contact := node(Contact, About, 0, "Contact", 2)
	contact.SetProperty(content.PropURLAlias, "contact-us, /reach-us")
	products := node(Products, Home, 1, "Products", 2)
	widget := node(Widget, Products, 0, "Widget", 2)
	widget.AllowedTemplateIDs = []int{3}
	old := node(Old, Home, 2, "Old Page", 2)
	old.SetProperty(content.PropInternalRedirectID, "1001")
	gone := node(Go, Home, 3, "Go", 2)
	gone.SetProperty(content.PropRedirect, "umb://document/"+hex(Key(Products)))
	members := node(Members, Home, 4, "Members", 2)
	secret := node(Secret, Members, 0, "Secret", 2)
	login := node(Login, Home, 5, "Login", 2)
	noAccess := node(NoAccess, Home, 6, "No Access", 2)
	notFound := node(NotFound, Home, 7, "Not Found", 2)

	two := node(SiteTwo, -1, 1, "Site Deux", 1)
	two.Varies = true
	two.Cultures = map[string]content.CultureInfo{
		"en-US": {Name: "Site Two", URLSegment: "site-two"},
		"fr-FR": {Name: "Site Deux", URLSegment: "site-deux"},
	}
	twoPage := node(TwoPage, SiteTwo, 0, "Page", 2)
	twoPage.Varies = true
	twoPage.Cultures = map[string]content.CultureInfo{
		"en-US": {Name: "Page", URLSegment: "page"},
		"fr-FR": {Name: "La Page", URLSegment: "la-page"},
	}

	return []*content.Node{
		home, about, contact, products, widget, old, gone, members, secret,
		login, noAccess, notFound, two, twoPage,
	}
}

// Tree builds the fixture tree.
func Tree(opts content.TreeOptions) *content.Tree {
	t, err := content.NewTree(Nodes(), opts)
	if err != nil {
		panic(err)
	}
	return t
}

// Snapshot wraps the fixture tree in a Snapshot.
func Snapshot(opts content.TreeOptions) *content.Snapshot {
	s := content.NewSnapshot(nil, opts)
	s.Set(Tree(opts))
	return s
}

func hex(k uuid.UUID) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, 32)
	for _, b := range k {
		out = append(out, digits[b>>4], digits[b&0x0f])
	}
	return string(out)
}
