package engine

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/urls"
)

// Messages reported by ContentURLs in place of a URL.
const (
	MsgNotPublished           = "This item is not published."
	MsgParentCultureNotRouted = "Parent item %q is not published in this culture."
	MsgNoRoute                = "This item is published but has no route."
	MsgCannotRoute            = "This URL does not route back to any item."
	MsgCollision              = "Another item is published at this URL: %s."
	MsgURLError               = "The URL could not be computed."
)

// ContentURLs lists the URLs of node id for editors: one URL per culture,
// de-duplicated, then messages, then the other URLs.  Every main URL is
// routed back through the pipeline and replaced by a message when it does
// not reach the node.  current anchors relative URLs.
func (e *Engine) ContentURLs(ctx context.Context, id int, current *url.URL, cultures []string) ([]urls.Info, error) {
	n := e.store.GetByID(id)
	if n == nil {
		return []urls.Info{urls.Message(MsgNotPublished, "")}, nil
	}
	if len(cultures) == 0 {
		cultures = e.cultures(n)
	}

	var main []urls.Info
	for _, c := range cultures {
		if n.Varies && !n.HasCulture(c) {
			continue
		}
		info, err := e.cultureURL(ctx, n, c, current)
		if err != nil {
			return nil, err
		}
		main = append(main, info)
	}

	out := make([]urls.Info, 0, len(main))
	seen := make(map[string]bool)
	for _, isURL := range []bool{true, false} {
		var group []urls.Info
		for _, i := range main {
			if i.IsURL == isURL {
				group = append(group, i)
			}
		}
		sortInfos(group)
		for _, i := range group {
			k := strings.ToUpper(i.Text)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, i)
		}
	}

	others, err := e.urls.OtherURLs(ctx, id, current)
	if err != nil {
		return nil, err
	}
	sortInfos(others)
	for _, o := range others {
		dup := false
		for _, i := range out {
			if i.Equal(o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, o)
		}
	}
	return out, nil
}

func (e *Engine) cultureURL(ctx context.Context, n *content.Node, c string, current *url.URL) (urls.Info, error) {
	u, err := e.urls.NodeURL(ctx, n, urls.Default, c, current)
	if err != nil {
		zap.L().Error("content url", zap.Int("node", n.ID), zap.String("culture", c), zap.Error(err))
		return urls.Message(MsgURLError, c), nil
	}
	if u == urls.NoURL {
		return e.unroutable(n, c), nil
	}
	return e.detectCollision(ctx, n, u, c, current)
}

// unroutable explains a "#" URL.
func (e *Engine) unroutable(n *content.Node, c string) urls.Info {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Varies && !p.HasCulture(c) {
			return urls.Message(fmt.Sprintf(MsgParentCultureNotRouted, p.Name), c)
		}
	}
	return urls.Message(MsgNoRoute, c)
}

func (e *Engine) detectCollision(ctx context.Context, n *content.Node, raw, c string, current *url.URL) (urls.Info, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return urls.Message(MsgCannotRoute, c), nil
	}
	if !u.IsAbs() && current != nil {
		u = current.ResolveReference(u)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	req, err := e.TryRoute(ctx, u)
	if err != nil {
		return urls.Info{}, err
	}
	got := req.PublishedContent()
	switch {
	case got == nil:
		return urls.Message(MsgCannotRoute, c), nil
	case got.ID != n.ID:
		return urls.Message(fmt.Sprintf(MsgCollision, namePath(got)), c), nil
	}
	return urls.URL(raw, c), nil
}

// namePath renders "/Home/About Us (id=1001)".
func namePath(n *content.Node) string {
	var names []string
	for p := n; p != nil; p = p.Parent() {
		names = append(names, p.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return fmt.Sprintf("/%s (id=%d)", strings.Join(names, "/"), n.ID)
}

// cultures is the default culture, every domain culture, and the cultures
// of n.
func (e *Engine) cultures(n *content.Node) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		c = culture.Canonical(c)
		if !seen[strings.ToLower(c)] {
			seen[strings.ToLower(c)] = true
			out = append(out, c)
		}
	}
	add(e.domains.DefaultCulture())
	for _, d := range e.domains.GetAll(true) {
		if d.Culture != "" {
			add(d.Culture)
		}
	}
	var own []string
	for c := range n.Cultures {
		own = append(own, c)
	}
	sort.Strings(own)
	for _, c := range own {
		add(c)
	}
	return out
}

func sortInfos(infos []urls.Info) {
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Text != infos[j].Text {
			return infos[i].Text < infos[j].Text
		}
		return infos[i].Culture < infos[j].Culture
	})
}
