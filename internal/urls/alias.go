// internal/urls/alias.go
//
// URL-alias provider.  It never claims the main URL; it lists each URL
// alias of a node as an alternate URL, once per domain serving the node.
// A culture-varying alias is listed only under domains of a culture the
// node is published in, and not at all when no domain applies.
package urls

import (
	"context"
	"net/url"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
)

// AliasProvider implements Provider.
type AliasProvider struct {
	domains domain.Source
	mapper  domain.Mapper
	opts    Options
}

// NewAliasProvider wires the provider.
func NewAliasProvider(domains domain.Source, mapper domain.Mapper, opts Options) *AliasProvider {
	return &AliasProvider{domains: domains, mapper: mapper, opts: opts}
}

// GetURL always declines.
func (p *AliasProvider) GetURL(context.Context, *content.Node, Mode, string, *url.URL) (*Info, error) {
	return nil, nil
}

// GetOtherURLs implements Provider.
func (p *AliasProvider) GetOtherURLs(_ context.Context, n *content.Node, current *url.URL) ([]Info, error) {
	prop := n.Property(content.PropURLAlias)
	if prop == nil {
		return nil, nil
	}
	domains, err := domainsUp(p.domains, p.mapper, n, current, false)
	if err != nil {
		return nil, err
	}

	var out []Info
	if len(domains) == 0 {
		if prop.Varies {
			return nil, nil
		}
		for _, a := range content.SplitAliases(prop.Value("")) {
			out = append(out, URL(p.opts.slash("/"+a), ""))
		}
		return out, nil
	}

	for _, d := range domains {
		if prop.Varies && !n.HasCulture(d.Culture) {
			continue
		}
		for _, a := range content.SplitAliases(prop.Value(d.Culture)) {
			out = append(out, URL(p.opts.absolute(d, "/"+a), d.Culture))
		}
	}
	return out, nil
}
