package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/published"
	"github.com/yanizio/contentrouter/internal/templates"
	"github.com/yanizio/contentrouter/internal/urls"
)

// FindTemplate assigns the template.  The altTemplate parameter applies to
// the initial content, and to internal redirect targets when templates are
// preserved across internal redirects; it overrides a template set by a
// finder.  Otherwise a template already set is kept, else the node's own
// template is used.  Missing templates leave the request without one.
func (e *Engine) FindTemplate(ctx context.Context, req *published.Request) error {
	n := req.PublishedContent()
	if n == nil {
		return req.SetTemplate(nil)
	}

	useAlt := req.IsInitialPublishedContent() ||
		(e.cfg.InternalRedirectPreservesTemplate && req.IsInternalRedirectPublishedContent())
	alt := ""
	if useAlt {
		alt = strings.TrimSpace(req.Query().Get(AltTemplateParam))
	}

	if alt == "" {
		if req.HasTemplate() {
			zap.L().Debug("template already set", zap.String("template", req.TemplateAlias()))
			return nil
		}
		return req.SetTemplate(e.templateByID(ctx, n.TemplateID))
	}

	tpl, err := e.templates.ByAlias(ctx, alt)
	switch {
	case errors.Is(err, templates.ErrNotFound):
		zap.L().Debug("alternative template does not exist, ignored", zap.String("template", alt))
		if req.HasTemplate() {
			return nil
		}
		return req.SetTemplate(e.templateByID(ctx, n.TemplateID))
	case err != nil:
		return err
	}
	if !n.IsAllowedTemplate(tpl.ID, e.cfg.DisableAlternativeTemplates, e.cfg.ValidateAlternativeTemplates) {
		zap.L().Warn("alternative template not allowed on node, ignored",
			zap.String("template", alt), zap.Int("node", n.ID))
		return req.SetTemplate(e.templateByID(ctx, n.TemplateID))
	}
	zap.L().Debug("alternative template", zap.String("template", tpl.Alias), zap.Int("node", n.ID))
	return req.SetTemplate(tpl)
}

func (e *Engine) templateByID(ctx context.Context, id int) *templates.Template {
	if id <= 0 {
		return nil
	}
	tpl, err := e.templates.ByID(ctx, id)
	if err != nil {
		zap.L().Debug("no template", zap.Int("id", id), zap.Error(err))
		return nil
	}
	return tpl
}

// FollowExternalRedirect turns the redirect property into a 302 to the
// URL of the referenced node.  Unresolvable references are ignored.
func (e *Engine) FollowExternalRedirect(ctx context.Context, req *published.Request) error {
	n := req.PublishedContent()
	if n == nil || !n.HasProperty(content.PropRedirect) {
		return nil
	}
	ref := content.ParseRef(n.Value(content.PropRedirect, req.Culture()))
	if !ref.Valid() {
		return nil
	}
	target, err := e.urls.NodeURL(ctx, ref.Resolve(e.store), urls.Default, req.Culture(), req.URI())
	if err != nil {
		return err
	}
	if target == urls.NoURL {
		return nil
	}
	zap.L().Debug("external redirect", zap.Int("node", n.ID), zap.String("to", target))
	return req.SetRedirect(target)
}
