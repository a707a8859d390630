// internal/content/store.go
//
// SQL loader for the published content tree.
//
// Context
// -------
// The published tree lives in four tables:
//
//	content_node              (id, unique_key, parent_id, name, sort_order,
//	                           template_id, varies_by_culture, published)
//	content_culture           (node_id, culture, name, url_segment)
//	content_property          (node_id, alias, culture, value, varies)
//	content_allowed_template  (node_id, template_id)
//
// LoadNodes reads all four with one query each and folds the rows into
// *Node values ready for NewTree.  Only published nodes are selected; the
// tree drops any branch whose parent is missing.
//
// Notes
// -----
//   - Errors are returned verbatim; the Snapshot caller logs them.
//   - Oxford commas, two spaces after periods.
package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/contentrouter/internal/culture"
)

type nodeRow struct {
	ID         int    `db:"id"`
	Key        string `db:"unique_key"`
	ParentID   int    `db:"parent_id"`
	Name       string `db:"name"`
	SortOrder  int    `db:"sort_order"`
	TemplateID int    `db:"template_id"`
	Varies     bool   `db:"varies_by_culture"`
}

type cultureRow struct {
	NodeID     int    `db:"node_id"`
	Culture    string `db:"culture"`
	Name       string `db:"name"`
	URLSegment string `db:"url_segment"`
}

type propertyRow struct {
	NodeID  int    `db:"node_id"`
	Alias   string `db:"alias"`
	Culture string `db:"culture"`
	Value   string `db:"value"`
	Varies  bool   `db:"varies"`
}

type allowedTemplateRow struct {
	NodeID     int `db:"node_id"`
	TemplateID int `db:"template_id"`
}

const (
	qNodes = `
        SELECT id, unique_key, parent_id, name, sort_order, template_id,
               varies_by_culture
        FROM   content_node
        WHERE  published = 1
        ORDER  BY parent_id, sort_order`
	qCultures = `
        SELECT node_id, culture, name, url_segment
        FROM   content_culture
        WHERE  published = 1`
	qProperties = `
        SELECT node_id, alias, culture, value, varies
        FROM   content_property`
	qAllowedTemplates = `
        SELECT node_id, template_id
        FROM   content_allowed_template`
)

// Loader produces the node set of a fresh snapshot.
type Loader func(ctx context.Context) ([]*Node, error)

// SQLLoader returns a Loader reading from db.
func SQLLoader(db *sqlx.DB) Loader {
	return func(ctx context.Context) ([]*Node, error) {
		return LoadNodes(ctx, db)
	}
}

// LoadNodes reads every published node with its cultures, properties, and
// allowed templates.
func LoadNodes(ctx context.Context, db *sqlx.DB) ([]*Node, error) {
	var nrows []nodeRow
	if err := db.SelectContext(ctx, &nrows, qNodes); err != nil {
		return nil, fmt.Errorf("content nodes: %w", err)
	}

	nodes := make([]*Node, 0, len(nrows))
	byID := make(map[int]*Node, len(nrows))
	for _, r := range nrows {
		n := &Node{
			ID:         r.ID,
			Name:       r.Name,
			ParentID:   r.ParentID,
			SortOrder:  r.SortOrder,
			TemplateID: r.TemplateID,
			Varies:     r.Varies,
			Props:      make(map[string]*Property),
		}
		if key, err := uuid.Parse(r.Key); err == nil {
			n.Key = key
		}
		if n.Varies {
			n.Cultures = make(map[string]CultureInfo)
		}
		nodes = append(nodes, n)
		byID[n.ID] = n
	}

	var crows []cultureRow
	if err := db.SelectContext(ctx, &crows, qCultures); err != nil {
		return nil, fmt.Errorf("content cultures: %w", err)
	}
	for _, r := range crows {
		n := byID[r.NodeID]
		if n == nil || !n.Varies {
			continue
		}
		n.Cultures[culture.Canonical(r.Culture)] = CultureInfo{Name: r.Name, URLSegment: r.URLSegment}
	}

	var prows []propertyRow
	if err := db.SelectContext(ctx, &prows, qProperties); err != nil {
		return nil, fmt.Errorf("content properties: %w", err)
	}
	for _, r := range prows {
		n := byID[r.NodeID]
		if n == nil {
			continue
		}
		p := n.Props[r.Alias]
		if p == nil {
			p = &Property{Alias: r.Alias, Varies: r.Varies}
			n.Props[r.Alias] = p
		}
		p.set(r.Culture, r.Value)
	}

	var arows []allowedTemplateRow
	if err := db.SelectContext(ctx, &arows, qAllowedTemplates); err != nil {
		return nil, fmt.Errorf("content allowed templates: %w", err)
	}
	for _, r := range arows {
		if n := byID[r.NodeID]; n != nil {
			n.AllowedTemplateIDs = append(n.AllowedTemplateIDs, r.TemplateID)
		}
	}
	return nodes, nil
}
