// internal/acl/store.go
//
// Query helpers for member roles and public-access rules.
//
// Context
// -------
// Public access lives in the site database:
//
//	role                (id PK, name, enabled)
//	member_role         (member_id, role_id)
//	public_access       (node_id, login_node_id, no_access_node_id)
//	public_access_rule  (node_id, rule_type, rule_value)
//
// rule_type is "role" (value is a role name) or "member" (value is a
// member username).  Two questions are answered here:
//  1. Which *role names* does member X have?      → `MemberRoles()`
//  2. Which nodes are protected, and how?          → `LoadEntries()`
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Rule types of public_access_rule.
const (
	RuleRole   = "role"
	RuleMember = "member"
)

// MemberRoles returns the role *names* bound to memberID.  Disabled roles
// are filtered out.
func MemberRoles(ctx context.Context, db *sql.DB, memberID int64) ([]string, error) {
	const q = `SELECT r.name
                 FROM member_role mr
                 JOIN role r ON r.id = mr.role_id
                WHERE mr.member_id = ? AND r.enabled = TRUE`

	rows, err := db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]string, 0, 4)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

type entryRow struct {
	NodeID         int `db:"node_id"`
	LoginNodeID    int `db:"login_node_id"`
	NoAccessNodeID int `db:"no_access_node_id"`
}

type ruleRow struct {
	NodeID int    `db:"node_id"`
	Type   string `db:"rule_type"`
	Value  string `db:"rule_value"`
}

const (
	qEntries = `SELECT node_id, login_node_id, no_access_node_id FROM public_access`
	qRules   = `SELECT node_id, rule_type, rule_value FROM public_access_rule`
)

// LoadEntries reads every protection entry with its rules.
func LoadEntries(ctx context.Context, db *sqlx.DB) ([]Entry, error) {
	var erows []entryRow
	if err := db.SelectContext(ctx, &erows, qEntries); err != nil {
		return nil, fmt.Errorf("public access: %w", err)
	}
	var rrows []ruleRow
	if err := db.SelectContext(ctx, &rrows, qRules); err != nil {
		return nil, fmt.Errorf("public access rules: %w", err)
	}

	idx := make(map[int]int, len(erows))
	out := make([]Entry, 0, len(erows))
	for _, r := range erows {
		idx[r.NodeID] = len(out)
		out = append(out, Entry{
			NodeID:         r.NodeID,
			LoginNodeID:    r.LoginNodeID,
			NoAccessNodeID: r.NoAccessNodeID,
		})
	}
	for _, r := range rrows {
		i, ok := idx[r.NodeID]
		if !ok {
			continue
		}
		switch r.Type {
		case RuleRole:
			out[i].Roles = append(out[i].Roles, r.Value)
		case RuleMember:
			out[i].Members = append(out[i].Members, r.Value)
		}
	}
	return out, nil
}
