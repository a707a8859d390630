// internal/content/store_test.go
//
// Unit-tests for LoadNodes using sqlmock.
//
// Run: go test ./internal/content -v

package content_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/contentrouter/internal/content"
)

const key1 = "8a4d3bb4-5c49-4b35-a3d4-f3f8f6a0b1c2"

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestLoadNodes(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM   content_node")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "unique_key", "parent_id", "name", "sort_order", "template_id",
			"varies_by_culture",
		}).
			AddRow(1, key1, -1, "Home", 0, 1, false).
			AddRow(2, "not-a-uuid", 1, "Page", 0, 2, true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM   content_culture")).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "culture", "name", "url_segment"}).
			AddRow(2, "en_us", "Page", "page").
			AddRow(1, "en-US", "ignored", "ignored"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM   content_property")).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "alias", "culture", "value", "varies"}).
			AddRow(1, "urlAlias", "", "welcome", false).
			AddRow(2, "title", "en-US", "Hello", true).
			AddRow(99, "title", "", "orphan", false))
	mock.ExpectQuery(regexp.QuoteMeta("FROM   content_allowed_template")).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "template_id"}).
			AddRow(2, 5).AddRow(2, 6))

	nodes, err := content.LoadNodes(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	home, page := nodes[0], nodes[1]
	assert.Equal(t, key1, home.Key.String())
	assert.Nil(t, home.Cultures)
	assert.Equal(t, "welcome", home.Value(content.PropURLAlias, ""))

	assert.True(t, page.Varies)
	assert.Contains(t, page.Cultures, "en-US")
	assert.Equal(t, "Hello", page.Value("title", "en-US"))
	assert.Equal(t, []int{5, 6}, page.AllowedTemplateIDs)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadNodesError(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectQuery(regexp.QuoteMeta("FROM   content_node")).WillReturnError(boom)

	_, err := content.LoadNodes(context.Background(), db)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "content nodes")
}
