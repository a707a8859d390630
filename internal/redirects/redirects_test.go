// internal/redirects/redirects_test.go
//
// Unit-tests for the redirect history stores.
//
// Run: go test ./internal/redirects -v

package redirects

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = uuid.MustParse("8a4d3bb4-5c49-4b35-a3d4-f3f8f6a0b1c2")

func newSQL(t *testing.T, tracking bool) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	s := NewSQLStore(sqlx.NewDb(raw, "sqlmock"), tracking)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestSQLMostRecent(t *testing.T) {
	s, mock := newSQL(t, true)
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM   redirect_url r")).
		WithArgs("1000/old-page", "en").
		WillReturnRows(sqlmock.NewRows([]string{"id", "content_key", "content_id", "culture", "url", "create_date"}).
			AddRow(id.String(), key.String(), 55, "en", "1000/old-page", created))

	got, err := s.MostRecent(context.Background(), "1000/old-page", "EN")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, key, got.ContentKey)
	assert.Equal(t, 55, got.ContentID)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMostRecentMiss(t *testing.T) {
	s, mock := newSQL(t, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM   redirect_url r")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content_key", "content_id", "culture", "url", "create_date"}))

	got, err := s.MostRecent(context.Background(), "/nope", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLRegisterInsertsWhenUntouched(t *testing.T) {
	s, mock := newSQL(t, true)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE redirect_url SET create_date = ?")).
		WithArgs(s.now(), "/old", key.String(), "fr-fr").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO redirect_url")).
		WithArgs(sqlmock.AnyArg(), key.String(), "fr-fr", "/old", s.now()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Register(context.Background(), "/old", key, "fr_FR"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRegisterTouchesExisting(t *testing.T) {
	s, mock := newSQL(t, true)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE redirect_url SET create_date = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Register(context.Background(), "/old", key, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRegisterTrackingDisabled(t *testing.T) {
	s, mock := newSQL(t, false)
	require.NoError(t, s.Register(context.Background(), "/old", key, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDeleteContentRedirects(t *testing.T) {
	s, mock := newSQL(t, true)
	mock.ExpectExec(regexp.QuoteMeta(qDeleteContent)).
		WithArgs(key.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.DeleteContentRedirects(context.Background(), key))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory(func(k uuid.UUID) int {
		if k == key {
			return 55
		}
		return 0
	})
	ctx := context.Background()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	other := uuid.New()
	require.NoError(t, m.Register(ctx, "/old", other, ""))
	require.NoError(t, m.Register(ctx, "/old", key, "en-US"))

	got, err := m.MostRecent(ctx, "/old", "en-us")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 55, got.ContentID)

	// newest entry points at a key that no longer resolves
	got, err = m.MostRecent(ctx, "/old", "fr-FR")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Register(ctx, "/old", key, "en-US"))
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.DeleteContentRedirects(ctx, key))
	assert.Equal(t, 1, m.Len())
}
