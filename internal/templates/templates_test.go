// internal/templates/templates_test.go
//
// Unit-tests for SQLStore using sqlmock.
//
// Run: go test ./internal/templates -v

package templates

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestSQLStoreByAliasMemoises(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()

	mock.ExpectQuery(regexp.QuoteMeta(qByAlias)).
		WithArgs("json").
		WillReturnRows(sqlmock.NewRows([]string{"id", "alias", "name"}).AddRow(7, "Json", "JSON"))

	s := NewSQLStore(sqlx.NewDb(raw, "sqlmock"), 8)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		tpl, err := s.ByAlias(ctx, " JSON ")
		if err != nil {
			t.Fatalf("ByAlias: %v", err)
		}
		if tpl.ID != 7 {
			t.Fatalf("id = %d, want 7", tpl.ID)
		}
	}

	// ByID is served from the memo filled by the alias lookup.
	if tpl, err := s.ByID(ctx, 7); err != nil || tpl.Alias != "Json" {
		t.Fatalf("ByID = %v, %v", tpl, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQLStoreNotFound(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()

	mock.ExpectQuery(regexp.QuoteMeta(qByID)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	s := NewSQLStore(sqlx.NewDb(raw, "sqlmock"), 8)
	if _, err := s.ByID(context.Background(), 99); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.ByID(context.Background(), 0); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.ByAlias(context.Background(), ""); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStatic(t *testing.T) {
	s := NewStatic(Template{ID: 1, Alias: "Home"}, Template{ID: 2, Alias: "page"})
	ctx := context.Background()

	if tpl, err := s.ByAlias(ctx, "home"); err != nil || tpl.ID != 1 {
		t.Fatalf("ByAlias = %v, %v", tpl, err)
	}
	if _, err := s.ByID(ctx, 3); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
