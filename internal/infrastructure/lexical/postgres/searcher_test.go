package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/evidence-search/internal/core/domain"
)

// passthroughConverter lets slice arguments (library scope) reach the mock
// unchanged; the real pgx driver encodes them natively.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) { return driver.Value(v), nil }

func newSearcherWithMock(t *testing.T) (*LexicalSearcher, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewLexicalSearcher(db), mock, func() { _ = db.Close() }
}

func testLexScope() domain.SearchScope {
	return domain.SearchScope{LibraryIDs: []string{"lib-1", "lib-2"}}
}

func TestSearchLexicalBuildsAnyOfQuery(t *testing.T) {
	searcher, mock, done := newSearcherWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT chunk_id, ts_rank_cd").
		WithArgs("phoenix | rollout", []string{"lib-1", "lib-2"}, 30, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"chunk_id", "score"}).
			AddRow("c1", 2.4).
			AddRow("c4", 1.9))

	hits, err := searcher.SearchLexical(context.Background(), "Phoenix rollout!", 30, testLexScope(), false)
	if err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	if len(hits) != 2 || hits[0].ChunkID != "c1" || hits[0].Score != 2.4 {
		t.Fatalf("unexpected hits: %v", hits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchLexicalMatchAllUsesAndOperator(t *testing.T) {
	searcher, mock, done := newSearcherWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT chunk_id, ts_rank_cd").
		WithArgs("phoenix & rollout", []string{"lib-1", "lib-2"}, 10, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"chunk_id", "score"}))

	if _, err := searcher.SearchLexical(context.Background(), "phoenix rollout", 10, testLexScope(), true); err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSearchLexicalEmptySanitizedQuerySkipsDatabase(t *testing.T) {
	searcher, mock, done := newSearcherWithMock(t)
	defer done()

	hits, err := searcher.SearchLexical(context.Background(), "... !!! ...", 10, testLexScope(), false)
	if err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no query issued: %v", err)
	}
}

func TestSearchLexicalWrapsQueryError(t *testing.T) {
	searcher, mock, done := newSearcherWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT chunk_id, ts_rank_cd").
		WillReturnError(errors.New("connection refused"))

	if _, err := searcher.SearchLexical(context.Background(), "phoenix", 10, testLexScope(), false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildTSQueryDeduplicatesTokens(t *testing.T) {
	if got := buildTSQuery("alpha alpha beta", false); got != "alpha | beta" {
		t.Fatalf("buildTSQuery() = %q", got)
	}
}
