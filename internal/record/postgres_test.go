package record

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestSQLSourceLoad(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"subject", "query_details", "reply", "additional_comments"}).
		AddRow("Login issue", "Cannot log in", "Clear cache", "ok").
		AddRow(sql.NullString{}, "billing for subscription", "See circular", sql.NullString{})
	mock.ExpectQuery(`SELECT subject, query_details, reply, additional_comments FROM tickets ORDER BY id`).
		WillReturnRows(rows)

	tbl, err := SQLSource{DB: db}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("got %d records, want 2", tbl.Len())
	}
	if tbl.Records[1].Subject != "" || tbl.Records[1].AdditionalComments != "" {
		t.Fatalf("null columns should normalize to empty strings: %+v", tbl.Records[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSQLSourceEmpty(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT subject`).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "query_details", "reply", "additional_comments"}))

	if _, err := (SQLSource{DB: db}).Load(context.Background()); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}

func TestSQLSourceQueryError(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT subject`).WillReturnError(errors.New("connection refused"))

	if _, err := (SQLSource{DB: db}).Load(context.Background()); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("want ErrDataUnavailable, got %v", err)
	}
}
