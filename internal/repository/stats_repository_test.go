package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatsRepository_Counts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db)

	rows := sqlmock.NewRows([]string{"users", "products", "categories", "orders"}).
		AddRow(10, 42, 7, 3)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnRows(rows)

	stats, err := repo.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts returned error: %v", err)
	}

	if stats.Users != 10 || stats.Products != 42 || stats.Categories != 7 || stats.Orders != 3 {
		t.Errorf("unexpected counts: %+v", stats)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
