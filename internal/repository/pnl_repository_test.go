package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

// ============================================================
// PnlRepository Tests
// ============================================================

func TestNewPnlRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewPnlRepository(db)
	if repo == nil {
		t.Fatal("NewPnlRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestPnlRepositoryGetDailyPnl(t *testing.T) {
	columns := []string{"date", "realized_pnl", "fee_total", "funding_total", "count"}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(columns).
		AddRow("2024-03-14", "25.5", "1.2", "-0.3", 4).
		AddRow("2024-03-15", "-10", "0.8", "0.1", 2)

	mock.ExpectQuery(`SELECT to_char\(date_trunc\('day', exit_time\)`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewPnlRepository(db)
	buckets, err := repo.GetDailyPnl("acc-1", nil, nil)
	if err != nil {
		t.Fatalf("GetDailyPnl failed: %v", err)
	}

	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if buckets[0].Date != "2024-03-14" {
		t.Errorf("date = %s, want 2024-03-14", buckets[0].Date)
	}
	if !buckets[0].RealizedPnl.Equal(decimal.NewFromFloat(25.5)) {
		t.Errorf("realized pnl = %s, want 25.5", buckets[0].RealizedPnl)
	}
	if buckets[0].TradeCount != 4 {
		t.Errorf("trade count = %d, want 4", buckets[0].TradeCount)
	}
	if !buckets[1].RealizedPnl.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("realized pnl = %s, want -10", buckets[1].RealizedPnl)
	}
}

func TestPnlRepositoryGetDailyPnlWithRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`AND exit_time >= \$2 AND exit_time <= \$3`).
		WithArgs("acc-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"date", "realized_pnl", "fee_total", "funding_total", "count"}))

	repo := NewPnlRepository(db)
	buckets, err := repo.GetDailyPnl("acc-1", &from, &to)
	if err != nil {
		t.Fatalf("GetDailyPnl failed: %v", err)
	}
	if len(buckets) != 0 {
		t.Errorf("got %d buckets, want 0", len(buckets))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPnlRepositoryGetMonthlyPnl(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"month", "realized_pnl", "fee_total", "funding_total", "count"}).
		AddRow("2024-03-01", "120", "8.4", "-2.1", 31)

	mock.ExpectQuery(`SELECT to_char\(date_trunc\('month', exit_time\)`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewPnlRepository(db)
	buckets, err := repo.GetMonthlyPnl("acc-1", nil, nil)
	if err != nil {
		t.Fatalf("GetMonthlyPnl failed: %v", err)
	}

	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if buckets[0].Month != "2024-03-01" {
		t.Errorf("month = %s, want 2024-03-01", buckets[0].Month)
	}
	if buckets[0].TradeCount != 31 {
		t.Errorf("trade count = %d, want 31", buckets[0].TradeCount)
	}
}

func TestPnlRepositoryGetTotalPnl(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"realized_pnl", "fee_total", "funding_total", "count"}).
		AddRow("540.25", "32.1", "-5.6", 118)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(realized_pnl\), 0\)`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewPnlRepository(db)
	total, err := repo.GetTotalPnl("acc-1")
	if err != nil {
		t.Fatalf("GetTotalPnl failed: %v", err)
	}

	if !total.TotalRealizedPnl.Equal(decimal.NewFromFloat(540.25)) {
		t.Errorf("total realized pnl = %s, want 540.25", total.TotalRealizedPnl)
	}
	if total.TradeCount != 118 {
		t.Errorf("trade count = %d, want 118", total.TradeCount)
	}
}

func TestPnlRepositoryGetTotalPnlError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(realized_pnl\), 0\)`).
		WithArgs("acc-1").
		WillReturnError(errors.New("database error"))

	repo := NewPnlRepository(db)
	if _, err := repo.GetTotalPnl("acc-1"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestPnlRepositoryGetActivityDays(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"day"}).
		AddRow("2024-03-14").
		AddRow("2024-03-15").
		AddRow("2024-03-18")

	mock.ExpectQuery(`SELECT DISTINCT day FROM`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewPnlRepository(db)
	days, err := repo.GetActivityDays("acc-1")
	if err != nil {
		t.Fatalf("GetActivityDays failed: %v", err)
	}

	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	if days[0] != "2024-03-14" || days[2] != "2024-03-18" {
		t.Errorf("unexpected days: %v", days)
	}
}
