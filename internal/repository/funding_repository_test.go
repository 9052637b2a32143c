package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// ============================================================
// FundingRepository Tests
// ============================================================

func TestNewFundingRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewFundingRepository(db)
	if repo == nil {
		t.Fatal("NewFundingRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestFundingRepositoryBatchInsert(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		entries      []*models.RawFunding
		mockSetup    func(mock sqlmock.Sqlmock)
		wantInserted int64
		expectError  bool
	}{
		{
			name: "success",
			entries: []*models.RawFunding{
				{AccountID: "acc-1", Symbol: "BTCUSDT", FundingFee: decimal.NewFromFloat(-0.12), FundingAt: now},
				{AccountID: "acc-1", Symbol: "ETHUSDT", FundingFee: decimal.NewFromFloat(0.03), FundingAt: now},
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO raw_funding`).
					WithArgs("acc-1", "BTCUSDT", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO raw_funding`).
					WithArgs("acc-1", "ETHUSDT", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantInserted: 2,
		},
		{
			name: "database error",
			entries: []*models.RawFunding{
				{AccountID: "acc-1", Symbol: "BTCUSDT", FundingAt: now},
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO raw_funding`).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewFundingRepository(db)
			inserted, err := repo.BatchInsert(tt.entries)

			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if inserted != tt.wantInserted {
					t.Errorf("inserted = %d, want %d", inserted, tt.wantInserted)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestFundingRepositoryListByAccount(t *testing.T) {
	now := time.Now().UTC()
	columns := []string{"id", "account_id", "symbol", "funding_rate", "funding_fee", "funding_at"}

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(columns).
		AddRow(int64(1), "acc-1", "BTCUSDT", "0.0001", "-0.12", now).
		AddRow(int64(2), "acc-1", "BTCUSDT", nil, "0.03", now.Add(8*time.Hour))

	mock.ExpectQuery(`SELECT (.+) FROM raw_funding WHERE account_id = \$1 ORDER BY funding_at ASC, id ASC`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewFundingRepository(db)
	entries, err := repo.ListByAccount("acc-1", "")
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].FundingFee.Equal(decimal.NewFromFloat(-0.12)) {
		t.Errorf("funding fee = %s, want -0.12", entries[0].FundingFee)
	}
	if entries[1].FundingRate.Valid {
		t.Error("nil funding rate should scan as invalid NullDecimal")
	}
}

func TestFundingRepositoryListByAccountWithSymbol(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM raw_funding WHERE account_id = \$1 AND symbol = \$2`).
		WithArgs("acc-1", "ETHUSDT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewFundingRepository(db)
	entries, err := repo.ListByAccount("acc-1", "ETHUSDT")
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestFundingRepositoryLatestFundingAt(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name      string
		mockSetup func(mock sqlmock.Sqlmock)
		wantNil   bool
	}{
		{
			name: "has entries",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT MAX\(funding_at\) FROM raw_funding`).
					WithArgs("acc-1").
					WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(now))
			},
		},
		{
			name: "empty ledger",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT MAX\(funding_at\) FROM raw_funding`).
					WithArgs("acc-1").
					WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewFundingRepository(db)
			latest, err := repo.LatestFundingAt("acc-1")
			if err != nil {
				t.Fatalf("LatestFundingAt failed: %v", err)
			}

			if tt.wantNil && latest != nil {
				t.Errorf("latest = %v, want nil", latest)
			}
			if !tt.wantNil {
				if latest == nil {
					t.Fatal("latest is nil")
				}
				if !latest.Equal(now) {
					t.Errorf("latest = %v, want %v", latest, now)
				}
			}
		})
	}
}

func TestFundingRepositorySumInRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(funding_fee\), 0\) FROM raw_funding`).
		WithArgs("acc-1", "BTCUSDT", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("-1.25"))

	repo := NewFundingRepository(db)
	total, err := repo.SumInRange("acc-1", "BTCUSDT", from, to)
	if err != nil {
		t.Fatalf("SumInRange failed: %v", err)
	}
	if !total.Equal(decimal.NewFromFloat(-1.25)) {
		t.Errorf("total = %s, want -1.25", total)
	}
}
