package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"account-service/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedColumns = []string{
	"customer_id",
	"account_number",
	"account_type",
	"balance",
	"currency",
	"status",
	"created_at",
}

var seedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// SeedResult summarises a seeding run
type SeedResult struct {
	Rows     int
	Inserted int64
}

// Seeder loads accounts from a CSV export
type Seeder struct {
	db        *gorm.DB
	batchSize int
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, batchSize: 100}
}

// SeedFromFile reads accounts from the CSV file at path. A missing file is
// reported as an error so the caller can decide whether that is fatal.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (*SeedResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer file.Close()

	log.Printf("Loading seed accounts from: %s", path)
	return s.Seed(ctx, file)
}

// Seed inserts every row of r in a single transaction. Rows whose account
// number already exists are skipped so the seed can be re-run.
func (s *Seeder) Seed(ctx context.Context, r io.Reader) (*SeedResult, error) {
	accounts, err := parseSeedCSV(r)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{Rows: len(accounts)}
	if len(accounts) == 0 {
		log.Println("Seed file is empty")
		return result, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_number"}},
			DoNothing: true,
		}).CreateInBatches(accounts, s.batchSize)
		if res.Error != nil {
			return res.Error
		}
		result.Inserted = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed accounts: %w", err)
	}

	log.Printf("Seeded %d of %d accounts", result.Inserted, result.Rows)
	return result, nil
}

func parseSeedCSV(r io.Reader) ([]*models.Account, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, column := range seedColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("seed file is missing column %q", column)
		}
	}

	var accounts []*models.Account
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		account, err := accountFromRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func accountFromRecord(record []string, index map[string]int) (*models.Account, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[index[name]])
	}

	balance, err := decimal.NewFromString(field("balance"))
	if err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", field("balance"), err)
	}

	createdAt, err := parseSeedTime(field("created_at"))
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		CustomerID:    field("customer_id"),
		AccountNumber: field("account_number"),
		AccountType:   models.AccountType(strings.ToUpper(field("account_type"))),
		Balance:       balance,
		Currency:      strings.ToUpper(field("currency")),
		Status:        models.AccountStatus(strings.ToUpper(field("status"))),
		CreatedAt:     createdAt,
	}

	if account.Currency == "" {
		account.Currency = models.DefaultCurrency
	}
	if account.Status == "" {
		account.Status = models.AccountStatusActive
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

func parseSeedTime(value string) (time.Time, error) {
	for _, layout := range seedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", value)
}
