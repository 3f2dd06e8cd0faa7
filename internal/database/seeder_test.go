package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"account-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCSV = `customer_id,account_number,account_type,balance,currency,status,created_at
cust-1,482913650274,SAVINGS,15230.50,INR,ACTIVE,2024-01-15T09:30:00Z
cust-1,739205814463,salary,82000.00,INR,ACTIVE,2024-02-01 10:00:00
cust-2,918273645501,NRE,4200.75,USD,FROZEN,2024-04-20
`

func TestSeeder_Seed(t *testing.T) {
	db := SetupTestDB(t)
	seeder := NewSeeder(db.DB)

	result, err := seeder.Seed(context.Background(), strings.NewReader(seedCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, int64(3), result.Inserted)

	var accounts []models.Account
	require.NoError(t, db.Order("account_id").Find(&accounts).Error)
	require.Len(t, accounts, 3)

	assert.Equal(t, "482913650274", accounts[0].AccountNumber)
	assert.True(t, decimal.RequireFromString("15230.50").Equal(accounts[0].Balance))
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), accounts[0].CreatedAt.UTC())

	assert.Equal(t, models.AccountTypeSalary, accounts[1].AccountType)
	assert.Equal(t, models.AccountStatusFrozen, accounts[2].Status)
	assert.Equal(t, "USD", accounts[2].Currency)
}

func TestSeeder_Seed_IsRepeatable(t *testing.T) {
	db := SetupTestDB(t)
	seeder := NewSeeder(db.DB)

	_, err := seeder.Seed(context.Background(), strings.NewReader(seedCSV))
	require.NoError(t, err)

	result, err := seeder.Seed(context.Background(), strings.NewReader(seedCSV))
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Inserted)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSeeder_Seed_EmptyInput(t *testing.T) {
	db := SetupTestDB(t)

	result, err := NewSeeder(db.DB).Seed(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
}

func TestSeeder_Seed_MissingColumn(t *testing.T) {
	db := SetupTestDB(t)

	_, err := NewSeeder(db.DB).Seed(context.Background(), strings.NewReader("customer_id,account_number\nc,482913650274\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "account_type"`)
}

func TestSeeder_Seed_InvalidRowRollsBack(t *testing.T) {
	db := SetupTestDB(t)

	input := seedCSV + "cust-3,123,SAVINGS,1.00,INR,ACTIVE,2024-01-01\n"
	_, err := NewSeeder(db.DB).Seed(context.Background(), strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 5")
	assert.ErrorIs(t, err, models.ErrInvalidAccountNumber)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeeder_SeedFromFile(t *testing.T) {
	db := SetupTestDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte(seedCSV), 0644))

	result, err := NewSeeder(db.DB).SeedFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Inserted)

	_, err = NewSeeder(db.DB).SeedFromFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
