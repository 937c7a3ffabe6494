// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serialises access the way row locks do on Postgres.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// SeedUser inserts a user with the given role.
func SeedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Name: strings.Split(email, "@")[0], Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// SeedProduct inserts a product priced at price with an optional percentage discount.
func SeedProduct(t *testing.T, db *gorm.DB, name, price string, discount string) models.Product {
	t.Helper()
	p := models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryOther,
		Stock:    100,
	}
	if discount != "" {
		p.Discount = decimal.NewNullDecimal(decimal.RequireFromString(discount))
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
