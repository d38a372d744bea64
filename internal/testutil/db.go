// Package testutil opens throwaway in-memory databases for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/backoffice/internal/models"
	pkgdb "github.com/Skotchmaster/backoffice/pkg/db"
	"github.com/Skotchmaster/backoffice/pkg/hash"
)

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, email string) models.User {
	t.Helper()

	pw, err := hash.HashPassword("secret123")
	require.NoError(t, err)

	u := models.User{ID: uuid.New(), Name: "Cliente " + email, Email: email, PasswordHash: pw}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func SeedProduct(t testing.TB, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()

	p := models.Product{Name: name, Description: name + " description", Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.Select("id", "stock").Take(&p, productID).Error)
	return p.Stock
}
