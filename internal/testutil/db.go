// Package testutil provides sqlite-backed databases and in-memory fakes for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/database"
	"github.com/sitetrack/procurement-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory sqlite database with the ledger schema.
// A single connection is used so that sqlite never reports a locked database; code under test
// must therefore run every query of a transaction on the transaction handle.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// UserContext returns a context authenticated as a new user with the given roles
func UserContext(roles ...auth.Role) (context.Context, *auth.UserContext) {
	user := &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test User",
		Email:       "test@sitetrack.local",
		Roles:       roles,
	}
	return auth.WithUserContext(context.Background(), user), user
}

// CreateOrder inserts an order in the given status
func CreateOrder(t *testing.T, db *gorm.DB, quantity string, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		PurchaseRequestID: uuid.New(),
		MaterialItemID:    uuid.New(),
		MaterialName:      "Rebar 12mm",
		SupplierID:        uuid.New(),
		SupplierName:      "Demir A.S.",
		Quantity:          Dec(quantity),
		Unit:              "ton",
		Amount:            Dec("1000"),
		Currency:          "TRY",
		Status:            status,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// CreateWarehouse inserts an active warehouse
func CreateWarehouse(t *testing.T, db *gorm.DB, code string, typ domain.WarehouseType, owner *uuid.UUID) *domain.Warehouse {
	t.Helper()
	warehouse := &domain.Warehouse{
		Name:     "Warehouse " + code,
		Code:     code,
		Type:     typ,
		OwnerID:  owner,
		IsActive: true,
	}
	require.NoError(t, db.Create(warehouse).Error)
	return warehouse
}
