// Package testutil provides test fixtures for packages that need a real
// database. Tests run against an in-memory SQLite store migrated from the
// gorm models, so no external service is required.
package testutil

import (
	"testing"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database and migrates the order
// store schema into it. The single-connection limit keeps every statement
// on the same in-memory database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Client{},
		&domain.CustomGroup{},
		&domain.Order{},
		&domain.Project{},
		&domain.OrderStatusRecord{},
	))

	SeedStatuses(t, db)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// SeedStatuses inserts the default status vocabulary.
func SeedStatuses(t *testing.T, db *gorm.DB) {
	t.Helper()

	records := []domain.OrderStatusRecord{
		{Value: domain.StatusPending, SortOrder: 1},
		{Value: domain.StatusAccepted, SortOrder: 2},
		{Value: domain.StatusRejected, SortOrder: 3},
	}
	for _, r := range records {
		require.NoError(t, db.Create(&r).Error)
	}
}

// CreateTestClient inserts a client row.
func CreateTestClient(t *testing.T, db *gorm.DB, name, phone, email string) domain.Client {
	t.Helper()

	client := domain.Client{
		Name:  name,
		Phone: phone,
		Email: email,
	}
	require.NoError(t, db.Create(&client).Error)
	return client
}

// CreateTestOrder inserts an order for the given client with a non-empty
// offers document so it is visible to the desk.
func CreateTestOrder(t *testing.T, db *gorm.DB, clientID int64, status string, submittedAt time.Time) domain.Order {
	t.Helper()

	order := domain.Order{
		ClientID:    clientID,
		Offers:      `[{"price": 125000}]`,
		Status:      status,
		SubmittedAt: submittedAt,
		ModifiedAt:  submittedAt,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}
