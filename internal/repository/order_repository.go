package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/quotedesk/quotedesk/internal/domain"
	"gorm.io/gorm"
)

// OrderRepository is the data-access gateway for quotation orders. It owns
// no business logic; every operation is a single request/response call
// against the relational store.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FetchAll returns every order satisfying the visibility rule (non-empty
// offers field), joined with client contact fields and active custom
// groups, ordered by submission time descending. A failure means "no
// change" to callers, never an empty list.
func (r *OrderRepository) FetchAll(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Groups", "is_active = ?", true).
		Where("offers IS NOT NULL AND offers <> ''").
		Order("submitted_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, storeError(err)
	}
	return orders, nil
}

// FetchDetail returns one order with full joined detail: client info,
// linked project info and groups.
func (r *OrderRepository) FetchDetail(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Groups", "is_active = ?", true).
		Preload("Project").
		First(&order, "orders.id = ?", id).Error
	if err != nil {
		return nil, storeError(err)
	}
	return &order, nil
}

// PersistStatus writes the new status and bumps the modification timestamp.
// The value is checked against the backend-defined vocabulary first.
func (r *OrderRepository) PersistStatus(ctx context.Context, id int64, status string) error {
	var allowed int64
	if err := r.db.WithContext(ctx).
		Model(&domain.OrderStatusRecord{}).
		Where("value = ?", status).
		Count(&allowed).Error; err != nil {
		return storeError(err)
	}
	if allowed == 0 {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"modified_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return storeError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AvailableStatuses returns the authoritative status vocabulary in its
// configured order. The set is backend-defined and open; it is queried,
// never hardcoded.
func (r *OrderRepository) AvailableStatuses(ctx context.Context) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&domain.OrderStatusRecord{}).
		Order("sort_order ASC").
		Pluck("value", &values).Error
	if err != nil {
		return nil, storeError(err)
	}
	return values, nil
}

// RecentlyChanged returns id/status/modified-time/customer-name for orders
// modified within the window, supporting cheap incremental refresh.
func (r *OrderRepository) RecentlyChanged(ctx context.Context, since time.Duration) ([]domain.PartialOrder, error) {
	cutoff := time.Now().UTC().Add(-since)

	var partials []domain.PartialOrder
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("orders.id, orders.status, orders.modified_at, clients.name AS customer_name").
		Joins("JOIN clients ON clients.id = orders.client_id").
		Where("orders.modified_at >= ?", cutoff).
		Scan(&partials).Error
	if err != nil {
		return nil, storeError(err)
	}
	return partials, nil
}

// ActiveGroups returns all active custom groups with their colors.
func (r *OrderRepository) ActiveGroups(ctx context.Context) ([]domain.CustomGroup, error) {
	var groups []domain.CustomGroup
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, storeError(err)
	}
	return groups, nil
}

// storeError maps driver and gorm errors onto the gateway taxonomy.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
}
