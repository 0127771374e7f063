// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Service
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a service is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateService inserts a new Service row scoped to tenantID and churchID.
// The service ID is a randomly generated UUID (string), and CreatedAt is set
// to UTC. On success, it returns the persisted Service.
func CreateService(ctx context.Context, db *gorm.DB, tenantID, churchID, name string, date time.Time) (*domain.Service, error) {
	s := &domain.Service{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		ChurchID:  churchID,
		Name:      name,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// FindServicesByIDs returns the services among ids that exist within
// tenantID. The result may be shorter than ids; callers diff the two sets to
// report missing references. Duplicate ids collapse to one row.
func FindServicesByIDs(ctx context.Context, db *gorm.DB, tenantID string, ids []string) ([]domain.Service, error) {
	if len(ids) == 0 {
		return []domain.Service{}, nil
	}
	var out []domain.Service
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&out).Error
	return out, err
}

// GetService fetches a single service by ID within tenantID, or ErrNotFound
// if the record does not exist.
func GetService(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Service, error) {
	var s domain.Service
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListServicesPage returns a paginated slice of services for a tenant,
// ordered by date descending. Use CountServices for pagination metadata.
func ListServicesPage(ctx context.Context, db *gorm.DB, tenantID string, offset, limit int) ([]domain.Service, error) {
	var out []domain.Service
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("date desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountServices returns the total number of services within the tenant.
func CountServices(ctx context.Context, db *gorm.DB, tenantID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Service{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error
	return total, err
}
