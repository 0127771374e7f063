// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the CheckIn
// model, including the duplicate-key mapping that the sync service's
// conflict resolution is built on.
//
// Error semantics:
//   - GetCheckIn returns ErrNotFound when no row exists for the pair.
//   - CreateCheckIn returns ErrDuplicate when the (service_id, user_id)
//     unique index rejects the insert, regardless of how the driver spells
//     the violation. This keeps the service layer portable across storage
//     backends.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/domain"
)

// ErrDuplicate indicates that a check-in already exists for the given
// (service_id, user_id) pair.
var ErrDuplicate = errors.New("duplicate")

// GetCheckIn fetches the check-in for (serviceID, userID), or ErrNotFound.
func GetCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string) (*domain.CheckIn, error) {
	var c domain.CheckIn
	err := db.WithContext(ctx).
		Where("service_id = ? AND user_id = ?", serviceID, userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCheckIn inserts a new check-in row with a generated UUID primary key.
// A unique-index violation on (service_id, user_id) is mapped to ErrDuplicate
// so callers can resolve the race through their conflict policy instead of
// surfacing a driver error.
func CreateCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string, checkInTime time.Time, isNewBeliever bool) (*domain.CheckIn, error) {
	c := &domain.CheckIn{
		ID:            uuid.NewString(),
		ServiceID:     serviceID,
		UserID:        userID,
		CheckInTime:   checkInTime,
		IsNewBeliever: isNewBeliever,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") ||
			strings.Contains(low, "duplicate key") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// UpdateCheckInTime overwrites the attendance timestamp of an existing
// check-in (the last-write-wins path). If no rows are affected, it returns
// ErrNotFound.
func UpdateCheckInTime(ctx context.Context, db *gorm.DB, id string, checkInTime time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.CheckIn{}).
		Where("id = ?", id).
		Update("check_in_time", checkInTime)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountCheckIns returns the total number of check-ins for a service.
func CountCheckIns(ctx context.Context, db *gorm.DB, serviceID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CheckIn{}).
		Where("service_id = ?", serviceID).
		Count(&total).Error
	return total, err
}

// CountPresent returns the number of check-ins for a service that have not
// checked out yet ("currently present").
func CountPresent(ctx context.Context, db *gorm.DB, serviceID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CheckIn{}).
		Where("service_id = ? AND checked_out_at IS NULL", serviceID).
		Count(&total).Error
	return total, err
}

// ListCheckInsPage returns a paginated slice of check-ins for a service,
// ordered by check-in time descending. Use CountCheckIns to obtain the total
// for pagination metadata.
func ListCheckInsPage(ctx context.Context, db *gorm.DB, serviceID string, offset, limit int) ([]domain.CheckIn, error) {
	var out []domain.CheckIn
	err := db.WithContext(ctx).
		Where("service_id = ?", serviceID).
		Order("check_in_time desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
