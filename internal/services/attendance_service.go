// Package services – AttendanceService
//
// This file implements the read side of attendance: paginated check-in
// listings for a service, guarded by the same tenant/church access rules as
// the bulk resolver. Admin screens consume this endpoint; the live counts go
// out through the broadcast hub instead.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/auth"
	"github.com/tbourn/go-attendance-backend/internal/domain"
	"github.com/tbourn/go-attendance-backend/internal/repo"
)

// AttendanceRepo defines the repository contract required by
// AttendanceService.
type AttendanceRepo interface {
	// GetService fetches a service by id within the tenant.
	GetService(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Service, error)

	// CountCheckIns returns the total check-ins for a service.
	CountCheckIns(ctx context.Context, db *gorm.DB, serviceID string) (int64, error)

	// ListCheckInsPage returns a page of check-ins for a service.
	ListCheckInsPage(ctx context.Context, db *gorm.DB, serviceID string, offset, limit int) ([]domain.CheckIn, error)
}

// AttendanceService provides attendance queries for a single service.
type AttendanceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the attendance repository used by this service.
	Repo AttendanceRepo
}

// ListPage returns a page of check-ins for serviceID together with the total
// count, after verifying the service exists in the caller's tenant and the
// caller may see its church.
//
// It applies defaults for invalid page/pageSize.
func (s *AttendanceService) ListPage(ctx context.Context, access auth.AccessContext, serviceID string, page, pageSize int) ([]domain.CheckIn, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	svc, err := s.Repo.GetService(ctx, s.DB, access.TenantID, serviceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrServiceNotFound
		}
		return nil, 0, err
	}
	if !access.OwnsChurch(svc.ChurchID) {
		return nil, 0, ErrChurchAccessDenied
	}

	total, err := s.Repo.CountCheckIns(ctx, s.DB, serviceID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.CheckIn{}, 0, nil
	}

	items, err := s.Repo.ListCheckInsPage(ctx, s.DB, serviceID, offset, pageSize)
	return items, total, err
}
