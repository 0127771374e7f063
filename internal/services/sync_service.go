// Package services – BulkSyncService
//
// This file implements the server half of offline check-in synchronization:
// a batch resolver that validates tenant/church access for every referenced
// service, then resolves each item against the (service_id, user_id)
// uniqueness constraint under the caller's conflict policy. Item failures
// are isolated: one item's error never aborts its siblings, and every input
// item produces exactly one result in input order.
//
// Request-level problems (empty batch, oversized batch, missing services,
// cross-church access) are returned as service-level errors before any
// record is touched, so a rejected request has no partial side effects.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/auth"
	"github.com/tbourn/go-attendance-backend/internal/broadcast"
	"github.com/tbourn/go-attendance-backend/internal/domain"
	"github.com/tbourn/go-attendance-backend/internal/repo"
)

// ConflictResolution selects how an existing check-in for the same
// (service, user) pair is treated. One policy applies to the whole batch.
type ConflictResolution string

const (
	// ConflictLastWriteWins overwrites the existing record's check-in time.
	ConflictLastWriteWins ConflictResolution = "last-write-wins"
	// ConflictFailOnConflict reports the item as a duplicate without mutating.
	ConflictFailOnConflict ConflictResolution = "fail-on-conflict"
)

// Valid reports whether the policy is one of the supported values.
func (c ConflictResolution) Valid() bool {
	return c == ConflictLastWriteWins || c == ConflictFailOnConflict
}

// Result actions echoed to the client per successfully applied item.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// ConflictTypeDuplicate is the only conflict type the resolver reports:
// a check-in already exists for the (service, user) pair.
const ConflictTypeDuplicate = "duplicate"

// msgDuplicateCheckIn is the per-item error text for a duplicate under
// fail-on-conflict. The mobile client matches on it verbatim.
const msgDuplicateCheckIn = "Check-in already exists"

// BatchItem is one element of an inbound bulk request after transport-level
// validation: the timestamp is parsed and at least one correlation token is
// present. Items are ephemeral; they are never persisted as-is.
type BatchItem struct {
	ServiceID     string
	CheckInTime   time.Time
	OfflineID     string
	ClientID      string
	IsNewBeliever bool
}

// Token returns the correlation token identifying this item in the result
// list: the client-generated OfflineID when present, otherwise ClientID.
func (it BatchItem) Token() string {
	if it.OfflineID != "" {
		return it.OfflineID
	}
	return it.ClientID
}

// SyncResult is the per-item outcome. JSON field names follow the mobile
// sync wire contract (camelCase), not the storage models.
type SyncResult struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	ServerID     string `json:"serverId,omitempty"`
	Action       string `json:"action,omitempty"`
	Error        string `json:"error,omitempty"`
	ConflictType string `json:"conflictType,omitempty"`
}

// SyncSummary aggregates a processed batch. Conflicts counts items rejected
// as duplicates under fail-on-conflict; those items are also counted in
// Failed.
type SyncSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Conflicts  int `json:"conflicts"`
}

// SyncRepo defines the repository contract required by BulkSyncService.
type SyncRepo interface {
	// FindServicesByIDs returns the subset of ids that exist within the tenant.
	FindServicesByIDs(ctx context.Context, db *gorm.DB, tenantID string, ids []string) ([]domain.Service, error)

	// GetCheckIn fetches the check-in for (serviceID, userID), or repo.ErrNotFound.
	GetCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string) (*domain.CheckIn, error)

	// CreateCheckIn inserts a row, returning repo.ErrDuplicate on a
	// (service_id, user_id) unique violation.
	CreateCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string, checkInTime time.Time, isNewBeliever bool) (*domain.CheckIn, error)

	// UpdateCheckInTime overwrites an existing row's attendance timestamp.
	UpdateCheckInTime(ctx context.Context, db *gorm.DB, id string, checkInTime time.Time) error

	// CountCheckIns returns the total check-ins for a service.
	CountCheckIns(ctx context.Context, db *gorm.DB, serviceID string) (int64, error)

	// CountPresent returns the not-yet-checked-out count for a service.
	CountPresent(ctx context.Context, db *gorm.DB, serviceID string) (int64, error)
}

// Prometheus domain counters. HTTP-level metrics live in the middleware;
// these track sync outcomes independent of transport.
var (
	syncBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_sync_batches_total",
			Help: "Bulk sync batches processed, by outcome.",
		},
		[]string{"outcome"}, // ok | rejected
	)

	syncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_sync_items_total",
			Help: "Bulk sync items resolved, by action.",
		},
		[]string{"action"}, // created | updated | conflict | failed
	)
)

func init() {
	prometheus.MustRegister(syncBatchesTotal, syncItemsTotal)
}

// BulkSyncService resolves batches of offline-captured check-ins against the
// server store. It is safe for concurrent use; items within one batch are
// processed sequentially so the per-(service,user) uniqueness check stays
// race-free without extra locking, and concurrent sibling requests fall back
// on the store's unique constraint.
type BulkSyncService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the check-in repository used by this service.
	Repo SyncRepo
	// Publisher receives live attendance updates after each successful
	// mutation. May be nil (broadcast disabled).
	Publisher broadcast.Publisher

	// MaxBatch caps the number of items per bulk request.
	MaxBatch int
}

// NewBulkSyncService constructs a BulkSyncService with the default batch cap.
func NewBulkSyncService(db *gorm.DB, r SyncRepo, pub broadcast.Publisher) *BulkSyncService {
	return &BulkSyncService{
		DB:        db,
		Repo:      r,
		Publisher: pub,
		MaxBatch:  100,
	}
}

// ProcessBulkCheckIns validates and resolves a batch of check-ins on behalf
// of the authenticated caller.
//
// Request-level validation (no partial side effects on failure):
//   - the batch must be non-empty (ErrNoCheckIns) and within MaxBatch
//     (ErrBatchTooLarge), and the policy must be known (ErrInvalidPolicy);
//   - every referenced service must exist within the caller's tenant
//     (*ServicesNotFoundError listing the missing ids);
//   - unless the caller is a super admin, every service must belong to the
//     caller's church (ErrChurchAccessDenied).
//
// Per-item resolution (isolated; always one result per input, same order):
//   - no existing check-in for (service, caller) → create → "created";
//   - existing + last-write-wins → overwrite check-in time → "updated";
//   - existing + fail-on-conflict → no mutation, conflictType "duplicate";
//   - a duplicate-create race lost against a concurrent request is resolved
//     through the same policy, never surfaced as a storage error;
//   - any other storage failure marks that item failed and the batch
//     continues.
//
// After each applied item the service's attendance counts are recomputed and
// handed to the Publisher; broadcast problems never affect item outcomes.
func (s *BulkSyncService) ProcessBulkCheckIns(ctx context.Context, access auth.AccessContext, items []BatchItem, policy ConflictResolution) ([]SyncResult, SyncSummary, error) {
	if len(items) == 0 {
		syncBatchesTotal.WithLabelValues("rejected").Inc()
		return nil, SyncSummary{}, ErrNoCheckIns
	}
	maxBatch := s.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if len(items) > maxBatch {
		syncBatchesTotal.WithLabelValues("rejected").Inc()
		return nil, SyncSummary{}, ErrBatchTooLarge
	}
	if !policy.Valid() {
		syncBatchesTotal.WithLabelValues("rejected").Inc()
		return nil, SyncSummary{}, ErrInvalidPolicy
	}

	services, err := s.authorizeServices(ctx, access, items)
	if err != nil {
		syncBatchesTotal.WithLabelValues("rejected").Inc()
		return nil, SyncSummary{}, err
	}

	results := make([]SyncResult, 0, len(items))
	summary := SyncSummary{Total: len(items)}

	for _, it := range items {
		res := s.resolveItem(ctx, access, it, policy)
		results = append(results, res)

		switch {
		case res.Success:
			summary.Successful++
			syncItemsTotal.WithLabelValues(res.Action).Inc()
			s.publishAttendance(ctx, access, services[it.ServiceID])
		case res.ConflictType == ConflictTypeDuplicate:
			summary.Failed++
			summary.Conflicts++
			syncItemsTotal.WithLabelValues("conflict").Inc()
		default:
			summary.Failed++
			syncItemsTotal.WithLabelValues("failed").Inc()
		}
	}

	syncBatchesTotal.WithLabelValues("ok").Inc()
	return results, summary, nil
}

// authorizeServices resolves the distinct services referenced by the batch,
// verifies they all exist within the caller's tenant, and enforces church
// ownership for non-super-admins. It returns the resolved services by id.
func (s *BulkSyncService) authorizeServices(ctx context.Context, access auth.AccessContext, items []BatchItem) (map[string]domain.Service, error) {
	distinct := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ServiceID]; ok {
			continue
		}
		seen[it.ServiceID] = struct{}{}
		distinct = append(distinct, it.ServiceID)
	}

	found, err := s.Repo.FindServicesByIDs(ctx, s.DB, access.TenantID, distinct)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Service, len(found))
	for _, svc := range found {
		byID[svc.ID] = svc
	}

	if len(byID) != len(distinct) {
		missing := make([]string, 0, len(distinct)-len(byID))
		for _, id := range distinct {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &ServicesNotFoundError{IDs: missing}
	}

	if !access.IsSuperAdmin() {
		for _, svc := range byID {
			if !access.OwnsChurch(svc.ChurchID) {
				return nil, ErrChurchAccessDenied
			}
		}
	}

	return byID, nil
}

// resolveItem applies one batch item and maps every outcome, expected or
// not, to a SyncResult. Errors never escape this boundary.
func (s *BulkSyncService) resolveItem(ctx context.Context, access auth.AccessContext, it BatchItem, policy ConflictResolution) SyncResult {
	token := it.Token()

	existing, err := s.Repo.GetCheckIn(ctx, s.DB, it.ServiceID, access.UserID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		created, cerr := s.Repo.CreateCheckIn(ctx, s.DB, it.ServiceID, access.UserID, it.CheckInTime, it.IsNewBeliever)
		if cerr == nil {
			return SyncResult{Success: true, ID: token, ServerID: created.ID, Action: ActionCreated}
		}
		if !errors.Is(cerr, repo.ErrDuplicate) {
			return SyncResult{Success: false, ID: token, Error: cerr.Error()}
		}
		// Lost a create race against a concurrent request; re-read and fall
		// through to the conflict policy.
		existing, err = s.Repo.GetCheckIn(ctx, s.DB, it.ServiceID, access.UserID)
		if err != nil {
			return SyncResult{Success: false, ID: token, Error: err.Error()}
		}
	case err != nil:
		return SyncResult{Success: false, ID: token, Error: err.Error()}
	}

	if policy == ConflictFailOnConflict {
		return SyncResult{
			Success:      false,
			ID:           token,
			Error:        msgDuplicateCheckIn,
			ConflictType: ConflictTypeDuplicate,
		}
	}

	if uerr := s.Repo.UpdateCheckInTime(ctx, s.DB, existing.ID, it.CheckInTime); uerr != nil {
		return SyncResult{Success: false, ID: token, Error: uerr.Error()}
	}
	return SyncResult{Success: true, ID: token, ServerID: existing.ID, Action: ActionUpdated}
}

// publishAttendance recomputes the service's live counts and hands them to
// the Publisher. Strictly best-effort: count or delivery problems are logged
// and ignored so they can never fail the check-in that triggered them.
func (s *BulkSyncService) publishAttendance(ctx context.Context, access auth.AccessContext, svc domain.Service) {
	if s.Publisher == nil {
		return
	}

	total, err := s.Repo.CountCheckIns(ctx, s.DB, svc.ID)
	if err != nil {
		log.Warn().Err(err).Str("service_id", svc.ID).Msg("attendance count failed, broadcast skipped")
		return
	}
	present, err := s.Repo.CountPresent(ctx, s.DB, svc.ID)
	if err != nil {
		log.Warn().Err(err).Str("service_id", svc.ID).Msg("presence count failed, broadcast skipped")
		return
	}

	s.Publisher.Publish(broadcast.AttendanceUpdate{
		TenantID:          svc.TenantID,
		ChurchID:          svc.ChurchID,
		ServiceID:         svc.ID,
		TotalCheckIns:     total,
		CurrentAttendance: present,
		Timestamp:         time.Now().UTC(),
	})
}
