// Mobile sync HTTP handlers.
//
// This file exposes the offline-sync endpoints consumed by the companion
// mobile app:
//   - POST /sync/checkins/bulk  (batch check-in reconciliation)
//   - POST /checkins            (single check-in, same resolver semantics)
//
// Handlers are transport-thin: they validate the wire payload, call the
// BulkSyncService, and translate results into HTTP responses. The wire
// contract (field names, error bodies, status codes) is fixed by the shipped
// mobile client; see SyncErrorResponse in response.go.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-attendance-backend/internal/auth"
	"github.com/tbourn/go-attendance-backend/internal/http/middleware"
	"github.com/tbourn/go-attendance-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// SyncService defines the bulk check-in resolution operation consumed by the
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SyncService interface {
	// ProcessBulkCheckIns resolves a validated batch for the caller.
	ProcessBulkCheckIns(ctx context.Context, access auth.AccessContext, items []services.BatchItem, policy services.ConflictResolution) ([]services.SyncResult, services.SyncSummary, error)
}

//
// DTOs (mobile sync wire contract — field names are camelCase)
//

// BulkCheckInItem is one inbound check-in of a bulk sync request.
type BulkCheckInItem struct {
	// ServiceID references the attended service.
	ServiceID string `json:"serviceId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// CheckinTime is the caller-supplied attendance timestamp (ISO-8601).
	CheckinTime string `json:"checkinTime" example:"2024-06-02T10:30:00Z"`
	// OfflineID is the preferred client-generated correlation token.
	OfflineID string `json:"offlineId,omitempty" example:"o1"`
	// ClientID is the fallback correlation token.
	ClientID string `json:"clientId,omitempty"`
	// IsNewBeliever marks a first-time commitment from the check-in flow.
	IsNewBeliever bool `json:"isNewBeliever,omitempty"`
}

// BulkSyncRequest is the JSON payload of the bulk sync endpoint.
type BulkSyncRequest struct {
	CheckIns           []BulkCheckInItem `json:"checkins"`
	ConflictResolution string            `json:"conflictResolution" example:"last-write-wins"`
}

// BulkSyncResponse wraps the per-item results and aggregate summary.
type BulkSyncResponse struct {
	Results   []services.SyncResult `json:"results"`
	Summary   services.SyncSummary  `json:"summary"`
	Timestamp time.Time             `json:"timestamp"`
}

// CheckInRequest is the JSON payload of the single check-in endpoint.
type CheckInRequest struct {
	ServiceID          string `json:"serviceId"`
	CheckinTime        string `json:"checkinTime"`
	OfflineID          string `json:"offlineId,omitempty"`
	ClientID           string `json:"clientId,omitempty"`
	IsNewBeliever      bool   `json:"isNewBeliever,omitempty"`
	ConflictResolution string `json:"conflictResolution,omitempty"`
}

// CheckInResponse wraps the single-item result.
type CheckInResponse struct {
	Result    services.SyncResult `json:"result"`
	Timestamp time.Time           `json:"timestamp"`
}

// Stable wire messages the mobile client branches on.
const (
	msgNoCheckIns     = "No check-ins provided"
	msgInvalidRequest = "Invalid request data"
	msgAccessDenied   = "Access denied to services in other churches"
)

// msgBatchTooLarge carries the configured cap so the message and the gate
// never disagree. With the default cap this is the exact string the shipped
// mobile client matches on: "Maximum 100 check-ins per bulk request".
func (h *Handlers) msgBatchTooLarge() string {
	return fmt.Sprintf("Maximum %d check-ins per bulk request", h.maxBatch)
}

//
// Helpers
//

// access extracts the authenticated caller resolved by the auth middleware.
// The second return is false when the middleware did not run (route
// misconfiguration); callers respond 401 in that case.
func access(c *gin.Context) (auth.AccessContext, bool) {
	return middleware.AccessFrom(c)
}

// parseItems validates the wire items and converts them to service-layer
// batch items. It collects all field-level problems instead of stopping at
// the first, so the client can fix a payload in one round trip.
func parseItems(in []BulkCheckInItem) ([]services.BatchItem, []string) {
	items := make([]services.BatchItem, 0, len(in))
	var details []string
	for i, it := range in {
		if strings.TrimSpace(it.ServiceID) == "" {
			details = append(details, fmt.Sprintf("checkins[%d]: serviceId is required", i))
		}
		if it.OfflineID == "" && it.ClientID == "" {
			details = append(details, fmt.Sprintf("checkins[%d]: offlineId or clientId is required", i))
		}
		var ts time.Time
		if strings.TrimSpace(it.CheckinTime) == "" {
			details = append(details, fmt.Sprintf("checkins[%d]: checkinTime is required", i))
		} else {
			var err error
			ts, err = time.Parse(time.RFC3339, it.CheckinTime)
			if err != nil {
				details = append(details, fmt.Sprintf("checkins[%d]: checkinTime must be an ISO-8601 timestamp", i))
			}
		}
		items = append(items, services.BatchItem{
			ServiceID:     it.ServiceID,
			CheckInTime:   ts.UTC(),
			OfflineID:     it.OfflineID,
			ClientID:      it.ClientID,
			IsNewBeliever: it.IsNewBeliever,
		})
	}
	if len(details) > 0 {
		return nil, details
	}
	return items, nil
}

// parsePolicy validates the conflictResolution field. An empty value is a
// schema error: the client always sends its policy explicitly.
func parsePolicy(raw string) (services.ConflictResolution, bool) {
	p := services.ConflictResolution(raw)
	return p, p.Valid()
}

// failSync maps service-level errors of the resolver to the sync wire
// contract's status codes and stable messages.
func (h *Handlers) failSync(c *gin.Context, err error) {
	var notFound *services.ServicesNotFoundError
	switch {
	case errors.Is(err, services.ErrNoCheckIns):
		syncFail(c, http.StatusBadRequest, msgNoCheckIns, nil)
	case errors.Is(err, services.ErrBatchTooLarge):
		syncFail(c, http.StatusBadRequest, h.msgBatchTooLarge(), nil)
	case errors.Is(err, services.ErrInvalidPolicy):
		syncFail(c, http.StatusBadRequest, msgInvalidRequest,
			[]string{"conflictResolution must be last-write-wins or fail-on-conflict"})
	case errors.As(err, &notFound):
		syncFail(c, http.StatusNotFound, "Services not found: "+strings.Join(notFound.IDs, ", "), nil)
	case errors.Is(err, services.ErrChurchAccessDenied):
		syncFail(c, http.StatusForbidden, msgAccessDenied, nil)
	default:
		// Top-level storage/auth-provider failure; distinct from per-item
		// failures, which always come back 200 with a mixed-result body.
		syncFail(c, http.StatusInternalServerError, err.Error(), nil)
	}
}

//
// Handlers
//

// BulkSyncCheckIns godoc
// @ID          bulkSyncCheckins
// @Summary     Bulk check-in synchronization
// @Description Accepts a batch of offline-captured check-ins (default cap 100), resolves each against existing records per the requested conflict policy, and returns per-item results plus a summary. Item failures never abort the batch.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       body           body    handlers.BulkSyncRequest  true  "Bulk sync payload"
//
// @Success     200  {object}  handlers.BulkSyncResponse
// @Failure     400  {object}  handlers.SyncErrorResponse  "Validation failure"
// @Failure     403  {object}  handlers.SyncErrorResponse  "Cross-church access"
// @Failure     404  {object}  handlers.SyncErrorResponse  "Unknown services"
// @Failure     500  {object}  handlers.SyncErrorResponse  "Storage failure"
// @Router      /sync/checkins/bulk [post]
func (h *Handlers) BulkSyncCheckIns(c *gin.Context) {
	acc, authed := access(c)
	if !authed {
		syncFail(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req BulkSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest, []string{"invalid JSON body"})
		return
	}

	// Batch-size limits are checked before per-item schema validation so an
	// oversized payload gets the size message, not a wall of field errors.
	if len(req.CheckIns) == 0 {
		syncFail(c, http.StatusBadRequest, msgNoCheckIns, nil)
		return
	}
	if len(req.CheckIns) > h.maxBatch {
		syncFail(c, http.StatusBadRequest, h.msgBatchTooLarge(), nil)
		return
	}

	policy, valid := parsePolicy(req.ConflictResolution)
	if !valid {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest,
			[]string{"conflictResolution must be last-write-wins or fail-on-conflict"})
		return
	}

	items, details := parseItems(req.CheckIns)
	if details != nil {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest, details)
		return
	}

	results, summary, err := h.syncSvc.ProcessBulkCheckIns(c.Request.Context(), acc, items, policy)
	if err != nil {
		h.failSync(c, err)
		return
	}

	ok(c, http.StatusOK, BulkSyncResponse{
		Results:   results,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	})
}

// CheckIn godoc
// @ID          checkIn
// @Summary     Single check-in
// @Description Records one check-in with the same resolver semantics as the bulk endpoint. The offline queue replays single mutations against this route.
// @Tags        Sync
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       body           body    handlers.CheckInRequest  true  "Check-in payload"
//
// @Success     200  {object}  handlers.CheckInResponse
// @Failure     400  {object}  handlers.SyncErrorResponse  "Validation failure"
// @Failure     403  {object}  handlers.SyncErrorResponse  "Cross-church access"
// @Failure     404  {object}  handlers.SyncErrorResponse  "Unknown service"
// @Router      /checkins [post]
func (h *Handlers) CheckIn(c *gin.Context) {
	acc, authed := access(c)
	if !authed {
		syncFail(c, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest, []string{"invalid JSON body"})
		return
	}

	// Single check-ins default to last-write-wins: re-tapping the check-in
	// button must refresh the timestamp, not error.
	if req.ConflictResolution == "" {
		req.ConflictResolution = string(services.ConflictLastWriteWins)
	}
	policy, valid := parsePolicy(req.ConflictResolution)
	if !valid {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest,
			[]string{"conflictResolution must be last-write-wins or fail-on-conflict"})
		return
	}

	items, details := parseItems([]BulkCheckInItem{{
		ServiceID:     req.ServiceID,
		CheckinTime:   req.CheckinTime,
		OfflineID:     req.OfflineID,
		ClientID:      req.ClientID,
		IsNewBeliever: req.IsNewBeliever,
	}})
	if details != nil {
		syncFail(c, http.StatusBadRequest, msgInvalidRequest, details)
		return
	}

	results, _, err := h.syncSvc.ProcessBulkCheckIns(c.Request.Context(), acc, items, policy)
	if err != nil {
		h.failSync(c, err)
		return
	}

	ok(c, http.StatusOK, CheckInResponse{
		Result:    results[0],
		Timestamp: time.Now().UTC(),
	})
}
