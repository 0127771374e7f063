// Attendance HTTP handlers.
//
// This file exposes the read side of attendance:
//   - GET /services/{id}/attendance   (paginated check-in listing)
//   - GET /ws/attendance              (live count feed, websocket)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-attendance-backend/internal/auth"
	"github.com/tbourn/go-attendance-backend/internal/domain"
	"github.com/tbourn/go-attendance-backend/internal/services"
	"github.com/tbourn/go-attendance-backend/internal/utils"
)

// AttendanceService defines attendance queries consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AttendanceService interface {
	// ListPage returns a page of check-ins for a service and the total count.
	ListPage(ctx context.Context, access auth.AccessContext, serviceID string, page, pageSize int) ([]domain.CheckIn, int64, error)
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListAttendanceResponse wraps a page of check-ins and pagination information.
type ListAttendanceResponse struct {
	CheckIns   []domain.CheckIn `json:"checkins"`
	Pagination Pagination       `json:"pagination"`
}

// ListServiceAttendance godoc
// @ID          listServiceAttendance
// @Summary     List check-ins for a service (paginated)
// @Description Returns a page of check-ins for a service the caller may see.
// @Tags        Attendance
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Service ID (UUID)"  format(uuid)
// @Param       page           query   int     false "Page number"        minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"     minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListAttendanceResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Other church"
// @Failure     404  {object} handlers.ErrorResponse "Service not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /services/{id}/attendance [get]
func (h *Handlers) ListServiceAttendance(c *gin.Context) {
	acc, authed := access(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	serviceID := c.Param("id")
	if _, err := uuid.Parse(serviceID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "service id must be a UUID")
		return
	}
	page, pageSize := utils.ParsePagination(c.Query("page"), c.Query("page_size"))

	items, total, err := h.attSvc.ListPage(c.Request.Context(), acc, serviceID, page, pageSize)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrServiceNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "service not found")
		case errors.Is(err, services.ErrChurchAccessDenied):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "access denied to services in other churches")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	resp := ListAttendanceResponse{
		CheckIns: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// AttendanceFeed godoc
// @ID          attendanceFeed
// @Summary     Live attendance counts (websocket)
// @Description Upgrades to a websocket delivering attendance count snapshots for the caller's church. Super admins receive every church in their tenant.
// @Tags        Attendance
//
// @Param       Authorization  header  string  false "Bearer token"
//
// @Success     101  {string} string "Switching Protocols"
// @Failure     503  {object} handlers.ErrorResponse "Feed disabled"
// @Router      /ws/attendance [get]
func (h *Handlers) AttendanceFeed(c *gin.Context) {
	acc, authed := access(c)
	if !authed {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if h.hub == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "attendance feed disabled")
		return
	}

	churchID := acc.ChurchID
	if acc.IsSuperAdmin() {
		// Empty church subscribes tenant-wide.
		churchID = ""
	}
	// Subscribe blocks for the lifetime of the connection; upgrade errors
	// have already written a response.
	_ = h.hub.Subscribe(c.Writer, c.Request, acc.TenantID, churchID)
}
