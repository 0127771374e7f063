package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-attendance-backend/internal/auth"
	"github.com/tbourn/go-attendance-backend/internal/domain"
	"github.com/tbourn/go-attendance-backend/internal/http/middleware"
	"github.com/tbourn/go-attendance-backend/internal/services"
)

type fakeAttendanceService struct {
	items []domain.CheckIn
	total int64
	err   error

	gotServiceID string
	gotPage      int
	gotPageSize  int
}

func (f *fakeAttendanceService) ListPage(_ context.Context, _ auth.AccessContext, serviceID string, page, pageSize int) ([]domain.CheckIn, int64, error) {
	f.gotServiceID = serviceID
	f.gotPage = page
	f.gotPageSize = pageSize
	return f.items, f.total, f.err
}

func newAttendanceRouter(svc AttendanceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(nil, svc, nil, 0)
	api := r.Group("/api/mobile/v1", middleware.Access([]byte("test-secret"), true))
	api.GET("/services/:id/attendance", h.ListServiceAttendance)
	api.GET("/ws/attendance", h.AttendanceFeed)
	return r
}

func getAttendance(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-Tenant-ID", "tenant-1")
	req.Header.Set("X-Church-ID", "church-1")
	r.ServeHTTP(w, req)
	return w
}

func TestListAttendance_InvalidServiceID(t *testing.T) {
	r := newAttendanceRouter(&fakeAttendanceService{})

	w := getAttendance(t, r, "/api/mobile/v1/services/not-a-uuid/attendance")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != ErrCodeBadRequest {
		t.Fatalf("unexpected code: %q", resp.Code)
	}
}

func TestListAttendance_PaginationEnvelope(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeAttendanceService{
		items: []domain.CheckIn{
			{ID: uuid.NewString(), UserID: "u3", CheckInTime: now},
			{ID: uuid.NewString(), UserID: "u2", CheckInTime: now.Add(-time.Hour)},
		},
		total: 5,
	}
	r := newAttendanceRouter(svc)
	sid := uuid.NewString()

	w := getAttendance(t, r, "/api/mobile/v1/services/"+sid+"/attendance?page=1&page_size=2")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListAttendanceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.CheckIns) != 2 || resp.CheckIns[0].UserID != "u3" {
		t.Fatalf("unexpected page: %+v", resp.CheckIns)
	}
	p := resp.Pagination
	if p.Page != 1 || p.PageSize != 2 || p.Total != 5 || p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if svc.gotServiceID != sid || svc.gotPage != 1 || svc.gotPageSize != 2 {
		t.Fatalf("query not forwarded: %q %d %d", svc.gotServiceID, svc.gotPage, svc.gotPageSize)
	}
}

func TestListAttendance_ClampsPagination(t *testing.T) {
	svc := &fakeAttendanceService{}
	r := newAttendanceRouter(svc)

	w := getAttendance(t, r, "/api/mobile/v1/services/"+uuid.NewString()+"/attendance?page=-3&page_size=9999")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.gotPage != 1 || svc.gotPageSize != 100 {
		t.Fatalf("expected clamped (1, 100), got (%d, %d)", svc.gotPage, svc.gotPageSize)
	}
}

func TestListAttendance_ServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", services.ErrServiceNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"other church", services.ErrChurchAccessDenied, http.StatusForbidden, ErrCodeForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAttendanceRouter(&fakeAttendanceService{err: tc.err})

			w := getAttendance(t, r, "/api/mobile/v1/services/"+uuid.NewString()+"/attendance")

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Fatalf("unexpected code: %q", resp.Code)
			}
		})
	}
}

func TestAttendanceFeed_DisabledWithoutHub(t *testing.T) {
	r := newAttendanceRouter(&fakeAttendanceService{})

	w := getAttendance(t, r, "/api/mobile/v1/ws/attendance")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
