package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
)

type stubAttendanceService struct {
	recordResp attendance.AttendanceResponse
	recordErr  error
	listResp   []attendance.AttendanceResponse
	statsResp  attendance.Stats
	deleteErr  error
}

func (s *stubAttendanceService) Record(ctx context.Context, req attendance.RecordRequest) (attendance.AttendanceResponse, error) {
	return s.recordResp, s.recordErr
}

func (s *stubAttendanceService) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.AttendanceResponse, error) {
	return s.listResp, nil
}

func (s *stubAttendanceService) GetByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceResponse, error) {
	return s.listResp, nil
}

func (s *stubAttendanceService) Stats(ctx context.Context, from, to time.Time) (attendance.Stats, error) {
	return s.statsResp, nil
}

func (s *stubAttendanceService) Delete(ctx context.Context, id string) error {
	return s.deleteErr
}

func newTestRouter(svc attendance.AttendanceService) *chi.Mux {
	r := chi.NewRouter()
	h := NewAttendanceHandler(svc)
	r.Post("/attendance", h.Record)
	r.Get("/attendance", h.List)
	r.Get("/attendance/stats", h.Stats)
	r.Get("/attendance/employees/{employeeID}", h.GetByEmployee)
	r.Delete("/attendance/{id}", h.Delete)
	return r
}

func TestAttendanceHandler_Record(t *testing.T) {
	svc := &stubAttendanceService{
		recordResp: attendance.AttendanceResponse{
			ID:         "att-1",
			EmployeeID: "emp-1",
			Date:       "2024-01-10",
			Status:     "present",
		},
	}
	router := newTestRouter(svc)

	body, _ := json.Marshal(map[string]any{
		"employee_id": "emp-1",
		"date":        "2024-01-10",
		"clock_in":    "08:02",
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/attendance", bytes.NewReader(body))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool                          `json:"success"`
		Data    attendance.AttendanceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "att-1", resp.Data.ID)
}

func TestAttendanceHandler_Record_ValidationFailure(t *testing.T) {
	router := newTestRouter(&stubAttendanceService{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing employee_id", map[string]any{"date": "2024-01-10"}},
		{"bad date", map[string]any{"employee_id": "emp-1", "date": "10-01-2024"}},
		{"bad status", map[string]any{"employee_id": "emp-1", "date": "2024-01-10", "status": "vacation"}},
		{"bad clock", map[string]any{"employee_id": "emp-1", "date": "2024-01-10", "clock_in": "8am"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/attendance", bytes.NewReader(body))
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestAttendanceHandler_List_RejectsBadDateParams(t *testing.T) {
	router := newTestRouter(&stubAttendanceService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/attendance?from=not-a-date", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandler_Delete_NotFound(t *testing.T) {
	svc := &stubAttendanceService{deleteErr: attendance.ErrAttendanceNotFound}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/attendance/missing", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandler_Stats(t *testing.T) {
	svc := &stubAttendanceService{statsResp: attendance.Stats{Total: 10, Present: 7, Late: 2, Absent: 1}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/attendance/stats?from=2024-01-01&to=2024-01-31", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data attendance.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(10), resp.Data.Total)
	assert.Equal(t, int64(2), resp.Data.Late)
}
