package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/services"
)

type stubPlanner struct {
	result *services.RoutePlanResult
	err    error

	got services.PlanDayRequest
}

func (s *stubPlanner) PlanTechnicianDay(ctx context.Context, req services.PlanDayRequest) (*services.RoutePlanResult, error) {
	s.got = req
	return s.result, s.err
}

func postPlan(t *testing.T, h *PlanHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/plan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Plan(rec, req)
	return rec
}

func samplePlanResult(techID uuid.UUID) *services.RoutePlanResult {
	jobID := uuid.New()
	arrive := time.Date(2026, 3, 9, 9, 10, 0, 0, time.UTC)
	return &services.RoutePlanResult{
		Plan: &domain.RoutePlan{
			TechnicianID: techID,
			Date:         "2026-03-09",
			Start:        domain.Coordinates{Lon: -112.0, Lat: 33.0},
			StartAt:      time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC),
			EndAt:        arrive.Add(75 * time.Minute),
			Stops: []domain.Stop{{
				JobID:          jobID,
				Seq:            1,
				Coords:         domain.Coordinates{Lon: -112.0, Lat: 33.1},
				ArriveAt:       arrive,
				DepartAt:       arrive.Add(75 * time.Minute),
				ServiceMinutes: 75,
			}},
			TotalDurationSeconds: 600 + 75*60,
			TotalDistanceMeters:  8000,
		},
		DroppedJobIDs: []uuid.UUID{uuid.New()},
	}
}

func TestPlanSuccess(t *testing.T) {
	techID := uuid.New()
	stub := &stubPlanner{result: samplePlanResult(techID)}
	h := &PlanHandler{Planner: stub, Timeout: time.Second}

	body := fmt.Sprintf(`{
		"technician_id": %q,
		"date": "2026-03-09",
		"start_address": "2375 E Camelback Rd, Phoenix, AZ",
		"start_time": "09:00"
	}`, techID)

	rec := postPlan(t, h, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if stub.got.TechnicianID != techID {
		t.Fatalf("technician not forwarded: %s", stub.got.TechnicianID)
	}
	if stub.got.Date != "2026-03-09" {
		t.Fatalf("date not forwarded: %s", stub.got.Date)
	}
	want := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	if !stub.got.StartAt.Equal(want) {
		t.Fatalf("expected start %s, got %s", want, stub.got.StartAt)
	}

	var resp struct {
		Plan struct {
			Stops []struct {
				Seq            int    `json:"seq"`
				ArriveAt       string `json:"arrive_at"`
				ServiceMinutes int    `json:"service_minutes"`
			} `json:"stops"`
		} `json:"plan"`
		DroppedJobIDs []string `json:"dropped_job_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Plan.Stops) != 1 || resp.Plan.Stops[0].Seq != 1 {
		t.Fatalf("unexpected stops: %+v", resp.Plan.Stops)
	}
	if resp.Plan.Stops[0].ServiceMinutes != 75 {
		t.Fatalf("expected service_minutes 75, got %d", resp.Plan.Stops[0].ServiceMinutes)
	}
	if len(resp.DroppedJobIDs) != 1 {
		t.Fatalf("expected 1 dropped job id, got %v", resp.DroppedJobIDs)
	}
}

func TestPlanErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"no routable stops", services.ErrNoRoutableStops, http.StatusUnprocessableEntity},
		{"start unroutable", services.ErrStartUnroutable, http.StatusUnprocessableEntity},
		{"travel estimation", services.ErrTravelEstimation, http.StatusBadGateway},
		{"repository failure", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &PlanHandler{Planner: &stubPlanner{err: fmt.Errorf("plan day: %w", tc.err)}}
			body := fmt.Sprintf(`{"technician_id": %q, "date": "2026-03-09", "start_address": "somewhere"}`, uuid.New())

			rec := postPlan(t, h, body)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPlanValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown field", fmt.Sprintf(`{"technician_id": %q, "date": "2026-03-09", "start_address": "x", "mystery": true}`, uuid.New())},
		{"bad technician id", `{"technician_id": "nope", "date": "2026-03-09", "start_address": "x"}`},
		{"bad date", fmt.Sprintf(`{"technician_id": %q, "date": "03/09/2026", "start_address": "x"}`, uuid.New())},
		{"missing start address", fmt.Sprintf(`{"technician_id": %q, "date": "2026-03-09", "start_address": "  "}`, uuid.New())},
		{"bad start time", fmt.Sprintf(`{"technician_id": %q, "date": "2026-03-09", "start_address": "x", "start_time": "9 AM"}`, uuid.New())},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubPlanner{result: samplePlanResult(uuid.New())}
			rec := postPlan(t, &PlanHandler{Planner: stub}, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if stub.got.TechnicianID != uuid.Nil {
				t.Fatal("invalid request must not reach the planner")
			}
		})
	}
}

func TestPlanMethodNotAllowed(t *testing.T) {
	h := &PlanHandler{Planner: &stubPlanner{}}
	req := httptest.NewRequest(http.MethodGet, "/api/plan", nil)
	rec := httptest.NewRecorder()
	h.Plan(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
