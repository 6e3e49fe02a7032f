package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/api/dto"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/services"
)

// DayPlanner is the slice of the planning service this handler needs.
type DayPlanner interface {
	PlanTechnicianDay(ctx context.Context, req services.PlanDayRequest) (*services.RoutePlanResult, error)
}

// PlanHandler triggers one planning run for a technician-day.
type PlanHandler struct {
	Planner DayPlanner

	// Timeout bounds the whole planning run, travel-estimator calls included.
	// A run that exceeds it fails cleanly; no partial plan is committed.
	Timeout time.Duration
}

func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	technicianID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "technician_id must be a UUID")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.StartAddress) == "" {
		writeError(w, r, http.StatusBadRequest, "start_address is required")
		return
	}

	startAt, err := combineDateTime(date, req.StartTime)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	result, err := h.Planner.PlanTechnicianDay(ctx, services.PlanDayRequest{
		TechnicianID: technicianID,
		Date:         date,
		StartAddress: strings.TrimSpace(req.StartAddress),
		StartAt:      startAt,
	})
	if err != nil {
		log.Printf("plan technician day failed: %v", err)
		switch {
		case errors.Is(err, services.ErrNoRoutableStops):
			writeError(w, r, http.StatusUnprocessableEntity, "no_routable_stops")
		case errors.Is(err, services.ErrStartUnroutable):
			writeError(w, r, http.StatusUnprocessableEntity, "start_address_unroutable")
		case errors.Is(err, services.ErrTravelEstimation):
			writeError(w, r, http.StatusBadGateway, "travel_estimation_failed")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	dropped := make([]string, 0, len(result.DroppedJobIDs))
	for _, id := range result.DroppedJobIDs {
		dropped = append(dropped, id.String())
	}

	writeJSON(w, r, http.StatusOK, dto.PlanResultResponse{
		Plan:          planToDTO(result.Plan),
		DroppedJobIDs: dropped,
	})
}

// combineDateTime merges the service date and an optional "15:04" time of day
// into a single UTC timestamp. An absent time means start now.
func combineDateTime(date, timeOfDay string) (time.Time, error) {
	if strings.TrimSpace(timeOfDay) == "" {
		return time.Now().UTC(), nil
	}

	t, err := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
	if err != nil {
		return time.Time{}, errors.New("start_time must be HH:MM")
	}
	return t.UTC(), nil
}
