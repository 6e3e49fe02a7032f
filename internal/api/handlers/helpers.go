package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/api/dto"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// parseDate validates the YYYY-MM-DD service date.
func parseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t.Format("2006-01-02"), nil
}

func planToDTO(plan *domain.RoutePlan) dto.PlanResponse {
	stops := make([]dto.StopResponse, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		stops = append(stops, dto.StopResponse{
			JobID:          s.JobID.String(),
			Seq:            s.Seq,
			Lon:            s.Coords.Lon,
			Lat:            s.Coords.Lat,
			ArriveAt:       s.ArriveAt,
			DepartAt:       s.DepartAt,
			ServiceMinutes: s.ServiceMinutes,
		})
	}

	return dto.PlanResponse{
		TechnicianID:         plan.TechnicianID.String(),
		Date:                 plan.Date,
		StartLon:             plan.Start.Lon,
		StartLat:             plan.Start.Lat,
		StartAt:              plan.StartAt,
		EndAt:                plan.EndAt,
		TotalDistanceMeters:  plan.TotalDistanceMeters,
		TotalDurationSeconds: plan.TotalDurationSeconds,
		Stops:                stops,
	}
}
