package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/api/dto"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/services"
)

// EventApplier is the slice of the lifecycle tracker this handler needs.
type EventApplier interface {
	Apply(ctx context.Context, ev domain.LifecycleEvent) (domain.JobStatus, error)
}

// EventHandler accepts field lifecycle events (pings, check-ins, check-outs).
//
// Guard failures surface as structured errors so the technician's client can
// show a clear "already checked in" / "not yet checked in" message.
type EventHandler struct {
	Tracker EventApplier
}

func (h *EventHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.EventRequest

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

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "job_id must be a UUID")
		return
	}

	technicianID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "technician_id must be a UUID")
		return
	}

	kind := domain.EventKind(req.Kind)
	if !kind.Valid() {
		writeError(w, r, http.StatusBadRequest, "kind must be one of en_route, check_in, check_out, cancel")
		return
	}

	reportedAt := time.Now().UTC()
	if req.Timestamp != nil {
		reportedAt = req.Timestamp.UTC()
	}

	status, err := h.Tracker.Apply(r.Context(), domain.LifecycleEvent{
		JobID:        jobID,
		TechnicianID: technicianID,
		Kind:         kind,
		Coords:       domain.Coordinates{Lon: req.Lon, Lat: req.Lat},
		ReportedAt:   reportedAt,
		ETASeconds:   req.ETASeconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransition):
			writeError(w, r, http.StatusConflict, "invalid_transition")
		case errors.Is(err, services.ErrNotAssigned):
			writeError(w, r, http.StatusForbidden, "not_assigned")
		case errors.Is(err, ports.ErrJobNotFound):
			writeError(w, r, http.StatusNotFound, "job not found")
		default:
			log.Printf("apply lifecycle event failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, dto.EventResponse{Status: string(status)})
}
