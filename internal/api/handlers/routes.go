package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// RouteHandler exposes read-only access to stored daily plans.
type RouteHandler struct {
	Routes ports.RouteRepository
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	technicianID, err := uuid.Parse(r.URL.Query().Get("technician_id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "technician_id must be a UUID")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Routes.Get(r.Context(), technicianID, date)
	if err != nil {
		if errors.Is(err, ports.ErrPlanNotFound) {
			writeError(w, r, http.StatusNotFound, "plan not found")
			return
		}
		log.Printf("get route failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, planToDTO(plan))
}
