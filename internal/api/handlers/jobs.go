package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/api/dto"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// JobHandler exposes read-only job retrieval endpoints.
type JobHandler struct {
	Repo ports.JobRepository
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
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

	jobs, err := h.Repo.GetAssignedJobs(r.Context(), technicianID, date)
	if err != nil {
		log.Printf("list jobs failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListJobsResponse{Jobs: make([]dto.JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		jr := dto.JobResponse{
			JobID:         j.ID.String(),
			TechnicianID:  j.TechnicianID.String(),
			Date:          j.Date,
			ScheduledAt:   j.ScheduledAt,
			Address:       j.Address,
			SquareFootage: j.SquareFootage,
			Status:        string(j.Status),
			CheckInAt:     j.CheckInAt,
			CheckOutAt:    j.CheckOutAt,
		}
		if j.Coords != nil {
			jr.Lon = &j.Coords.Lon
			jr.Lat = &j.Coords.Lat
		}
		res.Jobs = append(res.Jobs, jr)
	}

	writeJSON(w, r, http.StatusOK, res)
}
