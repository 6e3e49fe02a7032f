package dto

import "time"

type EventRequest struct {
	JobID        string `json:"job_id"`
	TechnicianID string `json:"technician_id"`
	Kind         string `json:"kind"`

	Lon        float64    `json:"lon"`
	Lat        float64    `json:"lat"`
	Timestamp  *time.Time `json:"timestamp"`
	ETASeconds *int       `json:"eta_seconds,omitempty"`
}

type EventResponse struct {
	Status string `json:"status"`
}
