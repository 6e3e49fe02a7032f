package dto

import "time"

type JobResponse struct {
	JobID        string     `json:"job_id"`
	TechnicianID string     `json:"technician_id"`
	Date         string     `json:"date"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`

	Address       string   `json:"address"`
	Lon           *float64 `json:"lon,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	SquareFootage *int     `json:"square_footage,omitempty"`

	Status     string     `json:"status"`
	CheckInAt  *time.Time `json:"check_in_at,omitempty"`
	CheckOutAt *time.Time `json:"check_out_at,omitempty"`
}

type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}
