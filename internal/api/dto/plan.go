package dto

import "time"

type PlanRequest struct {
	TechnicianID string `json:"technician_id"`
	Date         string `json:"date"`
	StartAddress string `json:"start_address"`
	// StartTime is the planned departure time of day, "15:04" form.
	StartTime string `json:"start_time"`
}

type StopResponse struct {
	JobID          string    `json:"job_id"`
	Seq            int       `json:"seq"`
	Lon            float64   `json:"lon"`
	Lat            float64   `json:"lat"`
	ArriveAt       time.Time `json:"arrive_at"`
	DepartAt       time.Time `json:"depart_at"`
	ServiceMinutes int       `json:"service_minutes"`
}

type PlanResponse struct {
	TechnicianID         string         `json:"technician_id"`
	Date                 string         `json:"date"`
	StartLon             float64        `json:"start_lon"`
	StartLat             float64        `json:"start_lat"`
	StartAt              time.Time      `json:"start_at"`
	EndAt                time.Time      `json:"end_at"`
	TotalDistanceMeters  int            `json:"total_distance_meters"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	Stops                []StopResponse `json:"stops"`
}

type PlanResultResponse struct {
	Plan          PlanResponse `json:"plan"`
	DroppedJobIDs []string     `json:"dropped_job_ids"`
}
