package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Initialize the database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createJobsQuery := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_id UUID PRIMARY KEY,
		technician_id UUID NOT NULL,
		service_date TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ,
		address TEXT NOT NULL,
		lon DOUBLE PRECISION,
		lat DOUBLE PRECISION,
		square_footage INTEGER,
		status TEXT NOT NULL DEFAULT 'scheduled',
		check_in_at TIMESTAMPTZ,
		check_in_lon DOUBLE PRECISION,
		check_in_lat DOUBLE PRECISION,
		check_out_at TIMESTAMPTZ,
		check_out_lon DOUBLE PRECISION,
		check_out_lat DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createJobsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_jobs_technician_date
    ON jobs(technician_id, service_date);
	`

	createPlansQuery := `
	CREATE TABLE IF NOT EXISTS route_plans (
		technician_id UUID NOT NULL,
		service_date TEXT NOT NULL,
		start_lon DOUBLE PRECISION NOT NULL,
		start_lat DOUBLE PRECISION NOT NULL,
		start_at TIMESTAMPTZ NOT NULL,
		end_at TIMESTAMPTZ NOT NULL,
		total_distance_meters INTEGER NOT NULL,
		total_duration_seconds INTEGER NOT NULL,
		planned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (technician_id, service_date)
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		technician_id UUID NOT NULL,
		service_date TEXT NOT NULL,
		seq INTEGER NOT NULL,
		job_id UUID NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		arrive_at TIMESTAMPTZ NOT NULL,
		depart_at TIMESTAMPTZ NOT NULL,
		service_minutes INTEGER NOT NULL,
		PRIMARY KEY (technician_id, service_date, seq)
	);
	`

	createTravelCacheQuery := `
	CREATE TABLE IF NOT EXISTS travel_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL
    );
	`

	statements := []string{
		createJobsQuery,
		createJobsIndexQuery,
		createPlansQuery,
		createStopsQuery,
		createTravelCacheQuery,
		createGeocodeCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type JobSeed struct {
	JobID         string `json:"job_id"`
	TechnicianID  string `json:"technician_id"`
	Date          string `json:"date"`
	ScheduledAt   string `json:"scheduled_at,omitempty"`
	Address       string `json:"address"`
	SquareFootage *int   `json:"square_footage,omitempty"`
}

// Populate the database with job data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed jobs: read %q: %w", jsonPath, err)
	}

	var data []JobSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed jobs: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed jobs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO jobs (job_id, technician_id, service_date, scheduled_at, address, square_footage, status)
	VALUES ($1, $2, $3, $4, $5, $6, 'scheduled')
	ON CONFLICT (job_id) DO UPDATE
	SET technician_id = EXCLUDED.technician_id,
		service_date = EXCLUDED.service_date,
		scheduled_at = EXCLUDED.scheduled_at,
		address = EXCLUDED.address,
		square_footage = EXCLUDED.square_footage;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed jobs: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range data {
		jobID, err := uuid.Parse(item.JobID)
		if err != nil {
			return fmt.Errorf("seed jobs: invalid job_id at index %d: %w", i+1, err)
		}
		techID, err := uuid.Parse(item.TechnicianID)
		if err != nil {
			return fmt.Errorf("seed jobs: invalid technician_id at index %d: %w", i+1, err)
		}

		addr := strings.TrimSpace(item.Address)
		if addr == "" {
			return fmt.Errorf("seed jobs: item at index %d: address cannot be empty", i+1)
		}

		var scheduledAt *time.Time
		if item.ScheduledAt != "" {
			t, err := time.Parse(time.RFC3339, item.ScheduledAt)
			if err != nil {
				return fmt.Errorf("seed jobs: invalid scheduled_at at index %d: %w", i+1, err)
			}
			scheduledAt = &t
		}

		if _, err := stmt.Exec(jobID, techID, item.Date, scheduledAt, addr, item.SquareFootage); err != nil {
			return fmt.Errorf("seed jobs: insert job_id=%s: %w", jobID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed jobs: commit tx: %w", err)
	}

	return nil
}
