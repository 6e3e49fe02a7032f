package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// Postgres-backed implementation of the JobRepository port.
type PostgresJobRepository struct{ DB *sql.DB }

func NewPostgresJobRepository(db *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{DB: db}
}

const jobColumns = `
	job_id,
	technician_id,
	service_date,
	scheduled_at,
	address,
	lon,
	lat,
	square_footage,
	status,
	check_in_at,
	check_in_lon,
	check_in_lat,
	check_out_at,
	check_out_lon,
	check_out_lat,
	created_at,
	updated_at
`

func (s *PostgresJobRepository) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if s.DB == nil {
		return nil, errors.New("job repository: DB is nil")
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1;`

	job, err := scanJob(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job %s: %w", id, ports.ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	return job, nil
}

// Return all jobs assigned to a technician for a service date, ordered by id
// for deterministic iteration.
func (s *PostgresJobRepository) GetAssignedJobs(
	ctx context.Context,
	technicianID uuid.UUID,
	date string,
) ([]*domain.Job, error) {
	if s.DB == nil {
		return nil, errors.New("job repository: DB is nil")
	}

	query := `
	SELECT ` + jobColumns + `
	FROM jobs
	WHERE technician_id = $1 AND service_date = $2
	ORDER BY job_id;
	`

	rows, err := s.DB.QueryContext(ctx, query, technicianID, date)
	if err != nil {
		return nil, fmt.Errorf("list assigned jobs: query jobs table: %w", err)
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0, 16)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list assigned jobs: scan row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assigned jobs: row iteration: %w", err)
	}

	return jobs, nil
}

// UpdateStatus performs the guard check and the status write as one
// conditional UPDATE: the row changes only while its status still equals
// expected. Zero rows affected means either the job vanished or another
// event won the race; the two cases map to different errors.
func (s *PostgresJobRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next domain.JobStatus,
	fields ports.StatusUpdate,
) error {
	if s.DB == nil {
		return errors.New("job repository: DB is nil")
	}

	query := `
	UPDATE jobs
	SET status = $1,
		check_in_at = COALESCE($2, check_in_at),
		check_in_lon = COALESCE($3, check_in_lon),
		check_in_lat = COALESCE($4, check_in_lat),
		check_out_at = COALESCE($5, check_out_at),
		check_out_lon = COALESCE($6, check_out_lon),
		check_out_lat = COALESCE($7, check_out_lat),
		updated_at = now()
	WHERE job_id = $8 AND status = $9;
	`

	var checkInLon, checkInLat, checkOutLon, checkOutLat *float64
	if fields.CheckInCoords != nil {
		checkInLon = &fields.CheckInCoords.Lon
		checkInLat = &fields.CheckInCoords.Lat
	}
	if fields.CheckOutCoords != nil {
		checkOutLon = &fields.CheckOutCoords.Lon
		checkOutLat = &fields.CheckOutCoords.Lat
	}

	res, err := s.DB.ExecContext(ctx, query,
		next,
		fields.CheckInAt, checkInLon, checkInLat,
		fields.CheckOutAt, checkOutLon, checkOutLat,
		id, expected,
	)
	if err != nil {
		return fmt.Errorf("update job status %s -> %s: %w", expected, next, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status: rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a lost race from a missing job.
	var exists bool
	if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1);`, id).Scan(&exists); err != nil {
		return fmt.Errorf("update job status: existence check: %w", err)
	}
	if !exists {
		return fmt.Errorf("update job status: job %s: %w", id, ports.ErrJobNotFound)
	}

	return fmt.Errorf("update job status: job %s expected %s: %w", id, expected, ports.ErrStatusConflict)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j            domain.Job
		status       string
		lon, lat     *float64
		ciLon, ciLat *float64
		coLon, coLat *float64
	)

	err := row.Scan(
		&j.ID,
		&j.TechnicianID,
		&j.Date,
		&j.ScheduledAt,
		&j.Address,
		&lon,
		&lat,
		&j.SquareFootage,
		&status,
		&j.CheckInAt,
		&ciLon,
		&ciLat,
		&j.CheckOutAt,
		&coLon,
		&coLat,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = domain.JobStatus(status)
	if lon != nil && lat != nil {
		j.Coords = &domain.Coordinates{Lon: *lon, Lat: *lat}
	}
	if ciLon != nil && ciLat != nil {
		j.CheckInCoords = &domain.Coordinates{Lon: *ciLon, Lat: *ciLat}
	}
	if coLon != nil && coLat != nil {
		j.CheckOutCoords = &domain.Coordinates{Lon: *coLon, Lat: *coLat}
	}

	return &j, nil
}
