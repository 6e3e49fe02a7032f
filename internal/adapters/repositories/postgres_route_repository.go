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

// Postgres-backed implementation of the RouteRepository port.
//
// Replace runs inside one transaction so a concurrent Get sees either the old
// plan or the new one, never a partially written stop list.
type PostgresRouteRepository struct{ DB *sql.DB }

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db}
}

func (s *PostgresRouteRepository) Replace(ctx context.Context, plan *domain.RoutePlan) error {
	if s.DB == nil {
		return errors.New("route repository: DB is nil")
	}
	if plan == nil {
		return errors.New("replace plan: plan must be non-nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace plan: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsertPlan := `
	INSERT INTO route_plans (
		technician_id, service_date,
		start_lon, start_lat, start_at, end_at,
		total_distance_meters, total_duration_seconds, planned_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (technician_id, service_date) DO UPDATE
	SET start_lon = EXCLUDED.start_lon,
		start_lat = EXCLUDED.start_lat,
		start_at = EXCLUDED.start_at,
		end_at = EXCLUDED.end_at,
		total_distance_meters = EXCLUDED.total_distance_meters,
		total_duration_seconds = EXCLUDED.total_duration_seconds,
		planned_at = now();
	`

	if _, err := tx.ExecContext(ctx, upsertPlan,
		plan.TechnicianID, plan.Date,
		plan.Start.Lon, plan.Start.Lat, plan.StartAt, plan.EndAt,
		plan.TotalDistanceMeters, plan.TotalDurationSeconds,
	); err != nil {
		return fmt.Errorf("replace plan: upsert header: %w", err)
	}

	// Overwrite semantics: the prior stop list goes away wholesale.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM route_stops WHERE technician_id = $1 AND service_date = $2;`,
		plan.TechnicianID, plan.Date,
	); err != nil {
		return fmt.Errorf("replace plan: delete prior stops: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_stops (
		technician_id, service_date, seq, job_id,
		lon, lat, arrive_at, depart_at, service_minutes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`)
	if err != nil {
		return fmt.Errorf("replace plan: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range plan.Stops {
		if _, err := stmt.ExecContext(ctx,
			plan.TechnicianID, plan.Date, st.Seq, st.JobID,
			st.Coords.Lon, st.Coords.Lat, st.ArriveAt, st.DepartAt, st.ServiceMinutes,
		); err != nil {
			return fmt.Errorf("replace plan: insert stop seq=%d: %w", st.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace plan: commit: %w", err)
	}

	return nil
}

func (s *PostgresRouteRepository) Get(
	ctx context.Context,
	technicianID uuid.UUID,
	date string,
) (*domain.RoutePlan, error) {
	if s.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	headerQuery := `
	SELECT start_lon, start_lat, start_at, end_at,
		total_distance_meters, total_duration_seconds
	FROM route_plans
	WHERE technician_id = $1 AND service_date = $2;
	`

	plan := &domain.RoutePlan{TechnicianID: technicianID, Date: date}
	err := s.DB.QueryRowContext(ctx, headerQuery, technicianID, date).Scan(
		&plan.Start.Lon, &plan.Start.Lat, &plan.StartAt, &plan.EndAt,
		&plan.TotalDistanceMeters, &plan.TotalDurationSeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan %s/%s: %w", technicianID, date, ports.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s/%s: %w", technicianID, date, err)
	}

	stopsQuery := `
	SELECT seq, job_id, lon, lat, arrive_at, depart_at, service_minutes
	FROM route_stops
	WHERE technician_id = $1 AND service_date = $2
	ORDER BY seq;
	`

	rows, err := s.DB.QueryContext(ctx, stopsQuery, technicianID, date)
	if err != nil {
		return nil, fmt.Errorf("get plan stops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.Stop
		if err := rows.Scan(
			&st.Seq, &st.JobID, &st.Coords.Lon, &st.Coords.Lat,
			&st.ArriveAt, &st.DepartAt, &st.ServiceMinutes,
		); err != nil {
			return nil, fmt.Errorf("get plan stops: scan row: %w", err)
		}
		plan.Stops = append(plan.Stops, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get plan stops: row iteration: %w", err)
	}

	return plan, nil
}
