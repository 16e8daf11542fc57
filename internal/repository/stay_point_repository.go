package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// StayPointRepository handles database operations for stay points
type StayPointRepository struct {
	db *sql.DB
}

// NewStayPointRepository creates a new stay point repository
func NewStayPointRepository(db *sql.DB) *StayPointRepository {
	return &StayPointRepository{db: db}
}

// SaveStayPoints upserts stay points keyed by period and subscriber
func (r *StayPointRepository) SaveStayPoints(ctx context.Context, points []models.StoredStayPoint) error {
	if len(points) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO stay_points (
				task_id, period_start, period_end, msisdn_no,
				day_geohash, night_geohash, day_count, night_count, commute_m
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (period_start, period_end, msisdn_no) DO UPDATE SET
				task_id = excluded.task_id,
				day_geohash = excluded.day_geohash,
				night_geohash = excluded.night_geohash,
				day_count = excluded.day_count,
				night_count = excluded.night_count,
				commute_m = excluded.commute_m
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare stay point insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			_, err := stmt.ExecContext(ctx,
				p.TaskID, p.PeriodStart, p.PeriodEnd, p.SubscriberID,
				p.DaytimeHash, p.NighttimeHash, p.DayCount, p.NightCount, p.CommuteMeters,
			)
			if err != nil {
				return fmt.Errorf("failed to save stay point for %s: %w", p.SubscriberID, err)
			}
		}
		return nil
	})
}

// DeletePeriod removes the stay points computed for exactly this period
func (r *StayPointRepository) DeletePeriod(ctx context.Context, period models.Period) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM stay_points WHERE period_start = ? AND period_end = ?",
		period.Start, period.End)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stay points: %w", err)
	}
	return result.RowsAffected()
}

// GetStayPoints retrieves stay points with filtering and pagination
func (r *StayPointRepository) GetStayPoints(ctx context.Context, filter models.StayPointFilter) ([]models.StoredStayPoint, int64, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}

	if filter.SubscriberID != "" {
		conditions = append(conditions, "msisdn_no = ?")
		args = append(args, filter.SubscriberID)
	}
	if filter.PeriodStart > 0 {
		conditions = append(conditions, "period_start >= ?")
		args = append(args, filter.PeriodStart)
	}
	if filter.PeriodEnd > 0 {
		conditions = append(conditions, "period_end <= ?")
		args = append(args, filter.PeriodEnd)
	}
	if filter.DaytimeHash != "" {
		conditions = append(conditions, "day_geohash = ?")
		args = append(args, filter.DaytimeHash)
	}
	if filter.NighttimeHash != "" {
		conditions = append(conditions, "night_geohash = ?")
		args = append(args, filter.NighttimeHash)
	}
	if filter.TaskID > 0 {
		conditions = append(conditions, "task_id = ?")
		args = append(args, filter.TaskID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stay_points"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stay points: %w", err)
	}

	query := `SELECT id, task_id, period_start, period_end, msisdn_no,
		day_geohash, night_geohash, day_count, night_count, commute_m, created_at
		FROM stay_points` + where + " ORDER BY period_start DESC, msisdn_no LIMIT ? OFFSET ?"
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stay points: %w", err)
	}
	defer rows.Close()

	points := []models.StoredStayPoint{}
	for rows.Next() {
		var p models.StoredStayPoint
		var commute sql.NullFloat64
		err := rows.Scan(
			&p.ID, &p.TaskID, &p.PeriodStart, &p.PeriodEnd, &p.SubscriberID,
			&p.DaytimeHash, &p.NighttimeHash, &p.DayCount, &p.NightCount, &commute, &p.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan stay point: %w", err)
		}
		if commute.Valid {
			v := commute.Float64
			p.CommuteMeters = &v
		}
		points = append(points, p)
	}

	return points, total, rows.Err()
}
