package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// PingSource yields per-subscriber bucket means for a period
type PingSource interface {
	HourlyPoints(ctx context.Context, period models.Period) ([]models.HourlyPoint, error)
}

// PingRepository reads and writes the location ping table in SQLite
type PingRepository struct {
	db    *sql.DB
	query PingQuery
}

// NewPingRepository creates a new ping repository
func NewPingRepository(db *sql.DB, query PingQuery) *PingRepository {
	query.Dialect = DialectSQLite
	return &PingRepository{db: db, query: query}
}

// HourlyPoints runs the hourly aggregation for a period
func (r *PingRepository) HourlyPoints(ctx context.Context, period models.Period) ([]models.HourlyPoint, error) {
	query, args, err := r.query.Build(period)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly points: %w", err)
	}
	defer rows.Close()

	var points []models.HourlyPoint
	for rows.Next() {
		var (
			p        models.HourlyPoint
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&p.Timestamp, &p.SubscriberID, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan hourly point: %w", err)
		}
		// every coordinate in the bucket was unparseable
		if !lat.Valid || !lon.Valid {
			continue
		}
		p.Point = models.LatLon{Lat: lat.Float64, Lon: lon.Float64}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly points: %w", err)
	}

	return points, nil
}

// CountPings counts raw pings in a period, including incomplete rows
func (r *PingRepository) CountPings(ctx context.Context, period models.Period) (int64, error) {
	query, args, err := r.query.BuildCount(period)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pings: %w", err)
	}
	return count, nil
}

// InsertPings bulk-loads raw pings in a single transaction
func (r *PingRepository) InsertPings(ctx context.Context, pings []models.LocationPing) (int, error) {
	if len(pings) == 0 {
		return 0, nil
	}
	if err := r.query.Validate(); err != nil {
		return 0, err
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (?, ?, ?, ?)",
		r.query.Table, r.query.SubscriberColumn, r.query.LatitudeColumn,
		r.query.LongitudeColumn, r.query.TimestampColumn)

	err := database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, p := range pings {
			if _, err := stmt.ExecContext(ctx, p.SubscriberID, p.Latitude, p.Longitude, p.SourceTimestamp); err != nil {
				return fmt.Errorf("failed to insert ping %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(pings), nil
}
