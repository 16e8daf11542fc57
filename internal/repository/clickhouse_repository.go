package repository

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// clickHouseQuerier is the subset of driver.Conn used for reads
type clickHouseQuerier interface {
	Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)
}

// ClickHousePingRepository reads location pings from a ClickHouse warehouse table
type ClickHousePingRepository struct {
	conn  clickHouseQuerier
	query PingQuery
}

// OpenClickHouse connects to ClickHouse and verifies the connection
func OpenClickHouse(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// NewClickHousePingRepository creates a ping source over a ClickHouse connection
func NewClickHousePingRepository(conn driver.Conn, query PingQuery) *ClickHousePingRepository {
	return newClickHousePingRepository(conn, query)
}

func newClickHousePingRepository(conn clickHouseQuerier, query PingQuery) *ClickHousePingRepository {
	query.Dialect = DialectClickHouse
	return &ClickHousePingRepository{conn: conn, query: query}
}

// HourlyPoints runs the hourly aggregation inside ClickHouse
func (r *ClickHousePingRepository) HourlyPoints(ctx context.Context, period models.Period) ([]models.HourlyPoint, error) {
	query, args, err := r.query.Build(period)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly points: %w", err)
	}
	defer rows.Close()

	var points []models.HourlyPoint
	for rows.Next() {
		var (
			ts, subscriber string
			lat, lon       *float64
		)
		if err := rows.Scan(&ts, &subscriber, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan hourly point: %w", err)
		}
		// coordinates that failed to parse average to NULL
		if lat == nil || lon == nil {
			continue
		}
		points = append(points, models.HourlyPoint{
			SubscriberID: subscriber,
			Timestamp:    ts,
			Point:        models.LatLon{Lat: *lat, Lon: *lon},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly points: %w", err)
	}

	return points, nil
}
