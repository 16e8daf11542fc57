package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/mobility-backend-go/internal/config"
)

// Source driver names
const (
	DriverSQLite     = "sqlite"
	DriverClickHouse = "clickhouse"
)

// OpenPingSource returns the ping source selected by cfg.Source.Driver.
// The returned close function releases any connection the source owns.
func OpenPingSource(ctx context.Context, cfg *config.Config, db *sql.DB) (PingSource, func() error, error) {
	switch cfg.Source.Driver {
	case DriverSQLite, "":
		query := NewPingQuery(cfg.Source, cfg.Mobility, DialectSQLite)
		if err := query.Validate(); err != nil {
			return nil, nil, err
		}
		return NewPingRepository(db, query), func() error { return nil }, nil
	case DriverClickHouse:
		query := NewPingQuery(cfg.Source, cfg.Mobility, DialectClickHouse)
		if err := query.Validate(); err != nil {
			return nil, nil, err
		}
		conn, err := OpenClickHouse(ctx, cfg.Source.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		return NewClickHousePingRepository(conn, query), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown ping source driver %q", cfg.Source.Driver)
	}
}
