package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/models"
)

// ErrInvalidIdentifier is returned when a configured table or column name is not a plain identifier
var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Dialect selects the SQL functions used by the ping query
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectClickHouse
)

// PingQuery builds the hourly aggregation query over a ping table
type PingQuery struct {
	Table            string
	SubscriberColumn string
	LatitudeColumn   string
	LongitudeColumn  string
	TimestampColumn  string
	TimestampPrefix  int
	LatitudePrefix   int
	LongitudePrefix  int
	Dialect          Dialect
}

// NewPingQuery creates a query builder from the source and pipeline configuration
func NewPingQuery(src config.SourceConfig, m config.MobilityConfig, dialect Dialect) PingQuery {
	return PingQuery{
		Table:            src.Table,
		SubscriberColumn: src.SubscriberColumn,
		LatitudeColumn:   src.LatitudeColumn,
		LongitudeColumn:  src.LongitudeColumn,
		TimestampColumn:  src.TimestampColumn,
		TimestampPrefix:  m.TimestampPrefix,
		LatitudePrefix:   m.LatitudePrefix,
		LongitudePrefix:  m.LongitudePrefix,
		Dialect:          dialect,
	}
}

// Validate checks identifiers and prefix lengths
func (q PingQuery) Validate() error {
	for _, id := range []string{q.Table, q.SubscriberColumn, q.LatitudeColumn, q.LongitudeColumn, q.TimestampColumn} {
		if !identifierPattern.MatchString(id) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
		}
	}
	if q.TimestampPrefix < 1 || q.LatitudePrefix < 1 || q.LongitudePrefix < 1 {
		return errors.New("prefix lengths must be positive")
	}
	return nil
}

// sqliteNumeric converts a text column to REAL, or NULL when it is blank or
// not a plain decimal number. CAST alone turns such text into 0.0.
func sqliteNumeric(col string) string {
	return fmt.Sprintf(`CASE WHEN trim(%[1]s) GLOB '*[0-9]*'
			AND trim(%[1]s) NOT GLOB '*[^0-9.+-]*'
			AND trim(%[1]s) NOT GLOB '*.*.*'
			AND substr(trim(%[1]s), 2) NOT GLOB '*[+-]*'
			THEN CAST(trim(%[1]s) AS REAL) END`, col)
}

// Build returns the aggregation SQL and its bound arguments for a period.
//
// Rows are selected with timestamp BETWEEN <start>000000 AND <end>240000, the
// timestamp and coordinates are cut to their prefixes, rows with a NULL among
// subscriber, timestamp, lat and lon are dropped, and the mean lat/lon is
// computed per (timestamp, subscriber). Coordinates that are not numbers are
// left out of the mean; a group with none left has a NULL mean. Output columns: timestamp, subscriber,
// mean lat, mean lon; ordered by subscriber then timestamp.
func (q PingQuery) Build(period models.Period) (string, []interface{}, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if err := period.Validate(); err != nil {
		return "", nil, err
	}

	start, end := period.Bounds()

	var query string
	switch q.Dialect {
	case DialectClickHouse:
		query = fmt.Sprintf(`
		SELECT assumeNotNull(ts), assumeNotNull(subscriber_id), avg(toFloat64OrNull(lat)) AS mean_lat, avg(toFloat64OrNull(lon)) AS mean_lon
		FROM (
			SELECT
				toString(%[1]s) AS subscriber_id,
				substring(toString(%[2]s), 1, %[6]d) AS ts,
				substring(toString(%[3]s), 1, %[7]d) AS lat,
				substring(toString(%[4]s), 1, %[8]d) AS lon
			FROM %[5]s
			WHERE toUInt64OrNull(toString(%[2]s)) BETWEEN ? AND ?
		) AS p
		WHERE subscriber_id IS NOT NULL AND ts IS NOT NULL AND lat IS NOT NULL AND lon IS NOT NULL
		GROUP BY ts, subscriber_id
		ORDER BY subscriber_id, ts`,
			q.SubscriberColumn, q.TimestampColumn, q.LatitudeColumn, q.LongitudeColumn, q.Table,
			q.TimestampPrefix, q.LatitudePrefix, q.LongitudePrefix)
	default:
		query = fmt.Sprintf(`
		SELECT ts, subscriber_id, AVG(%[9]s) AS mean_lat, AVG(%[10]s) AS mean_lon
		FROM (
			SELECT
				%[1]s AS subscriber_id,
				substr(CAST(%[2]s AS TEXT), 1, %[6]d) AS ts,
				substr(CAST(%[3]s AS TEXT), 1, %[7]d) AS lat,
				substr(CAST(%[4]s AS TEXT), 1, %[8]d) AS lon
			FROM %[5]s
			WHERE %[2]s BETWEEN ? AND ?
		) AS p
		WHERE subscriber_id IS NOT NULL AND ts IS NOT NULL AND lat IS NOT NULL AND lon IS NOT NULL
		GROUP BY ts, subscriber_id
		ORDER BY subscriber_id, ts`,
			q.SubscriberColumn, q.TimestampColumn, q.LatitudeColumn, q.LongitudeColumn, q.Table,
			q.TimestampPrefix, q.LatitudePrefix, q.LongitudePrefix,
			sqliteNumeric("lat"), sqliteNumeric("lon"))
	}

	return query, []interface{}{start, end}, nil
}

// BuildCount returns a query counting the raw pings in a period
func (q PingQuery) BuildCount(period models.Period) (string, []interface{}, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if err := period.Validate(); err != nil {
		return "", nil, err
	}
	start, end := period.Bounds()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s BETWEEN ? AND ?", q.Table, q.TimestampColumn)
	return query, []interface{}{start, end}, nil
}
