package models

import (
	"errors"
	"fmt"
)

// ErrInvalidPeriod is returned for malformed or reversed periods
var ErrInvalidPeriod = errors.New("invalid period")

// LocationPing is one raw row of the ping table. Nil fields are SQL NULLs.
type LocationPing struct {
	SubscriberID    *string `json:"msisdn_no" db:"msisdn_no"`
	Latitude        *string `json:"lat_id" db:"lat_id"`
	Longitude       *string `json:"long_id" db:"long_id"`
	SourceTimestamp *int64  `json:"srce_file_ts" db:"srce_file_ts"` // yyyymmddHHMMSS
}

// Period is an inclusive range of calendar dates in YYYYMMDD form
type Period struct {
	Start int `json:"start" form:"start"`
	End   int `json:"end" form:"end"`
}

// SingleDay returns the period [date, date]
func SingleDay(date int) Period {
	return Period{Start: date, End: date}
}

// Validate checks both dates are eight digits and ordered
func (p Period) Validate() error {
	if p.Start < 10000101 || p.Start > 99991231 {
		return fmt.Errorf("%w: start %d is not YYYYMMDD", ErrInvalidPeriod, p.Start)
	}
	if p.End < 10000101 || p.End > 99991231 {
		return fmt.Errorf("%w: end %d is not YYYYMMDD", ErrInvalidPeriod, p.End)
	}
	if p.End < p.Start {
		return fmt.Errorf("%w: end %d before start %d", ErrInvalidPeriod, p.End, p.Start)
	}
	return nil
}

// Bounds returns the source timestamp range from start 00:00:00 to end 24:00:00
func (p Period) Bounds() (int64, int64) {
	return int64(p.Start)*1000000, int64(p.End)*1000000 + 240000
}

// LatLon is a mean location in degrees
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HourlyPoint is the mean location of one subscriber within one timestamp bucket
type HourlyPoint struct {
	SubscriberID string `json:"msisdn_no"`
	Timestamp    string `json:"timestamp"` // truncated source timestamp, e.g. 2024010114
	Point        LatLon `json:"points"`
}

// TimedPoint pairs a bucket timestamp with its mean location
type TimedPoint struct {
	Timestamp string `json:"timestamp"`
	Point     LatLon `json:"points"`
}

// MobilityTrace is a subscriber's bucket means over a period, without timestamps
type MobilityTrace struct {
	SubscriberID string   `json:"msisdn_no"`
	Points       []LatLon `json:"mobility_gene_points"`
}

// TimedMobilityTrace keeps each bucket's timestamp for day/night classification
type TimedMobilityTrace struct {
	SubscriberID string       `json:"msisdn_no"`
	Points       []TimedPoint `json:"mobility_gene_points_w_time"`
}
