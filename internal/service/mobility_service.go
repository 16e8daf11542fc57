package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/spatial"
	"github.com/jengzang/mobility-backend-go/internal/stats"
)

// ErrInvalidGeohash is returned for malformed geohash strings
var ErrInvalidGeohash = errors.New("invalid geohash")

// maxSyncDates caps how many dates a synchronous profile request may cover
const maxSyncDates = 31

// MobilityService handles on-demand mobility queries and stored results
type MobilityService struct {
	pipeline   *mobility.Pipeline
	pings      *repository.PingRepository
	profiles   *repository.ProfileRepository
	stayPoints *repository.StayPointRepository
}

// NewMobilityService creates a new mobility service
func NewMobilityService(
	pipeline *mobility.Pipeline,
	pings *repository.PingRepository,
	profiles *repository.ProfileRepository,
	stayPoints *repository.StayPointRepository,
) *MobilityService {
	return &MobilityService{
		pipeline:   pipeline,
		pings:      pings,
		profiles:   profiles,
		stayPoints: stayPoints,
	}
}

// ParseDates parses a comma-separated list of YYYYMMDD dates
func ParseDates(raw string) ([]int, error) {
	parts := config.SplitList(raw)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no dates given", models.ErrInvalidPeriod)
	}

	dates := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date", models.ErrInvalidPeriod, p)
		}
		if err := models.SingleDay(d).Validate(); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// LocationProfiles computes the location dict of each date, in request order
func (s *MobilityService) LocationProfiles(ctx context.Context, dates []int) ([]models.DatedLocationDict, error) {
	if len(dates) > maxSyncDates {
		return nil, fmt.Errorf("%w: at most %d dates per request", models.ErrInvalidPeriod, maxSyncDates)
	}

	dicts, err := s.pipeline.GenerateLocationDicts(ctx, dates)
	if err != nil {
		return nil, err
	}

	out := make([]models.DatedLocationDict, len(dicts))
	for i, d := range dicts {
		out[i] = models.DatedLocationDict{Date: dates[i], Subscribers: d}
	}
	return out, nil
}

// StayPoints computes stay points for a period. Empty hour lists use the configured defaults.
func (s *MobilityService) StayPoints(ctx context.Context, q models.StayPointQuery) ([]models.StayPointRow, error) {
	period := models.Period{Start: q.Start, End: q.End}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	var day, night mobility.HourSet
	if hours := config.SplitList(q.DayHours); len(hours) > 0 {
		day = mobility.NewHourSet(hours)
	}
	if hours := config.SplitList(q.NightHours); len(hours) > 0 {
		night = mobility.NewHourSet(hours)
	}

	rows, err := s.pipeline.GenerateStayPoints(ctx, period, day, night)
	if err != nil {
		return nil, err
	}

	if !q.WithPoints {
		for i := range rows {
			rows[i].Points = nil
		}
	}
	return rows, nil
}

// StoredStayPoints returns persisted stay points with pagination
func (s *MobilityService) StoredStayPoints(ctx context.Context, filter models.StayPointFilter) (*models.StayPointsResponse, error) {
	filter.Normalize()

	points, total, err := s.stayPoints.GetStayPoints(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.StayPointsResponse{
		Data:       points,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}

// Profile returns a subscriber's stored profile for one date
func (s *MobilityService) Profile(ctx context.Context, subscriberID string, date int) ([]models.ProfileEntry, error) {
	if err := models.SingleDay(date).Validate(); err != nil {
		return nil, err
	}
	return s.profiles.GetProfile(ctx, subscriberID, date)
}

// ProfileSummary reduces a stored profile to concentration and spread measures.
// It returns nil when the subscriber has no profile for the date.
func (s *MobilityService) ProfileSummary(ctx context.Context, subscriberID string, date int) (*models.ProfileSummary, error) {
	entries, err := s.Profile(ctx, subscriberID, date)
	if err != nil || len(entries) == 0 {
		return nil, err
	}

	hashes := make([]string, len(entries))
	weights := make([]float64, len(entries))
	visits := 0
	for i, e := range entries {
		hashes[i] = e.Geohash
		weights[i] = float64(e.VisitCount)
		visits += e.VisitCount
	}

	// entries are ordered by rank, so the first is the most visited cell
	points := spatial.CellCenters(hashes)
	center := spatial.WeightedCentroid(points, weights)

	return &models.ProfileSummary{
		SampleDate:        date,
		SubscriberID:      subscriberID,
		Cells:             len(entries),
		Visits:            visits,
		TopGeohash:        entries[0].Geohash,
		TopShare:          stats.Share(weights, 0),
		Entropy:           stats.ShannonEntropy(weights),
		NormalizedEntropy: stats.NormalizedEntropy(weights),
		Centroid:          models.LatLon{Lat: center.Lat, Lon: center.Lon},
		GyrationMeters:    spatial.WeightedRadiusOfGyration(points, weights),
	}, nil
}

// Settings reports the pipeline configuration in effect
func (s *MobilityService) Settings() models.PipelineSettings {
	return s.pipeline.Settings()
}

// CountPings counts the raw rows of the local ping table in a period
func (s *MobilityService) CountPings(ctx context.Context, period models.Period) (int64, error) {
	if err := period.Validate(); err != nil {
		return 0, err
	}
	return s.pings.CountPings(ctx, period)
}

// IngestPings bulk-loads raw pings into the local ping table
func (s *MobilityService) IngestPings(ctx context.Context, pings []models.LocationPing) (int, error) {
	return s.pings.InsertPings(ctx, pings)
}

// DescribeGeohash decodes a geohash cell
func (s *MobilityService) DescribeGeohash(hash string) (*models.GeohashInfo, error) {
	if err := spatial.ValidateGeohash(hash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeohash, err)
	}

	lat, lon := spatial.DecodeGeohash(hash)
	minLat, minLon, maxLat, maxLon := spatial.GeohashBounds(hash)

	return &models.GeohashInfo{
		Hash:      hash,
		Precision: len(hash),
		Center:    models.LatLon{Lat: lat, Lon: lon},
		Bounds: models.GeohashBounds{
			MinLat: minLat,
			MinLon: minLon,
			MaxLat: maxLat,
			MaxLon: maxLon,
		},
		Neighbors:      spatial.GeohashNeighbors(hash),
		CellSizeMeters: spatial.GeohashCellSize(len(hash)),
	}, nil
}
