// Package mobility derives geohash location profiles and day/night stay points
// from hourly subscriber location means.
package mobility

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/metrics"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

// Pipeline runs the location profile and stay point computations over a ping source
type Pipeline struct {
	source     repository.PingSource
	sourceName string
	precision  int
	dayHours   HourSet
	nightHours HourSet
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSourceName labels the source in metrics
func WithSourceName(name string) Option {
	return func(p *Pipeline) {
		p.sourceName = name
	}
}

// NewPipeline creates a pipeline using the precision and default hour sets of cfg
func NewPipeline(source repository.PingSource, cfg config.MobilityConfig, opts ...Option) *Pipeline {
	precision := cfg.GeohashPrecision
	if precision <= 0 {
		precision = config.Default().Mobility.GeohashPrecision
	}

	p := &Pipeline{
		source:     source,
		sourceName: "default",
		precision:  precision,
		dayHours:   NewHourSet(cfg.DayHours),
		nightHours: NewHourSet(cfg.NightHours),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings reports the source, precision and default hour sets in effect
func (p *Pipeline) Settings() models.PipelineSettings {
	return models.PipelineSettings{
		Source:           p.sourceName,
		GeohashPrecision: p.precision,
		DayHours:         p.dayHours.Labels(),
		NightHours:       p.nightHours.Labels(),
	}
}

func (p *Pipeline) hourlyPoints(ctx context.Context, period models.Period) ([]models.HourlyPoint, error) {
	defer metrics.ObserveStage("load", time.Now())

	points, err := p.source.HourlyPoints(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly points for %d-%d: %w", period.Start, period.End, err)
	}
	metrics.RecordHourlyPoints(p.sourceName, len(points))
	return points, nil
}

// AggGeohash groups the hourly means of a period by subscriber, dropping timestamps.
// Subscribers appear in first-seen order and points keep source order.
func (p *Pipeline) AggGeohash(ctx context.Context, period models.Period) ([]models.MobilityTrace, error) {
	points, err := p.hourlyPoints(ctx, period)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	traces := []models.MobilityTrace{}
	for _, hp := range points {
		i, ok := index[hp.SubscriberID]
		if !ok {
			i = len(traces)
			index[hp.SubscriberID] = i
			traces = append(traces, models.MobilityTrace{SubscriberID: hp.SubscriberID})
		}
		traces[i].Points = append(traces[i].Points, hp.Point)
	}
	return traces, nil
}

// AggGeohashWithTime groups the hourly means of a period by subscriber, keeping
// each point's bucket timestamp.
func (p *Pipeline) AggGeohashWithTime(ctx context.Context, period models.Period) ([]models.TimedMobilityTrace, error) {
	points, err := p.hourlyPoints(ctx, period)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	traces := []models.TimedMobilityTrace{}
	for _, hp := range points {
		i, ok := index[hp.SubscriberID]
		if !ok {
			i = len(traces)
			index[hp.SubscriberID] = i
			traces = append(traces, models.TimedMobilityTrace{SubscriberID: hp.SubscriberID})
		}
		traces[i].Points = append(traces[i].Points, models.TimedPoint{
			Timestamp: hp.Timestamp,
			Point:     hp.Point,
		})
	}
	return traces, nil
}

// LocationDict computes the geohash counts of every subscriber seen on one date
func (p *Pipeline) LocationDict(ctx context.Context, date int) (models.LocationDict, error) {
	traces, err := p.AggGeohash(ctx, models.SingleDay(date))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dict := make(models.LocationDict, len(traces))
	for _, tr := range traces {
		dict[tr.SubscriberID] = CountGeohashes(tr.Points, p.precision)
	}
	metrics.ObserveStage("encode", start)
	metrics.RecordSubscribers("location_profile", len(traces))

	return dict, nil
}

// GenerateLocationDicts computes one location dict per date, in input order.
// An empty date yields an empty dict.
func (p *Pipeline) GenerateLocationDicts(ctx context.Context, dates []int) ([]models.LocationDict, error) {
	log := logging.With("mobility")

	dicts := make([]models.LocationDict, 0, len(dates))
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info().Int("date", date).Int("index", i+1).Int("total", len(dates)).Msg("processing date")

		dict, err := p.LocationDict(ctx, date)
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, dict)
	}
	return dicts, nil
}

// GenerateStayPoints computes each subscriber's day/night buckets and majority
// cells over a period. Nil hour sets fall back to the configured defaults.
func (p *Pipeline) GenerateStayPoints(ctx context.Context, period models.Period, day, night HourSet) ([]models.StayPointRow, error) {
	if day == nil {
		day = p.dayHours
	}
	if night == nil {
		night = p.nightHours
	}

	traces, err := p.AggGeohashWithTime(ctx, period)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows := make([]models.StayPointRow, 0, len(traces))
	for _, tr := range traces {
		dn := SplitDayNight(tr.Points, day, night, p.precision)
		rows = append(rows, models.StayPointRow{
			SubscriberID:          tr.SubscriberID,
			Points:                tr.Points,
			DayNightLocations:     dn,
			MajorDayNightLocation: NewStayPoint(tr.SubscriberID, dn),
		})
	}
	metrics.ObserveStage("reduce", start)
	metrics.RecordSubscribers("stay_points", len(rows))

	log := logging.With("mobility")
	log.Debug().
		Int("period_start", period.Start).
		Int("period_end", period.End).
		Int("subscribers", len(rows)).
		Msg("stay points generated")

	return rows, nil
}
