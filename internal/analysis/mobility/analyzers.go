package mobility

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

// Skill names of the mobility analyzers
const (
	SkillLocationProfile = "location_profile"
	SkillStayPoints      = "stay_points"
)

// stayPointSaveBatch is the number of stay points written per progress step
const stayPointSaveBatch = 500

func init() {
	analysis.RegisterAnalyzer(SkillLocationProfile, NewLocationProfileAnalyzer)
	analysis.RegisterAnalyzer(SkillStayPoints, NewStayPointAnalyzer)
}

// LocationProfileParams are the task parameters of the location profile analyzer
type LocationProfileParams struct {
	Dates []int `json:"dates"`
}

// Validate checks every date is a valid YYYYMMDD
func (p LocationProfileParams) Validate() error {
	if len(p.Dates) == 0 {
		return errors.New("dates must not be empty")
	}
	for _, d := range p.Dates {
		if err := models.SingleDay(d).Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StayPointParams are the task parameters of the stay point analyzer
type StayPointParams struct {
	Start      int      `json:"start"`
	End        int      `json:"end"`
	DayHours   []string `json:"day_hours,omitempty"`
	NightHours []string `json:"night_hours,omitempty"`
}

// Period returns the analysed period
func (p StayPointParams) Period() models.Period {
	return models.Period{Start: p.Start, End: p.End}
}

func decodeParams(paramsJSON string, v interface{}) error {
	if paramsJSON == "" {
		return errors.New("task has no parameters")
	}
	if err := json.Unmarshal([]byte(paramsJSON), v); err != nil {
		return fmt.Errorf("invalid task parameters: %w", err)
	}
	return nil
}

// LocationProfileAnalyzer stores per-date geohash visit profiles
type LocationProfileAnalyzer struct {
	*analysis.ItemAnalyzer
	pipeline *Pipeline
	profiles *repository.ProfileRepository
}

// NewLocationProfileAnalyzer creates a new location profile analyzer
func NewLocationProfileAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &LocationProfileAnalyzer{
		ItemAnalyzer: analysis.NewItemAnalyzer(analysis.NewBaseAnalyzer(deps.DB, SkillLocationProfile), false),
		pipeline:     NewPipeline(deps.Pings, deps.Mobility),
		profiles:     repository.NewProfileRepository(deps.DB),
	}
}

// ValidateParams checks the task parameters before the task is queued
func (a *LocationProfileAnalyzer) ValidateParams(paramsJSON string) error {
	var params LocationProfileParams
	if err := decodeParams(paramsJSON, &params); err != nil {
		return err
	}
	return params.Validate()
}

// Analyze computes and stores the location dict of each requested date.
// Incremental mode skips dates that already have profiles; full mode replaces them.
func (a *LocationProfileAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	log := logging.With(a.Name)
	log.Info().Int64("task_id", taskID).Str("mode", mode).Msg("starting analysis")

	task, err := a.GetTaskInfo(taskID)
	if err != nil {
		return err
	}

	var params LocationProfileParams
	if err := decodeParams(task.ParamsJSON, &params); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if err := a.MarkTaskAsRunning(taskID); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	dates := params.Dates
	skipped := 0
	if mode == analysis.ModeFull {
		deleted, err := a.profiles.DeleteDates(ctx, dates)
		if err != nil {
			return err
		}
		log.Info().Int64("deleted", deleted).Msg("cleared existing profiles")
	} else {
		existing, err := a.profiles.ExistingDates(ctx, dates)
		if err != nil {
			return err
		}
		pending := dates[:0:0]
		for _, d := range dates {
			if !existing[d] {
				pending = append(pending, d)
			}
		}
		skipped = len(dates) - len(pending)
		dates = pending
	}

	subscribers, cells := 0, 0
	res, err := a.ProcessItems(ctx, taskID, len(dates), func(ctx context.Context, i int) error {
		date := dates[i]
		log.Info().Int("date", date).Int("index", i+1).Int("total", len(dates)).Msg("processing date")

		dict, err := a.pipeline.LocationDict(ctx, date)
		if err != nil {
			return err
		}
		entries := ProfileEntries(date, dict)
		if err := a.profiles.SaveEntries(ctx, taskID, entries); err != nil {
			return err
		}
		subscribers += len(dict)
		cells += len(entries)
		return nil
	})
	if err != nil {
		return err
	}

	summary, err := json.Marshal(map[string]interface{}{
		"dates_processed": res.Processed,
		"dates_skipped":   skipped,
		"subscribers":     subscribers,
		"cells":           cells,
		"elapsed_ms":      res.Elapsed.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	log.Info().Int64("task_id", taskID).Int("dates", res.Processed).Int("subscribers", subscribers).Msg("analysis completed")
	return a.MarkTaskAsCompleted(taskID, string(summary))
}

// StayPointAnalyzer stores each subscriber's day/night stay cells for a period
type StayPointAnalyzer struct {
	*analysis.ItemAnalyzer
	pipeline   *Pipeline
	stayPoints *repository.StayPointRepository
}

// NewStayPointAnalyzer creates a new stay point analyzer
func NewStayPointAnalyzer(deps analysis.Deps) analysis.Analyzer {
	return &StayPointAnalyzer{
		ItemAnalyzer: analysis.NewItemAnalyzer(analysis.NewBaseAnalyzer(deps.DB, SkillStayPoints), false),
		pipeline:     NewPipeline(deps.Pings, deps.Mobility),
		stayPoints:   repository.NewStayPointRepository(deps.DB),
	}
}

// ValidateParams checks the task parameters before the task is queued
func (a *StayPointAnalyzer) ValidateParams(paramsJSON string) error {
	var params StayPointParams
	if err := decodeParams(paramsJSON, &params); err != nil {
		return err
	}
	return params.Period().Validate()
}

// Analyze computes stay points for the task period and stores them in batches.
// Full mode deletes the period's existing rows first; incremental mode upserts.
func (a *StayPointAnalyzer) Analyze(ctx context.Context, taskID int64, mode string) error {
	log := logging.With(a.Name)
	log.Info().Int64("task_id", taskID).Str("mode", mode).Msg("starting analysis")

	task, err := a.GetTaskInfo(taskID)
	if err != nil {
		return err
	}

	var params StayPointParams
	if err := decodeParams(task.ParamsJSON, &params); err != nil {
		return err
	}
	period := params.Period()
	if err := period.Validate(); err != nil {
		return err
	}

	if err := a.MarkTaskAsRunning(taskID); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	if mode == analysis.ModeFull {
		if _, err := a.stayPoints.DeletePeriod(ctx, period); err != nil {
			return err
		}
	}

	var day, night HourSet
	if len(params.DayHours) > 0 {
		day = NewHourSet(params.DayHours)
	}
	if len(params.NightHours) > 0 {
		night = NewHourSet(params.NightHours)
	}

	rows, err := a.pipeline.GenerateStayPoints(ctx, period, day, night)
	if err != nil {
		return err
	}

	stored := ToStored(taskID, period, rows)
	batches := (len(stored) + stayPointSaveBatch - 1) / stayPointSaveBatch
	res, err := a.ProcessItems(ctx, taskID, batches, func(ctx context.Context, i int) error {
		lo := i * stayPointSaveBatch
		hi := lo + stayPointSaveBatch
		if hi > len(stored) {
			hi = len(stored)
		}
		return a.stayPoints.SaveStayPoints(ctx, stored[lo:hi])
	})
	if err != nil {
		return err
	}

	withDay, withNight := 0, 0
	for _, sp := range stored {
		if sp.DaytimeHash != models.NoneHash {
			withDay++
		}
		if sp.NighttimeHash != models.NoneHash {
			withNight++
		}
	}

	summary, err := json.Marshal(map[string]interface{}{
		"period_start":    period.Start,
		"period_end":      period.End,
		"subscribers":     len(stored),
		"with_daytime":    withDay,
		"with_nighttime":  withNight,
		"batches_written": res.Processed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	log.Info().Int64("task_id", taskID).Int("subscribers", len(stored)).Msg("analysis completed")
	return a.MarkTaskAsCompleted(taskID, string(summary))
}

// ToStored converts stay point rows into persisted records
func ToStored(taskID int64, period models.Period, rows []models.StayPointRow) []models.StoredStayPoint {
	stored := make([]models.StoredStayPoint, 0, len(rows))
	for _, r := range rows {
		sp := r.MajorDayNightLocation
		stored = append(stored, models.StoredStayPoint{
			TaskID:        taskID,
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
			SubscriberID:  r.SubscriberID,
			DaytimeHash:   sp.DaytimeHash,
			NighttimeHash: sp.NighttimeHash,
			DayCount:      models.TotalCount(r.DayNightLocations.Daytime),
			NightCount:    models.TotalCount(r.DayNightLocations.Nighttime),
			CommuteMeters: sp.CommuteMeters,
		})
	}
	return stored
}
