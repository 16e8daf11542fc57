// Command analyze runs one mobility analyzer synchronously against the
// configured ping source and stores its results.
//
//	analyze -skill location_profile -dates 20240101,20240102
//	analyze -skill stay_points -start 20240101 -end 20240107 -full
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

type options struct {
	skill      string
	full       bool
	dates      string
	start      int
	end        int
	dayHours   string
	nightHours string
	dbPath     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.skill, "skill", "", "analyzer to run: "+fmt.Sprint(analysis.RegisteredSkills()))
	fs.BoolVar(&o.full, "full", false, "recompute instead of skipping existing results")
	fs.StringVar(&o.dates, "dates", "", "comma-separated YYYYMMDD dates (location_profile)")
	fs.IntVar(&o.start, "start", 0, "first date YYYYMMDD (stay_points)")
	fs.IntVar(&o.end, "end", 0, "last date YYYYMMDD (stay_points)")
	fs.StringVar(&o.dayHours, "day-hours", "", "comma-separated daytime hours, default from config")
	fs.StringVar(&o.nightHours, "night-hours", "", "comma-separated nighttime hours, default from config")
	fs.StringVar(&o.dbPath, "db", "", "SQLite path, overrides database.path")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !analysis.IsRegistered(o.skill) {
		return o, fmt.Errorf("unknown skill %q", o.skill)
	}
	return o, nil
}

// params builds the task parameters of the selected skill
func (o options) params() (map[string]interface{}, error) {
	switch o.skill {
	case mobility.SkillLocationProfile:
		var dates []int
		for _, raw := range config.SplitList(o.dates) {
			d, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a date", models.ErrInvalidPeriod, raw)
			}
			dates = append(dates, d)
		}
		return map[string]interface{}{"dates": dates}, nil
	case mobility.SkillStayPoints:
		p := map[string]interface{}{"start": o.start, "end": o.end}
		if hours := config.SplitList(o.dayHours); len(hours) > 0 {
			p["day_hours"] = hours
		}
		if hours := config.SplitList(o.nightHours); len(hours) > 0 {
			p["night_hours"] = hours
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown skill %q", o.skill)
	}
}

// run creates a task row for the analyzer, runs it to completion and
// writes the finished task as JSON to out
func run(ctx context.Context, db *sql.DB, source repository.PingSource, cfg *config.Config, o options, out io.Writer) error {
	params, err := o.params()
	if err != nil {
		return err
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to serialize params: %w", err)
	}

	analyzer := analysis.GetAnalyzer(o.skill, analysis.Deps{DB: db, Pings: source, Mobility: cfg.Mobility})
	if v, ok := analyzer.(analysis.ParamValidator); ok {
		if err := v.ValidateParams(string(paramsJSON)); err != nil {
			return err
		}
	}

	taskType, mode := models.TaskTypeIncremental, analysis.ModeIncremental
	if o.full {
		taskType, mode = models.TaskTypeFullRecompute, analysis.ModeFull
	}

	tasks := repository.NewAnalysisTaskRepository(db)
	task := &models.AnalysisTask{
		SkillName:  o.skill,
		TaskType:   taskType,
		Status:     models.TaskStatusPending,
		ParamsJSON: string(paramsJSON),
		CreatedBy:  "cli",
	}
	if err := tasks.Create(task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := analyzer.Analyze(ctx, task.ID, mode); err != nil {
		if markErr := tasks.MarkAsFailed(task.ID, fmt.Sprintf("Analysis failed: %v", err)); markErr != nil {
			logging.Error().Err(markErr).Int64("task_id", task.ID).Msg("failed to record task failure")
		}
		return err
	}

	done, err := tasks.GetByID(task.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(done)
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Caller: cfg.Logging.Caller})

	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := repository.OpenPingSource(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ping source")
	}
	defer closeSource()

	if err := run(ctx, db, source, cfg, o, os.Stdout); err != nil {
		logging.Error().Err(err).Str("skill", o.skill).Msg("analysis failed")
		os.Exit(1)
	}
}
