package mobility

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

func strPtr(s string) *string { return &s }
func tsPtr(ts int64) *int64   { return &ts }

type analyzerEnv struct {
	db    *sql.DB
	deps  analysis.Deps
	tasks *repository.AnalysisTaskRepository
}

func newAnalyzerEnv(t *testing.T) *analyzerEnv {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	pings := repository.NewPingRepository(db, repository.NewPingQuery(cfg.Source, cfg.Mobility, repository.DialectSQLite))

	rows := []struct {
		sub, lat, lon string
		ts            int64
	}{
		{"123", "1.23456", "103.123456", 20240101093000},
		{"123", "1.23456", "103.123456", 20240101103000},
		{"123", "1.23460", "103.123460", 20240101113000},
		{"123", "1.35200", "103.819000", 20240101230000},
		{"456", "1.30100", "103.838000", 20240102120000},
	}
	var batch []models.LocationPing
	for _, r := range rows {
		batch = append(batch, models.LocationPing{
			SubscriberID:    strPtr(r.sub),
			Latitude:        strPtr(r.lat),
			Longitude:       strPtr(r.lon),
			SourceTimestamp: tsPtr(r.ts),
		})
	}
	if _, err := pings.InsertPings(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	return &analyzerEnv{
		db:    db,
		deps:  analysis.Deps{DB: db, Pings: pings, Mobility: cfg.Mobility},
		tasks: repository.NewAnalysisTaskRepository(db),
	}
}

func (e *analyzerEnv) createTask(t *testing.T, skill string, params interface{}) int64 {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	task := &models.AnalysisTask{
		SkillName:  skill,
		TaskType:   models.TaskTypeIncremental,
		Status:     models.TaskStatusPending,
		ParamsJSON: string(raw),
	}
	if err := e.tasks.Create(task); err != nil {
		t.Fatal(err)
	}
	return task.ID
}

func TestAnalyzersRegistered(t *testing.T) {
	for _, skill := range []string{SkillLocationProfile, SkillStayPoints} {
		if !analysis.IsRegistered(skill) {
			t.Errorf("%s not registered", skill)
		}
	}
}

func TestLocationProfileAnalyzer(t *testing.T) {
	env := newAnalyzerEnv(t)
	ctx := context.Background()
	analyzer := analysis.GetAnalyzer(SkillLocationProfile, env.deps)

	taskID := env.createTask(t, SkillLocationProfile, LocationProfileParams{Dates: []int{20240101, 20240102}})
	if err := analyzer.Analyze(ctx, taskID, analysis.ModeIncremental); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	task, err := env.tasks.GetByID(taskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != models.TaskStatusCompleted || task.TotalItems != 2 || task.ProcessedItems != 2 {
		t.Errorf("task = %+v", task)
	}
	if !strings.Contains(task.ResultSummary, `"dates_processed":2`) {
		t.Errorf("summary = %s", task.ResultSummary)
	}

	entries, err := repository.NewProfileRepository(env.db).GetProfile(ctx, "123", 20240101)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, e := range entries {
		total += e.VisitCount
	}
	if total != 4 {
		t.Errorf("visits for 123 = %d, want 4", total)
	}
	if entries[0].Rank != 1 || entries[0].VisitCount < 3 {
		t.Errorf("top entry = %+v", entries[0])
	}

	// a second incremental run skips both dates
	again := env.createTask(t, SkillLocationProfile, LocationProfileParams{Dates: []int{20240101, 20240102}})
	if err := analyzer.Analyze(ctx, again, analysis.ModeIncremental); err != nil {
		t.Fatal(err)
	}
	task, _ = env.tasks.GetByID(again)
	if !strings.Contains(task.ResultSummary, `"dates_skipped":2`) {
		t.Errorf("summary = %s", task.ResultSummary)
	}

	progress, err := analyzer.GetProgress(taskID)
	if err != nil || progress.Percent != 100 {
		t.Errorf("GetProgress() = %+v, %v", progress, err)
	}
}

func TestLocationProfileAnalyzerRejectsBadParams(t *testing.T) {
	env := newAnalyzerEnv(t)
	analyzer := analysis.GetAnalyzer(SkillLocationProfile, env.deps)

	taskID := env.createTask(t, SkillLocationProfile, LocationProfileParams{})
	if err := analyzer.Analyze(context.Background(), taskID, analysis.ModeFull); err == nil {
		t.Error("expected error for empty dates")
	}
}

func TestStayPointAnalyzer(t *testing.T) {
	env := newAnalyzerEnv(t)
	ctx := context.Background()
	analyzer := analysis.GetAnalyzer(SkillStayPoints, env.deps)

	taskID := env.createTask(t, SkillStayPoints, StayPointParams{Start: 20240101, End: 20240102})
	if err := analyzer.Analyze(ctx, taskID, analysis.ModeFull); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	points, total, err := repository.NewStayPointRepository(env.db).GetStayPoints(ctx, models.StayPointFilter{TaskID: taskID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("stored %d stay points, want 2", total)
	}

	bySub := map[string]models.StoredStayPoint{}
	for _, p := range points {
		bySub[p.SubscriberID] = p
	}
	if sp := bySub["123"]; sp.DayCount != 2 || sp.NightCount != 1 || sp.CommuteMeters == nil {
		t.Errorf("123 = %+v", sp)
	}
	if sp := bySub["456"]; sp.NighttimeHash != models.NoneHash || sp.DayCount != 1 {
		t.Errorf("456 = %+v", sp)
	}

	// rerunning with custom hours replaces the rows in place
	rerun := env.createTask(t, SkillStayPoints, StayPointParams{Start: 20240101, End: 20240102, DayHours: []string{"23"}, NightHours: []string{"09"}})
	if err := analyzer.Analyze(ctx, rerun, analysis.ModeIncremental); err != nil {
		t.Fatal(err)
	}
	_, total, _ = repository.NewStayPointRepository(env.db).GetStayPoints(ctx, models.StayPointFilter{})
	if total != 2 {
		t.Errorf("rerun left %d rows, want 2", total)
	}
}
