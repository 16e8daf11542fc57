package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/goccy/go-json"

	"github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
)

func strPtr(s string) *string { return &s }
func tsPtr(ts int64) *int64   { return &ts }

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"profile", []string{"-skill", mobility.SkillLocationProfile, "-dates", "20240101"}, false},
		{"stay points full", []string{"-skill", mobility.SkillStayPoints, "-start", "20240101", "-end", "20240102", "-full"}, false},
		{"unknown skill", []string{"-skill", "nope"}, true},
		{"missing skill", nil, true},
		{"bad flag", []string{"-bogus"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestRunStayPoints(t *testing.T) {
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := config.Default()
	pings := repository.NewPingRepository(db, repository.NewPingQuery(cfg.Source, cfg.Mobility, repository.DialectSQLite))
	_, err = pings.InsertPings(context.Background(), []models.LocationPing{
		{SubscriberID: strPtr("123"), Latitude: strPtr("1.28300"), Longitude: strPtr("103.851000"), SourceTimestamp: tsPtr(20240101110000)},
		{SubscriberID: strPtr("123"), Latitude: strPtr("1.35200"), Longitude: strPtr("103.819000"), SourceTimestamp: tsPtr(20240101230000)},
	})
	if err != nil {
		t.Fatal(err)
	}

	o, err := parseFlags([]string{"-skill", mobility.SkillStayPoints, "-start", "20240101", "-end", "20240101"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), db, pings, cfg, o, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var task models.AnalysisTask
	if err := json.Unmarshal(out.Bytes(), &task); err != nil {
		t.Fatal(err)
	}
	if task.Status != models.TaskStatusCompleted || task.CreatedBy != "cli" || task.TaskType != models.TaskTypeIncremental {
		t.Errorf("task = %+v", task)
	}

	stored, total, err := repository.NewStayPointRepository(db).GetStayPoints(context.Background(), models.StayPointFilter{TaskID: task.ID})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || stored[0].DaytimeHash == models.NoneHash || stored[0].NighttimeHash == models.NoneHash {
		t.Errorf("stored = %+v", stored)
	}
}

func TestRunRejectsInvalidParams(t *testing.T) {
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := config.Default()
	pings := repository.NewPingRepository(db, repository.NewPingQuery(cfg.Source, cfg.Mobility, repository.DialectSQLite))

	o, err := parseFlags([]string{"-skill", mobility.SkillLocationProfile, "-dates", "2024-01-01"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), db, pings, cfg, o, io.Discard); err == nil {
		t.Error("invalid dates accepted")
	}

	o, err = parseFlags([]string{"-skill", mobility.SkillStayPoints, "-start", "20240105", "-end", "20240101"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), db, pings, cfg, o, io.Discard); err == nil {
		t.Error("reversed period accepted")
	}
}
