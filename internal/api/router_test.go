package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/middleware"
	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}

	pings := repository.NewPingRepository(db, repository.NewPingQuery(cfg.Source, cfg.Mobility, repository.DialectSQLite))
	tasks := service.NewAnalysisTaskService(repository.NewAnalysisTaskRepository(db),
		analysis.Deps{DB: db, Pings: pings, Mobility: cfg.Mobility})
	svc := Services{
		Mobility: service.NewMobilityService(mobility.NewPipeline(pings, cfg.Mobility), pings,
			repository.NewProfileRepository(db), repository.NewStayPointRepository(db)),
		Tasks: tasks,
	}
	t.Cleanup(func() {
		tasks.Shutdown()
		db.Close()
	})
	return SetupRouter(cfg, svc, limiter)
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := newRouter(t, config.Default(), nil)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/api/v1/pings/count?start=20240101&end=20240101", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/geohash/w21z74", http.StatusOK},
		{"/api/v1/mobility/profiles?dates=20240101", http.StatusOK},
		{"/api/v1/mobility/stay-points?start=20240101&end=20240101", http.StatusOK},
		{"/api/v1/mobility/stay-points/stored", http.StatusOK},
		{"/api/v1/analysis/tasks", http.StatusOK},
		{"/api/v1/analysis/tasks/1", http.StatusNotFound},
		{"/api/v1/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := get(r, tt.path); w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d (%s)", tt.path, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := newRouter(t, config.Default(), nil)
	w := get(r, "/health")
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestJWTProtectsAPI(t *testing.T) {
	cfg := config.Default()
	cfg.Security.JWTSecret = "test-secret"
	r := newRouter(t, cfg, nil)

	if w := get(r, "/health"); w.Code != http.StatusOK {
		t.Errorf("/health = %d, want 200 without token", w.Code)
	}
	if w := get(r, "/api/v1/analysis/tasks"); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	token, err := middleware.GenerateToken(cfg.Security.JWTSecret, "alice", "analyst", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	w := get(r, "/api/v1/analysis/tasks", "Authorization", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Errorf("with token = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRateLimitApplied(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	r := newRouter(t, config.Default(), limiter)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/health").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestMetricsExposeHTTPCounter(t *testing.T) {
	r := newRouter(t, config.Default(), nil)
	get(r, "/health")
	w := get(r, "/metrics")
	if !strings.Contains(w.Body.String(), "mobility_http_requests_total") {
		t.Error("http request counter not exported")
	}
}

func TestHealthReportsPipeline(t *testing.T) {
	r := newRouter(t, config.Default(), nil)
	w := get(r, "/health")
	body := w.Body.String()
	for _, want := range []string{`"active_tasks":0`, `"geohash_precision":6`, `"location_profile"`, `"stay_points"`} {
		if !strings.Contains(body, want) {
			t.Errorf("health body %s missing %s", body, want)
		}
	}
}
