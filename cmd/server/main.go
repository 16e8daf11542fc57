package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/analysis"
	"github.com/jengzang/mobility-backend-go/internal/analysis/mobility"
	"github.com/jengzang/mobility-backend-go/internal/api"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/middleware"
	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.Database.Path}); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()
	db := database.GetDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := repository.OpenPingSource(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Source.Driver).Msg("Failed to open ping source")
	}
	defer closeSource()

	// local ping table, used for ingest regardless of the read driver
	pings := repository.NewPingRepository(db, repository.NewPingQuery(cfg.Source, cfg.Mobility, repository.DialectSQLite))
	pipeline := mobility.NewPipeline(source, cfg.Mobility, mobility.WithSourceName(cfg.Source.Driver))

	tasks := service.NewAnalysisTaskService(
		repository.NewAnalysisTaskRepository(db),
		analysis.Deps{DB: db, Pings: source, Mobility: cfg.Mobility},
	)
	svc := api.Services{
		Mobility: service.NewMobilityService(pipeline, pings,
			repository.NewProfileRepository(db), repository.NewStayPointRepository(db)),
		Tasks: tasks,
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitReqs, cfg.Server.RateLimitWindow)
	defer limiter.Stop()

	// 初始化路由
	router := api.SetupRouter(cfg, svc, limiter)
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().
			Str("addr", cfg.Server.Port).
			Str("source", cfg.Source.Driver).
			Strs("skills", analysis.RegisteredSkills()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Server shutdown failed")
	}
	tasks.Shutdown()
	logging.Info().Msg("Server stopped")
}
