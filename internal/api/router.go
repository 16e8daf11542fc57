package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/handler"
	"github.com/jengzang/mobility-backend-go/internal/middleware"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

// Services bundles the services the HTTP layer is built on
type Services struct {
	Mobility *service.MobilityService
	Tasks    *service.AnalysisTaskService
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		active, err := svc.Tasks.CountActive()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"message":      "Mobility Backend API is running",
			"skills":       svc.Tasks.Skills(),
			"active_tasks": active,
			"pipeline":     svc.Mobility.Settings(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mobilityHandler := handler.NewMobilityHandler(svc.Mobility)
	taskHandler := handler.NewAnalysisTaskHandler(svc.Tasks)

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.Security.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.Security.JWTSecret))
	}
	{
		// 原始定位数据
		api.POST("/pings", mobilityHandler.IngestPings)
		api.GET("/pings/count", mobilityHandler.CountPings)

		// 位置画像与驻留点
		mob := api.Group("/mobility")
		{
			mob.GET("/profiles", mobilityHandler.GetLocationProfiles)
			mob.GET("/profiles/:subscriber", mobilityHandler.GetProfile)
			mob.GET("/profiles/:subscriber/summary", mobilityHandler.GetProfileSummary)
			mob.GET("/stay-points", mobilityHandler.GetStayPoints)
			mob.GET("/stay-points/stored", mobilityHandler.GetStoredStayPoints)
		}

		api.GET("/geohash/:hash", mobilityHandler.GetGeohash)

		// 分析任务
		tasks := api.Group("/analysis/tasks")
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.DELETE("/:id", taskHandler.CancelTask)
		}
	}

	return r
}
