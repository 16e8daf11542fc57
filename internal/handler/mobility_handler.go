package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// MobilityHandler handles HTTP requests for location profiles and stay points
type MobilityHandler struct {
	service *service.MobilityService
}

// NewMobilityHandler creates a new mobility handler
func NewMobilityHandler(service *service.MobilityService) *MobilityHandler {
	return &MobilityHandler{service: service}
}

// GetLocationProfiles handles GET /api/v1/mobility/profiles?dates=20240101,20240102
func (h *MobilityHandler) GetLocationProfiles(c *gin.Context) {
	var q models.ProfileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	dates, err := service.ParseDates(q.Dates)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid dates", err)
		return
	}

	profiles, err := h.service.LocationProfiles(c.Request.Context(), dates)
	if err != nil {
		fail(c, "Failed to compute location profiles", err)
		return
	}

	response.Success(c, profiles)
}

// GetStayPoints handles GET /api/v1/mobility/stay-points
func (h *MobilityHandler) GetStayPoints(c *gin.Context) {
	var q models.StayPointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	rows, err := h.service.StayPoints(c.Request.Context(), q)
	if err != nil {
		fail(c, "Failed to compute stay points", err)
		return
	}

	response.Success(c, gin.H{
		"period": models.Period{Start: q.Start, End: q.End},
		"rows":   rows,
		"total":  len(rows),
	})
}

// GetStoredStayPoints handles GET /api/v1/mobility/stay-points/stored
func (h *MobilityHandler) GetStoredStayPoints(c *gin.Context) {
	var filter models.StayPointFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	result, err := h.service.StoredStayPoints(c.Request.Context(), filter)
	if err != nil {
		fail(c, "Failed to get stay points", err)
		return
	}

	response.Success(c, result)
}

// GetProfile handles GET /api/v1/mobility/profiles/:subscriber?date=20240101
func (h *MobilityHandler) GetProfile(c *gin.Context) {
	subscriber := c.Param("subscriber")
	date, err := strconv.Atoi(c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entries, err := h.service.Profile(c.Request.Context(), subscriber, date)
	if err != nil {
		fail(c, "Failed to get profile", err)
		return
	}

	if len(entries) == 0 {
		response.NotFound(c, "Profile not found")
		return
	}

	response.Success(c, gin.H{
		"msisdn_no": subscriber,
		"date":      date,
		"cells":     entries,
	})
}

// GetProfileSummary handles GET /api/v1/mobility/profiles/:subscriber/summary?date=20240101
func (h *MobilityHandler) GetProfileSummary(c *gin.Context) {
	subscriber := c.Param("subscriber")
	date, err := strconv.Atoi(c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid date", err)
		return
	}

	summary, err := h.service.ProfileSummary(c.Request.Context(), subscriber, date)
	if err != nil {
		fail(c, "Failed to summarise profile", err)
		return
	}
	if summary == nil {
		response.NotFound(c, "Profile not found")
		return
	}

	response.Success(c, summary)
}

// IngestPings handles POST /api/v1/pings
func (h *MobilityHandler) IngestPings(c *gin.Context) {
	var pings []models.LocationPing
	if err := c.ShouldBindJSON(&pings); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	n, err := h.service.IngestPings(c.Request.Context(), pings)
	if err != nil {
		fail(c, "Failed to store pings", err)
		return
	}

	response.Success(c, gin.H{"inserted": n})
}

// CountPings handles GET /api/v1/pings/count?start=20240101&end=20240102
func (h *MobilityHandler) CountPings(c *gin.Context) {
	var period models.Period
	if err := c.ShouldBindQuery(&period); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	n, err := h.service.CountPings(c.Request.Context(), period)
	if err != nil {
		fail(c, "Failed to count pings", err)
		return
	}

	response.Success(c, gin.H{"period": period, "pings": n})
}

// GetGeohash handles GET /api/v1/geohash/:hash
func (h *MobilityHandler) GetGeohash(c *gin.Context) {
	info, err := h.service.DescribeGeohash(c.Param("hash"))
	if err != nil {
		fail(c, "Invalid geohash", err)
		return
	}

	response.Success(c, info)
}
