package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/logging"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/service"
	"github.com/jengzang/mobility-backend-go/pkg/response"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidGeohash),
		errors.Is(err, service.ErrUnknownSkill),
		errors.Is(err, service.ErrInvalidTaskType),
		errors.Is(err, service.ErrInvalidParams),
		errors.Is(err, service.ErrTaskNotRunning):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status it maps to, logging server-side failures
func fail(c *gin.Context, message string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Error().Err(err).Str("path", c.FullPath()).Msg(message)
	}
	response.Error(c, code, message, err)
}
