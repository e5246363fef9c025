package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"waitlist-backend/internal/dto"
	"waitlist-backend/internal/service"
)

// HandleServiceError 将 service 层错误映射为对应的 HTTP 响应。
func HandleServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var rlErr *service.RateLimitError

	switch {
	case errors.As(err, &vErr):
		ErrorResponse(c, http.StatusBadRequest, vErr.Message)
	case errors.As(err, &rlErr):
		c.Header("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, dto.WaitlistResponse{
			Ok:      false,
			Code:    "rate_limited",
			Message: "Too many requests. Please try again later.",
		})
	default:
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "Could not save your signup right now.")
	}
}
