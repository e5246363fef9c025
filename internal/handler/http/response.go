package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waitlist-backend/internal/dto"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, dto.WaitlistResponse{Ok: false, Message: message})
}
func SuccessResponse(c *gin.Context, code, message string) {
	c.JSON(http.StatusOK, dto.WaitlistResponse{Ok: true, Code: code, Message: message})
}
