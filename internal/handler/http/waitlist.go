package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"waitlist-backend/internal/dto"
	"waitlist-backend/internal/service"
)

// WaitlistSubmitter 是 handler 对 service 层的依赖，便于测试中替换。
type WaitlistSubmitter interface {
	Submit(ctx context.Context, raw map[string]interface{}, clientIP string) (*service.SubmitResult, error)
}

// WaitlistHandler 封装候补报名提交接口的 HTTP 处理逻辑
type WaitlistHandler struct {
	waitlistService WaitlistSubmitter
}

// NewWaitlistHandler 创建 WaitlistHandler 实例
func NewWaitlistHandler(waitlistService WaitlistSubmitter) *WaitlistHandler {
	if waitlistService == nil {
		panic("waitlist service cannot be nil for WaitlistHandler")
	}
	return &WaitlistHandler{waitlistService: waitlistService}
}

// Submit 处理 POST /api/waitlist
func (h *WaitlistHandler) Submit(c *gin.Context) {
	// 1. 请求体按宽松的 map 解析：字段类型不符由 service 层归一化，
	// 这里只拒绝根本不是 JSON 对象的请求体
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		logrus.WithError(err).Warn("Handler.Submit: request body is not a JSON object")
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	// 2. 调用 Service 层处理提交逻辑
	result, err := h.waitlistService.Submit(c.Request.Context(), raw, clientIP(c.Request))

	// 3. 处理 Service 返回的错误
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	// 4. 成功响应；蜜罐短路时的响应与正常成功同形，但不携带 code
	if result.Spam {
		c.JSON(http.StatusOK, dto.WaitlistResponse{Ok: true, Message: result.Message})
		return
	}
	SuccessResponse(c, result.Code, result.Message)
}

// clientIP 从代理转发头推导客户端地址：优先取 X-Forwarded-For 的第一段，
// 其次 X-Real-IP；两者都没有时返回空串，调用方会跳过基于 IP 的限流。
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}
