package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-backend/internal/dto"
	"waitlist-backend/internal/service"
)

// stubSubmitter 记录收到的参数并返回预设结果，替代真正的 service。
type stubSubmitter struct {
	result *service.SubmitResult
	err    error

	gotRaw map[string]interface{}
	gotIP  string
	called bool
}

func (s *stubSubmitter) Submit(_ context.Context, raw map[string]interface{}, clientIP string) (*service.SubmitResult, error) {
	s.called = true
	s.gotRaw = raw
	s.gotIP = clientIP
	return s.result, s.err
}

// setupRouter 创建测试用的 Gin 路由
func setupRouter(stub *stubSubmitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWaitlistHandler(stub)
	router.POST("/api/waitlist", handler.Submit)
	return router
}

// performSubmit 执行一次提交请求并返回 ResponseRecorder
func performSubmit(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.WaitlistResponse {
	t.Helper()
	var resp dto.WaitlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestWaitlistHandler_Submit_Created(t *testing.T) {
	stub := &stubSubmitter{result: &service.SubmitResult{
		Code:    service.CodeCreated,
		Message: "Thanks for joining the waitlist.",
	}}
	router := setupRouter(stub)

	w := performSubmit(router, `{"email":"user@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Ok)
	assert.Equal(t, "created", resp.Code)
	assert.Equal(t, "Thanks for joining the waitlist.", resp.Message)

	// 请求体应原样透传给 service
	require.True(t, stub.called)
	assert.Equal(t, "user@example.com", stub.gotRaw["email"])
}

func TestWaitlistHandler_Submit_Updated(t *testing.T) {
	stub := &stubSubmitter{result: &service.SubmitResult{
		Code:    service.CodeUpdated,
		Message: "Your waitlist answers have been updated.",
	}}
	router := setupRouter(stub)

	w := performSubmit(router, `{"email":"user@example.com"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Ok)
	assert.Equal(t, "updated", resp.Code)
}

func TestWaitlistHandler_Submit_SpamOmitsCode(t *testing.T) {
	// 蜜罐短路：响应与正常成功同形但不带 code 字段
	stub := &stubSubmitter{result: &service.SubmitResult{Spam: true, Message: "Saved."}}
	router := setupRouter(stub)

	w := performSubmit(router, `{"company":"Acme Corp"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Ok)
	assert.Equal(t, "Saved.", resp.Message)
	assert.Empty(t, resp.Code)
	assert.NotContains(t, w.Body.String(), `"code"`)
}

func TestWaitlistHandler_Submit_ValidationError(t *testing.T) {
	stub := &stubSubmitter{err: &service.ValidationError{Message: "Please choose an identity."}}
	router := setupRouter(stub)

	w := performSubmit(router, `{"email":"user@example.com"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Ok)
	assert.Equal(t, "Please choose an identity.", resp.Message)
}

func TestWaitlistHandler_Submit_RateLimited(t *testing.T) {
	stub := &stubSubmitter{err: &service.RateLimitError{RetryAfterSeconds: 42}}
	router := setupRouter(stub)

	w := performSubmit(router, `{"email":"user@example.com"}`, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "42", w.Header().Get("Retry-After"))
	resp := decodeResponse(t, w)
	assert.False(t, resp.Ok)
	assert.Equal(t, "rate_limited", resp.Code)
	assert.Equal(t, "Too many requests. Please try again later.", resp.Message)
}

func TestWaitlistHandler_Submit_InternalError(t *testing.T) {
	// 内部错误细节不得泄漏到响应体
	stub := &stubSubmitter{err: errors.New("gorm: connection refused")}
	router := setupRouter(stub)

	w := performSubmit(router, `{"email":"user@example.com"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Ok)
	assert.Equal(t, "Could not save your signup right now.", resp.Message)
	assert.NotContains(t, w.Body.String(), "gorm")
}

func TestWaitlistHandler_Submit_MalformedJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"truncated object", `{"email":`},
		{"array instead of object", `[1,2,3]`},
		{"bare string", `"hello"`},
		{"empty body", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubSubmitter{}
			router := setupRouter(stub)

			w := performSubmit(router, tc.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Ok)
			assert.Equal(t, "Invalid request body.", resp.Message)
			assert.False(t, stub.called, "service 不应被调用")
		})
	}
}

func TestWaitlistHandler_Submit_ClientIPDerivation(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		wantIP  string
	}{
		{
			name:    "forwarded-for first entry wins",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-IP": "198.51.100.9"},
			wantIP:  "203.0.113.7",
		},
		{
			name:    "forwarded-for single entry",
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 "},
			wantIP:  "203.0.113.7",
		},
		{
			name:    "real-ip fallback",
			headers: map[string]string{"X-Real-IP": "198.51.100.9"},
			wantIP:  "198.51.100.9",
		},
		{
			name:    "no proxy headers means unknown",
			headers: nil,
			wantIP:  "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubSubmitter{result: &service.SubmitResult{Code: service.CodeCreated, Message: "ok"}}
			router := setupRouter(stub)

			w := performSubmit(router, `{"email":"user@example.com"}`, tc.headers)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantIP, stub.gotIP)
		})
	}
}
