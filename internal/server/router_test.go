package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ecotour/internal/config"
	"ecotour/internal/ws"

	"github.com/gin-gonic/gin"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{Port: "0", JWTSecret: "secret", Env: "dev", AccessTokenTTLMinutes: 15, RefreshTokenTTLDays: 7}
	// 未认证路径不会触达 db 和 service，这里传 nil 即可
	return SetupRouter(cfg, nil, ws.NewRegistry(), NewHandler(nil, nil, nil), nil, nil)
}

func TestHealthz(t *testing.T) {
	engine := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := testRouter()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/notifications/unread"},
		{http.MethodPut, "/api/v1/notifications/1/read"},
		{http.MethodDelete, "/api/v1/notifications/1"},
		{http.MethodPost, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/chat/users"},
		{http.MethodGet, "/api/v1/chat/history/2"},
		{http.MethodPut, "/api/v1/chat/2/read"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 without token, got %d", w.Code)
			}
		})
	}
}

func TestWsEndpointsRejectUnauthenticated(t *testing.T) {
	engine := testRouter()

	for _, path := range []string{"/ws/chat", "/ws/notifications"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			// 认证失败时连接在升级之前就被拒绝
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 without token, got %d", w.Code)
			}
		})
	}
}
