package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sampleapps/internal/handler"
	"sampleapps/pkg/rbac"
	"sampleapps/pkg/trace"
	"sampleapps/pkg/util"
)

const testSecret = "router-test-secret"

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID int, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndReadiness(t *testing.T) {
	r := NewRouter(Handlers{}, testSecret, zap.NewNop(), fakePinger{}, fakeConn(true))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)

	r = NewRouter(Handlers{}, testSecret, zap.NewNop(), fakePinger{err: errors.New("down")}, fakeConn(true))
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/readyz", "").Code)

	r = NewRouter(Handlers{}, testSecret, zap.NewNop(), fakePinger{}, fakeConn(false))
	w := serve(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mq_not_ready")
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/t", func(c *gin.Context) {
		c.String(http.StatusOK, trace.FromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Trace-ID", "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc123", w.Body.String())
	assert.Equal(t, "abc123", w.Header().Get("X-Trace-ID"))

	w = serve(r, http.MethodGet, "/t", "")
	assert.Len(t, w.Body.String(), 32)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Trace-ID"))
}

func TestAuthAndRBAC(t *testing.T) {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt(handler.ContextUserID), "role": c.GetString(handler.ContextRole)})
	})
	r.GET("/admin", RequirePermission(rbac.PermissionReplayOutbox), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer garbage").Code)

	w := serve(r, http.MethodGet, "/me", token(t, 5, "user"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":5,"role":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", token(t, 5, "user")).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", token(t, 1, "admin")).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := Handlers{
		Activity: handler.NewActivityHandler(nil, zap.NewNop()),
		Admin:    handler.NewAdminHandler(nil, zap.NewNop()),
	}
	r := NewRouter(h, testSecret, zap.NewNop(), nil, nil)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/activity", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/admin/outbox/replay?id=1", token(t, 2, "user")).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/nope", "").Code)
}
