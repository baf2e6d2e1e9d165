package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalyana/internal/authz"
	"kalyana/internal/handlers"
)

func newRouter(t *testing.T) (*gin.Engine, *authz.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := authz.NewTokenManager("route-secret", time.Hour)
	h := Handlers{
		Auth:     handlers.NewAuthHandler(nil),
		Location: handlers.NewLocationHandler(nil),
		Provider: handlers.NewProviderHandler(nil, nil, nil, nil, nil),
		NGO:      handlers.NewNGOHandler(nil, nil, nil, nil),
		Admin:    handlers.NewAdminHandler(nil, nil, nil),
		Realtime: handlers.NewRealtimeHandler(nil),
		Media:    handlers.NewMediaHandler(t.TempDir()),
	}
	return SetupRoutes(gin.New(), h, tokens), tokens
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newRouter(t)
	for _, target := range []string{"/provider/dashboard", "/ngo/nearby-surplus", "/admin/users", "/realtime/stream"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestRoleGroups(t *testing.T) {
	r, tokens := newRouter(t)
	ngoToken, err := tokens.IssueAccessToken(5, authz.RoleNGO)
	require.NoError(t, err)

	for _, target := range []string{"/provider/dashboard", "/admin/analytics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+ngoToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, target)
	}
}

func TestPublicRoutes(t *testing.T) {
	r, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/uploads/food_images/none.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
