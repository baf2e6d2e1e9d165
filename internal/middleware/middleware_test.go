package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"kalyana/internal/authz"
)

func newRouter(tm *authz.TokenManager, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthMiddleware(tm), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt(CtxUserID), "role": c.GetString(CtxRole)})
	})
	return r
}

func serve(r http.Handler, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tm := authz.NewTokenManager("secret", time.Hour)
	r := newRouter(tm, authz.RoleNGO)

	token, err := tm.IssueAccessToken(7, authz.RoleNGO)
	require.NoError(t, err)

	w := serve(r, "/private", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user_id":7,"role":"ngo"}`, w.Body.String())

	w = serve(r, "/private?token="+token, "")
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusUnauthorized, serve(r, "/private", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, "/private", "Token "+token).Code)
	require.Equal(t, http.StatusUnauthorized, serve(r, "/private", "Bearer nope").Code)
}

func TestAuthMiddlewareRejectsResetTicket(t *testing.T) {
	tm := authz.NewTokenManager("secret", time.Hour)
	r := newRouter(tm, authz.RoleProvider, authz.RoleNGO, authz.RoleAdmin)

	ticket, err := tm.IssueResetTicket(3)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, serve(r, "/private", "Bearer "+ticket).Code)
}

func TestRequireRoles(t *testing.T) {
	tm := authz.NewTokenManager("secret", time.Hour)
	r := newRouter(tm, authz.RoleAdmin)

	token, err := tm.IssueAccessToken(2, authz.RoleProvider)
	require.NoError(t, err)
	w := serve(r, "/private", "Bearer "+token)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":"forbidden"}`, w.Body.String())
}
