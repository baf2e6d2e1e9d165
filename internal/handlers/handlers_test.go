package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kalyana/internal/middleware"
	"kalyana/internal/models"
	"kalyana/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asActor stands in for AuthMiddleware.
func asActor(id int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, id)
		c.Set(middleware.CtxRole, role)
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type stubAuth struct {
	AuthFlows
	loginErr  error
	verifyErr error
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (string, *models.User, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return "jwt-token", &models.User{ID: 7, Email: email, Role: models.RoleNGO}, nil
}

func (s *stubAuth) VerifyRegistration(_ context.Context, _, _ string) (*models.User, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &models.User{ID: 1}, nil
}

type stubMatcher struct {
	SurplusMatcher
	gotQuery  string
	gotRadius float64
	gotActor  services.Actor
	point     *models.GeoPoint
	matches   []models.MatchedSurplus
}

func (s *stubMatcher) Nearby(_ context.Context, actor services.Actor, q string, radius float64) ([]models.MatchedSurplus, *models.GeoPoint, error) {
	s.gotActor, s.gotQuery, s.gotRadius = actor, q, radius
	return s.matches, s.point, nil
}

type stubAllocations struct {
	AllocationManager
	err error
}

func (s *stubAllocations) RequestPickup(_ context.Context, actor services.Actor, surplusID int) (*models.Allocation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Allocation{ID: 3, SurplusID: surplusID, NGOID: actor.UserID, PickupCode: "123456"}, nil
}

type stubReports struct {
	ReportBuilder
	analytics *models.Analytics
}

func (s *stubReports) Analytics(context.Context, services.Actor) (*models.Analytics, error) {
	return s.analytics, nil
}

type stubPDF struct {
	err error
}

func (s stubPDF) ImpactReport(w io.Writer, a *models.Analytics, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	_, err := fmt.Fprintf(w, "%%PDF-1.3 months=%d", len(a.MonthLabels))
	return err
}

type stubGeo struct {
	point *models.GeoPoint
}

func (s stubGeo) Resolve(context.Context, string) (*models.GeoPoint, bool) {
	return s.point, s.point != nil
}

func (stubGeo) Suggest(_ context.Context, partial string, limit int) []string {
	return []string{fmt.Sprintf("%s:%d", partial, limit)}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", services.ErrValidation), http.StatusBadRequest},
		{services.ErrLocationNotFound, http.StatusUnprocessableEntity},
		{services.ErrMissingPhoto, http.StatusUnprocessableEntity},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrNotReady, http.StatusConflict},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrUnauthorized, http.StatusForbidden},
		{services.ErrForbiddenRole, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{&services.AttemptError{Remaining: 2}, http.StatusBadRequest},
		{services.ErrExpired, http.StatusGone},
		{services.ErrTooManyAttempts, http.StatusTooManyRequests},
		{services.ErrEmailDelivery, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestLoginResponses(t *testing.T) {
	auth := &stubAuth{}
	r := gin.New()
	r.POST("/login", NewAuthHandler(auth).Login)

	w := do(t, r, http.MethodPost, "/login", gin.H{"email": "a@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "jwt-token", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])

	auth.loginErr = services.ErrInvalidCredentials
	w = do(t, r, http.MethodPost, "/login", gin.H{"email": "a@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyRegistrationReportsRemainingAttempts(t *testing.T) {
	auth := &stubAuth{verifyErr: &services.AttemptError{Remaining: 3}}
	r := gin.New()
	r.POST("/register/verify", NewAuthHandler(auth).VerifyRegistration)

	w := do(t, r, http.MethodPost, "/register/verify", gin.H{"otp_token": "tok", "otp": "000000"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["attempts_remaining"])

	auth.verifyErr = services.ErrTooManyAttempts
	w = do(t, r, http.MethodPost, "/register/verify", gin.H{"otp_token": "tok", "otp": "000000"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, r, http.MethodPost, "/register/verify", gin.H{"otp": "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "otp_token is required")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	auth := &stubAuth{loginErr: errors.New("pq: connection refused")}
	r := gin.New()
	r.POST("/login", NewAuthHandler(auth).Login)

	w := do(t, r, http.MethodPost, "/login", gin.H{"email": "a@example.com", "password": "x"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestNearbySurplusDefaultsRadius(t *testing.T) {
	m := &stubMatcher{point: &models.GeoPoint{DisplayName: "Chennai", Lat: 13.08, Lon: 80.27}}
	r := gin.New()
	r.GET("/ngo/nearby-surplus", asActor(4, models.RoleNGO), NewNGOHandler(m, nil, nil, nil).NearbySurplus)

	w := do(t, r, http.MethodGet, "/ngo/nearby-surplus?receiver_location=Chennai&radius_km=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chennai", m.gotQuery)
	assert.Equal(t, services.DefaultRadiusKm, m.gotRadius)
	assert.Equal(t, services.Actor{UserID: 4, Role: models.RoleNGO}, m.gotActor)

	body := decode(t, w)
	assert.EqualValues(t, 8, body["radius_km"])
	assert.NotContains(t, body, "message")

	w = do(t, r, http.MethodGet, "/ngo/nearby-surplus?receiver_location=Chennai&radius_km=2.5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.5, m.gotRadius)
}

func TestNearbySurplusUnresolvedLocation(t *testing.T) {
	m := &stubMatcher{}
	r := gin.New()
	r.GET("/ngo/nearby-surplus", asActor(4, models.RoleNGO), NewNGOHandler(m, nil, nil, nil).NearbySurplus)

	w := do(t, r, http.MethodGet, "/ngo/nearby-surplus?receiver_location=Atlantis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "message")
}

func TestRequestPickupStatuses(t *testing.T) {
	allocs := &stubAllocations{}
	r := gin.New()
	r.POST("/ngo/surplus/:id/request", asActor(4, models.RoleNGO), NewNGOHandler(nil, allocs, nil, nil).RequestPickup)

	w := do(t, r, http.MethodPost, "/ngo/surplus/12/request", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "123456", body["pickup_code"])

	w = do(t, r, http.MethodPost, "/ngo/surplus/zero/request", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	allocs.err = services.ErrNotReady
	w = do(t, r, http.MethodPost, "/ngo/surplus/12/request", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	allocs.err = services.ErrMissingPhoto
	w = do(t, r, http.MethodPost, "/ngo/surplus/12/request", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAnalyticsPDF(t *testing.T) {
	reports := &stubReports{analytics: &models.Analytics{MonthLabels: []string{"Jan", "Feb"}}}
	r := gin.New()
	r.GET("/admin/analytics/report.pdf", asActor(1, models.RoleAdmin), NewAdminHandler(nil, reports, stubPDF{}).AnalyticsPDF)

	w := do(t, r, http.MethodGet, "/admin/analytics/report.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "impact_report_")
	assert.Equal(t, "%PDF-1.3 months=2", w.Body.String())
}

func TestAnalyticsPDFRenderFailure(t *testing.T) {
	reports := &stubReports{analytics: &models.Analytics{}}
	r := gin.New()
	r.GET("/pdf", asActor(1, models.RoleAdmin), NewAdminHandler(nil, reports, stubPDF{err: errors.New("font")}).AnalyticsPDF)

	w := do(t, r, http.MethodGet, "/pdf", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLocationEndpoints(t *testing.T) {
	h := NewLocationHandler(stubGeo{point: &models.GeoPoint{DisplayName: "Madurai", Lat: 9.9, Lon: 78.1}})
	r := gin.New()
	r.GET("/location/suggest", h.Suggest)
	r.GET("/location/geocode", h.Geocode)

	w := do(t, r, http.MethodGet, "/location/suggest?q=Mad&limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Mad:3"}, decode(t, w)["suggestions"])

	w = do(t, r, http.MethodGet, "/location/geocode?q=Madurai", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Madurai", decode(t, w)["display_name"])

	w = do(t, r, http.MethodGet, "/location/geocode?q=%20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := gin.New()
	missing.GET("/location/geocode", NewLocationHandler(stubGeo{}).Geocode)
	w = do(t, missing, http.MethodGet, "/location/geocode?q=Nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaServeStaysInsidePhotoDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads", "food_images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("nope"), 0o644))

	r := gin.New()
	r.GET("/media/*path", NewMediaHandler(root).Serve)

	w := do(t, r, http.MethodGet, "/media/uploads/food_images/a.jpg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())

	for _, target := range []string{
		"/media/secret.txt",
		"/media/uploads/food_images/../../secret.txt",
		"/media/uploads/food_images/missing.jpg",
		"/media/uploads/food_images/",
	} {
		w = do(t, r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.False(t, strings.Contains(w.Body.String(), "nope"), target)
	}
}
