package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kalyana/internal/models"
	"kalyana/internal/services"
)

const (
	photoField     = "food_photo"
	maxUploadBytes = 12 << 20
)

type ProviderHandler struct {
	surplus     SurplusManager
	events      EventManager
	allocations AllocationManager
	feedback    FeedbackManager
	reports     ReportBuilder
}

func NewProviderHandler(surplus SurplusManager, events EventManager, allocations AllocationManager, feedback FeedbackManager, reports ReportBuilder) *ProviderHandler {
	return &ProviderHandler{surplus: surplus, events: events, allocations: allocations, feedback: feedback, reports: reports}
}

type verifyPickupRequest struct {
	PickupCode string `json:"pickup_code" form:"pickup_code"`
}

// @Summary      Provider dashboard
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.ProviderDashboard
// @Router       /provider/dashboard [get]
func (h *ProviderHandler) Dashboard(c *gin.Context) {
	d, err := h.reports.ProviderDashboard(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[provider][dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// formValue returns the first non-empty form field among names.
func formValue(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(c.PostForm(n)); v != "" {
			return v
		}
	}
	return ""
}

// photoUpload reads the optional photo part. A missing file yields nil.
func photoUpload(c *gin.Context) (*services.PhotoUpload, func(), error) {
	fh, err := c.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.PhotoUpload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

// @Summary      Create a surplus listing
// @Tags         Provider
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        event_name        formData  string  true   "Event name"
// @Param        venue_name        formData  string  true   "Venue name"
// @Param        provider_name     formData  string  false  "Provider display name"
// @Param        food_type         formData  string  true   "Food type"
// @Param        estimated_expiry  formData  string  false  "Estimated expiry, e.g. 3 hours"
// @Param        quantity_kg       formData  number  true   "Quantity in kg"
// @Param        distance_km       formData  number  false  "Stated distance in km"
// @Param        venue_location    formData  string  true   "Venue address"
// @Param        food_photo        formData  file    false  "PNG, JPG or WEBP photo"
// @Success      201  {object}  models.Surplus
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /provider/surplus [post]
func (h *ProviderHandler) CreateSurplus(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	photo, closePhoto, err := photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the uploaded photo"})
		return
	}
	defer closePhoto()

	in := models.CreateSurplusInput{
		EventName:       formValue(c, "event_name"),
		VenueName:       formValue(c, "venue_name", "mahal_name"),
		ProviderName:    formValue(c, "provider_name"),
		FoodType:        formValue(c, "food_type"),
		EstimatedExpiry: formValue(c, "estimated_expiry"),
		QuantityKg:      formValue(c, "quantity_kg"),
		DistanceKm:      formValue(c, "distance_km"),
		VenueLocation:   formValue(c, "venue_location", "mahal_location"),
	}
	rec, err := h.surplus.Create(c.Request.Context(), getActor(c), in, photo)
	if err != nil {
		respondError(c, "[provider][surplus][create]", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// @Summary      Recent surplus listings
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Surplus
// @Router       /provider/surplus [get]
func (h *ProviderHandler) ListSurplus(c *gin.Context) {
	list, err := h.surplus.ListForProvider(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[provider][surplus][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Upload or replace a listing photo
// @Tags         Provider
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      int   true  "Surplus ID"
// @Param        food_photo  formData  file  true  "PNG, JPG or WEBP photo"
// @Success      200  {object}  models.Surplus
// @Router       /provider/surplus/{id}/photo [post]
func (h *ProviderHandler) UploadPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	photo, closePhoto, err := photoUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the uploaded photo"})
		return
	}
	defer closePhoto()
	if photo == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}

	rec, err := h.surplus.AttachPhoto(c.Request.Context(), getActor(c), id, *photo)
	if err != nil {
		respondError(c, "[provider][surplus][photo]", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary      Mark a listing ready for pickup
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Surplus ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /provider/surplus/{id}/ready [post]
func (h *ProviderHandler) MarkReady(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	changed, err := h.surplus.MarkReady(c.Request.Context(), getActor(c), id)
	if err != nil {
		respondError(c, "[provider][surplus][ready]", err)
		return
	}
	msg := "Surplus is now available for NGOs."
	if !changed {
		msg = "Surplus is already past pending."
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "message": msg})
}

// @Summary      Provider events
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Event
// @Router       /provider/events [get]
func (h *ProviderHandler) ListEvents(c *gin.Context) {
	list, err := h.events.ListForProvider(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[provider][events][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Create an event
// @Tags         Provider
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.CreateEventRequest  true  "Event"
// @Success      201   {object}  models.Event
// @Router       /provider/events [post]
func (h *ProviderHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.events.Create(c.Request.Context(), getActor(c), req)
	if err != nil {
		respondError(c, "[provider][events][create]", err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// @Summary      Provider allocations
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.AllocationSummary
// @Router       /provider/allocations [get]
func (h *ProviderHandler) Allocations(c *gin.Context) {
	sum, err := h.allocations.ProviderSummary(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[provider][allocations]", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary      Verify a pickup code
// @Tags         Provider
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Allocation ID"
// @Param        body  body      verifyPickupRequest  true  "Code shown by the NGO"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /provider/allocations/{id}/verify [post]
func (h *ProviderHandler) VerifyPickup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req verifyPickupRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changed, err := h.allocations.VerifyPickup(c.Request.Context(), getActor(c), id, req.PickupCode)
	if err != nil {
		respondError(c, "[provider][allocations][verify]", err)
		return
	}
	msg := "Pickup verified. Allocation completed."
	if !changed {
		msg = "Allocation is already completed."
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed, "message": msg})
}

// @Summary      Reviews and complaints about the provider
// @Tags         Provider
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.ProviderFeedback
// @Router       /provider/reviews [get]
func (h *ProviderHandler) Reviews(c *gin.Context) {
	fb, err := h.feedback.ProviderFeedback(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[provider][reviews]", err)
		return
	}
	c.JSON(http.StatusOK, fb)
}
