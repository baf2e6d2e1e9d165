package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kalyana/internal/services"
)

type NGOHandler struct {
	matcher     SurplusMatcher
	allocations AllocationManager
	feedback    FeedbackManager
	reports     ReportBuilder
}

func NewNGOHandler(matcher SurplusMatcher, allocations AllocationManager, feedback FeedbackManager, reports ReportBuilder) *NGOHandler {
	return &NGOHandler{matcher: matcher, allocations: allocations, feedback: feedback, reports: reports}
}

type createReviewRequest struct {
	ProviderID int    `json:"provider_id" form:"provider_id"`
	Rating     int    `json:"rating" form:"rating"`
	Comment    string `json:"comment" form:"comment"`
}

type createComplaintRequest struct {
	ProviderID  *int   `json:"provider_id" form:"provider_id"`
	IssueType   string `json:"issue_type" form:"issue_type"`
	Description string `json:"description" form:"description"`
}

// @Summary      NGO dashboard
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.NGODashboard
// @Router       /ngo/dashboard [get]
func (h *NGOHandler) Dashboard(c *gin.Context) {
	d, err := h.reports.NGODashboard(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[ngo][dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Available surplus near a location
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Param        receiver_location  query     string  true   "Receiver address"
// @Param        radius_km          query     number  false  "Search radius in km (default 8)"
// @Success      200  {object}  map[string]interface{}
// @Router       /ngo/nearby-surplus [get]
func (h *NGOHandler) NearbySurplus(c *gin.Context) {
	location := strings.TrimSpace(c.Query("receiver_location"))
	radius := services.ParseRadius(c.Query("radius_km"))

	matches, point, err := h.matcher.Nearby(c.Request.Context(), getActor(c), location, radius)
	if err != nil {
		respondError(c, "[ngo][nearby]", err)
		return
	}
	resp := gin.H{
		"receiver_location": location,
		"radius_km":         radius,
		"matches":           matches,
		"resolved":          point,
	}
	if location != "" && point == nil {
		resp["message"] = "Could not find that location. Try a more specific address."
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Request pickup of a listing
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Surplus ID"
// @Success      201  {object}  models.Allocation
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /ngo/surplus/{id}/request [post]
func (h *NGOHandler) RequestPickup(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.allocations.RequestPickup(c.Request.Context(), getActor(c), id)
	if err != nil {
		respondError(c, "[ngo][request]", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary      NGO allocations
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Allocation
// @Router       /ngo/allocations [get]
func (h *NGOHandler) Allocations(c *gin.Context) {
	list, err := h.allocations.ListForNGO(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[ngo][allocations]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Completed pickups
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.AllocationSummary
// @Router       /ngo/history [get]
func (h *NGOHandler) History(c *gin.Context) {
	sum, err := h.allocations.NGOHistory(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[ngo][history]", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary      Reviews, eligible providers and recent complaints
// @Tags         NGO
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.NGOFeedback
// @Router       /ngo/reviews [get]
func (h *NGOHandler) Feedback(c *gin.Context) {
	fb, err := h.feedback.NGOFeedback(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[ngo][reviews]", err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

// @Summary      Review a provider
// @Tags         NGO
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  models.Review
// @Router       /ngo/reviews [post]
func (h *NGOHandler) CreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rv, err := h.feedback.CreateReview(c.Request.Context(), getActor(c), req.ProviderID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, "[ngo][reviews][create]", err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// @Summary      File a complaint
// @Tags         NGO
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createComplaintRequest  true  "Complaint"
// @Success      201   {object}  models.Complaint
// @Router       /ngo/complaints [post]
func (h *NGOHandler) CreateComplaint(c *gin.Context) {
	var req createComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cm, err := h.feedback.CreateComplaint(c.Request.Context(), getActor(c), req.ProviderID, req.IssueType, req.Description)
	if err != nil {
		respondError(c, "[ngo][complaints][create]", err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}
