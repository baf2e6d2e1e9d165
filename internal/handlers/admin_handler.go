package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/pdf"
)

type AdminHandler struct {
	admin   AdminManager
	reports ReportBuilder
	docs    pdf.Generator
}

func NewAdminHandler(admin AdminManager, reports ReportBuilder, docs pdf.Generator) *AdminHandler {
	return &AdminHandler{admin: admin, reports: reports, docs: docs}
}

type complaintStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// @Summary      Admin dashboard
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.AdminDashboard
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.reports.AdminDashboard(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Users
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email"
// @Param        role    query     string  false  "provider, ngo or admin"
// @Success      200     {object}  models.UserListing
// @Router       /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	filter := models.UserFilter{Search: c.Query("search"), Role: c.Query("role")}
	res, err := h.admin.ListUsers(c.Request.Context(), getActor(c), filter)
	if err != nil {
		respondError(c, "[admin][users]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Delete a user and everything it owns
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]string
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(c.Request.Context(), getActor(c), id); err != nil {
		respondError(c, "[admin][users][delete]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary      Recent events
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.EventOverview
// @Router       /admin/events [get]
func (h *AdminHandler) Events(c *gin.Context) {
	res, err := h.admin.Events(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][events]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Recent allocations
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.AllocationOverview
// @Router       /admin/allocations [get]
func (h *AdminHandler) Allocations(c *gin.Context) {
	res, err := h.admin.Allocations(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][allocations]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Recent complaints
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.ComplaintOverview
// @Router       /admin/complaints [get]
func (h *AdminHandler) Complaints(c *gin.Context) {
	res, err := h.admin.Complaints(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][complaints]", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Change a complaint status
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                     true  "Complaint ID"
// @Param        body  body      complaintStatusRequest  true  "Under Review, Escalated, Resolved or Rejected"
// @Success      200   {object}  map[string]string
// @Router       /admin/complaints/{id}/status [post]
func (h *AdminHandler) SetComplaintStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req complaintStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.admin.SetComplaintStatus(c.Request.Context(), getActor(c), id, req.Status); err != nil {
		respondError(c, "[admin][complaints][status]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Complaint status updated"})
}

// @Summary      Six-month analytics
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Analytics
// @Router       /admin/analytics [get]
func (h *AdminHandler) Analytics(c *gin.Context) {
	a, err := h.reports.Analytics(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][analytics]", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// @Summary      Analytics as a PDF impact report
// @Tags         Admin
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /admin/analytics/report.pdf [get]
func (h *AdminHandler) AnalyticsPDF(c *gin.Context) {
	a, err := h.reports.Analytics(c.Request.Context(), getActor(c))
	if err != nil {
		respondError(c, "[admin][analytics][pdf]", err)
		return
	}
	now := time.Now().UTC()
	var buf bytes.Buffer
	if err := h.docs.ImpactReport(&buf, a, now); err != nil {
		logger.Errorf("[admin][analytics][pdf] render: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render report"})
		return
	}
	filename := "impact_report_" + now.Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
