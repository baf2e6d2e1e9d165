package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kalyana/internal/services"
)

type LocationHandler struct {
	geo services.Geocoder
}

func NewLocationHandler(geo services.Geocoder) *LocationHandler {
	return &LocationHandler{geo: geo}
}

// @Summary      Suggest place names
// @Tags         Location
// @Produce      json
// @Param        q      query     string  true   "Partial place name"
// @Param        limit  query     int     false  "Max suggestions (default 6)"
// @Success      200    {object}  map[string][]string
// @Router       /location/suggest [get]
func (h *LocationHandler) Suggest(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	c.JSON(http.StatusOK, gin.H{"suggestions": h.geo.Suggest(c.Request.Context(), c.Query("q"), limit)})
}

// @Summary      Geocode a place
// @Tags         Location
// @Produce      json
// @Param        q    query     string  true  "Place name"
// @Success      200  {object}  models.GeoPoint
// @Failure      404  {object}  map[string]string
// @Router       /location/geocode [get]
func (h *LocationHandler) Geocode(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	p, ok := h.geo.Resolve(c.Request.Context(), q)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}
