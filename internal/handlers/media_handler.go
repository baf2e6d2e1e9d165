package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"kalyana/internal/storage"
)

// MediaHandler serves stored food photos read-only.
type MediaHandler struct {
	root string
}

func NewMediaHandler(root string) *MediaHandler {
	return &MediaHandler{root: root}
}

// @Summary      Stored food photo
// @Tags         Media
// @Produce      image/jpeg
// @Param        path  path  string  true  "Relative photo path"
// @Success      200   {file}  binary
// @Router       /media/{path} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	clean := path.Clean("/" + c.Param("path"))
	if !strings.HasPrefix(clean, "/"+storage.PhotoDir+"/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	full := filepath.Join(h.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(full)
}
