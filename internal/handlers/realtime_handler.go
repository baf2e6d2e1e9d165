package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"kalyana/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

type platformUpdateMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// @Summary      Live platform updates (websocket)
// @Tags         Realtime
// @Security     BearerAuth
// @Param        token  query  string  false  "Access token when headers cannot be set"
// @Success      101
// @Router       /realtime/stream [get]
func (h *RealtimeHandler) Stream(c *gin.Context) {
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getActor(c)
	sub := h.hub.Subscribe(realtime.DefaultBuffer)
	defer h.hub.Unsubscribe(sub)
	defer conn.Close()

	logger.Infof("[realtime][stream] open user_id=%d role=%s", actor.UserID, actor.Role)
	closed := conn.Drain()
	for {
		select {
		case <-closed:
			logger.Infof("[realtime][stream] closed user_id=%d", actor.UserID)
			return
		case <-c.Request.Context().Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(platformUpdateMessage{Type: "platform_update", Payload: u}); err != nil {
				logger.Warningf("[realtime][stream] write user_id=%d: %v", actor.UserID, err)
				return
			}
		}
	}
}
