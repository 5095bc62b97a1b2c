package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lecturacritica/tutor-api/internal/dto"
	"github.com/lecturacritica/tutor-api/internal/middleware"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
}

func NewHandler(hub *Hub, verifier middleware.TokenVerifier) *Handler {
	return &Handler{hub: hub, verifier: verifier}
}

// Serve godoc
// @Summary Realtime channel
// @Description Upgrades to a websocket that receives questions_ready, questions_failed and notification events for the caller.
// @Tags Realtime
// @Param token query string true "JWT"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse
// @Router /ws [get]
func (h *Handler) Serve(c *gin.Context) {
	raw := middleware.BearerToken(c)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token requerido"})
		return
	}
	p, err := h.verifier.Verify(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Token inválido o expirado"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws.Serve: upgrade failed")
		return
	}
	h.hub.Register(p.ID, conn)
}
